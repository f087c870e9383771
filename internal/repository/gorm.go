package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"FaithGive/internal/giving"
	"FaithGive/internal/models"
)

// GORM-backed repositories. These are the production adapters behind the
// ports in internal/giving.

type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(tx *models.Transaction) error {
	return r.db.Create(tx).Error
}

func (r *GormTransactionRepository) Save(tx *models.Transaction) error {
	return r.db.Save(tx).Error
}

func (r *GormTransactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.First(&tx, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction %d: %w", id, giving.ErrNotFound)
		}
		return nil, err
	}
	return &tx, nil
}

func (r *GormTransactionRepository) GetByReference(reference string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.Where("reference = ?", reference).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction %s: %w", reference, giving.ErrNotFound)
		}
		return nil, err
	}
	return &tx, nil
}

func (r *GormTransactionRepository) ListByMember(memberID uint, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	q := r.db.Where("member_id = ?", memberID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *GormTransactionRepository) ListRetryDue(now time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", models.TransactionFailed, now).
		Order("next_retry_at ASC").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *GormTransactionRepository) SumRefunds(originalTxID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Transaction{}).
		Where("original_tx_id = ? AND type = ? AND status NOT IN ?",
			originalTxID, models.TransactionRefund,
			[]models.TransactionStatus{models.TransactionFailed, models.TransactionCancelled}).
		Select("COALESCE(SUM(gross_amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormTransactionRepository) HasOpenForPlan(planID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).
		Where("plan_id = ? AND (status IN ? OR (status = ? AND next_retry_at IS NOT NULL))",
			planID,
			[]models.TransactionStatus{models.TransactionPending, models.TransactionProcessing},
			models.TransactionFailed).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type GormSessionRepository struct {
	db *gorm.DB
}

func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Create(s *models.GatewaySession) error {
	return r.db.Create(s).Error
}

func (r *GormSessionRepository) Save(s *models.GatewaySession) error {
	return r.db.Save(s).Error
}

func (r *GormSessionRepository) GetBySessionID(sessionID string) (*models.GatewaySession, error) {
	var s models.GatewaySession
	if err := r.db.Where("session_id = ?", sessionID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, giving.ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepository) ListExpired(now time.Time) ([]models.GatewaySession, error) {
	var sessions []models.GatewaySession
	err := r.db.
		Where("status IN ? AND expires_at < ?",
			[]models.SessionStatus{models.SessionInitiated, models.SessionPending}, now).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

type GormPlanRepository struct {
	db *gorm.DB
}

func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

func (r *GormPlanRepository) Create(p *models.RecurringPlan) error {
	return r.db.Create(p).Error
}

func (r *GormPlanRepository) Save(p *models.RecurringPlan) error {
	return r.db.Save(p).Error
}

func (r *GormPlanRepository) GetByID(id uint) (*models.RecurringPlan, error) {
	var p models.RecurringPlan
	if err := r.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("plan %d: %w", id, giving.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormPlanRepository) ListByMember(memberID uint) ([]models.RecurringPlan, error) {
	var plans []models.RecurringPlan
	if err := r.db.Where("member_id = ?", memberID).Order("created_at DESC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *GormPlanRepository) ListDue(now time.Time) ([]models.RecurringPlan, error) {
	var plans []models.RecurringPlan
	err := r.db.
		Where("is_active = ? AND status = ? AND next_due_date <= ?", true, models.PlanActive, now).
		Order("next_due_date ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

type GormMethodRepository struct {
	db *gorm.DB
}

func NewGormMethodRepository(db *gorm.DB) *GormMethodRepository {
	return &GormMethodRepository{db: db}
}

func (r *GormMethodRepository) GetByID(id uint) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	if err := r.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment method %d: %w", id, giving.ErrNotFound)
		}
		return nil, err
	}
	return &m, nil
}

type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) GetByID(id uint) (*models.GivingCategory, error) {
	var c models.GivingCategory
	if err := r.db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("giving category %d: %w", id, giving.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}
