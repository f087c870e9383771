package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"FaithGive/internal/giving"
	"FaithGive/internal/models"
)

// In-memory repositories. Deterministic adapters behind the same ports
// as the GORM ones; the test suites run entirely on these.

type MemoryStore struct {
	mu sync.Mutex

	transactions map[uint]models.Transaction
	sessions     map[uint]models.GatewaySession
	plans        map[uint]models.RecurringPlan
	methods      map[uint]models.PaymentMethod
	categories   map[uint]models.GivingCategory

	nextTxID      uint
	nextSessionID uint
	nextPlanID    uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[uint]models.Transaction),
		sessions:     make(map[uint]models.GatewaySession),
		plans:        make(map[uint]models.RecurringPlan),
		methods:      make(map[uint]models.PaymentMethod),
		categories:   make(map[uint]models.GivingCategory),
	}
}

// Seed helpers for config records.

func (s *MemoryStore) AddMethod(m models.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[m.ID] = m
}

func (s *MemoryStore) AddCategory(c models.GivingCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

func (s *MemoryStore) Transactions() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{store: s}
}

func (s *MemoryStore) Sessions() *MemorySessionRepository {
	return &MemorySessionRepository{store: s}
}

func (s *MemoryStore) Plans() *MemoryPlanRepository {
	return &MemoryPlanRepository{store: s}
}

func (s *MemoryStore) Methods() *MemoryMethodRepository {
	return &MemoryMethodRepository{store: s}
}

func (s *MemoryStore) Categories() *MemoryCategoryRepository {
	return &MemoryCategoryRepository{store: s}
}

type MemoryTransactionRepository struct {
	store *MemoryStore
}

func (r *MemoryTransactionRepository) Create(tx *models.Transaction) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTxID++
	tx.ID = s.nextTxID
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	s.transactions[tx.ID] = *tx
	return nil
}

func (r *MemoryTransactionRepository) Save(tx *models.Transaction) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[tx.ID]; !ok {
		return fmt.Errorf("transaction %d: %w", tx.ID, giving.ErrNotFound)
	}
	tx.UpdatedAt = time.Now()
	s.transactions[tx.ID] = *tx
	return nil
}

func (r *MemoryTransactionRepository) GetByID(id uint) (*models.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %d: %w", id, giving.ErrNotFound)
	}
	return &tx, nil
}

func (r *MemoryTransactionRepository) GetByReference(reference string) (*models.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.transactions {
		if tx.Reference == reference {
			out := tx
			return &out, nil
		}
	}
	return nil, fmt.Errorf("transaction %s: %w", reference, giving.ErrNotFound)
}

func (r *MemoryTransactionRepository) ListByMember(memberID uint, limit int) ([]models.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, tx := range s.transactions {
		if tx.MemberID == memberID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryTransactionRepository) ListRetryDue(now time.Time) ([]models.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, tx := range s.transactions {
		if tx.Status == models.TransactionFailed && tx.NextRetryAt != nil && !tx.NextRetryAt.After(now) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRetryAt.Before(*out[j].NextRetryAt) })
	return out, nil
}

func (r *MemoryTransactionRepository) SumRefunds(originalTxID uint) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, tx := range s.transactions {
		if tx.Type != models.TransactionRefund || tx.OriginalTxID == nil || *tx.OriginalTxID != originalTxID {
			continue
		}
		if tx.Status == models.TransactionFailed || tx.Status == models.TransactionCancelled {
			continue
		}
		total += tx.GrossAmount
	}
	return total, nil
}

func (r *MemoryTransactionRepository) HasOpenForPlan(planID uint) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.transactions {
		if tx.PlanID == nil || *tx.PlanID != planID {
			continue
		}
		switch tx.Status {
		case models.TransactionPending, models.TransactionProcessing:
			return true, nil
		case models.TransactionFailed:
			if tx.NextRetryAt != nil {
				return true, nil
			}
		}
	}
	return false, nil
}

type MemorySessionRepository struct {
	store *MemoryStore
}

func (r *MemorySessionRepository) Create(sess *models.GatewaySession) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSessionID++
	sess.ID = s.nextSessionID
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	s.sessions[sess.ID] = *sess
	return nil
}

func (r *MemorySessionRepository) Save(sess *models.GatewaySession) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return fmt.Errorf("session %d: %w", sess.ID, giving.ErrNotFound)
	}
	sess.UpdatedAt = time.Now()
	s.sessions[sess.ID] = *sess
	return nil
}

func (r *MemorySessionRepository) GetBySessionID(sessionID string) (*models.GatewaySession, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.SessionID == sessionID {
			out := sess
			return &out, nil
		}
	}
	return nil, fmt.Errorf("session %s: %w", sessionID, giving.ErrNotFound)
}

func (r *MemorySessionRepository) ListExpired(now time.Time) ([]models.GatewaySession, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GatewaySession
	for _, sess := range s.sessions {
		live := sess.Status == models.SessionInitiated || sess.Status == models.SessionPending
		if live && sess.ExpiresAt.Before(now) {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type MemoryPlanRepository struct {
	store *MemoryStore
}

func (r *MemoryPlanRepository) Create(p *models.RecurringPlan) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPlanID++
	p.ID = s.nextPlanID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.plans[p.ID] = *p
	return nil
}

func (r *MemoryPlanRepository) Save(p *models.RecurringPlan) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[p.ID]; !ok {
		return fmt.Errorf("plan %d: %w", p.ID, giving.ErrNotFound)
	}
	p.UpdatedAt = time.Now()
	s.plans[p.ID] = *p
	return nil
}

func (r *MemoryPlanRepository) GetByID(id uint) (*models.RecurringPlan, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %d: %w", id, giving.ErrNotFound)
	}
	return &p, nil
}

func (r *MemoryPlanRepository) ListByMember(memberID uint) ([]models.RecurringPlan, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RecurringPlan
	for _, p := range s.plans {
		if p.MemberID == memberID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryPlanRepository) ListDue(now time.Time) ([]models.RecurringPlan, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RecurringPlan
	for _, p := range s.plans {
		if p.IsActive && p.Status == models.PlanActive && !p.NextDueDate.After(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextDueDate.Before(out[j].NextDueDate) })
	return out, nil
}

type MemoryMethodRepository struct {
	store *MemoryStore
}

func (r *MemoryMethodRepository) GetByID(id uint) (*models.PaymentMethod, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.methods[id]
	if !ok {
		return nil, fmt.Errorf("payment method %d: %w", id, giving.ErrNotFound)
	}
	return &m, nil
}

type MemoryCategoryRepository struct {
	store *MemoryStore
}

func (r *MemoryCategoryRepository) GetByID(id uint) (*models.GivingCategory, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("giving category %d: %w", id, giving.ErrNotFound)
	}
	return &c, nil
}
