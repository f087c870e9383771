package giving

import (
	"time"

	"FaithGive/internal/models"
)

// Repositories are the only persistence surface the core touches. The
// GORM adapters in internal/repository back them in production; the
// in-memory adapters back them in tests.

type TransactionRepository interface {
	Create(tx *models.Transaction) error
	Save(tx *models.Transaction) error
	GetByID(id uint) (*models.Transaction, error)
	GetByReference(reference string) (*models.Transaction, error)
	ListByMember(memberID uint, limit int) ([]models.Transaction, error)
	// ListRetryDue returns failed transactions whose next_retry_at has
	// passed, oldest first.
	ListRetryDue(now time.Time) ([]models.Transaction, error)
	// SumRefunds returns the cumulative gross of completed and in-flight
	// refund rows pointing at the original.
	SumRefunds(originalTxID uint) (int64, error)
	// HasOpenForPlan reports whether the plan has a transaction still
	// working through the pipeline: pending, processing, or failed with
	// a retry still scheduled.
	HasOpenForPlan(planID uint) (bool, error)
}

type SessionRepository interface {
	Create(s *models.GatewaySession) error
	Save(s *models.GatewaySession) error
	GetBySessionID(sessionID string) (*models.GatewaySession, error)
	// ListExpired returns non-terminal sessions whose expires_at has
	// passed.
	ListExpired(now time.Time) ([]models.GatewaySession, error)
}

type PlanRepository interface {
	Create(p *models.RecurringPlan) error
	Save(p *models.RecurringPlan) error
	GetByID(id uint) (*models.RecurringPlan, error)
	ListByMember(memberID uint) ([]models.RecurringPlan, error)
	// ListDue returns active plans with next_due_date <= now.
	ListDue(now time.Time) ([]models.RecurringPlan, error)
}

type MethodRepository interface {
	GetByID(id uint) (*models.PaymentMethod, error)
}

type CategoryRepository interface {
	GetByID(id uint) (*models.GivingCategory, error)
}
