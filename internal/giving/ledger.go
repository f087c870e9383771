package giving

import (
	"fmt"
	"sync"
	"time"

	"FaithGive/internal/models"
)

// CreateInput carries everything needed to open a new payment
// transaction. Amount is gross, in minor currency units.
type CreateInput struct {
	MemberID    uint
	MethodID    uint
	CategoryID  uint
	Amount      int64
	Description string
	PhoneNumber string
	Network     string
	PlanID      *uint
	CreatedBy   string
}

// Ledger owns the transaction state machine. It is the sole writer of
// transaction rows; every mutation of one transaction is serialized on a
// per-id mutex so the machine's edges cannot race each other.
type Ledger struct {
	transactions TransactionRepository
	methods      MethodRepository
	categories   CategoryRepository

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewLedger(transactions TransactionRepository, methods MethodRepository, categories CategoryRepository) *Ledger {
	return &Ledger{
		transactions: transactions,
		methods:      methods,
		categories:   categories,
		locks:        make(map[uint]*sync.Mutex),
	}
}

// lock returns the single-writer mutex for one transaction id.
func (l *Ledger) lock(txID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[txID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[txID] = m
	}
	return m
}

// Create validates the request against the method's limits, prices it
// through the fee policy and opens a pending transaction.
func (l *Ledger) Create(in CreateInput) (*models.Transaction, error) {
	method, err := l.methods.GetByID(in.MethodID)
	if err != nil {
		return nil, fmt.Errorf("loading method %d: %w", in.MethodID, err)
	}
	if !method.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrMethodInactive, method.Code)
	}

	category, err := l.categories.GetByID(in.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("loading category %d: %w", in.CategoryID, err)
	}
	if !category.IsActive {
		return nil, fmt.Errorf("%w: category %s is inactive", ErrInvalidAmount, category.Code)
	}

	fee, net, err := ComputeFee(method, in.Amount)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		Reference:     NewReference("GIV"),
		MemberID:      in.MemberID,
		MethodID:      in.MethodID,
		CategoryID:    in.CategoryID,
		PlanID:        in.PlanID,
		Type:          models.TransactionPayment,
		GrossAmount:   in.Amount,
		FeeAmount:     fee,
		NetAmount:     net,
		Currency:      method.Currency,
		Status:        models.TransactionPending,
		PaymentStatus: models.PaymentPending,
		Description:   in.Description,
		PhoneNumber:   in.PhoneNumber,
		Network:       in.Network,
		CreatedBy:     in.CreatedBy,
	}

	if err := l.transactions.Create(tx); err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}
	return tx, nil
}

// MarkProcessing moves a pending transaction into processing once a
// charge attempt is underway.
func (l *Ledger) MarkProcessing(txID uint) error {
	m := l.lock(txID)
	m.Lock()
	defer m.Unlock()

	tx, err := l.transactions.GetByID(txID)
	if err != nil {
		return err
	}
	if tx.Status != models.TransactionPending {
		return fmt.Errorf("%w: %s -> processing", ErrInvalidTransition, tx.Status)
	}

	tx.Status = models.TransactionProcessing
	tx.PaymentStatus = models.PaymentAuthorized
	return l.transactions.Save(tx)
}

// MarkCompleted settles a processing transaction. Calling it again with
// the same gateway id is a no-op; a different id is a conflict.
func (l *Ledger) MarkCompleted(txID uint, gatewayTxID string, processedAt time.Time, processedBy string) error {
	m := l.lock(txID)
	m.Lock()
	defer m.Unlock()

	tx, err := l.transactions.GetByID(txID)
	if err != nil {
		return err
	}

	if tx.Status == models.TransactionCompleted {
		if tx.GatewayTxID == gatewayTxID {
			return nil
		}
		return fmt.Errorf("%w: transaction %s settled as %s, got %s",
			ErrDuplicateSettlement, tx.Reference, tx.GatewayTxID, gatewayTxID)
	}
	if tx.Status != models.TransactionProcessing {
		return fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, tx.Status)
	}

	tx.Status = models.TransactionCompleted
	tx.PaymentStatus = models.PaymentCaptured
	tx.GatewayTxID = gatewayTxID
	tx.ProcessedAt = &processedAt
	tx.ProcessedBy = processedBy
	tx.FailureReason = ""
	tx.NextRetryAt = nil
	return l.transactions.Save(tx)
}

// MarkFailed records a failure and, for transient reasons with budget
// left, stamps the next retry time for the coordinator to pick up.
func (l *Ledger) MarkFailed(txID uint, reason string) error {
	m := l.lock(txID)
	m.Lock()
	defer m.Unlock()

	tx, err := l.transactions.GetByID(txID)
	if err != nil {
		return err
	}
	if tx.Status != models.TransactionPending && tx.Status != models.TransactionProcessing {
		return fmt.Errorf("%w: %s -> failed", ErrInvalidTransition, tx.Status)
	}

	now := time.Now()
	tx.Status = models.TransactionFailed
	tx.PaymentStatus = models.PaymentFailed
	tx.FailureReason = reason
	tx.FailedAt = &now
	tx.NextRetryAt = nil
	if ok, nextAt := ShouldRetry(tx, now); ok {
		tx.NextRetryAt = &nextAt
	}
	return l.transactions.Save(tx)
}

// MarkRetrying is the single sanctioned re-entry edge: failed back to
// processing, only for transient reasons with attempts remaining, and
// only the retry coordinator calls it. Increments the retry count.
func (l *Ledger) MarkRetrying(txID uint) (*models.Transaction, error) {
	m := l.lock(txID)
	m.Lock()
	defer m.Unlock()

	tx, err := l.transactions.GetByID(txID)
	if err != nil {
		return nil, err
	}
	if tx.Status != models.TransactionFailed {
		return nil, fmt.Errorf("%w: %s -> processing (retry)", ErrInvalidTransition, tx.Status)
	}
	if !IsTransient(tx.FailureReason) {
		return nil, fmt.Errorf("%w: reason %q is not retryable", ErrInvalidTransition, tx.FailureReason)
	}
	if tx.RetryCount >= MaxRetryAttempts {
		return nil, fmt.Errorf("%w: retry budget exhausted", ErrInvalidTransition)
	}

	tx.RetryCount++
	tx.Status = models.TransactionProcessing
	tx.PaymentStatus = models.PaymentAuthorized
	tx.NextRetryAt = nil
	if err := l.transactions.Save(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// MarkCancelled abandons a pending transaction that never reached the
// gateway (e.g. a manual gift withdrawn before the clerk confirmed it).
func (l *Ledger) MarkCancelled(txID uint, cancelledBy string) error {
	m := l.lock(txID)
	m.Lock()
	defer m.Unlock()

	tx, err := l.transactions.GetByID(txID)
	if err != nil {
		return err
	}
	if tx.Status != models.TransactionPending {
		return fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, tx.Status)
	}

	tx.Status = models.TransactionCancelled
	tx.PaymentStatus = models.PaymentCancelled
	tx.ProcessedBy = cancelledBy
	return l.transactions.Save(tx)
}

// Refund opens a refund transaction against a completed original. The
// cumulative refunded amount can never exceed the original's net; the
// check runs under the original's writer lock so concurrent refund
// requests serialize.
func (l *Ledger) Refund(originalTxID uint, amount int64, requestedBy string) (*models.Transaction, error) {
	m := l.lock(originalTxID)
	m.Lock()
	defer m.Unlock()

	original, err := l.transactions.GetByID(originalTxID)
	if err != nil {
		return nil, err
	}
	if original.Type != models.TransactionPayment || original.Status != models.TransactionCompleted {
		return nil, fmt.Errorf("%w: only completed payments can be refunded", ErrInvalidTransition)
	}
	if amount < 1 {
		return nil, fmt.Errorf("%w: refund amount must be at least 1 minor unit", ErrInvalidAmount)
	}

	refunded, err := l.transactions.SumRefunds(originalTxID)
	if err != nil {
		return nil, fmt.Errorf("summing refunds for %s: %w", original.Reference, err)
	}
	if refunded+amount > original.NetAmount {
		return nil, fmt.Errorf("%w: %d already refunded of net %d",
			ErrRefundExceedsOriginal, refunded, original.NetAmount)
	}

	refund := &models.Transaction{
		Reference:     NewReference("RFD"),
		MemberID:      original.MemberID,
		MethodID:      original.MethodID,
		CategoryID:    original.CategoryID,
		Type:          models.TransactionRefund,
		OriginalTxID:  &original.ID,
		GrossAmount:   amount,
		FeeAmount:     0,
		NetAmount:     amount,
		Currency:      original.Currency,
		Status:        models.TransactionPending,
		PaymentStatus: models.PaymentPending,
		Description:   fmt.Sprintf("Refund of %s", original.Reference),
		PhoneNumber:   original.PhoneNumber,
		Network:       original.Network,
		CreatedBy:     requestedBy,
	}
	if err := l.transactions.Create(refund); err != nil {
		return nil, fmt.Errorf("creating refund: %w", err)
	}
	return refund, nil
}

func (l *Ledger) Get(txID uint) (*models.Transaction, error) {
	return l.transactions.GetByID(txID)
}

func (l *Ledger) GetByReference(reference string) (*models.Transaction, error) {
	return l.transactions.GetByReference(reference)
}

// HasOpenForPlan reports whether the plan already has a transaction in
// flight (pending, processing, or awaiting a scheduled retry).
func (l *Ledger) HasOpenForPlan(planID uint) (bool, error) {
	return l.transactions.HasOpenForPlan(planID)
}
