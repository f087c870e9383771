package giving

import (
	"log"
	"time"

	"FaithGive/internal/models"
)

// MaxRetryAttempts caps gateway retries per transaction. After the third
// attempt the transaction stays failed permanently.
const MaxRetryAttempts = 3

// Backoff returns the delay before the given attempt number (1-based)
// and whether that attempt is allowed at all.
func Backoff(attempt int) (time.Duration, bool) {
	switch attempt {
	case 1:
		return 1 * time.Minute, true
	case 2:
		return 5 * time.Minute, true
	case 3:
		return 30 * time.Minute, true
	default:
		return 0, false
	}
}

// ShouldRetry decides whether a failed transaction may be retried and
// when. Pure: no clock reads, no persistence.
func ShouldRetry(tx *models.Transaction, now time.Time) (bool, time.Time) {
	if tx.Status != models.TransactionFailed {
		return false, time.Time{}
	}
	if !IsTransient(tx.FailureReason) {
		return false, time.Time{}
	}
	delay, ok := Backoff(tx.RetryCount + 1)
	if !ok {
		return false, time.Time{}
	}
	return true, now.Add(delay)
}

// IsFinalFailure reports whether a failed transaction is done for good:
// either the reason is not retryable or the retry budget is spent.
func IsFinalFailure(tx *models.Transaction) bool {
	if tx.Status != models.TransactionFailed {
		return false
	}
	if !IsTransient(tx.FailureReason) {
		return true
	}
	return tx.RetryCount >= MaxRetryAttempts
}

// RetryCoordinator pumps due retries back through the pipeline. Each
// retry re-binds the same transaction id to a brand-new gateway session.
type RetryCoordinator struct {
	transactions TransactionRepository
	ledger       *Ledger
	sessions     *SessionManager
}

func NewRetryCoordinator(transactions TransactionRepository, ledger *Ledger, sessions *SessionManager) *RetryCoordinator {
	return &RetryCoordinator{
		transactions: transactions,
		ledger:       ledger,
		sessions:     sessions,
	}
}

// ProcessDue re-opens sessions for failed transactions whose backoff has
// elapsed. Returns how many retries were started. Individual failures are
// logged and skipped; the next pump picks them up again.
func (c *RetryCoordinator) ProcessDue(now time.Time) int {
	due, err := c.transactions.ListRetryDue(now)
	if err != nil {
		log.Printf("retry: listing due transactions: %v", err)
		return 0
	}

	started := 0
	for i := range due {
		tx := &due[i]
		if ok, _ := ShouldRetry(tx, now); !ok {
			continue
		}

		retried, err := c.ledger.MarkRetrying(tx.ID)
		if err != nil {
			log.Printf("retry: transaction %s: %v", tx.Reference, err)
			continue
		}

		if _, err := c.sessions.OpenSession(retried); err != nil {
			// OpenSession already failed the transaction with a
			// classified reason; the next pump decides whether it
			// gets another attempt.
			log.Printf("retry: reopening session for %s: %v", tx.Reference, err)
			continue
		}
		started++
	}
	return started
}
