package giving

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"FaithGive/internal/gateway"
	"FaithGive/internal/models"
)

// SessionWindow is how long the payer has to approve the charge on their
// handset before the session expires.
const SessionWindow = 15 * time.Minute

// SettlementHook receives terminal transaction outcomes after the ledger
// has recorded them. TransactionFailed only fires for final failures;
// transient failures still inside the retry budget stay internal.
type SettlementHook interface {
	TransactionCompleted(tx *models.Transaction)
	TransactionFailed(tx *models.Transaction)
}

// SessionManager owns gateway session state. Side effects run strictly
// one way: sessions reconcile into the ledger, the ledger never reaches
// back into session state.
type SessionManager struct {
	sessions SessionRepository
	ledger   *Ledger
	charger  gateway.Charger
	hooks    []SettlementHook
	now      func() time.Time
}

func NewSessionManager(sessions SessionRepository, ledger *Ledger, charger gateway.Charger) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		ledger:   ledger,
		charger:  charger,
		now:      time.Now,
	}
}

// AddHook registers a settlement listener (scheduler, notifications).
func (m *SessionManager) AddHook(h SettlementHook) {
	m.hooks = append(m.hooks, h)
}

// SetClock overrides the manager's time source.
func (m *SessionManager) SetClock(now func() time.Time) {
	m.now = now
}

// OpenSession creates a fresh session for one charge attempt and fires
// the outbound charge. First attempts require a pending transaction;
// coordinator-driven retries arrive already in processing. If the charge
// cannot even be initiated the transaction fails immediately with a
// classified reason.
func (m *SessionManager) OpenSession(tx *models.Transaction) (*models.GatewaySession, error) {
	attempt := tx.RetryCount
	switch {
	case attempt == 0 && tx.Status == models.TransactionPending:
	case attempt > 0 && tx.Status == models.TransactionProcessing:
	default:
		return nil, fmt.Errorf("%w: cannot open session for %s transaction (attempt %d)",
			ErrInvalidTransition, tx.Status, attempt)
	}

	now := m.now()
	s := &models.GatewaySession{
		SessionID:     NewSessionID(),
		TransactionID: tx.ID,
		PhoneNumber:   tx.PhoneNumber,
		Network:       tx.Network,
		Amount:        tx.GrossAmount,
		Currency:      tx.Currency,
		Status:        models.SessionInitiated,
		Attempt:       attempt,
		ExpiresAt:     now.Add(SessionWindow),
	}
	if err := m.sessions.Create(s); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	if attempt == 0 {
		if err := m.ledger.MarkProcessing(tx.ID); err != nil {
			// Lost a race (e.g. the member cancelled between load and
			// here). Close the session so the sweep never fails a
			// transaction that was never charged.
			s.Status = models.SessionFailed
			s.RawResponse = err.Error()
			if saveErr := m.sessions.Save(s); saveErr != nil {
				log.Printf("session %s: saving aborted state: %v", s.SessionID, saveErr)
			}
			return nil, err
		}
	}

	req := gateway.ChargeRequest{
		SessionID:   s.SessionID,
		PhoneNumber: s.PhoneNumber,
		Network:     s.Network,
		Amount:      s.Amount,
		Currency:    s.Currency,
		Reference:   tx.Reference,
	}
	if err := m.charger.InitiateCharge(context.Background(), req); err != nil {
		s.Status = models.SessionFailed
		s.RawResponse = err.Error()
		if saveErr := m.sessions.Save(s); saveErr != nil {
			log.Printf("session %s: saving failed state: %v", s.SessionID, saveErr)
		}
		m.failTransaction(tx.ID, chargeReason(err))
		return nil, err
	}

	s.Status = models.SessionPending
	if err := m.sessions.Save(s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

// HandleCallback reconciles an inbound gateway report into the session
// and the ledger. Duplicate reports are no-ops; a success report whose
// gateway id conflicts with an earlier settlement surfaces as
// ErrDuplicateSettlement for the boundary to log and absorb.
func (m *SessionManager) HandleCallback(cb gateway.Callback) error {
	s, err := m.sessions.GetBySessionID(cb.SessionID)
	if err != nil {
		return fmt.Errorf("session %s: %w", cb.SessionID, err)
	}

	now := m.now()
	switch cb.Result {
	case gateway.ResultSuccess:
		first := !s.IsTerminal()
		if first {
			s.Status = models.SessionCompleted
			s.CompletedAt = &now
			s.RawResponse = cb.RawPayload
			if err := m.sessions.Save(s); err != nil {
				return fmt.Errorf("saving session %s: %w", s.SessionID, err)
			}
		}
		if err := m.ledger.MarkCompleted(s.TransactionID, cb.GatewayTxID, now, "gateway"); err != nil {
			return err
		}
		// Hooks fire once per settlement, not per webhook delivery.
		if first {
			m.fireSettled(s.TransactionID)
		}
		return nil

	case gateway.ResultFailed:
		if s.IsTerminal() {
			return nil
		}
		s.Status = models.SessionFailed
		s.RawResponse = cb.RawPayload
		if err := m.sessions.Save(s); err != nil {
			return fmt.Errorf("saving session %s: %w", s.SessionID, err)
		}
		reason := cb.Reason
		if reason == "" {
			reason = ReasonUserDeclined
		}
		m.failTransaction(s.TransactionID, reason)
		return nil

	default:
		return fmt.Errorf("unknown callback result %q for session %s", cb.Result, cb.SessionID)
	}
}

// SweepExpired expires every live session past its deadline and fails
// the backing transaction with session_expired, unless the transaction
// already settled. Safe to run repeatedly: the condition is recomputed
// against now and expired sessions drop out of the candidate set.
func (m *SessionManager) SweepExpired(now time.Time) (int, error) {
	expired, err := m.sessions.ListExpired(now)
	if err != nil {
		return 0, fmt.Errorf("listing expired sessions: %w", err)
	}

	swept := 0
	for i := range expired {
		s := &expired[i]
		s.Status = models.SessionExpired
		if err := m.sessions.Save(s); err != nil {
			log.Printf("sweep: saving session %s: %v", s.SessionID, err)
			continue
		}
		m.failTransaction(s.TransactionID, ReasonSessionExpired)
		swept++
	}
	return swept, nil
}

// failTransaction records the failure and fans out the final-failure
// hooks. A transaction already terminal is left alone.
func (m *SessionManager) failTransaction(txID uint, reason string) {
	err := m.ledger.MarkFailed(txID, reason)
	if err != nil {
		if !errors.Is(err, ErrInvalidTransition) {
			log.Printf("failing transaction %d: %v", txID, err)
		}
		return
	}

	tx, err := m.ledger.Get(txID)
	if err != nil {
		log.Printf("loading transaction %d after failure: %v", txID, err)
		return
	}
	if !IsFinalFailure(tx) {
		return
	}
	for _, h := range m.hooks {
		h.TransactionFailed(tx)
	}
}

func (m *SessionManager) fireSettled(txID uint) {
	tx, err := m.ledger.Get(txID)
	if err != nil {
		log.Printf("loading transaction %d after settlement: %v", txID, err)
		return
	}
	for _, h := range m.hooks {
		h.TransactionCompleted(tx)
	}
}

// chargeReason maps a charge initiation error to a recorded failure
// reason. Anything unclassified counts as a network error, which is
// transient and therefore retried.
func chargeReason(err error) string {
	var ce *gateway.ChargeError
	if errors.As(err, &ce) && ce.Reason != "" {
		return ce.Reason
	}
	return ReasonNetworkError
}
