package giving

import (
	"fmt"
	"log"
	"time"

	"FaithGive/internal/models"
)

// MaxConsecutiveFailures is how many failed cycles a plan survives
// before it auto-pauses and the payer is told why.
const MaxConsecutiveFailures = 3

// PlanNotifier receives plan lifecycle events for the notification
// fan-out.
type PlanNotifier interface {
	PlanPaused(p *models.RecurringPlan, reason string)
	PlanCompleted(p *models.RecurringPlan)
}

// Scheduler materializes due recurring plans into transactions and
// advances plan state on settlement. It is the sole writer of plan rows
// and the sole creator of plan-spawned transactions.
type Scheduler struct {
	plans    PlanRepository
	methods  MethodRepository
	ledger   *Ledger
	sessions *SessionManager
	notifier PlanNotifier
}

func NewScheduler(plans PlanRepository, methods MethodRepository, ledger *Ledger, sessions *SessionManager, notifier PlanNotifier) *Scheduler {
	return &Scheduler{
		plans:    plans,
		methods:  methods,
		ledger:   ledger,
		sessions: sessions,
		notifier: notifier,
	}
}

// Tick runs one scheduling pass: every active plan whose due date has
// passed either terminates (end date / max occurrences reached) or
// spawns a transaction through the normal giving pipeline. Settlement
// arrives later via the hooks, never inside the tick.
func (s *Scheduler) Tick(now time.Time) int {
	due, err := s.plans.ListDue(now)
	if err != nil {
		log.Printf("scheduler: listing due plans: %v", err)
		return 0
	}

	spawned := 0
	for i := range due {
		p := &due[i]

		if p.EndDate != nil && p.EndDate.Before(now) {
			s.complete(p)
			continue
		}
		if p.MaxOccurrences > 0 && p.OccurrencesSoFar >= p.MaxOccurrences {
			s.complete(p)
			continue
		}

		// The previous cycle's charge may still be on the payer's
		// handset or waiting on a retry; spawning another transaction
		// for the same cycle would double-charge them.
		open, err := s.ledger.HasOpenForPlan(p.ID)
		if err != nil {
			log.Printf("scheduler: plan %d: checking open transactions: %v", p.ID, err)
			continue
		}
		if open {
			continue
		}

		if err := s.charge(p); err != nil {
			log.Printf("scheduler: plan %d: %v", p.ID, err)
			continue
		}
		spawned++
	}
	return spawned
}

// charge spawns one transaction for the plan's current cycle.
func (s *Scheduler) charge(p *models.RecurringPlan) error {
	planID := p.ID
	tx, err := s.ledger.Create(CreateInput{
		MemberID:    p.MemberID,
		MethodID:    p.MethodID,
		CategoryID:  p.CategoryID,
		Amount:      p.Amount,
		Description: fmt.Sprintf("Recurring %s gift", p.Frequency),
		PhoneNumber: p.PhoneNumber,
		Network:     p.Network,
		PlanID:      &planID,
		CreatedBy:   "scheduler",
	})
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	method, err := s.methods.GetByID(p.MethodID)
	if err != nil {
		return fmt.Errorf("loading method: %w", err)
	}
	if !method.RequiresGatewaySession {
		// Manual rails (standing bank order, pledged cash) stay
		// pending until a clerk confirms them.
		return nil
	}

	if _, err := s.sessions.OpenSession(tx); err != nil {
		// The session manager already failed the transaction and ran
		// the failure hooks; nothing more to do this tick.
		return fmt.Errorf("opening session: %w", err)
	}
	return nil
}

// TransactionCompleted advances the plan after a successful cycle. The
// next due date steps in whole periods from the previous due date, never
// from the settlement time, so a delayed tick cannot shift the cadence;
// it always lands strictly after the payment date.
func (s *Scheduler) TransactionCompleted(tx *models.Transaction) {
	if tx.PlanID == nil {
		return
	}
	p, err := s.plans.GetByID(*tx.PlanID)
	if err != nil {
		log.Printf("scheduler: loading plan %d: %v", *tx.PlanID, err)
		return
	}
	if p.Status != models.PlanActive {
		return
	}

	paidAt := time.Now()
	if tx.ProcessedAt != nil {
		paidAt = *tx.ProcessedAt
	}

	p.OccurrencesSoFar++
	p.LastPaymentDate = &paidAt
	p.FailureCount = 0

	// A cycle that settled several periods late (outage, long pause)
	// must not leave the next due date in the past, or every missed
	// period would charge back to back on the following ticks. Keep
	// stepping whole periods so the anchor day is preserved.
	next := NextDue(p.Frequency, p.NextDueDate)
	for !next.After(paidAt) {
		next = NextDue(p.Frequency, next)
	}
	p.NextDueDate = next

	if p.MaxOccurrences > 0 && p.OccurrencesSoFar >= p.MaxOccurrences {
		if err := s.plans.Save(p); err != nil {
			log.Printf("scheduler: saving plan %d: %v", p.ID, err)
			return
		}
		s.complete(p)
		return
	}
	if err := s.plans.Save(p); err != nil {
		log.Printf("scheduler: saving plan %d: %v", p.ID, err)
	}
}

// TransactionFailed counts a failed cycle and pauses the plan after
// three in a row. The due date stays put so the next tick retries the
// same cycle.
func (s *Scheduler) TransactionFailed(tx *models.Transaction) {
	if tx.PlanID == nil {
		return
	}
	p, err := s.plans.GetByID(*tx.PlanID)
	if err != nil {
		log.Printf("scheduler: loading plan %d: %v", *tx.PlanID, err)
		return
	}
	if p.Status != models.PlanActive {
		return
	}

	p.FailureCount++
	if p.FailureCount >= MaxConsecutiveFailures {
		p.Status = models.PlanPaused
		p.IsActive = false
		if err := s.plans.Save(p); err != nil {
			log.Printf("scheduler: saving plan %d: %v", p.ID, err)
			return
		}
		if s.notifier != nil {
			s.notifier.PlanPaused(p, fmt.Sprintf("%d consecutive failed attempts", p.FailureCount))
		}
		return
	}
	if err := s.plans.Save(p); err != nil {
		log.Printf("scheduler: saving plan %d: %v", p.ID, err)
	}
}

func (s *Scheduler) complete(p *models.RecurringPlan) {
	p.Status = models.PlanCompleted
	p.IsActive = false
	if err := s.plans.Save(p); err != nil {
		log.Printf("scheduler: completing plan %d: %v", p.ID, err)
		return
	}
	if s.notifier != nil {
		s.notifier.PlanCompleted(p)
	}
}

// NextDue adds one period to the previous due date. Month-based periods
// are calendar arithmetic: Jan 31 + 1 month clamps to the last day of
// February rather than spilling into March.
func NextDue(freq models.PlanFrequency, from time.Time) time.Time {
	switch freq {
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		return addMonthsClamped(from, 1)
	case models.FrequencyQuarterly:
		return addMonthsClamped(from, 3)
	case models.FrequencyYearly:
		return addMonthsClamped(from, 12)
	default:
		return addMonthsClamped(from, 1)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
