package giving_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FaithGive/internal/gateway"
	"FaithGive/internal/giving"
	"FaithGive/internal/models"
	"FaithGive/internal/repository"
)

const (
	methodMomo = 1
	methodBank = 2
	methodCash = 3

	categoryTithe = 1

	memberAma = 7
)

// Phone suffixes understood by the mock charger.
const (
	phoneOK       = "233200002222"
	phoneDeclined = "233200000000"
	phoneBusy     = "233200001111"
)

type core struct {
	store     *repository.MemoryStore
	charger   *gateway.MockCharger
	ledger    *giving.Ledger
	sessions  *giving.SessionManager
	retry     *giving.RetryCoordinator
	scheduler *giving.Scheduler
	hook      *captureHook
	notifier  *capturePlanNotifier
	clock     *fakeClock
}

// fakeClock is the session manager's time source in tests, so settlement
// timestamps line up with the tick times the tests drive.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = t
}

// setNow pins the settlement clock to the given instant.
func (c *core) setNow(t time.Time) {
	c.clock.Set(t)
}

// newCore wires the whole giving pipeline onto the in-memory store and
// the deterministic mock charger, mirroring the production wiring.
func newCore(t *testing.T) *core {
	t.Helper()

	store := repository.NewMemoryStore()
	store.AddMethod(models.PaymentMethod{
		ID: methodMomo, Code: "momo", Name: "Mobile Money", Currency: "GHS",
		RequiresGatewaySession: true,
		FeeBps:                 100,
		MinAmount:              100, MaxAmount: 1000000,
		IsActive: true,
	})
	store.AddMethod(models.PaymentMethod{
		ID: methodBank, Code: "bank", Name: "Bank Transfer", Currency: "GHS",
		RequiresAccountNumber: true,
		MinAmount:             100,
		IsActive:              true,
	})
	store.AddMethod(models.PaymentMethod{
		ID: methodCash, Code: "cash", Name: "Cash", Currency: "GHS",
		MinAmount: 1,
		IsActive:  true,
	})
	store.AddCategory(models.GivingCategory{
		ID: categoryTithe, Code: "tithe", Name: "Tithe", IsActive: true,
	})

	charger := gateway.NewMockCharger()
	ledger := giving.NewLedger(store.Transactions(), store.Methods(), store.Categories())
	sessions := giving.NewSessionManager(store.Sessions(), ledger, charger)
	clock := &fakeClock{t: time.Now()}
	sessions.SetClock(clock.Now)
	retry := giving.NewRetryCoordinator(store.Transactions(), ledger, sessions)
	notifier := &capturePlanNotifier{}
	scheduler := giving.NewScheduler(store.Plans(), store.Methods(), ledger, sessions, notifier)

	hook := &captureHook{}
	sessions.AddHook(scheduler)
	sessions.AddHook(hook)

	return &core{
		store:     store,
		charger:   charger,
		ledger:    ledger,
		sessions:  sessions,
		retry:     retry,
		scheduler: scheduler,
		hook:      hook,
		notifier:  notifier,
		clock:     clock,
	}
}

// newGift creates a pending momo gift of the given gross amount.
func (c *core) newGift(t *testing.T, amount int64, phone string) *models.Transaction {
	t.Helper()

	tx, err := c.ledger.Create(giving.CreateInput{
		MemberID:    memberAma,
		MethodID:    methodMomo,
		CategoryID:  categoryTithe,
		Amount:      amount,
		PhoneNumber: phone,
		Network:     "mtn",
		CreatedBy:   "test",
	})
	require.NoError(t, err)
	return tx
}

// lastSessionID returns the session id of the most recent charge
// request the mock charger saw.
func (c *core) lastSessionID(t *testing.T) string {
	t.Helper()

	calls := c.charger.Calls()
	require.NotEmpty(t, calls)
	return calls[len(calls)-1].SessionID
}

type captureHook struct {
	mu        sync.Mutex
	completed []models.Transaction
	failed    []models.Transaction
}

func (h *captureHook) TransactionCompleted(tx *models.Transaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed = append(h.completed, *tx)
}

func (h *captureHook) TransactionFailed(tx *models.Transaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failed = append(h.failed, *tx)
}

func (h *captureHook) completedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.completed)
}

func (h *captureHook) failedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.failed)
}

type capturePlanNotifier struct {
	mu           sync.Mutex
	paused       []string // pause reasons, in order
	completedIDs []uint
}

func (n *capturePlanNotifier) PlanPaused(p *models.RecurringPlan, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paused = append(n.paused, reason)
}

func (n *capturePlanNotifier) PlanCompleted(p *models.RecurringPlan) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completedIDs = append(n.completedIDs, p.ID)
}
