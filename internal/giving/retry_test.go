package giving_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FaithGive/internal/gateway"
	"FaithGive/internal/giving"
	"FaithGive/internal/models"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
		allowed bool
	}{
		{attempt: 1, want: 1 * time.Minute, allowed: true},
		{attempt: 2, want: 5 * time.Minute, allowed: true},
		{attempt: 3, want: 30 * time.Minute, allowed: true},
		{attempt: 4, allowed: false},
		{attempt: 0, allowed: false},
	}

	var prev time.Duration
	for _, tt := range tests {
		delay, ok := giving.Backoff(tt.attempt)
		assert.Equal(t, tt.allowed, ok, "attempt %d", tt.attempt)
		assert.Equal(t, tt.want, delay, "attempt %d", tt.attempt)
		if tt.allowed {
			assert.Greater(t, delay, prev, "backoff must grow")
			prev = delay
		}
	}
}

func TestShouldRetry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		tx     models.Transaction
		want   bool
		wantAt time.Time
	}{
		{
			name: "first transient failure",
			tx:   models.Transaction{Status: models.TransactionFailed, FailureReason: giving.ReasonTimeout},
			want: true, wantAt: now.Add(1 * time.Minute),
		},
		{
			name: "third transient failure gets the long delay",
			tx:   models.Transaction{Status: models.TransactionFailed, FailureReason: giving.ReasonTimeout, RetryCount: 2},
			want: true, wantAt: now.Add(30 * time.Minute),
		},
		{
			name: "budget exhausted",
			tx:   models.Transaction{Status: models.TransactionFailed, FailureReason: giving.ReasonTimeout, RetryCount: 3},
			want: false,
		},
		{
			name: "permanent reason",
			tx:   models.Transaction{Status: models.TransactionFailed, FailureReason: giving.ReasonUserDeclined},
			want: false,
		},
		{
			name: "unclassified reason treated as permanent",
			tx:   models.Transaction{Status: models.TransactionFailed, FailureReason: "weird_gateway_code"},
			want: false,
		},
		{
			name: "not failed",
			tx:   models.Transaction{Status: models.TransactionProcessing, FailureReason: giving.ReasonTimeout},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, at := giving.ShouldRetry(&tt.tx, now)
			assert.Equal(t, tt.want, got)
			if tt.want {
				assert.True(t, at.Equal(tt.wantAt))
			}
		})
	}
}

func TestProcessDueRetriesWithFreshSession(t *testing.T) {
	c := newCore(t)
	tx := c.newGift(t, 10000, phoneBusy)

	_, err := c.sessions.OpenSession(tx)
	require.Error(t, err) // busy rail, transient

	got, err := c.ledger.Get(tx.ID)
	require.NoError(t, err)
	require.NotNil(t, got.NextRetryAt)

	// Too early: backoff has not elapsed.
	c.retry.ProcessDue(got.NextRetryAt.Add(-time.Second))
	assert.Len(t, c.charger.Calls(), 1)

	// The retry goes out but the rail is still busy, so it does not
	// count as started.
	started := c.retry.ProcessDue(got.NextRetryAt.Add(time.Second))
	assert.Equal(t, 0, started)

	calls := c.charger.Calls()
	require.Len(t, calls, 2)
	assert.NotEqual(t, calls[0].SessionID, calls[1].SessionID, "each attempt gets its own session")

	got, err = c.ledger.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionFailed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
}

func TestRetryBudgetExhaustion(t *testing.T) {
	c := newCore(t)
	tx := c.newGift(t, 10000, phoneBusy)

	_, err := c.sessions.OpenSession(tx)
	require.Error(t, err)

	// Pump every due retry until the coordinator goes quiet.
	for i := 0; i < 10; i++ {
		got, err := c.ledger.Get(tx.ID)
		require.NoError(t, err)
		if got.NextRetryAt == nil {
			break
		}
		c.retry.ProcessDue(got.NextRetryAt.Add(time.Second))
	}

	// Initial attempt plus three retries, and not one more.
	assert.Len(t, c.charger.Calls(), 4)

	got, err := c.ledger.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionFailed, got.Status)
	assert.Equal(t, giving.MaxRetryAttempts, got.RetryCount)
	assert.Nil(t, got.NextRetryAt)

	// The fourth failure exhausted the budget, which makes it final.
	assert.Equal(t, 1, c.hook.failedCount())

	// Nothing left to pump.
	assert.Equal(t, 0, c.retry.ProcessDue(time.Now().Add(24*time.Hour)))
}

func TestRetrySucceedsMidway(t *testing.T) {
	c := newCore(t)
	tx := c.newGift(t, 10000, phoneOK)

	s, err := c.sessions.OpenSession(tx)
	require.NoError(t, err)

	// The rail accepted the charge but reported back a transient failure.
	require.NoError(t, c.sessions.HandleCallback(gateway.Callback{
		SessionID: s.SessionID,
		Result:    gateway.ResultFailed,
		Reason:    giving.ReasonGatewayBusy,
	}))

	got, err := c.ledger.Get(tx.ID)
	require.NoError(t, err)
	require.NotNil(t, got.NextRetryAt)

	started := c.retry.ProcessDue(got.NextRetryAt.Add(time.Second))
	require.Equal(t, 1, started)

	// The retry went out on a new session; settle it.
	require.NoError(t, c.sessions.HandleCallback(gateway.Callback{
		SessionID:   c.lastSessionID(t),
		GatewayTxID: "G-late",
		Result:      gateway.ResultSuccess,
	}))

	got, err = c.ledger.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, got.Status)
	assert.Equal(t, "G-late", got.GatewayTxID)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, 1, c.hook.completedCount())
	assert.Equal(t, 0, c.hook.failedCount())
}

func TestPermanentFailureNeverRetried(t *testing.T) {
	c := newCore(t)
	tx := c.newGift(t, 10000, phoneDeclined)

	_, err := c.sessions.OpenSession(tx)
	require.Error(t, err)

	assert.Equal(t, 0, c.retry.ProcessDue(time.Now().Add(24*time.Hour)))
	assert.Len(t, c.charger.Calls(), 1)

	got, err := c.ledger.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.RetryCount)
	assert.Nil(t, got.NextRetryAt)
}
