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

func TestOpenSession(t *testing.T) {
	t.Run("charge accepted", func(t *testing.T) {
		c := newCore(t)
		tx := c.newGift(t, 10000, phoneOK)

		s, err := c.sessions.OpenSession(tx)
		require.NoError(t, err)
		assert.Equal(t, models.SessionPending, s.Status)
		assert.Equal(t, 0, s.Attempt)
		assert.Equal(t, giving.SessionWindow, s.ExpiresAt.Sub(s.CreatedAt).Round(time.Second))

		got, err := c.ledger.Get(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionProcessing, got.Status)
		assert.Equal(t, models.PaymentAuthorized, got.PaymentStatus)

		calls := c.charger.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, s.SessionID, calls[0].SessionID)
		assert.Equal(t, tx.Reference, calls[0].Reference)
		assert.Equal(t, int64(10000), calls[0].Amount)
	})

	t.Run("first attempt requires a pending transaction", func(t *testing.T) {
		c := newCore(t)
		tx := c.newGift(t, 10000, phoneOK)
		require.NoError(t, c.ledger.MarkCancelled(tx.ID, "member"))

		tx, err := c.ledger.Get(tx.ID)
		require.NoError(t, err)
		_, err = c.sessions.OpenSession(tx)
		assert.ErrorIs(t, err, giving.ErrInvalidTransition)
		assert.Empty(t, c.charger.Calls())
	})

	t.Run("permanent decline fails the transaction for good", func(t *testing.T) {
		c := newCore(t)
		tx := c.newGift(t, 10000, phoneDeclined)

		_, err := c.sessions.OpenSession(tx)
		require.Error(t, err)

		got, err := c.ledger.Get(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionFailed, got.Status)
		assert.Equal(t, giving.ReasonInsufficientFunds, got.FailureReason)
		assert.Nil(t, got.NextRetryAt)
		assert.Equal(t, 1, c.hook.failedCount())
	})

	t.Run("transient decline schedules a retry without firing hooks", func(t *testing.T) {
		c := newCore(t)
		tx := c.newGift(t, 10000, phoneBusy)

		_, err := c.sessions.OpenSession(tx)
		require.Error(t, err)

		got, err := c.ledger.Get(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionFailed, got.Status)
		assert.Equal(t, giving.ReasonGatewayBusy, got.FailureReason)
		assert.NotNil(t, got.NextRetryAt)
		assert.Equal(t, 0, c.hook.failedCount())
	})
}

func TestHandleCallbackSuccess(t *testing.T) {
	c := newCore(t)
	tx := c.newGift(t, 10000, phoneOK)
	s, err := c.sessions.OpenSession(tx)
	require.NoError(t, err)

	err = c.sessions.HandleCallback(gateway.Callback{
		SessionID:   s.SessionID,
		GatewayTxID: "G1",
		Result:      gateway.ResultSuccess,
	})
	require.NoError(t, err)

	got, err := c.ledger.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, got.Status)
	assert.Equal(t, "G1", got.GatewayTxID)
	assert.Equal(t, 1, c.hook.completedCount())
}

func TestHandleCallbackDuplicates(t *testing.T) {
	c := newCore(t)
	tx := c.newGift(t, 10000, phoneOK)
	s, err := c.sessions.OpenSession(tx)
	require.NoError(t, err)

	settle := func(gatewayTxID string) error {
		return c.sessions.HandleCallback(gateway.Callback{
			SessionID:   s.SessionID,
			GatewayTxID: gatewayTxID,
			Result:      gateway.ResultSuccess,
		})
	}

	require.NoError(t, settle("G1"))

	// Redelivered webhook: no error, no second hook firing.
	require.NoError(t, settle("G1"))
	assert.Equal(t, 1, c.hook.completedCount())

	// Same session, different gateway id: conflict.
	assert.ErrorIs(t, settle("G2"), giving.ErrDuplicateSettlement)

	got, err := c.ledger.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "G1", got.GatewayTxID)

	// A failure report after settlement is ignored too.
	require.NoError(t, c.sessions.HandleCallback(gateway.Callback{
		SessionID: s.SessionID,
		Result:    gateway.ResultFailed,
		Reason:    giving.ReasonUserDeclined,
	}))
	got, err = c.ledger.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, got.Status)
}

func TestHandleCallbackFailure(t *testing.T) {
	t.Run("records the reported reason", func(t *testing.T) {
		c := newCore(t)
		tx := c.newGift(t, 10000, phoneOK)
		s, err := c.sessions.OpenSession(tx)
		require.NoError(t, err)

		require.NoError(t, c.sessions.HandleCallback(gateway.Callback{
			SessionID: s.SessionID,
			Result:    gateway.ResultFailed,
			Reason:    giving.ReasonInsufficientFunds,
		}))

		got, err := c.ledger.Get(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionFailed, got.Status)
		assert.Equal(t, giving.ReasonInsufficientFunds, got.FailureReason)
		assert.Equal(t, 1, c.hook.failedCount())
	})

	t.Run("missing reason defaults to user declined", func(t *testing.T) {
		c := newCore(t)
		tx := c.newGift(t, 10000, phoneOK)
		s, err := c.sessions.OpenSession(tx)
		require.NoError(t, err)

		require.NoError(t, c.sessions.HandleCallback(gateway.Callback{
			SessionID: s.SessionID,
			Result:    gateway.ResultFailed,
		}))

		got, err := c.ledger.Get(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, giving.ReasonUserDeclined, got.FailureReason)
	})

	t.Run("unknown session and unknown result", func(t *testing.T) {
		c := newCore(t)

		err := c.sessions.HandleCallback(gateway.Callback{
			SessionID: "nope", Result: gateway.ResultSuccess,
		})
		assert.ErrorIs(t, err, giving.ErrNotFound)

		tx := c.newGift(t, 10000, phoneOK)
		s, err := c.sessions.OpenSession(tx)
		require.NoError(t, err)
		err = c.sessions.HandleCallback(gateway.Callback{
			SessionID: s.SessionID, Result: "maybe",
		})
		assert.Error(t, err)
	})
}

func TestSweepExpired(t *testing.T) {
	c := newCore(t)
	tx := c.newGift(t, 10000, phoneOK)
	s, err := c.sessions.OpenSession(tx)
	require.NoError(t, err)

	// Before the window closes nothing is swept.
	swept, err := c.sessions.SweepExpired(s.ExpiresAt.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	after := s.ExpiresAt.Add(time.Minute)
	swept, err = c.sessions.SweepExpired(after)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := c.ledger.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionFailed, got.Status)
	assert.Equal(t, giving.ReasonSessionExpired, got.FailureReason)
	assert.NotNil(t, got.NextRetryAt)

	// Expiry is transient, so no final-failure hook yet.
	assert.Equal(t, 0, c.hook.failedCount())

	// A second pass finds nothing: the session left the live set.
	swept, err = c.sessions.SweepExpired(after)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}

func TestSweepLeavesSettledTransactionAlone(t *testing.T) {
	c := newCore(t)
	tx := c.newGift(t, 10000, phoneOK)
	s, err := c.sessions.OpenSession(tx)
	require.NoError(t, err)

	require.NoError(t, c.sessions.HandleCallback(gateway.Callback{
		SessionID:   s.SessionID,
		GatewayTxID: "G1",
		Result:      gateway.ResultSuccess,
	}))

	swept, err := c.sessions.SweepExpired(s.ExpiresAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	got, err := c.ledger.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, got.Status)
}

func TestLateSuccessAfterExpiryIsRejected(t *testing.T) {
	c := newCore(t)
	tx := c.newGift(t, 10000, phoneOK)
	s, err := c.sessions.OpenSession(tx)
	require.NoError(t, err)

	_, err = c.sessions.SweepExpired(s.ExpiresAt.Add(time.Minute))
	require.NoError(t, err)

	// The payer approved on their handset after the window closed. The
	// transaction already failed, so the settlement cannot land.
	err = c.sessions.HandleCallback(gateway.Callback{
		SessionID:   s.SessionID,
		GatewayTxID: "G1",
		Result:      gateway.ResultSuccess,
	})
	assert.ErrorIs(t, err, giving.ErrInvalidTransition)

	got, err := c.ledger.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionFailed, got.Status)
	assert.Equal(t, 0, c.hook.completedCount())
}

func TestOpenSessionAbortsWhenCancelledConcurrently(t *testing.T) {
	c := newCore(t)
	tx := c.newGift(t, 10000, phoneOK)

	// The member cancels between the handler loading the transaction
	// and the session opening.
	require.NoError(t, c.ledger.MarkCancelled(tx.ID, "member"))

	_, err := c.sessions.OpenSession(tx) // stale pending snapshot
	assert.ErrorIs(t, err, giving.ErrInvalidTransition)

	// No charge went out and no live session is left behind for the
	// sweep to fail later.
	assert.Empty(t, c.charger.Calls())
	swept, err := c.sessions.SweepExpired(time.Now().Add(giving.SessionWindow + time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	got, err := c.ledger.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCancelled, got.Status)
}
