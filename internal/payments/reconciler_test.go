package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

func pendingAttempt(correlationID string) models.PaymentTransaction {
	return models.PaymentTransaction{
		OrderID:       primitive.NewObjectID(),
		UserID:        primitive.NewObjectID(),
		Amount:        2200,
		Currency:      "KES",
		Method:        models.PaymentMethodMpesa,
		CorrelationID: correlationID,
		Status:        models.AttemptPending,
	}
}

func TestApplyPaidConfirmsOnceAndClearsCart(t *testing.T) {
	store := newMemStore()
	txn := pendingAttempt("ws_CO_1")
	store.seed(txn)
	r := NewReconciler(store)

	outcome, err := r.Apply(context.Background(), "ws_CO_1", StatusPaid, "SGH12XYZ")
	require.NoError(t, err)
	assert.True(t, outcome.Transitioned)
	assert.True(t, outcome.CartCleared)
	assert.Equal(t, models.AttemptConfirmed, outcome.AttemptStatus)
	assert.Equal(t, models.PaymentStatusPaid, store.orderStatus(txn.OrderID))

	// Duplicate webhook delivery is a no-op.
	outcome, err = r.Apply(context.Background(), "ws_CO_1", StatusPaid, "SGH12XYZ")
	require.NoError(t, err)
	assert.False(t, outcome.Transitioned)
	assert.False(t, outcome.CartCleared)
	assert.Equal(t, 1, store.clears(txn.UserID))
}

func TestApplyFailedKeepsCart(t *testing.T) {
	store := newMemStore()
	txn := pendingAttempt("ws_CO_2")
	store.seed(txn)
	r := NewReconciler(store)

	outcome, err := r.Apply(context.Background(), "ws_CO_2", StatusFailed, "")
	require.NoError(t, err)
	assert.True(t, outcome.Transitioned)
	assert.Equal(t, models.AttemptFailed, outcome.AttemptStatus)
	assert.Equal(t, models.PaymentStatusFailed, store.orderStatus(txn.OrderID))
	assert.Zero(t, store.clears(txn.UserID))
}

func TestApplyPendingLeavesAttemptOpen(t *testing.T) {
	store := newMemStore()
	store.seed(pendingAttempt("ws_CO_3"))
	r := NewReconciler(store)

	outcome, err := r.Apply(context.Background(), "ws_CO_3", StatusPending, "")
	require.NoError(t, err)
	assert.False(t, outcome.Transitioned)
	assert.Equal(t, models.AttemptPending, outcome.AttemptStatus)
	assert.False(t, outcome.Terminal())
}

func TestApplyUnknownCorrelation(t *testing.T) {
	r := NewReconciler(newMemStore())

	_, err := r.Apply(context.Background(), "nope", StatusPaid, "")
	assert.ErrorIs(t, err, ErrUnknownCorrelation)
}

func TestPaidAfterFailedIsIgnored(t *testing.T) {
	store := newMemStore()
	txn := pendingAttempt("ws_CO_4")
	store.seed(txn)
	r := NewReconciler(store)

	_, err := r.Apply(context.Background(), "ws_CO_4", StatusFailed, "")
	require.NoError(t, err)

	// A late paid report for a settled attempt must not resurrect it.
	outcome, err := r.Apply(context.Background(), "ws_CO_4", StatusPaid, "SGH99")
	require.NoError(t, err)
	assert.False(t, outcome.Transitioned)
	assert.Equal(t, models.AttemptFailed, outcome.AttemptStatus)
	assert.Equal(t, models.PaymentStatusFailed, store.orderStatus(txn.OrderID))
	assert.Zero(t, store.clears(txn.UserID))
}

func TestExpireLeavesOrderUnpaid(t *testing.T) {
	store := newMemStore()
	txn := pendingAttempt("ws_CO_5")
	store.seed(txn)
	r := NewReconciler(store)

	outcome, err := r.Expire(context.Background(), "ws_CO_5")
	require.NoError(t, err)
	assert.True(t, outcome.Transitioned)
	assert.Equal(t, models.AttemptExpired, outcome.AttemptStatus)
	assert.Equal(t, models.PaymentStatusUnpaid, store.orderStatus(txn.OrderID))
}

func TestConcurrentPaidReportsClearCartOnce(t *testing.T) {
	store := newMemStore()
	txn := pendingAttempt("ws_CO_6")
	store.seed(txn)
	r := NewReconciler(store)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = r.Apply(context.Background(), "ws_CO_6", StatusPaid, "SGH77")
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	assert.Equal(t, 1, store.clears(txn.UserID))
	assert.Equal(t, models.PaymentStatusPaid, store.orderStatus(txn.OrderID))
}
