package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

func TestWatchStopsOnConfirmation(t *testing.T) {
	store := newMemStore()
	txn := pendingAttempt("ws_CO_POLL_1")
	store.seed(txn)

	provider := &scriptedProvider{statuses: []ProviderStatus{
		StatusPending, StatusPending, StatusPaid,
	}}
	poller := NewStkPoller(provider, NewReconciler(store), time.Millisecond, 10, time.Second)

	poller.Watch(context.Background(), "ws_CO_POLL_1")

	assert.Equal(t, 3, provider.queries())
	assert.Equal(t, models.PaymentStatusPaid, store.orderStatus(txn.OrderID))
	assert.Equal(t, 1, store.clears(txn.UserID))

	current, err := store.FindAttempt(context.Background(), "ws_CO_POLL_1")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptConfirmed, current.Status)
}

func TestWatchExpiresOnAttemptBudget(t *testing.T) {
	store := newMemStore()
	txn := pendingAttempt("ws_CO_POLL_2")
	store.seed(txn)

	provider := &scriptedProvider{statuses: []ProviderStatus{StatusPending}}
	poller := NewStkPoller(provider, NewReconciler(store), time.Millisecond, 4, time.Second)

	poller.Watch(context.Background(), "ws_CO_POLL_2")

	assert.Equal(t, 4, provider.queries())
	assert.Equal(t, models.PaymentStatusUnpaid, store.orderStatus(txn.OrderID))
	assert.Zero(t, store.clears(txn.UserID))

	current, err := store.FindAttempt(context.Background(), "ws_CO_POLL_2")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptExpired, current.Status)
}

func TestWatchQueryErrorsConsumeAttempts(t *testing.T) {
	store := newMemStore()
	txn := pendingAttempt("ws_CO_POLL_3")
	store.seed(txn)

	boom := errors.New("daraja unreachable")
	provider := &scriptedProvider{
		statuses: []ProviderStatus{StatusPending, StatusPending, StatusPaid},
		errs:     []error{boom, boom, nil},
	}
	poller := NewStkPoller(provider, NewReconciler(store), time.Millisecond, 10, time.Second)

	poller.Watch(context.Background(), "ws_CO_POLL_3")

	assert.Equal(t, 3, provider.queries())
	assert.Equal(t, models.PaymentStatusPaid, store.orderStatus(txn.OrderID))
}

func TestWatchStopsOnCancelledContext(t *testing.T) {
	store := newMemStore()
	store.seed(pendingAttempt("ws_CO_POLL_4"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{statuses: []ProviderStatus{StatusPending}}
	poller := NewStkPoller(provider, NewReconciler(store), time.Millisecond, 10, time.Second)

	poller.Watch(ctx, "ws_CO_POLL_4")

	assert.Zero(t, provider.queries())
}

func TestReconcileSessionReturnsPendingWhenUnsettled(t *testing.T) {
	store := newMemStore()
	store.seed(pendingAttempt("cs_test_1"))

	provider := &sessionProvider{status: StatusPending}
	outcome, err := ReconcileSession(context.Background(), provider,
		NewReconciler(store), "cs_test_1", 3, time.Millisecond)
	require.NoError(t, err)

	assert.False(t, outcome.Terminal())
	assert.Equal(t, models.AttemptPending, outcome.AttemptStatus)
	assert.Equal(t, 3, provider.calls)
}

func TestReconcileSessionConfirms(t *testing.T) {
	store := newMemStore()
	txn := pendingAttempt("cs_test_2")
	store.seed(txn)

	provider := &sessionProvider{status: StatusPaid}
	outcome, err := ReconcileSession(context.Background(), provider,
		NewReconciler(store), "cs_test_2", 3, time.Millisecond)
	require.NoError(t, err)

	assert.True(t, outcome.Terminal())
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, models.PaymentStatusPaid, store.orderStatus(txn.OrderID))
}

// sessionProvider reports one fixed session status.
type sessionProvider struct {
	status ProviderStatus
	calls  int
}

func (p *sessionProvider) CreateSession(context.Context, CheckoutSessionRequest) (CheckoutSession, error) {
	return CheckoutSession{SessionID: "cs_test", RedirectURL: "https://pay.example/cs_test"}, nil
}

func (p *sessionProvider) SessionStatus(context.Context, string) (ProviderStatus, error) {
	p.calls++
	return p.status, nil
}
