package payments

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

// memStore is an in-memory Store with the same compare-and-set semantics as
// the real one.
type memStore struct {
	mu         sync.Mutex
	attempts   map[string]*models.PaymentTransaction
	orders     map[primitive.ObjectID]string
	cartClears map[primitive.ObjectID]int
}

func newMemStore() *memStore {
	return &memStore{
		attempts:   map[string]*models.PaymentTransaction{},
		orders:     map[primitive.ObjectID]string{},
		cartClears: map[primitive.ObjectID]int{},
	}
}

func (s *memStore) seed(txn models.PaymentTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := txn
	s.attempts[txn.CorrelationID] = &copied
	if _, ok := s.orders[txn.OrderID]; !ok {
		s.orders[txn.OrderID] = models.PaymentStatusUnpaid
	}
}

func (s *memStore) FindAttempt(_ context.Context, correlationID string) (*models.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.attempts[correlationID]
	if !ok {
		return nil, ErrUnknownCorrelation
	}
	copied := *txn
	return &copied, nil
}

func (s *memStore) RecordAttempt(_ context.Context, txn models.PaymentTransaction) error {
	s.seed(txn)
	return nil
}

func (s *memStore) casAttempt(correlationID, to, providerRef string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.attempts[correlationID]
	if !ok || txn.Status != models.AttemptPending {
		return false
	}
	txn.Status = to
	if providerRef != "" {
		txn.ProviderRef = providerRef
	}
	return true
}

func (s *memStore) ConfirmAttempt(_ context.Context, correlationID, providerRef string) (bool, error) {
	return s.casAttempt(correlationID, models.AttemptConfirmed, providerRef), nil
}

func (s *memStore) FailAttempt(_ context.Context, correlationID string) (bool, error) {
	return s.casAttempt(correlationID, models.AttemptFailed, ""), nil
}

func (s *memStore) ExpireAttempt(_ context.Context, correlationID string) (bool, error) {
	return s.casAttempt(correlationID, models.AttemptExpired, ""), nil
}

func (s *memStore) MarkOrderPaid(_ context.Context, orderID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orders[orderID] != models.PaymentStatusUnpaid {
		return false, nil
	}
	s.orders[orderID] = models.PaymentStatusPaid
	return true, nil
}

func (s *memStore) MarkOrderFailed(_ context.Context, orderID primitive.ObjectID, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orders[orderID] != models.PaymentStatusUnpaid {
		return false, nil
	}
	s.orders[orderID] = models.PaymentStatusFailed
	return true, nil
}

func (s *memStore) ClearUserCart(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartClears[userID]++
	return nil
}

func (s *memStore) orderStatus(orderID primitive.ObjectID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[orderID]
}

func (s *memStore) clears(userID primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartClears[userID]
}

// scriptedProvider replays a fixed sequence of status reports, repeating the
// last one once exhausted.
type scriptedProvider struct {
	mu       sync.Mutex
	statuses []ProviderStatus
	errs     []error
	calls    int
}

func (p *scriptedProvider) Push(context.Context, PushRequest) (PushResult, error) {
	return PushResult{CorrelationID: "scripted"}, nil
}

func (p *scriptedProvider) QueryStatus(context.Context, string) (ProviderStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if i >= len(p.statuses) {
		i = len(p.statuses) - 1
	}
	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	return p.statuses[i], err
}

func (p *scriptedProvider) queries() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
