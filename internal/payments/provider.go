package payments

import "context"

// ProviderStatus is the normalized settlement status reported by either
// payment provider. Both adapters map their wire formats onto these values so
// the reconciler only ever sees one vocabulary.
type ProviderStatus string

const (
	StatusPending ProviderStatus = "pending"
	StatusPaid    ProviderStatus = "paid"
	StatusFailed  ProviderStatus = "failed"
)

// PushRequest initiates a push payment prompt on the customer's phone.
type PushRequest struct {
	Amount     float64
	Phone      string
	AccountRef string
	Narrative  string
}

// PushResult is the synchronous half of a push payment: the provider accepted
// the request and issued a correlation id to query later.
type PushResult struct {
	CorrelationID string
	Message       string
}

// PushProvider is the mobile-money adapter surface (M-Pesa STK push).
type PushProvider interface {
	Push(ctx context.Context, req PushRequest) (PushResult, error)
	QueryStatus(ctx context.Context, correlationID string) (ProviderStatus, error)
}

// CheckoutSessionRequest creates a provider-hosted checkout page.
type CheckoutSessionRequest struct {
	Amount     float64
	Currency   string
	SuccessURL string
	CancelURL  string
	Reference  string
}

// CheckoutSession is the redirect handle returned by the card provider. The
// session id round-trips via the return URL instead of a polling loop.
type CheckoutSession struct {
	SessionID   string
	RedirectURL string
}

// CheckoutProvider is the card adapter surface (redirect checkout).
type CheckoutProvider interface {
	CreateSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
	SessionStatus(ctx context.Context, sessionID string) (ProviderStatus, error)
}
