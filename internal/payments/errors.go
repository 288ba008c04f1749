package payments

import (
	"errors"
	"fmt"
)

// ErrUnknownCorrelation means a status report referenced a correlation id no
// attempt was ever recorded under. Typically a stale or foreign webhook.
var ErrUnknownCorrelation = errors.New("unknown payment correlation id")

// InitiationError wraps a provider or network failure during initiate. The
// order is left untouched and the user may retry freely.
type InitiationError struct {
	Method string
	Err    error
}

func (e InitiationError) Error() string {
	return fmt.Sprintf("%s payment initiation failed: %v", e.Method, e.Err)
}

func (e InitiationError) Unwrap() error {
	return e.Err
}

// ProviderDeniedError is an explicit rejection from the provider at initiate
// time (for example a malformed STK push request).
type ProviderDeniedError struct {
	Method string
	Reason string
}

func (e ProviderDeniedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s payment was rejected by the provider", e.Method)
	}
	return e.Reason
}
