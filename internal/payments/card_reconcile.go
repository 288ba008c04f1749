package payments

import (
	"context"
	"log"
	"time"
)

// ReconcileSession is the return-path reconciliation for redirect checkout:
// when the customer comes back from the provider, query the session a bounded
// number of times with a fixed backoff, feeding every report into the shared
// reducer. A still-pending result after the budget is reported as-is rather
// than failed; the provider is authoritative and may settle late.
func ReconcileSession(ctx context.Context, provider CheckoutProvider, reconciler *Reconciler, sessionID string, maxAttempts int, backoff time.Duration) (Outcome, error) {
	var last Outcome
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-time.After(backoff):
			}
		}

		status, err := provider.SessionStatus(ctx, sessionID)
		if err != nil {
			log.Printf("[PAYMENT] [WARN] card status query %d for %s: %v", attempt, sessionID, err)
			continue
		}

		outcome, err := reconciler.Apply(ctx, sessionID, status, "")
		if err != nil {
			return last, err
		}
		last = outcome
		if outcome.Terminal() {
			return outcome, nil
		}
	}
	return last, nil
}
