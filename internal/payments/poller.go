package payments

import (
	"context"
	"log"
	"time"
)

// StkPoller watches an initiated STK push by querying the provider on a fixed
// interval until the attempt reaches a terminal state or the budget runs out.
// The loop bounds itself on both attempt count and wall clock and never relies
// on the caller to cancel it, though a cancelled context stops it too.
type StkPoller struct {
	provider   PushProvider
	reconciler *Reconciler

	interval    time.Duration
	maxAttempts int
	maxElapsed  time.Duration
}

func NewStkPoller(provider PushProvider, reconciler *Reconciler, interval time.Duration, maxAttempts int, maxElapsed time.Duration) *StkPoller {
	return &StkPoller{
		provider:    provider,
		reconciler:  reconciler,
		interval:    interval,
		maxAttempts: maxAttempts,
		maxElapsed:  maxElapsed,
	}
}

// Watch blocks until the attempt settles or the budget is exhausted; callers
// run it in a goroutine. Query errors are transient and consume an attempt
// rather than aborting, since the provider may recover within the window.
func (p *StkPoller) Watch(ctx context.Context, correlationID string) {
	deadline := time.Now().Add(p.maxElapsed)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			break
		}

		status, err := p.provider.QueryStatus(ctx, correlationID)
		if err != nil {
			log.Printf("[PAYMENT] [WARN] stk poll %d for %s: %v", attempt, correlationID, err)
			continue
		}

		outcome, err := p.reconciler.Apply(ctx, correlationID, status, "")
		if err != nil {
			log.Printf("[PAYMENT] [ERROR] stk poll apply for %s: %v", correlationID, err)
			continue
		}
		if outcome.Terminal() {
			return
		}
	}

	if _, err := p.reconciler.Expire(ctx, correlationID); err != nil {
		log.Printf("[PAYMENT] [ERROR] expiring attempt %s: %v", correlationID, err)
	}
}
