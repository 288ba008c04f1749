package payments

import (
	"context"
	"log"

	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

// Outcome describes what a status report did to an attempt. Transitioned is
// false when the attempt was already terminal (duplicate webhook, overlapping
// poll) or the report was still pending.
type Outcome struct {
	AttemptStatus string
	Transitioned  bool
	CartCleared   bool
}

// Terminal reports whether the attempt has reached a final state, whether or
// not this call performed the transition.
func (o Outcome) Terminal() bool {
	return models.AttemptTerminal(o.AttemptStatus)
}

// Reconciler folds provider status reports into the order lifecycle. Webhook
// callbacks, the STK poller and the card return-path reconciliation all feed
// the same Apply, so duplicate and racing notifications converge on one
// idempotent transition per attempt.
type Reconciler struct {
	store Store
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Apply maps a provider status onto the attempt state machine:
//
//	pending  -> confirmed  on "paid":   order unpaid->paid, cart cleared once
//	pending  -> failed     on "failed": order unpaid->failed, cart kept
//
// Applying a status to an already-terminal attempt is a no-op, not an error.
func (r *Reconciler) Apply(ctx context.Context, correlationID string, status ProviderStatus, providerRef string) (Outcome, error) {
	txn, err := r.store.FindAttempt(ctx, correlationID)
	if err != nil {
		return Outcome{}, err
	}

	if models.AttemptTerminal(txn.Status) {
		return Outcome{AttemptStatus: txn.Status}, nil
	}

	switch status {
	case StatusPaid:
		return r.confirm(ctx, txn, providerRef)
	case StatusFailed:
		return r.fail(ctx, txn)
	default:
		return Outcome{AttemptStatus: txn.Status}, nil
	}
}

func (r *Reconciler) confirm(ctx context.Context, txn *models.PaymentTransaction, providerRef string) (Outcome, error) {
	transitioned, err := r.store.ConfirmAttempt(ctx, txn.CorrelationID, providerRef)
	if err != nil {
		return Outcome{}, err
	}
	if !transitioned {
		// Lost the race to another confirmation of the same attempt.
		return Outcome{AttemptStatus: models.AttemptConfirmed}, nil
	}

	orderPaid, err := r.store.MarkOrderPaid(ctx, txn.OrderID)
	if err != nil {
		return Outcome{AttemptStatus: models.AttemptConfirmed, Transitioned: true}, err
	}

	outcome := Outcome{AttemptStatus: models.AttemptConfirmed, Transitioned: true}
	if orderPaid {
		// Cart clear is keyed to the order transition, which can only
		// happen once, so duplicates never double-clear.
		if err := r.store.ClearUserCart(ctx, txn.UserID); err != nil {
			log.Printf("[PAYMENT] [ERROR] cart clear after confirmation of %s: %v", txn.CorrelationID, err)
			return outcome, err
		}
		outcome.CartCleared = true
		log.Printf("[PAYMENT] [INFO] order %s confirmed via %s", txn.OrderID.Hex(), txn.Method)
	}
	return outcome, nil
}

func (r *Reconciler) fail(ctx context.Context, txn *models.PaymentTransaction) (Outcome, error) {
	transitioned, err := r.store.FailAttempt(ctx, txn.CorrelationID)
	if err != nil {
		return Outcome{}, err
	}
	if !transitioned {
		current, findErr := r.store.FindAttempt(ctx, txn.CorrelationID)
		if findErr != nil {
			return Outcome{}, findErr
		}
		return Outcome{AttemptStatus: current.Status}, nil
	}

	if _, err := r.store.MarkOrderFailed(ctx, txn.OrderID, txn.CorrelationID); err != nil {
		return Outcome{AttemptStatus: models.AttemptFailed, Transitioned: true}, err
	}
	log.Printf("[PAYMENT] [INFO] attempt %s failed for order %s", txn.CorrelationID, txn.OrderID.Hex())
	return Outcome{AttemptStatus: models.AttemptFailed, Transitioned: true}, nil
}

// Expire marks an attempt that exhausted its observation budget. The order's
// payment status is left unpaid: expiry is a diagnostic distinction, not a
// provider verdict, and the user simply retries.
func (r *Reconciler) Expire(ctx context.Context, correlationID string) (Outcome, error) {
	transitioned, err := r.store.ExpireAttempt(ctx, correlationID)
	if err != nil {
		return Outcome{}, err
	}
	if !transitioned {
		txn, findErr := r.store.FindAttempt(ctx, correlationID)
		if findErr != nil {
			return Outcome{}, findErr
		}
		return Outcome{AttemptStatus: txn.Status}, nil
	}
	log.Printf("[PAYMENT] [INFO] attempt %s expired without confirmation", correlationID)
	return Outcome{AttemptStatus: models.AttemptExpired, Transitioned: true}, nil
}
