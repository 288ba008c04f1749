package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment attempt statuses. Confirmed, failed and expired are terminal;
// expired exists only to distinguish a timed-out attempt from an explicit
// provider rejection in diagnostics.
const (
	AttemptPending   = "pending"
	AttemptConfirmed = "confirmed"
	AttemptFailed    = "failed"
	AttemptExpired   = "expired"
)

// AttemptTerminal reports whether status is a terminal attempt state.
func AttemptTerminal(status string) bool {
	return status == AttemptConfirmed || status == AttemptFailed || status == AttemptExpired
}

// PaymentTransaction records one payment attempt against an order. A new
// attempt supersedes a prior failed or expired one; history is never deleted.
type PaymentTransaction struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID       primitive.ObjectID `bson:"orderId" json:"orderId"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Amount        float64            `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	Method        string             `bson:"method" json:"method"`
	CorrelationID string             `bson:"correlationId" json:"correlationId"`
	ProviderRef   string             `bson:"providerRef,omitempty" json:"providerRef,omitempty"`
	Status        string             `bson:"status" json:"status"`
	InitiatedAt   time.Time          `bson:"initiatedAt" json:"initiatedAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
