package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order lifecycle statuses, owned by the back-office after payment.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment statuses, owned by the payment reconciler.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
	PaymentStatusFailed = "failed"
)

// Payment methods.
const (
	PaymentMethodMpesa = "mpesa"
	PaymentMethodCard  = "card"
)

// Delivery methods and their fixed fee schedule in KES.
const (
	DeliveryPickupMtaani = "pickup_mtaani"
	DeliveryDoorstep     = "doorstep"

	PickupMtaaniFee = 200.0
	DoorstepFee     = 350.0
)

// DeliveryFee returns the fee for a delivery method. The schedule is fixed;
// unknown methods report ok=false.
func DeliveryFee(method string) (float64, bool) {
	switch method {
	case DeliveryPickupMtaani:
		return PickupMtaaniFee, true
	case DeliveryDoorstep:
		return DoorstepFee, true
	default:
		return 0, false
	}
}

// ValidOrderStatus reports whether s is an admin-settable order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is the persisted order document. Items, subtotal, delivery fee and
// total are snapshotted at creation and never recomputed from the live
// catalog or cart afterwards.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Items           []CartItem         `bson:"items" json:"items"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	DeliveryFee     float64            `bson:"deliveryFee" json:"deliveryFee"`
	Total           float64            `bson:"total" json:"total"`
	Status          string             `bson:"status" json:"status"`
	PaymentMethod   string             `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	PaymentStatus   string             `bson:"paymentStatus" json:"paymentStatus"`
	PaymentRef      string             `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	DeliveryMethod  string             `bson:"deliveryMethod" json:"deliveryMethod"`
	DeliveryAddress string             `bson:"deliveryAddress,omitempty" json:"deliveryAddress,omitempty"`
	PickupAgentID   string             `bson:"pickupAgentId,omitempty" json:"pickupAgentId,omitempty"`
	TrackingNumber  string             `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	CustomerName    string             `bson:"customerName" json:"customerName"`
	CustomerPhone   string             `bson:"customerPhone" json:"customerPhone"`
	CustomerEmail   string             `bson:"customerEmail" json:"customerEmail"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	IdempotencyKey  string             `bson:"idempotencyKey,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
