package handlers

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

func testCartItems() []models.CartItem {
	return []models.CartItem{
		{ProductID: primitive.NewObjectID(), Name: "Ankara Dress", Price: 1000, Quantity: 2, Size: "M", Color: "Red"},
	}
}

func testUser() models.User {
	return models.User{ID: primitive.NewObjectID(), Email: "jo@example.com", Name: "Jo"}
}

func TestBuildOrderTotals(t *testing.T) {
	order, err := buildOrder(testCartItems(), createOrderRequest{
		DeliveryMethod: models.DeliveryPickupMtaani,
		PickupAgentID:  "agent_1",
		CustomerName:   "Jo",
		CustomerPhone:  "254712345678",
	}, testUser())
	if err != nil {
		t.Fatalf("buildOrder returned error: %v", err)
	}
	if order.Subtotal != 2000 {
		t.Fatalf("expected subtotal 2000, got %v", order.Subtotal)
	}
	if order.DeliveryFee != 200 {
		t.Fatalf("expected pickup fee 200, got %v", order.DeliveryFee)
	}
	if order.Total != 2200 {
		t.Fatalf("expected total 2200, got %v", order.Total)
	}
	if order.Status != models.OrderStatusPending || order.PaymentStatus != models.PaymentStatusUnpaid {
		t.Fatalf("new order must start pending/unpaid, got %s/%s", order.Status, order.PaymentStatus)
	}
}

func TestBuildOrderDoorstepFee(t *testing.T) {
	order, err := buildOrder(testCartItems(), createOrderRequest{
		DeliveryMethod:  models.DeliveryDoorstep,
		DeliveryAddress: "123 Moi Avenue, Nairobi",
		CustomerName:    "Jo",
		CustomerPhone:   "254712345678",
	}, testUser())
	if err != nil {
		t.Fatalf("buildOrder returned error: %v", err)
	}
	if order.DeliveryFee != 350 {
		t.Fatalf("expected doorstep fee 350, got %v", order.DeliveryFee)
	}
	if order.Total != 2350 {
		t.Fatalf("expected total 2350, got %v", order.Total)
	}
}

func TestBuildOrderEmptyCart(t *testing.T) {
	_, err := buildOrder(nil, createOrderRequest{
		DeliveryMethod: models.DeliveryPickupMtaani,
		PickupAgentID:  "agent_1",
		CustomerName:   "Jo",
		CustomerPhone:  "254712345678",
	}, testUser())
	var want emptyCartError
	if !errors.As(err, &want) {
		t.Fatalf("expected emptyCartError, got %v", err)
	}
}

func TestBuildOrderPhoneFormat(t *testing.T) {
	for _, phone := range []string{"0712345678", "25471234567", "2547123456789", "+254712345678", ""} {
		_, err := buildOrder(testCartItems(), createOrderRequest{
			DeliveryMethod: models.DeliveryPickupMtaani,
			PickupAgentID:  "agent_1",
			CustomerName:   "Jo",
			CustomerPhone:  phone,
		}, testUser())
		var want invalidPhoneError
		if !errors.As(err, &want) {
			t.Fatalf("expected invalidPhoneError for %q, got %v", phone, err)
		}
	}
}

func TestBuildOrderValidationSequence(t *testing.T) {
	// Empty cart must win even when the phone is also bad.
	_, err := buildOrder(nil, createOrderRequest{
		DeliveryMethod: "carrier-pigeon",
		CustomerName:   "Jo",
		CustomerPhone:  "bogus",
	}, testUser())
	var want emptyCartError
	if !errors.As(err, &want) {
		t.Fatalf("expected emptyCartError first, got %v", err)
	}
}

func TestBuildOrderDeliveryMethod(t *testing.T) {
	_, err := buildOrder(testCartItems(), createOrderRequest{
		DeliveryMethod: "drone",
		CustomerName:   "Jo",
		CustomerPhone:  "254712345678",
	}, testUser())
	var want invalidDeliveryMethodError
	if !errors.As(err, &want) {
		t.Fatalf("expected invalidDeliveryMethodError, got %v", err)
	}
}

func TestBuildOrderPickupNeedsAgent(t *testing.T) {
	_, err := buildOrder(testCartItems(), createOrderRequest{
		DeliveryMethod: models.DeliveryPickupMtaani,
		PickupAgentID:  "   ",
		CustomerName:   "Jo",
		CustomerPhone:  "254712345678",
	}, testUser())
	var want missingPickupAgentError
	if !errors.As(err, &want) {
		t.Fatalf("expected missingPickupAgentError, got %v", err)
	}
}

func TestBuildOrderDoorstepNeedsAddress(t *testing.T) {
	_, err := buildOrder(testCartItems(), createOrderRequest{
		DeliveryMethod: models.DeliveryDoorstep,
		CustomerName:   "Jo",
		CustomerPhone:  "254712345678",
	}, testUser())
	var want missingAddressError
	if !errors.As(err, &want) {
		t.Fatalf("expected missingAddressError, got %v", err)
	}
}

func TestBuildOrderSnapshotIsDetached(t *testing.T) {
	items := testCartItems()
	order, err := buildOrder(items, createOrderRequest{
		DeliveryMethod: models.DeliveryPickupMtaani,
		PickupAgentID:  "agent_1",
		CustomerName:   "Jo",
		CustomerPhone:  "254712345678",
	}, testUser())
	if err != nil {
		t.Fatalf("buildOrder returned error: %v", err)
	}

	items[0].Price = 1
	items[0].Quantity = 99
	if order.Items[0].Price != 1000 || order.Items[0].Quantity != 2 {
		t.Fatal("order items must be a snapshot, not a view of the cart")
	}
	if order.Total != 2200 {
		t.Fatalf("order total must not move with the cart, got %v", order.Total)
	}
}
