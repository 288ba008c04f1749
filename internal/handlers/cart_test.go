package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

func TestMergeCartItemIncrementsMatchingLine(t *testing.T) {
	productID := primitive.NewObjectID()
	items := []models.CartItem{
		{ProductID: productID, Price: 500, Quantity: 1, Size: "M", Color: "Red"},
	}

	items = mergeCartItem(items, models.CartItem{
		ProductID: productID, Price: 500, Quantity: 2, Size: "M", Color: "Red",
	})

	if len(items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", items[0].Quantity)
	}
}

func TestMergeCartItemVariantIsNewLine(t *testing.T) {
	productID := primitive.NewObjectID()
	items := []models.CartItem{
		{ProductID: productID, Price: 500, Quantity: 1, Size: "M", Color: "Red"},
	}

	items = mergeCartItem(items, models.CartItem{
		ProductID: productID, Price: 500, Quantity: 1, Size: "L", Color: "Red",
	})

	if len(items) != 2 {
		t.Fatalf("same product in a different size must be its own line, got %d lines", len(items))
	}
}

func TestSetCartQuantity(t *testing.T) {
	productID := primitive.NewObjectID()
	items := []models.CartItem{
		{ProductID: productID, Price: 500, Quantity: 2, Size: "M"},
	}

	items = setCartQuantity(items, productID, "M", "", 5)
	if items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", items[0].Quantity)
	}
}

func TestSetCartQuantityZeroRemovesLine(t *testing.T) {
	productID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	items := []models.CartItem{
		{ProductID: productID, Price: 500, Quantity: 2, Size: "M"},
		{ProductID: other, Price: 300, Quantity: 1},
	}

	items = setCartQuantity(items, productID, "M", "", 0)
	if len(items) != 1 {
		t.Fatalf("expected the zeroed line to be removed, got %d lines", len(items))
	}
	if items[0].ProductID != other {
		t.Fatal("wrong line removed")
	}
}

func TestDropCartItemIgnoresNonMatchingVariant(t *testing.T) {
	productID := primitive.NewObjectID()
	items := []models.CartItem{
		{ProductID: productID, Price: 500, Quantity: 1, Size: "M", Color: "Red"},
	}

	items = dropCartItem(items, productID, "L", "Red")
	if len(items) != 1 {
		t.Fatal("removal with a different size must not touch the line")
	}
}

func TestCartTotals(t *testing.T) {
	cart := models.Cart{Items: []models.CartItem{
		{Price: 1000, Quantity: 2},
		{Price: 250, Quantity: 1},
	}}

	if cart.ItemCount() != 3 {
		t.Fatalf("expected item count 3, got %d", cart.ItemCount())
	}
	if cart.Subtotal() != 2250 {
		t.Fatalf("expected subtotal 2250, got %v", cart.Subtotal())
	}
}
