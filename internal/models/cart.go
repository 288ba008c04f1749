package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is a single line in a cart. Price is snapshotted from the catalog
// at add time and never re-read afterwards.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
	Color     string             `bson:"color,omitempty" json:"color,omitempty"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
}

// Matches reports whether the line has the given identity key. Two lines with
// the same product but different size or color are distinct.
func (i CartItem) Matches(productID primitive.ObjectID, size, color string) bool {
	return i.ProductID == productID && i.Size == size && i.Color == color
}

// Cart belongs either to an authenticated user or to an anonymous browser
// session, never both.
type Cart struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	SessionID *string             `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Items     []CartItem          `bson:"items" json:"items"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c Cart) Subtotal() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
