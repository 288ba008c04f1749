package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

/* =========================
   VALIDATION ERRORS
========================= */

type emptyCartError struct{}

func (emptyCartError) Error() string { return "cart is empty" }

type invalidPhoneError struct{ Phone string }

func (invalidPhoneError) Error() string { return "phone number must be in format 254XXXXXXXXX" }

type invalidDeliveryMethodError struct{ Method string }

func (invalidDeliveryMethodError) Error() string { return "invalid delivery method" }

type missingPickupAgentError struct{}

func (missingPickupAgentError) Error() string { return "pickup agent is required for pickup delivery" }

type missingAddressError struct{}

func (missingAddressError) Error() string { return "delivery address is required for doorstep delivery" }

/* =========================
   CREATE ORDER
========================= */

type createOrderRequest struct {
	DeliveryMethod  string `json:"deliveryMethod" binding:"required"`
	DeliveryAddress string `json:"deliveryAddress"`
	PickupAgentID   string `json:"pickupAgentId"`
	CustomerName    string `json:"customerName" binding:"required"`
	CustomerPhone   string `json:"customerPhone" binding:"required"`
	Notes           string `json:"notes"`
}

// buildOrder converts a cart snapshot plus delivery selection into a priced
// order. Validation short-circuits on the first failure, in a fixed sequence:
// non-empty cart, phone format, delivery fields. The returned order carries an
// immutable item snapshot; totals are never recomputed after this point.
func buildOrder(items []models.CartItem, req createOrderRequest, user models.User) (models.Order, error) {
	if len(items) == 0 {
		return models.Order{}, emptyCartError{}
	}

	if !models.ValidPhone(req.CustomerPhone) {
		return models.Order{}, invalidPhoneError{Phone: req.CustomerPhone}
	}

	fee, ok := models.DeliveryFee(req.DeliveryMethod)
	if !ok {
		return models.Order{}, invalidDeliveryMethodError{Method: req.DeliveryMethod}
	}

	switch req.DeliveryMethod {
	case models.DeliveryPickupMtaani:
		if strings.TrimSpace(req.PickupAgentID) == "" {
			return models.Order{}, missingPickupAgentError{}
		}
	case models.DeliveryDoorstep:
		if strings.TrimSpace(req.DeliveryAddress) == "" {
			return models.Order{}, missingAddressError{}
		}
	}

	snapshot := make([]models.CartItem, len(items))
	copy(snapshot, items)

	subtotal := 0.0
	for _, item := range snapshot {
		subtotal += item.Price * float64(item.Quantity)
	}

	now := time.Now()
	return models.Order{
		UserID:          user.ID,
		Items:           snapshot,
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		Total:           subtotal + fee,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusUnpaid,
		DeliveryMethod:  req.DeliveryMethod,
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		PickupAgentID:   strings.TrimSpace(req.PickupAgentID),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   user.Email,
		Notes:           strings.TrimSpace(req.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CreateOrder snapshots the user's cart into a new order awaiting payment.
// A client-supplied Idempotency-Key header makes a double submission return
// the order created by the first one instead of a duplicate.
func CreateOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var verr validator.ValidationErrors
			if errors.As(err, &verr) && len(verr) > 0 {
				respondWithError(c, http.StatusBadRequest, route, verr[0].Field()+" is required")
				return
			}
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		idempotencyKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		if idempotencyKey != "" {
			var existing models.Order
			err := db.Collection("orders").FindOne(ctx,
				bson.M{"userId": userID, "idempotencyKey": idempotencyKey}).Decode(&existing)
			if err == nil {
				c.JSON(http.StatusOK, gin.H{"orderId": existing.ID.Hex(), "total": existing.Total})
				return
			}
			if !errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}

		var cart models.Cart
		err := db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		order, err := buildOrder(cart.Items, req, user)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		order.IdempotencyKey = idempotencyKey

		res, err := db.Collection("orders").InsertOne(ctx, order)
		if mongo.IsDuplicateKeyError(err) && idempotencyKey != "" {
			// Two submissions raced past the lookup; surface the winner.
			var existing models.Order
			if findErr := db.Collection("orders").FindOne(ctx,
				bson.M{"userId": userID, "idempotencyKey": idempotencyKey}).Decode(&existing); findErr == nil {
				c.JSON(http.StatusOK, gin.H{"orderId": existing.ID.Hex(), "total": existing.Total})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			order.ID = id
		}

		log.Println("[ORDER] [INFO] order created for user:", userID.Hex())
		c.JSON(http.StatusCreated, gin.H{"orderId": order.ID.Hex(), "total": order.Total})
	}
}

/* =========================
   READ PATH
========================= */

// GetOrders lists the authenticated user's orders, newest first. Orders with
// payment still pending are included; "created but unpaid" is a legitimate
// state the confirmation page displays.
func GetOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx,
			bson.M{"userId": userID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := []models.Order{}
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

// GetOrder returns one of the authenticated user's orders.
func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx,
			bson.M{"_id": orderID, "userId": userID}).Decode(&order)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, order)
	}
}
