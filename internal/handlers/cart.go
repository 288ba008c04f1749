package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/joanrunyiri/Jojos-Boutick/internal/middleware"
	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

// cartSessionCookie identifies anonymous carts; authenticated carts are keyed
// by user id instead.
const cartSessionCookie = "cart_session"

type itemUnavailableError struct {
	ProductID primitive.ObjectID
}

func (e itemUnavailableError) Error() string {
	return "item unavailable"
}

/* =========================
   PURE CART MUTATIONS
========================= */

// mergeCartItem appends the line or, when the identity key (product, size,
// color) already exists, increments that line's quantity.
func mergeCartItem(items []models.CartItem, item models.CartItem) []models.CartItem {
	for i := range items {
		if items[i].Matches(item.ProductID, item.Size, item.Color) {
			items[i].Quantity += item.Quantity
			return items
		}
	}
	return append(items, item)
}

// setCartQuantity replaces a line's quantity; zero or below removes the line.
func setCartQuantity(items []models.CartItem, productID primitive.ObjectID, size, color string, quantity int) []models.CartItem {
	if quantity <= 0 {
		return dropCartItem(items, productID, size, color)
	}
	for i := range items {
		if items[i].Matches(productID, size, color) {
			items[i].Quantity = quantity
			break
		}
	}
	return items
}

func dropCartItem(items []models.CartItem, productID primitive.ObjectID, size, color string) []models.CartItem {
	kept := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if !item.Matches(productID, size, color) {
			kept = append(kept, item)
		}
	}
	return kept
}

/* =========================
   CART LOOKUP
========================= */

func cartOwnerQuery(userID *primitive.ObjectID, sessionID string) bson.M {
	if userID != nil {
		return bson.M{"userId": *userID}
	}
	return bson.M{"sessionId": sessionID}
}

func cartSessionID(c *gin.Context) string {
	if cookie, err := c.Cookie(cartSessionCookie); err == nil && strings.TrimSpace(cookie) != "" {
		return cookie
	}
	return uuid.NewString()
}

func setCartSessionCookie(c *gin.Context, userID *primitive.ObjectID, sessionID string) {
	if userID == nil {
		c.SetCookie(cartSessionCookie, sessionID, 30*24*60*60, "/", "", false, true)
	}
}

func loadOrCreateCart(ctx context.Context, db *mongo.Database, userID *primitive.ObjectID, sessionID string) (models.Cart, error) {
	query := cartOwnerQuery(userID, sessionID)

	var cart models.Cart
	err := db.Collection("carts").FindOne(ctx, query).Decode(&cart)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Cart{}, err
	}

	cart = models.Cart{Items: []models.CartItem{}, UpdatedAt: time.Now()}
	if userID != nil {
		cart.UserID = userID
	} else {
		cart.SessionID = &sessionID
	}
	res, err := db.Collection("carts").InsertOne(ctx, cart)
	if err != nil {
		return models.Cart{}, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		cart.ID = id
	}
	return cart, nil
}

func saveCartItems(ctx context.Context, db *mongo.Database, userID *primitive.ObjectID, sessionID string, items []models.CartItem) error {
	_, err := db.Collection("carts").UpdateOne(ctx,
		cartOwnerQuery(userID, sessionID),
		bson.M{"$set": bson.M{"items": items, "updatedAt": time.Now()}},
	)
	return err
}

func cartResponse(cart models.Cart) gin.H {
	return gin.H{
		"id":        cart.ID.Hex(),
		"items":     cart.Items,
		"itemCount": cart.ItemCount(),
		"subtotal":  cart.Subtotal(),
		"updatedAt": cart.UpdatedAt,
	}
}

/* =========================
   HANDLERS
========================= */

// GetCart returns the current cart, creating an empty one on first contact.
func GetCart(db *mongo.Database, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		userID := middleware.OptionalUserID(c, jwtSecret)
		sessionID := cartSessionID(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := loadOrCreateCart(ctx, db, userID, sessionID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		setCartSessionCookie(c, userID, sessionID)
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// AddToCart snapshots the catalog price into a new or merged cart line.
func AddToCart(db *mongo.Database, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/add"
		defer handlePanic(c, route)

		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if req.Quantity <= 0 {
			req.Quantity = 1
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		userID := middleware.OptionalUserID(c, jwtSecret)
		sessionID := cartSessionID(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx,
			bson.M{"_id": productID, "isActive": true}).Decode(&product)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if product.Stock <= 0 {
			log.Printf("[CART] [INFO] rejected add of out-of-stock product %s", productID.Hex())
			c.JSON(http.StatusConflict, gin.H{
				"error":     itemUnavailableError{ProductID: productID}.Error(),
				"productId": productID.Hex(),
			})
			return
		}

		cart, err := loadOrCreateCart(ctx, db, userID, sessionID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cart.Items = mergeCartItem(cart.Items, models.CartItem{
			ProductID: productID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  req.Quantity,
			Size:      req.Size,
			Color:     req.Color,
			Image:     product.FirstImage(),
		})

		if err := saveCartItems(ctx, db, userID, sessionID, cart.Items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		setCartSessionCookie(c, userID, sessionID)
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

type updateCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// UpdateCartItem sets a line's quantity; zero or below removes the line.
func UpdateCartItem(db *mongo.Database, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/update"
		defer handlePanic(c, route)

		var req updateCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		userID := middleware.OptionalUserID(c, jwtSecret)
		sessionID := cartSessionID(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var cart models.Cart
		err = db.Collection("carts").FindOne(ctx, cartOwnerQuery(userID, sessionID)).Decode(&cart)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "cart not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cart.Items = setCartQuantity(cart.Items, productID, req.Size, req.Color, req.Quantity)

		if err := saveCartItems(ctx, db, userID, sessionID, cart.Items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// RemoveFromCart drops a line by its identity key.
func RemoveFromCart(db *mongo.Database, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/remove/:productId"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		userID := middleware.OptionalUserID(c, jwtSecret)
		sessionID := cartSessionID(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var cart models.Cart
		err = db.Collection("carts").FindOne(ctx, cartOwnerQuery(userID, sessionID)).Decode(&cart)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "cart not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cart.Items = dropCartItem(cart.Items, productID, c.Query("size"), c.Query("color"))

		if err := saveCartItems(ctx, db, userID, sessionID, cart.Items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// ClearCart empties the cart. Idempotent: clearing an absent or already-empty
// cart succeeds.
func ClearCart(db *mongo.Database, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/clear"
		defer handlePanic(c, route)

		userID := middleware.OptionalUserID(c, jwtSecret)
		sessionID := cartSessionID(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := saveCartItems(ctx, db, userID, sessionID, []models.CartItem{}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
	}
}
