package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

// GetProducts lists active products with optional category, featured, search
// and price filters.
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		limit, skip, err := parseListParams(c.Query("limit"), c.Query("skip"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		query := bson.M{"isActive": true}
		if category := c.Query("category"); category != "" {
			query["category"] = category
		}
		if featured := c.Query("featured"); featured != "" {
			isFeatured, err := strconv.ParseBool(featured)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid featured param")
				return
			}
			query["isFeatured"] = isFeatured
		}
		if search := c.Query("search"); search != "" {
			query["$or"] = []bson.M{
				{"name": bson.M{"$regex": search, "$options": "i"}},
				{"description": bson.M{"$regex": search, "$options": "i"}},
			}
		}
		price := bson.M{}
		if minPrice := c.Query("min_price"); minPrice != "" {
			if parsed, err := strconv.ParseFloat(minPrice, 64); err == nil {
				price["$gte"] = parsed
			}
		}
		if maxPrice := c.Query("max_price"); maxPrice != "" {
			if parsed, err := strconv.ParseFloat(maxPrice, 64); err == nil {
				price["$lte"] = parsed
			}
		}
		if len(price) > 0 {
			query["price"] = price
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, query,
			options.Find().SetLimit(limit).SetSkip(skip).SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var products []models.Product
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		for i := range products {
			products[i].InStock = products[i].Stock > 0
		}

		total, err := db.Collection("products").CountDocuments(ctx, query)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"products": products, "total": total})
	}
}

// GetProduct returns a single product together with its reviews.
func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		product.InStock = product.Stock > 0

		cursor, err := db.Collection("reviews").Find(ctx, bson.M{"productId": productID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		reviews := []models.Review{}
		if err := cursor.All(ctx, &reviews); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"product": product, "reviews": reviews})
	}
}

type categoryEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// The boutique's category list is fixed.
var categories = []categoryEntry{
	{ID: "dresses", Name: "Dresses", Image: "https://images.unsplash.com/photo-1596484552993-aec4311d3381?w=400"},
	{ID: "skirts", Name: "Skirts", Image: "https://images.unsplash.com/photo-1728507523256-47e4caeed925?w=400"},
	{ID: "coats", Name: "Coats", Image: "https://images.unsplash.com/photo-1673105793839-6c2811a4e1e7?w=400"},
	{ID: "2_piece", Name: "2 Piece", Image: "https://images.unsplash.com/photo-1768221677363-55e754eb6021?w=400"},
	{ID: "sunglasses", Name: "Sun Glasses", Image: "https://images.unsplash.com/photo-1620743364130-8a1669f00b64?w=400"},
}

func GetCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"categories": categories})
	}
}
