package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

// GetStats aggregates the dashboard headline numbers: order counts per
// status, paid revenue, catalog size and registered users.
func GetStats(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/stats"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		ordersByStatus := map[string]int64{}
		cursor, err := db.Collection("orders").Aggregate(ctx, mongo.Pipeline{
			{{Key: "$group", Value: bson.M{
				"_id":   "$status",
				"count": bson.M{"$sum": 1},
			}}},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		var grouped []struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cursor.All(ctx, &grouped); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalOrders := int64(0)
		for _, g := range grouped {
			ordersByStatus[g.Status] = g.Count
			totalOrders += g.Count
		}

		revenueCursor, err := db.Collection("orders").Aggregate(ctx, mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"paymentStatus": models.PaymentStatusPaid}}},
			{{Key: "$group", Value: bson.M{
				"_id":   nil,
				"total": bson.M{"$sum": "$total"},
			}}},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		var revenue []struct {
			Total float64 `bson:"total"`
		}
		if err := revenueCursor.All(ctx, &revenue); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalRevenue := 0.0
		if len(revenue) > 0 {
			totalRevenue = revenue[0].Total
		}

		activeProducts, err := db.Collection("products").CountDocuments(ctx,
			bson.M{"isActive": true})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		totalUsers, err := db.Collection("users").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"totalOrders":    totalOrders,
			"ordersByStatus": ordersByStatus,
			"totalRevenue":   totalRevenue,
			"activeProducts": activeProducts,
			"totalUsers":     totalUsers,
		})
	}
}
