package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/joanrunyiri/Jojos-Boutick/internal/delivery"
	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

// statusStep maps an order status onto the four-step tracking timeline shown
// on the tracking page. Cancelled orders sit outside the timeline at step 0.
func statusStep(status string) int {
	switch status {
	case models.OrderStatusPending:
		return 1
	case models.OrderStatusProcessing:
		return 2
	case models.OrderStatusShipped:
		return 3
	case models.OrderStatusDelivered:
		return 4
	default:
		return 0
	}
}

// GetPickupAgents lists pickup locations for the checkout form.
func GetPickupAgents(client *delivery.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /delivery/pickup-agents"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
		defer cancel()

		agents, mock, err := client.Agents(ctx)
		if err != nil {
			log.Println("[DELIVERY] [ERROR] agent lookup:", err)
			// Serve the fallback list rather than breaking checkout.
			agents, mock = delivery.FallbackAgents, true
		}

		c.JSON(http.StatusOK, gin.H{"agents": agents, "mock": mock})
	}
}

// GetDeliveryCharge quotes the fee for a delivery method. Doorstep is a flat
// fee; pickup charges may come from the partner when an agent is named.
func GetDeliveryCharge(client *delivery.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /delivery/charge"
		defer handlePanic(c, route)

		method := c.Query("method")
		fee, ok := models.DeliveryFee(method)
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "invalid delivery method")
			return
		}

		if method == models.DeliveryPickupMtaani {
			if agentID := c.Query("agent_id"); agentID != "" {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
				defer cancel()

				charge, err := client.Charge(ctx, agentID)
				if err != nil {
					log.Println("[DELIVERY] [ERROR] charge lookup:", err)
				} else {
					fee = charge
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"method": method, "fee": fee})
	}
}

// TrackOrder resolves a tracking number, preferring the local order record
// and falling back to the delivery partner for numbers we did not issue.
func TrackOrder(db *mongo.Database, client *delivery.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /delivery/track/:trackingNumber"
		defer handlePanic(c, route)

		trackingNumber := c.Param("trackingNumber")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
		defer cancel()

		var order models.Order
		err := db.Collection("orders").FindOne(ctx,
			bson.M{"trackingNumber": trackingNumber}).Decode(&order)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{
				"order_id":        order.ID.Hex(),
				"status":          order.Status,
				"delivery_method": order.DeliveryMethod,
				"tracking_number": trackingNumber,
				"step":            statusStep(order.Status),
			})
			return
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if client.Configured() {
			info, err := client.TrackPackage(ctx, trackingNumber)
			if err == nil {
				c.JSON(http.StatusOK, gin.H{
					"tracking_number": info.TrackingNumber,
					"status":          info.Status,
					"message":         info.Message,
				})
				return
			}
			log.Println("[DELIVERY] [ERROR] partner tracking lookup:", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"tracking_number": trackingNumber,
			"status":          "unknown",
			"message":         "No information found for this tracking number",
		})
	}
}
