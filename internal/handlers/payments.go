package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/joanrunyiri/Jojos-Boutick/internal/config"
	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
	"github.com/joanrunyiri/Jojos-Boutick/internal/payments"
)

func loadUserOrder(ctx context.Context, db *mongo.Database, orderID, userID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := db.Collection("orders").FindOne(ctx,
		bson.M{"_id": orderID, "userId": userID}).Decode(&order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func insertAttempt(ctx context.Context, db *mongo.Database, order *models.Order, method, correlationID, status string) error {
	now := time.Now()
	txn := models.PaymentTransaction{
		OrderID:       order.ID,
		UserID:        order.UserID,
		Amount:        order.Total,
		Currency:      "KES",
		Method:        method,
		CorrelationID: correlationID,
		Status:        status,
		InitiatedAt:   now,
		UpdatedAt:     now,
	}
	_, err := db.Collection("payment_transactions").InsertOne(ctx, txn)
	return err
}

// recordAttempt stores the pending attempt and points the order's paymentRef
// at it, superseding any previous attempt's ref.
func recordAttempt(ctx context.Context, db *mongo.Database, order *models.Order, method, correlationID, status string) error {
	if err := insertAttempt(ctx, db, order, method, correlationID, status); err != nil {
		return err
	}

	_, err := db.Collection("orders").UpdateOne(ctx,
		bson.M{"_id": order.ID},
		bson.M{"$set": bson.M{
			"paymentMethod": method,
			"paymentRef":    correlationID,
			"updatedAt":     time.Now(),
		}},
	)
	return err
}

/* =========================
   M-PESA (PUSH PAYMENT)
========================= */

type mpesaPushRequest struct {
	OrderID     string `json:"orderId" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// InitiateMpesa sends the STK prompt and hands the attempt to the background
// poller. The paying phone number is validated on its own: customers may pay
// from a different line than the one on the order.
func InitiateMpesa(db *mongo.Database, provider payments.PushProvider, poller *payments.StkPoller) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments/mpesa/stk-push"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}

		var req mpesaPushRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		if !models.ValidPhone(req.PhoneNumber) {
			respondWithError(c, http.StatusBadRequest, route, "phone number must be in format 254XXXXXXXXX")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 35*time.Second)
		defer cancel()

		order, err := loadUserOrder(ctx, db, orderID, userID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if order.PaymentStatus == models.PaymentStatusPaid {
			respondWithError(c, http.StatusBadRequest, route, "order already paid")
			return
		}

		result, err := provider.Push(ctx, payments.PushRequest{
			Amount:     order.Total,
			Phone:      req.PhoneNumber,
			AccountRef: order.ID.Hex(),
			Narrative:  "Payment for order " + order.ID.Hex(),
		})
		if err != nil {
			var denied payments.ProviderDeniedError
			if errors.As(err, &denied) {
				// Keep the rejected attempt on record; the order itself
				// stays untouched and retryable.
				if recErr := insertAttempt(ctx, db, order, models.PaymentMethodMpesa,
					"denied-"+uuid.NewString(), models.AttemptFailed); recErr != nil {
					log.Println("[PAYMENT] [ERROR] recording denied attempt:", recErr)
				}
				respondWithError(c, http.StatusBadRequest, route, denied.Error())
				return
			}
			log.Println("[PAYMENT] [ERROR] stk push initiation:", err)
			respondWithError(c, http.StatusBadGateway, route, "failed to initiate payment")
			return
		}

		if err := recordAttempt(ctx, db, order, models.PaymentMethodMpesa,
			result.CorrelationID, models.AttemptPending); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		// The poller outlives the request; it bounds itself.
		go poller.Watch(context.Background(), result.CorrelationID)

		log.Printf("[PAYMENT] [INFO] stk push initiated for order %s: %s",
			order.ID.Hex(), result.CorrelationID)
		c.JSON(http.StatusOK, gin.H{
			"checkoutRequestId": result.CorrelationID,
			"message":           result.Message,
		})
	}
}

// MpesaCallback is the provider-initiated confirmation path. It feeds the
// same reducer as the poller, so a duplicate delivery or a callback racing a
// poll tick converges on one transition. The provider expects a zero result
// code even on internal errors, otherwise it re-delivers forever.
func MpesaCallback(reconciler *payments.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments/mpesa/callback"
		defer handlePanic(c, route)

		var body struct {
			Body struct {
				StkCallback struct {
					CheckoutRequestID string `json:"CheckoutRequestID"`
					ResultCode        int    `json:"ResultCode"`
					ResultDesc        string `json:"ResultDesc"`
					CallbackMetadata  struct {
						Item []struct {
							Name  string      `json:"Name"`
							Value interface{} `json:"Value"`
						} `json:"Item"`
					} `json:"CallbackMetadata"`
				} `json:"stkCallback"`
			} `json:"Body"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			log.Println("[PAYMENT] [ERROR] mpesa callback parse:", err)
			c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
			return
		}

		callback := body.Body.StkCallback
		log.Printf("[PAYMENT] [INFO] mpesa callback %s: code=%d",
			callback.CheckoutRequestID, callback.ResultCode)

		status := payments.StatusFailed
		receipt := ""
		if callback.ResultCode == 0 {
			status = payments.StatusPaid
			for _, item := range callback.CallbackMetadata.Item {
				if item.Name == "MpesaReceiptNumber" {
					if value, ok := item.Value.(string); ok {
						receipt = value
					}
				}
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if _, err := reconciler.Apply(ctx, callback.CheckoutRequestID, status, receipt); err != nil &&
			!errors.Is(err, payments.ErrUnknownCorrelation) {
			log.Println("[PAYMENT] [ERROR] mpesa callback apply:", err)
		}

		c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
	}
}

// MpesaStatus reports the attempt state the reconciler has converged on; the
// checkout page polls it while the prompt is open on the customer's phone.
func MpesaStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /payments/mpesa/status/:id"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var txn models.PaymentTransaction
		err := db.Collection("payment_transactions").FindOne(ctx, bson.M{
			"correlationId": c.Param("id"),
			"userId":        userID,
		}).Decode(&txn)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "transaction not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":       txn.Status,
			"orderId":      txn.OrderID.Hex(),
			"mpesaReceipt": txn.ProviderRef,
		})
	}
}

/* =========================
   CARD (REDIRECT CHECKOUT)
========================= */

type cardCheckoutRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

// CardCheckout opens a hosted checkout session; the session id doubles as the
// attempt's correlation id and round-trips via the return URL.
func CardCheckout(db *mongo.Database, provider payments.CheckoutProvider, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments/card/checkout"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}

		var req cardCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 35*time.Second)
		defer cancel()

		order, err := loadUserOrder(ctx, db, orderID, userID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if order.PaymentStatus == models.PaymentStatusPaid {
			respondWithError(c, http.StatusBadRequest, route, "order already paid")
			return
		}

		session, err := provider.CreateSession(ctx, payments.CheckoutSessionRequest{
			Amount:     order.Total,
			Currency:   "KES",
			SuccessURL: cfg.FrontendBaseURL + "/order-confirmation?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:  cfg.FrontendBaseURL + "/checkout?order_id=" + order.ID.Hex(),
			Reference:  order.ID.Hex(),
		})
		if err != nil {
			log.Println("[PAYMENT] [ERROR] card session creation:", err)
			respondWithError(c, http.StatusBadGateway, route, "failed to initiate payment")
			return
		}

		if err := recordAttempt(ctx, db, order, models.PaymentMethodCard,
			session.SessionID, models.AttemptPending); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[PAYMENT] [INFO] card checkout opened for order %s: %s",
			order.ID.Hex(), session.SessionID)
		c.JSON(http.StatusOK, gin.H{
			"checkoutUrl": session.RedirectURL,
			"sessionId":   session.SessionID,
		})
	}
}

// CardStatus is the return-path reconciliation: called when the customer
// lands back on the confirmation page. It retries the provider a bounded
// number of times and reports "pending" rather than failing if the provider
// has not settled yet.
func CardStatus(db *mongo.Database, provider payments.CheckoutProvider, reconciler *payments.Reconciler, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /payments/card/status/:sessionId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}

		sessionID := c.Param("sessionId")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		var txn models.PaymentTransaction
		err := db.Collection("payment_transactions").FindOne(ctx, bson.M{
			"correlationId": sessionID,
			"userId":        userID,
		}).Decode(&txn)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "transaction not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if models.AttemptTerminal(txn.Status) {
			c.JSON(http.StatusOK, gin.H{"status": txn.Status, "orderId": txn.OrderID.Hex()})
			return
		}

		outcome, err := payments.ReconcileSession(ctx, provider, reconciler, sessionID,
			cfg.CardReconcileAttempts, cfg.CardReconcileBackoff)
		if err != nil {
			log.Println("[PAYMENT] [ERROR] card reconciliation:", err)
		}

		status := outcome.AttemptStatus
		if status == "" {
			status = models.AttemptPending
		}
		c.JSON(http.StatusOK, gin.H{"status": status, "orderId": txn.OrderID.Hex()})
	}
}

// CardWebhook handles provider notifications. The event only names the
// session; the status fed to the reducer comes from querying the provider
// back, so a forged body cannot confirm an order.
func CardWebhook(provider payments.CheckoutProvider, reconciler *payments.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments/card/webhook"
		defer handlePanic(c, route)

		var event struct {
			Type string `json:"type"`
			Data struct {
				Object struct {
					ID string `json:"id"`
				} `json:"object"`
			} `json:"data"`
		}
		if err := c.ShouldBindJSON(&event); err != nil || event.Data.Object.ID == "" {
			respondWithError(c, http.StatusBadRequest, route, "invalid webhook payload")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		status, err := provider.SessionStatus(ctx, event.Data.Object.ID)
		if err != nil {
			log.Println("[PAYMENT] [ERROR] card webhook verification:", err)
			respondWithError(c, http.StatusBadGateway, route, "verification failed")
			return
		}

		if _, err := reconciler.Apply(ctx, event.Data.Object.ID, status, ""); err != nil &&
			!errors.Is(err, payments.ErrUnknownCorrelation) {
			log.Println("[PAYMENT] [ERROR] card webhook apply:", err)
			respondWithError(c, http.StatusInternalServerError, route, "reconciliation failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}
