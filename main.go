package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/joanrunyiri/Jojos-Boutick/internal/config"
	"github.com/joanrunyiri/Jojos-Boutick/internal/database"
	"github.com/joanrunyiri/Jojos-Boutick/internal/delivery"
	"github.com/joanrunyiri/Jojos-Boutick/internal/handlers"
	"github.com/joanrunyiri/Jojos-Boutick/internal/middleware"
	"github.com/joanrunyiri/Jojos-Boutick/internal/payments"
)

func main() {
	config.Load()
	cfg := config.AppEnv

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(cfg.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("⚠️ user index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("⚠️ cart index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}
	if err := database.EnsurePaymentIndexes(db); err != nil {
		log.Printf("⚠️ payment index warning: %v", err)
	}

	mpesa := payments.NewMpesaClient(payments.MpesaConfig{
		ConsumerKey:    cfg.MpesaConsumerKey,
		ConsumerSecret: cfg.MpesaConsumerSecret,
		Shortcode:      cfg.MpesaShortcode,
		Passkey:        cfg.MpesaPasskey,
		Environment:    cfg.MpesaEnvironment,
		CallbackURL:    cfg.PublicBaseURL + "/api/payments/mpesa/callback",
	})
	card := payments.NewCardClient(cfg.CardAPIKey, cfg.CardAPIBase)

	store := payments.NewMongoStore(db)
	reconciler := payments.NewReconciler(store)
	poller := payments.NewStkPoller(mpesa, reconciler,
		cfg.StkPollInterval, cfg.StkPollMaxAttempts, cfg.StkPollMaxElapsed)

	courier := delivery.NewClient(cfg.PickupMtaaniAPIKey, cfg.PickupMtaaniAPIBase)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		AllowCredentials: true,
	}))

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api.GET("/auth/callback", handlers.GoogleCallback(db, cfg))
	api.POST("/auth/refresh", handlers.Refresh(db, cfg))
	api.GET("/auth/me", middleware.UserAuth(cfg.JWTSecret), handlers.GetMe(db))
	api.POST("/auth/logout", handlers.Logout(db))
	api.POST("/auth/make-admin", middleware.AdminAuth(cfg.JWTSecret), handlers.MakeAdmin(db))

	api.GET("/products", handlers.GetProducts(db))
	api.GET("/products/:id", handlers.GetProduct(db))
	api.GET("/products/:id/reviews", handlers.GetProductReviews(db))
	api.GET("/categories", handlers.GetCategories())
	api.POST("/reviews", middleware.UserAuth(cfg.JWTSecret), handlers.CreateReview(db))

	// Cart works for guests too; ownership is a session cookie or the JWT.
	api.GET("/cart", handlers.GetCart(db, cfg.JWTSecret))
	api.POST("/cart/add", handlers.AddToCart(db, cfg.JWTSecret))
	api.PUT("/cart/update", handlers.UpdateCartItem(db, cfg.JWTSecret))
	api.DELETE("/cart/remove/:productId", handlers.RemoveFromCart(db, cfg.JWTSecret))
	api.DELETE("/cart/clear", handlers.ClearCart(db, cfg.JWTSecret))

	api.GET("/delivery/pickup-mtaani/agents", handlers.GetPickupAgents(courier))
	api.GET("/delivery/pickup-mtaani/charge", handlers.GetDeliveryCharge(courier))
	api.GET("/delivery/track/:trackingNumber", handlers.TrackOrder(db, courier))

	// Provider-initiated webhooks carry no user credentials.
	api.POST("/payments/mpesa/callback", handlers.MpesaCallback(reconciler))
	api.POST("/payments/card/webhook", handlers.CardWebhook(card, reconciler))

	user := api.Group("")
	user.Use(middleware.UserAuth(cfg.JWTSecret))
	{
		user.POST("/orders", handlers.CreateOrder(db))
		user.GET("/orders", handlers.GetOrders(db))
		user.GET("/orders/:id", handlers.GetOrder(db))

		user.POST("/payments/mpesa/stk-push", handlers.InitiateMpesa(db, mpesa, poller))
		user.GET("/payments/mpesa/status/:id", handlers.MpesaStatus(db))
		user.POST("/payments/card/checkout", handlers.CardCheckout(db, card, cfg))
		user.GET("/payments/card/status/:sessionId", handlers.CardStatus(db, card, reconciler, cfg))
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.JWTSecret))
	{
		admin.GET("/products", handlers.GetAllProducts(db))
		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))

		admin.GET("/orders", handlers.ListAllOrders(db))
		admin.PUT("/orders/:id/status", handlers.UpdateOrderStatus(db))

		admin.GET("/stats", handlers.GetStats(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
