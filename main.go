package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quikko-api/cache"
	"quikko-api/database"
	"quikko-api/fcm"
	"quikko-api/handlers"
	"quikko-api/kafka"
	"quikko-api/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.InitDB(logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize OpenTelemetry
	shutdown, err := middleware.InitTracing("quikko-api")
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdown()

	// Initialize Redis; the API degrades to uncached reads without it
	redisClient, err := cache.InitRedis(logger)
	if err != nil {
		logger.Warn("Redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	// Initialize Kafka producer and the notification consumer
	producer, err := kafka.InitProducer(logger)
	if err != nil {
		logger.Warn("Kafka unavailable, order events disabled", zap.Error(err))
		producer = nil
	} else {
		defer producer.Close()

		consumer, err := kafka.InitConsumer(logger)
		if err != nil {
			logger.Warn("Kafka consumer unavailable", zap.Error(err))
		} else {
			defer consumer.Close()
			pusher := fcm.NewClient()
			go func() {
				if err := kafka.StartConsumer(consumer, db, pusher, logger); err != nil {
					logger.Error("Kafka consumer error", zap.Error(err))
				}
			}()
		}
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())

	// Health check endpoint
	router.GET("/health", handlers.HealthCheck)

	// Metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler())

	authHandler := handlers.NewAuthHandler(db, logger)
	productHandler := handlers.NewProductHandler(db, redisClient, logger)
	orderHandler := handlers.NewOrderHandler(db, producer, logger)
	paymentHandler := handlers.NewPaymentHandler(db, producer, logger)
	chatHandler := handlers.NewChatHandler(db, logger)
	notificationHandler := handlers.NewNotificationHandler(db, logger)
	profileHandler := handlers.NewProfileHandler(db, logger)
	reportHandler := handlers.NewReportHandler(db, logger)
	cmsHandler := handlers.NewCMSHandler(db, redisClient, logger)

	api := router.Group("/api")

	// Public endpoints
	api.POST("/auth/register/vendor", authHandler.RegisterVendor)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/products", productHandler.GetProducts)
	api.GET("/products/:id", productHandler.GetProduct)
	api.GET("/categories", productHandler.GetCategories)
	api.GET("/cms", cmsHandler.GetContent)

	// Payment endpoints; the checkout flow works for guests too, so the
	// guest cookie is issued here and identity is required
	checkout := api.Group("/")
	checkout.Use(middleware.OptionalAuth(), middleware.GuestToken(), middleware.IdentifyCustomer())
	{
		checkout.POST("/payments", paymentHandler.CreatePayment)
		checkout.GET("/payments/:transactionId", paymentHandler.GetPaymentByTransactionID)
		checkout.GET("/orders/:id/payments", paymentHandler.GetPaymentsByOrder)
	}

	// Payment-provider callback
	api.PUT("/payments/:transactionId/status", paymentHandler.UpdatePaymentStatus)

	// Authenticated endpoints
	authed := api.Group("/")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.GET("/chat/conversations", chatHandler.GetConversations)
		authed.GET("/chat", chatHandler.GetMessages)
		authed.POST("/chat", chatHandler.SendMessage)
		authed.GET("/notifications", notificationHandler.GetNotifications)
		authed.POST("/notifications/save-fcm-token", notificationHandler.SaveFCMToken)
		authed.PUT("/users/:id/fcm-token", notificationHandler.UpdateFCMToken)
	}

	// Vendor endpoints
	vendor := api.Group("/")
	vendor.Use(middleware.AuthMiddleware(), middleware.VendorOnly())
	{
		vendor.POST("/products", productHandler.CreateProduct)
		vendor.PUT("/products/:id", productHandler.UpdateProduct)
		vendor.DELETE("/products/:id", productHandler.DeleteProduct)
		vendor.GET("/vendor/products", productHandler.GetVendorProducts)
		vendor.GET("/vendor/orders", orderHandler.GetVendorOrders)
		vendor.GET("/vendor/order-items", orderHandler.GetVendorOrderItems)
		vendor.PUT("/vendor/order-items/:id/status", orderHandler.UpdateOrderItemStatus)
		vendor.GET("/vendor/profile", profileHandler.GetProfile)
		vendor.PUT("/vendor/profile", profileHandler.UpdateProfile)
		vendor.GET("/vendor/reports", reportHandler.GetVendorReport)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Quikko API started", zap.String("port", port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
