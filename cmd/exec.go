package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"tiketons/config"
	"tiketons/handlers"
	"tiketons/internal/gateway/midtrans"
	"tiketons/internal/store"
	_ "tiketons/migrations"
	"tiketons/monitoring"
	"tiketons/security"
	"tiketons/services"
	"tiketons/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis
	redisClient, err := utils.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	// Payment processor client
	gateway := midtrans.NewClient(&cfg.Midtrans)

	monitor := monitoring.NewMonitor(redisClient)

	// Storage collaborators
	transactionStore := store.NewTransactionStore(app)
	ticketStore := store.NewTicketStore(app)
	eventStore := store.NewEventStore(app)

	// Initialize services
	paymentService := services.NewPaymentService(redisClient, gateway, transactionStore, monitor, cfg.PaymentSessionTTL)
	ticketService := services.NewTicketService(transactionStore, ticketStore, eventStore)
	notificationService := services.NewNotificationService(
		gateway,
		transactionStore,
		ticketService,
		services.NewPubNubPublisher(pn),
		monitor,
	)

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService, notificationService)
	rateLimiter := security.NewRateLimiter(redisClient, cfg.ChargeRateLimit)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Setup graceful shutdown
	go handleShutdown(cancel)

	if cfg.EnableMetrics {
		go serveMetrics(cfg.MetricsPort)
	}

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Payment endpoints
		e.Router.POST("/api/v1/payment/charge", paymentHandler.Charge).BindFunc(rateLimiter.ChargeRateLimit())
		e.Router.POST("/api/v1/payment/notification", paymentHandler.Notification)
		e.Router.GET("/api/v1/payment/{orderId}", paymentHandler.GetPaymentDetails)
		e.Router.GET("/api/v1/payment/{orderId}/status", paymentHandler.CheckPaymentStatus)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(e.Request.Context(), redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("Metrics server listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("Metrics server error: %v", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
