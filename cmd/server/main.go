package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-service/config"
	"restaurant-service/internal/api"
	"restaurant-service/internal/auth"
	"restaurant-service/internal/broker"
	"restaurant-service/internal/gateway"
	"restaurant-service/internal/media"
	"restaurant-service/internal/redisclient"
	"restaurant-service/internal/service"
	"restaurant-service/internal/store"
	"restaurant-service/internal/util"
	"restaurant-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// jakarta is the restaurant's local time, used for dashboard calendar days
var jakarta = time.FixedZone("WIB", 7*60*60)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting restaurant service")

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicRestaurant)
	defer producer.Close()
	logger.Info("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	if cfg.Gateway.ServerKey == "" {
		logger.Warn("MIDTRANS_SERVER_KEY is empty; payment initiation will fail")
	}
	midtrans := gateway.NewMidtrans(cfg.Gateway.ServerKey, cfg.Gateway.IsProduction)

	var uploader service.ImageUploader
	if cfg.Media.CloudinaryURL != "" {
		cld, err := media.NewCloudinary(cfg.Media.CloudinaryURL)
		if err != nil {
			logger.Fatal("Failed to configure Cloudinary", zap.Error(err))
		}
		uploader = cld
	} else {
		logger.Warn("CLOUDINARY_URL is empty; menu image upload disabled")
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	repo := service.NewSQLRepository(db)

	paymentService := service.NewPaymentService(repo, midtrans, eventPublisher, service.PaymentConfig{
		ServerKey:       midtrans.ServerKey(),
		VerifySignature: cfg.Gateway.VerifySignature,
		PublicBaseURL:   cfg.Server.PublicBaseURL,
		PendingTimeout:  time.Duration(cfg.Business.PaymentTimeoutSeconds) * time.Second,
	})

	services := api.Services{
		Sessions: service.NewSessionService(repo, redisClient, eventPublisher,
			time.Duration(cfg.Business.LockTTLSeconds)*time.Second),
		Orders:    service.NewOrderService(repo, eventPublisher),
		Payments:  paymentService,
		Menu:      service.NewMenuService(repo, uploader),
		Tables:    service.NewTableService(repo, cfg.Server.PublicBaseURL),
		Staff:     service.NewStaffService(repo, tokens),
		Dashboard: service.NewDashboardService(repo, redisClient, cfg.Business.NotificationFeedSize, jakarta),
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicRestaurant, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(consumer, redisClient, redisClient, cfg.Business.NotificationFeedSize)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Notification worker error", zap.Error(err))
		}
	}()

	expiryJob, err := worker.NewPaymentExpiryJob(paymentService,
		time.Duration(cfg.Business.PaymentExpirySweepSeconds)*time.Second, 30*time.Second)
	if err != nil {
		logger.Fatal("Failed to schedule payment expiry", zap.Error(err))
	}
	expiryJob.Start()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(services, tokens, api.Config{
		RequireAPIKey: cfg.IsProduction(),
		APIKey:        cfg.Auth.APIKey,
		SecureCookies: cfg.IsProduction(),
		ReadyChecks: map[string]func(ctx context.Context) error{
			"postgres": db.Ping,
			"redis":    redisClient.Ping,
		},
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := notificationWorker.Stop(); err != nil {
		logger.Warn("Error stopping notification worker", zap.Error(err))
	}
	if err := expiryJob.Stop(); err != nil {
		logger.Warn("Error stopping payment expiry job", zap.Error(err))
	}

	logger.Info("Server exited")
}
