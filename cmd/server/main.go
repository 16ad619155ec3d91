package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MoveMate/service-booking/internal/application"
	"github.com/MoveMate/service-booking/internal/config"
	bookingDomain "github.com/MoveMate/service-booking/internal/domain/booking"
	"github.com/MoveMate/service-booking/internal/domain/tracking"
	bookingEvents "github.com/MoveMate/service-booking/internal/events"
	"github.com/MoveMate/service-booking/internal/geocoding"
	"github.com/MoveMate/service-booking/internal/handler"
	"github.com/MoveMate/service-booking/internal/repository"
	"github.com/MoveMate/service-booking/pkg/auth"
	"github.com/MoveMate/service-booking/pkg/database"
	"github.com/MoveMate/service-booking/pkg/health"
	"github.com/MoveMate/service-booking/pkg/kafka"
	"github.com/MoveMate/service-booking/pkg/logger"
	"github.com/MoveMate/service-booking/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load(".", "./config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.Store.Driver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Booking store
	var (
		db          *gorm.DB
		bookingRepo bookingDomain.BookingRepository
	)
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err = database.Connect(cfg.DBConfig, log)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}

		if cfg.IsDevelopment() {
			if err := db.AutoMigrate(&repository.BookingModel{}); err != nil {
				log.Fatal("failed to run auto-migration", zap.Error(err))
			}
			log.Info("database migration completed (dev auto-migrate)")
		} else if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		bookingRepo = repository.NewGormBookingRepository(db)

	case config.StoreDriverFile:
		fileRepo, err := repository.NewFileBookingRepository(cfg.Store.FilePath, log)
		if err != nil {
			log.Fatal("failed to open booking file store", zap.Error(err))
		}
		bookingRepo = fileRepo
	}

	// Pending booking staging slot
	var staging bookingDomain.PendingStore
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = redisClient.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		staging = repository.NewRedisPendingStore(redisClient, cfg.PendingTTL, log)
	} else {
		log.Warn("REDIS_ADDR not set, staging pending bookings in memory")
		staging = repository.NewMemoryPendingStore(cfg.PendingTTL)
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	// Initialize Kafka producer
	var publisher application.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	} else {
		log.Warn("KAFKA_BROKERS not set, booking events are disabled")
	}

	trackingIDs, err := bookingDomain.NewTrackingIDGenerator(cfg.Tracking.IDStrategy)
	if err != nil {
		log.Fatal("invalid tracking id strategy", zap.Error(err))
	}

	// Initialize application services
	bookingService := application.NewBookingService(
		bookingRepo,
		staging,
		bookingDomain.NewStandardPricingStrategy(),
		trackingIDs,
		publisher,
		log,
	)
	trackingService := application.NewTrackingService(
		bookingRepo,
		tracking.NewSimulator(nil),
		cfg.Tracking.TickInterval,
		log,
	)
	locationService := application.NewLocationService(
		geocoding.NewClient(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout),
		log,
	)

	// Initialize and start provider event consumer in a goroutine
	if len(cfg.Kafka.Brokers) > 0 {
		groupID := cfg.Kafka.GroupPrefix + "-booking-service"
		providerConsumer := bookingEvents.NewProviderEventConsumer(
			cfg.Kafka.Brokers,
			groupID,
			bookingService,
			log,
		)
		defer func() { _ = providerConsumer.Close() }()

		go func() {
			log.Info("starting provider event consumer")
			if err := providerConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("provider event consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	health.NewHandler(db, serviceName).RegisterRoutes(router)

	// Register routes
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewTrackingHandler(trackingService).RegisterRoutes(&router.RouterGroup)
	handler.NewLocationHandler(locationService).RegisterRoutes(&router.RouterGroup)

	// Create HTTP server. No write timeout: live tracking streams stay open.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Stop live sessions first so their streams end and no new ones open
	// while the server drains, then the consumer.
	trackingService.Shutdown()
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
