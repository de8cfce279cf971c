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

	"ridehive/internal/config"
	"ridehive/internal/handlers"
	"ridehive/internal/middleware"
	"ridehive/internal/repositories/mongodb"
	"ridehive/internal/services"
	"ridehive/pkg/cache"
	"ridehive/pkg/database"
	"ridehive/pkg/fare"
	"ridehive/pkg/logger"
	"ridehive/pkg/matching"
	"ridehive/pkg/payment"
	"ridehive/pkg/push"
	"ridehive/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Storage
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx); err != nil {
		appLogger.Fatalf("Failed to create indexes: %v", err)
	}
	cancelIndex()

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Repositories
	rideRepo := mongodb.NewRideRepository(db.Database, redisCache)
	accountRepo := mongodb.NewAccountRepository(db.Database)
	txRepo := mongodb.NewTransactionRepository(db.Database)
	locationRepo := mongodb.NewLocationRepository(db.Database, redisCache)
	userRepo := mongodb.NewUserRepository(db.Database)
	notificationRepo := mongodb.NewNotificationRepository(db.Database)

	// External collaborators
	pushProvider, err := newPushProvider(cfg.Push)
	if err != nil {
		appLogger.Fatalf("Failed to initialize push provider: %v", err)
	}

	fareEstimator, err := fare.NewGoogleMapsEstimator(&fare.Config{
		APIKey:      cfg.Fare.GoogleMapsAPIKey,
		BaseFare:    cfg.Fare.BaseFare,
		PerKMRate:   cfg.Fare.PerKMRate,
		MinimumFare: cfg.Fare.MinimumFare,
	})
	if err != nil {
		appLogger.Fatalf("Failed to initialize fare estimator: %v", err)
	}

	matcher := matching.NewClient(cfg.Matching.BaseURL, cfg.Matching.Timeout)
	paymentProvider := payment.NewStripeProvider(cfg.Payment.StripeSecretKey)

	// Services
	notifier := services.NewNotificationService(notificationRepo, userRepo, pushProvider, appLogger)
	dispatchService := services.NewDispatchService(rideRepo, matcher, notifier, cfg.Dispatch, appLogger)
	settlementService := services.NewSettlementService(rideRepo, accountRepo, txRepo, cfg.Payment, appLogger)
	rideService := services.NewRideService(rideRepo, accountRepo, locationRepo,
		fareEstimator, dispatchService, settlementService, notifier, cfg, appLogger)
	locationService := services.NewLocationService(locationRepo, appLogger)
	accountService := services.NewAccountService(accountRepo, txRepo, paymentProvider, cfg, appLogger)
	reaperService := services.NewReaperService(rideRepo, matcher, notifier, cfg.Dispatch, appLogger)
	activatorService := services.NewActivatorService(rideRepo, dispatchService, notifier, cfg.Dispatch, appLogger)

	// Background loops
	bgCtx, cancelBg := context.WithCancel(context.Background())
	go dispatchService.Run(bgCtx)
	go reaperService.Run(bgCtx)
	go activatorService.Run(bgCtx)
	go notifier.Run(bgCtx)

	// Handlers
	rideHandler := handlers.NewRideHandler(rideService)
	driverHandler := handlers.NewDriverHandler(rideService, locationService)
	walletHandler := handlers.NewWalletHandler(accountService)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())

	v1 := router.Group("/api/v1")
	{
		routes.SetupRideRoutes(v1, cfg.Security.JWTSecret, rideHandler)
		routes.SetupDriverRoutes(v1, cfg.Security.JWTSecret, driverHandler)
		routes.SetupWalletRoutes(v1, cfg.Security.JWTSecret, walletHandler)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
		})
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting server on port %d", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down")
	cancelBg()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Forced shutdown: %v", err)
	}
}

func newPushProvider(cfg *config.PushConfig) (push.PushProvider, error) {
	switch cfg.Provider {
	case "apns":
		return push.NewAPNSProvider(cfg.APNSKeyFile, cfg.APNSKeyID, cfg.APNSTeamID, cfg.APNSTopic, cfg.APNSProduction)
	default:
		return push.NewFCMProvider(cfg.FCMCredentialsFile)
	}
}
