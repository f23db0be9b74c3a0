// Package main provides the API server entry point for the linkbio backend.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linkbio/internal/adapter"
	"github.com/linkbio/internal/api"
	"github.com/linkbio/internal/auth"
	"github.com/linkbio/internal/config"
	"github.com/linkbio/internal/linkid"
	"github.com/linkbio/internal/logging"
	"github.com/linkbio/internal/service"
	"github.com/linkbio/internal/storage"
)

func main() {
	fmt.Println("Linkbio API Server")
	log.Println("Server starting...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Initialize database connections
	logger.Info("Connecting to databases...")

	// Connect to Postgres
	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	// ClickHouse backs the click-event log and is optional. Without it the
	// authoritative per-link counters still work; windowed analytics read as
	// zero.
	var clickEvents service.ClickEventStore
	if cfg.Database.ClickHouse.Enabled() {
		clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to ClickHouse")
		}
		defer clickhouse.Close()

		if err := storage.RunClickHouseMigrations(clickhouse); err != nil {
			logger.WithError(err).Fatal("Failed to apply ClickHouse schema")
		}

		clickEvents = storage.NewClickEventRepository(clickhouse)
		logger.Info("Click-event log enabled")
	} else {
		logger.Warn("ClickHouse not configured - windowed analytics will read as zero")
	}

	// Redis caches pro-status lookups for the public profile path and is
	// optional. Without it every pro check goes to the identity provider.
	var proCache service.ProStatusCache
	var proInvalidator service.ProStatusInvalidator
	if cfg.Database.Redis.Enabled() {
		redis, err := storage.NewRedisCache(&cfg.Database.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.WithError(err).Warn("Error closing Redis connection")
			}
		}()

		cacheService := storage.NewCacheService(redis, cfg.Database.Redis.SubscriptionTTL)
		proCache = cacheService
		proInvalidator = cacheService
		logger.Info("Pro-status cache enabled")
	} else {
		logger.Warn("Redis not configured - pro-status lookups will not be cached")
	}

	logger.Info("Database connections established")

	// Initialize the identity provider clients
	verifier, err := auth.NewTokenVerifier(context.Background(), cfg.SSO.JWKSURI)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize JWKS token verifier")
	}

	ssoClient := adapter.NewSSOClient(&cfg.SSO)
	blobClient := adapter.NewBlobClient(&cfg.Storage)

	codec, err := linkid.NewCodec()
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize public link identifier codec")
	}

	// Initialize repositories
	userRepo := storage.NewUserRepository(postgres)
	linkRepo := storage.NewLinkRepository(postgres)
	socialLinkRepo := storage.NewSocialLinkRepository(postgres)
	planRepo := storage.NewPlanRepository(postgres)

	// Initialize services
	logger.Info("Initializing services...")

	subscriptionService := service.NewSubscriptionService(ssoClient, planRepo, proCache, logger)
	planService := service.NewPlanService(linkRepo, socialLinkRepo, cfg.Plans)
	analyticsService := service.NewAnalyticsService(linkRepo, clickEvents, logger)

	authService := service.NewAuthService(
		userRepo,
		planRepo,
		ssoClient,
		verifier,
		codec,
		subscriptionService,
		cfg.SSO,
		logger,
	)

	publicService := service.NewPublicService(
		userRepo,
		linkRepo,
		socialLinkRepo,
		subscriptionService,
		analyticsService,
		logger,
	)

	linkService := service.NewLinkService(linkRepo, socialLinkRepo, subscriptionService, planService, logger)

	profileService := service.NewProfileService(
		userRepo,
		blobClient,
		subscriptionService,
		planService,
		cfg.Storage.ProfileBucket,
		cfg.Storage.BackgroundBucket,
		logger,
	)

	adminService := service.NewAdminService(userRepo, linkRepo, planRepo, proInvalidator, logger)

	logger.Info("Services initialized")

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		PublicRPS:       cfg.Server.PublicRPS,
		PublicBurst:     cfg.Server.PublicBurst,
		MaxUploadBytes:  cfg.Storage.MaxFileSizeBytes,
	}

	server := api.NewServer(
		serverConfig,
		publicService,
		authService,
		profileService,
		linkService,
		analyticsService,
		adminService,
		subscriptionService,
		planService,
		logger,
	)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
