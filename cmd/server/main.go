package main

import (
	"context"   // Shutdown deadline
	"errors"    // Error comparison
	"net/http"  // HTTP server
	"os"        // Exit codes
	"os/signal" // Shutdown signals
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"wallet_ledger/internal/api"        // Custom package for API handlers
	"wallet_ledger/internal/config"     // Custom package for configuration
	"wallet_ledger/internal/db"         // Custom package for database access
	"wallet_ledger/internal/middleware" // Custom package for middleware
	"wallet_ledger/internal/repository" // Custom package for persistence
	"wallet_ledger/internal/service"    // Custom package for business logic
	"wallet_ledger/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

const shutdownTimeout = 10 * time.Second

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log, err := cfg.NewLogger() // Setup logger
	if err != nil {
		logrus.Fatalf("failed to build logger: %v", err)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	gdb, err := db.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gdb) }()

	if cfg.DBSync {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
		log.Info("database migrated")
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	defer func() { _ = redisClient.Close() }()

	// Redis backs caching and rate limiting, both of which degrade gracefully
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unavailable at startup")
	}

	// Set Mode to Release if in production
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Wire services
	walletRepo := repository.NewWalletRepository(gdb)
	cache := utils.NewWalletCache(redisClient, cfg.CacheTTL)
	users := service.NewUserDirectory(repository.NewUserRepository(gdb), log)

	router, err := api.NewRouter(api.Dependencies{
		Users:   users,
		Wallets: service.NewWalletService(users, walletRepo, cache, log),
		Ledger:  service.NewLedger(users, walletRepo, cache, log, cfg.TxTimeout),
		DB:      gdb,
		Redis:   redisClient,
		Log:     log,
		RateLimit: middleware.RateLimitConfig{
			Limit:  cfg.RateLimit,  // Requests per window
			Window: cfg.RateWindow, // Counting window
			Block:  cfg.RateBlock,  // Lockout duration
		},
		TrustedProxies: []string{"127.0.0.1"},
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr()).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
