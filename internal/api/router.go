package api

import (
	"fmt" // Error wrapping

	"wallet_ledger/internal/middleware" // Custom package for middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

// Dependencies are the collaborators the HTTP surface is built from
type Dependencies struct {
	Users          UserService
	Wallets        WalletService
	Ledger         Ledger
	DB             *gorm.DB
	Redis          redis.Cmdable
	Log            logrus.FieldLogger
	RateLimit      middleware.RateLimitConfig
	TrustedProxies []string
}

// NewRouter builds the gin engine with every route under /api/v1
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	registerJSONTagNames() // Validation messages use JSON names

	r := gin.New() // Gin router instance
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), middleware.RequestLogger(deps.Log))

	r.GET("/healthz", HealthHandler(deps.DB, deps.Redis, deps.Log)) // Liveness and dependency check

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimiter(deps.Redis, deps.RateLimit, deps.Log))

	// User routes
	users := v1.Group("/user")
	users.POST("", CreateUserHandler(deps.Users, deps.Log))                             // Registration endpoint
	users.GET("", ListUsersHandler(deps.Users, deps.Log))                               // List users endpoint
	users.GET("/by-email", GetUserByEmailHandler(deps.Users, deps.Log))                 // Lookup by email
	users.GET("/by-username/:username", GetUserByUsernameHandler(deps.Users, deps.Log)) // Lookup by username
	users.GET("/:id", GetUserHandler(deps.Users, deps.Log))                             // Lookup by id

	// Wallet routes
	wallets := v1.Group("/wallet")
	wallets.POST("", CreateWalletHandler(deps.Wallets, deps.Log))       // Create wallet endpoint
	wallets.POST("/fund", FundWalletHandler(deps.Ledger, deps.Log))     // Fund endpoint
	wallets.POST("/transfer", TransferHandler(deps.Ledger, deps.Log))   // Transfer endpoint
	wallets.GET("/:username", GetWalletHandler(deps.Wallets, deps.Log)) // Get wallet endpoint

	return r, nil
}
