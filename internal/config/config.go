package config

import (
	"fmt"     // For error formatting
	"strings" // For DSN assembly
	"time"    // For durations

	"github.com/caarlos0/env/v11" // For parsing environment variables into Config
	"github.com/joho/godotenv"    // For loading .env files
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config holds the application configuration
type Config struct {
	AppHost  string `env:"APP_HOST" envDefault:"0.0.0.0"`      // Interface to bind
	AppPort  string `env:"APP_PORT" envDefault:"8888"`         // Application port
	AppEnv   string `env:"APP_ENV" envDefault:"development"`   // production, development, test or staging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`        // Logrus level name
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`        // JSON formatter instead of text
	DBDriver string `env:"DB_DRIVER" envDefault:"postgres"`    // postgres, mysql or sqlite
	DBHost   string `env:"DB_HOST"`                            // Database host
	DBPort   string `env:"DB_PORT" envDefault:"5432"`          // Database port
	DBUser   string `env:"DB_USER"`                            // Database user
	DBPass   string `env:"DB_PASSWORD"`                        // Database password
	DBName   string `env:"DB_NAME"`                            // Database name, or file path for sqlite
	DBSSL    string `env:"DB_SSL_MODE" envDefault:"disable"`   // Postgres sslmode
	DBSync   bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"` // Run migrations on server start

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`   // Pool size
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`    // Idle pool size
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"` // Connection recycle period

	RedisAddr string        `env:"REDIS_ADDR" envDefault:"localhost:6379"` // Redis server address
	RedisPass string        `env:"REDIS_PASS"`                             // Redis password
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`                // Redis database number
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"60s"`             // Wallet cache lifetime

	RateLimit  int           `env:"RATE_LIMIT" envDefault:"4"`    // Requests allowed per window
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"10s"` // Rate limit window
	RateBlock  time.Duration `env:"RATE_BLOCK" envDefault:"3s"`   // Block duration once the limit is hit

	TxTimeout time.Duration `env:"LEDGER_TX_TIMEOUT" envDefault:"5s"` // Upper bound for a ledger transaction
}

// LoadConfig loads configuration from the environment, reading a .env file if present
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values and required database settings
func (c *Config) Validate() error {
	switch c.AppEnv {
	case "production", "development", "test", "staging":
	default:
		return fmt.Errorf("invalid APP_ENV %q", c.AppEnv)
	}
	switch c.DBDriver {
	case DriverPostgres, DriverMySQL:
		var missing []string
		if c.DBHost == "" {
			missing = append(missing, "DB_HOST")
		}
		if c.DBUser == "" {
			missing = append(missing, "DB_USER")
		}
		if c.DBName == "" {
			missing = append(missing, "DB_NAME")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
		}
	case DriverSQLite:
		if c.DBName == "" {
			return fmt.Errorf("missing required settings: DB_NAME")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive")
	}
	if c.TxTimeout <= 0 {
		return fmt.Errorf("LEDGER_TX_TIMEOUT must be positive")
	}
	return nil
}

// IsProd reports whether the app runs in production mode
func (c *Config) IsProd() bool {
	return c.AppEnv == "production"
}

// DSN builds the driver specific data source name
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverMySQL:
		return c.DBUser + ":" + c.DBPass + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
	case DriverSQLite:
		return c.DBName
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort, c.DBSSL)
	}
}

// Addr returns the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.AppPort
}
