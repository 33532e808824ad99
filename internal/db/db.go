package db

import (
	"fmt"  // Error formatting
	"time" // Logger thresholds

	"wallet_ledger/internal/config" // Custom package for configuration

	"github.com/glebarez/sqlite" // Pure Go SQLite driver for GORM
	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/driver/postgres"    // PostgreSQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the database selected by cfg.DBDriver and configures the pool
func Open(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector // Driver specific dialector
	switch cfg.DBDriver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN())
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true, // Surface unique violations as gorm.ErrDuplicatedKey
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             time.Second,     // Log slow queries
			LogLevel:                  gormlogger.Warn, // Only log warnings and errors
			IgnoreRecordNotFoundError: true,            // Lookups treat absence as a valid result
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	sqlDB, err := db.DB() // Underlying connection pool
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.DBDriver == config.DriverSQLite {
		// SQLite has no row locks; one connection serializes transactions and keeps :memory: alive
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)       // Maximum number of open connections
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)       // Maximum number of idle connections
		sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime) // Maximum lifetime of a connection
	}
	return db, nil
}

// Close releases the connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
