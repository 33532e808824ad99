package main

import (
	"os" // Exit codes

	"wallet_ledger/internal/config" // Custom import path (Config)
	"wallet_ledger/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	log, err := cfg.NewLogger()
	if err != nil {
		logrus.Fatalf("failed to build logger: %v", err)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("migration aborted")
		os.Exit(1) // Deferred cleanup in run has already happened
	}
}

// run migrates the schema and closes the pool before returning
func run(cfg *config.Config, log logrus.FieldLogger) error {
	gdb, err := db.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gdb) }()

	if err := db.Migrate(gdb); err != nil {
		return err
	}
	log.WithField("driver", cfg.DBDriver).Info("database migrated")
	return nil
}
