package config

import (
	"fmt" // Error formatting
	"os"  // Log output

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// NewLogger builds the application logger from LOG_LEVEL and LOG_JSON
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel) // Parse configured level
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}

	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(level)
	if c.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{}) // Machine readable output
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
