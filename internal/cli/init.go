// Package cli holds the startup plumbing shared by cmd/nozze and
// cmd/nozze-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"nozze/internal/config"
	"nozze/internal/log"
	"nozze/internal/storage"
)

// Setup loads the optional .env file and installs the process logger for the
// given component. LOG_LEVEL controls verbosity.
func Setup(component string) *log.Logger {
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// MustLoadConfig loads and validates configuration, exiting on failure.
func MustLoadConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// MustOpenStorage opens the SQLite repository, running migrations, exiting on
// failure. The caller owns Close.
func MustOpenStorage(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}
