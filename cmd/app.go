package cmd

import (
	"fmt"

	"contact-sync/core/config"
	"contact-sync/core/database"
	"contact-sync/core/logger"
	"contact-sync/core/storage"
	"contact-sync/feature/contacts"

	"go.uber.org/zap"
)

// app is the wiring shared by the commands that touch both stores.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *contacts.Service
}

// newApp loads the configuration and connects the local store and the bucket.
func newApp() (*app, error) {
	// 1. Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// 3. Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 4. Connect to storage
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}

	// 5. Build the service and prepare the schema
	source := contacts.NewSource(client, cfg.Storage.Bucket, cfg.Sync, l)
	svc, err := contacts.NewService(db, source, cfg.Sync, l)
	if err != nil {
		return nil, err
	}
	if err := svc.Prepare(); err != nil {
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}

	return &app{cfg: cfg, logger: l, service: svc}, nil
}
