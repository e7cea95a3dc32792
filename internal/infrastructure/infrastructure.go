// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies (logging, database, storage, validation engine)
// that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/bluecite/internal/config"
	"github.com/JaimeStill/bluecite/pkg/database"
	"github.com/JaimeStill/bluecite/pkg/lifecycle"
	"github.com/JaimeStill/bluecite/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Engine    *Engine
}

// New creates an Infrastructure from the application configuration.
// The rule corpus is loaded and indexed here so a bad corpus fails startup;
// other systems are initialized but not started until Start.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := NewLogger()

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	engine, err := NewEngine(ctx, cfg, store, logger)
	if err != nil {
		return nil, fmt.Errorf("engine init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Engine:    engine,
	}, nil
}

// NewLogger returns the text logger shared by the server and the CLI.
func NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
