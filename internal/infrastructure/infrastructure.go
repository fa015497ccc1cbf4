// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, the processing
// service client, authentication) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/patentbot/internal/backend"
	"github.com/JaimeStill/patentbot/internal/config"
	"github.com/JaimeStill/patentbot/pkg/auth"
	"github.com/JaimeStill/patentbot/pkg/database"
	"github.com/JaimeStill/patentbot/pkg/lifecycle"
	"github.com/JaimeStill/patentbot/pkg/storage"
	"github.com/JaimeStill/patentbot/pkg/telemetry"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Backend   *backend.Client
	Auth      *auth.Authenticator
	Telemetry telemetry.Config
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	authn, err := auth.New(lc.Context(), &cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Backend:   backend.New(&cfg.Backend, logger),
		Auth:      authn,
		Telemetry: cfg.Telemetry,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := telemetry.Start(i.Lifecycle, &i.Telemetry, i.Logger); err != nil {
		return fmt.Errorf("telemetry start failed: %w", err)
	}
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
