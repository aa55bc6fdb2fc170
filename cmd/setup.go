package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/salusdesk/salus/internal/admin"
	"github.com/salusdesk/salus/internal/catalog"
	"github.com/salusdesk/salus/internal/config"
	"github.com/salusdesk/salus/internal/gemini"
	"github.com/salusdesk/salus/internal/ingest"
	"github.com/salusdesk/salus/internal/log"
)

// app holds the shared wiring every command needs: configuration, the
// provider client, the catalog with its registry, and the admin surface.
type app struct {
	cfg      *config.Config
	logger   log.Logger
	client   *gemini.Client
	registry *catalog.Registry
	catalog  *catalog.Catalog
	admin    *admin.Manager
	ingestor *ingest.Ingestor
}

func newLogger(json bool) log.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: json})
}

// newApp loads and validates configuration and wires the shared components.
// Callers must Close the returned app.
func newApp(ctx context.Context, logger log.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		StorePrefix: cfg.StorePrefix,
	}, logger.With("component", "gemini"))
	if err != nil {
		return nil, fmt.Errorf("creating provider client: %w", err)
	}

	registry, err := catalog.OpenRegistry(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("opening store registry: %w", err)
	}

	cat, err := catalog.New(config.CoreStores, registry, logger.With("component", "catalog"))
	if err != nil {
		_ = registry.Close()
		return nil, fmt.Errorf("building catalog: %w", err)
	}

	manager := admin.NewManager(client, cat, logger.With("component", "admin"))

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		registry: registry,
		catalog:  cat,
		admin:    manager,
		ingestor: ingest.New(manager, nil, logger.With("component", "ingest")),
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() error {
	return a.registry.Close()
}
