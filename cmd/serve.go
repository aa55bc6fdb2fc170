package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/salusdesk/salus/internal/api"
	"github.com/salusdesk/salus/internal/chat"
	"github.com/salusdesk/salus/internal/grounding"
	"github.com/salusdesk/salus/internal/retrieval"
	"github.com/salusdesk/salus/internal/selector"
	"github.com/salusdesk/salus/internal/store"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assistant HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(true)

	a, err := newApp(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	cfg := a.cfg

	orchestrator := chat.New(
		a.catalog,
		selector.New(a.client, cfg.DefaultStore, cfg.ClassifyTimeout, logger.With("component", "selector")),
		store.NewResolver(a.client, logger.With("component", "resolver")),
		retrieval.New(a.client, cfg.GenerateTimeout, logger.With("component", "retrieval")),
		grounding.NewExtractor(cfg.MaxLinks, logger.With("component", "grounding")),
		cfg.AllowEnglish,
		logger.With("component", "chat"),
	)

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:       logger.With("component", "api"),
		Chat:         orchestrator,
		Catalog:      a.catalog,
		Admin:        a.admin,
		Ingestor:     a.ingestor,
		AllowEnglish: cfg.AllowEnglish,
		CORSOrigins:  cfg.CORSOrigins,
		TrustProxy:   cfg.TrustProxy,
		RatePerSec:   cfg.RatePerSec,
		RateBurst:    cfg.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", cfg.Addr,
		"model", cfg.Model,
		"default_store", cfg.DefaultStore,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	}
}
