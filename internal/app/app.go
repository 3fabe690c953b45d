// Package app assembles a shop client from configuration. It is shared by the
// daemon and the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"shopsync/internal/config"
	"shopsync/internal/gateway/storefront"
	"shopsync/internal/shop"
	"shopsync/internal/store"
)

// NewLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func NewLogger(w io.Writer, environment, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	if environment == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Build opens the configured state backend and returns an unstarted shop
// client. The returned close function releases the backend.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*shop.Client, func() error, error) {
	gw, err := storefront.New(storefront.Config{
		StoreDomain: cfg.Storefront.StoreDomain,
		AccessToken: cfg.Storefront.AccessToken,
		APIVersion:  cfg.Storefront.APIVersion,
		ChromeTLS:   cfg.Storefront.ChromeTLS,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating storefront client: %w", err)
	}

	backend, closeBackend, err := store.OpenBackend(cfg.State.Backend, cfg.State.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening state backend: %w", err)
	}

	client, err := shop.New(ctx, shop.Options{
		Backend:            backend,
		StateKey:           cfg.State.StateKey(),
		FlagKey:            cfg.State.FlagKey(),
		Gateway:            gw,
		AutoCreateCheckout: cfg.AutoCreateCheckout,
		Logger:             logger,
	})
	if err != nil {
		closeBackend()
		return nil, nil, fmt.Errorf("loading state: %w", err)
	}

	logger.Info("shop client ready",
		slog.String("store_domain", cfg.Storefront.StoreDomain),
		slog.String("endpoint", gw.Endpoint()),
		slog.String("state_backend", cfg.State.Backend),
		slog.String("state_key", cfg.State.StateKey()),
	)
	return client, closeBackend, nil
}
