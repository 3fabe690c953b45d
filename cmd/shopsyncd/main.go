// shopsyncd serves the synchronized storefront session and checkout over a
// local HTTP, MCP and websocket API, and keeps the customer token renewed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopsync/internal/app"
	"shopsync/internal/config"
	"shopsync/internal/handler"
	"shopsync/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Cancelled on SIGINT/SIGTERM; observers and the renewer use it for upstream calls
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := app.NewLogger(os.Stdout, cfg.Environment, cfg.LogLevel)
	logger.Info("configuration loaded",
		slog.String("store_id", cfg.StoreID),
		slog.String("environment", cfg.Environment),
		slog.String("store_domain", cfg.Storefront.StoreDomain),
		slog.String("state_backend", cfg.State.Backend),
		slog.Bool("auto_create_checkout", cfg.AutoCreateCheckout),
	)

	client, closeBackend, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			logger.Warn("closing state backend", slog.String("error", err.Error()))
		}
	}()

	// Renews a carried-over token and opens a checkout before serving
	client.Start(ctx)
	defer client.Close()

	renewer, err := client.NewRenewer(cfg.RenewSchedule, cfg.RenewWithin)
	if err != nil {
		return err
	}
	renewer.Start(ctx)
	defer renewer.Stop()

	mux := http.NewServeMux()
	handler.New(client, logger).RegisterRoutes(mux)

	// Recovery is outermost so panics in any later layer become a 500
	root := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.APIKey(cfg.LocalAPIKey, "/health", "/healthz"),
	)(mux)

	return serve(ctx, logger, &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: /state/stream and /mcp hold connections open
		IdleTimeout: 120 * time.Second,
	})
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, logger *slog.Logger, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
