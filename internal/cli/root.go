// Package cli implements the shopsync command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"shopsync/internal/app"
	"shopsync/internal/config"
	"shopsync/internal/shop"
)

// Opener builds a client for one command invocation. The returned function
// releases the state backend.
type Opener func(ctx context.Context, opts *RootOptions, logger *slog.Logger) (*shop.Client, func() error, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command. A nil open uses the configured
// backend and storefront.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = OpenConfigured
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shopsync",
		Short: "Synchronized storefront session and checkout",
		Long: `Drive the persisted storefront session and checkout from the command line.

Each invocation loads the persisted state, renews a carried-over customer token
and opens a checkout when none exists, exactly as a fresh app launch would.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (JSON or TOML); defaults to $CONFIG_FILE")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr")

	r := &runner{opts: opts, open: open}
	cmd.AddCommand(newStateCommand(r))
	cmd.AddCommand(newSignInCommand(r))
	cmd.AddCommand(newSignOutCommand(r))
	cmd.AddCommand(newResetStateCommand(r))
	cmd.AddCommand(newRenewCommand(r))
	cmd.AddCommand(newCheckoutCommand(r))
	cmd.AddCommand(newAddCommand(r))

	return cmd
}

// OpenConfigured loads configuration and builds a client from it.
func OpenConfigured(ctx context.Context, opts *RootOptions, logger *slog.Logger) (*shop.Client, func() error, error) {
	cfg, err := config.LoadFrom(ctx, opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return app.Build(ctx, cfg, logger)
}

type runner struct {
	opts *RootOptions
	open Opener
}

// run opens and starts a client, calls fn and prints what it returns.
func (r *runner) run(cmd *cobra.Command, fn func(ctx context.Context, c *shop.Client) (any, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logOut := io.Discard
	if r.opts.Verbose {
		logOut = cmd.ErrOrStderr()
	}
	logger := app.NewLogger(logOut, "", "info")

	client, closeBackend, err := r.open(ctx, r.opts, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	client.Start(ctx)
	defer client.Close()

	out, err := fn(ctx, client)
	if err != nil {
		return err
	}
	if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if r, ok := out.(rejecter); ok {
		return r.rejection()
	}
	return nil
}
