package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mealrounds/cartsync/internal/httpapi"
)

// keepAliveInterval paces the periodic liveness log line. The hosting
// platform the original deployment ran on idles apps after 15 minutes of
// silence; logging every 14 keeps the process warm.
const keepAliveInterval = 14 * time.Minute

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen    string
	DataDir   string
	Store     string
	SQLite    string
	StaticDir string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the cart tracking server",
		Long: `Start the HTTP server: JSON API, real-time event feed, and optionally
the bundled web client.

The cart registry is seeded with the default fleet on first boot. Flags
override values from the config file.

Example:
  cartsync serve --listen :3001 --data ./data
  cartsync serve --config cartsync.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "HTTP listen address (default :3001)")
	cmd.Flags().StringVar(&opts.DataDir, "data", "", "data directory for the file store (default ./data)")
	cmd.Flags().StringVar(&opts.Store, "store", "", "persistence backend: file or sqlite")
	cmd.Flags().StringVar(&opts.SQLite, "sqlite", "", "database path for the sqlite store")
	cmd.Flags().StringVar(&opts.StaticDir, "static", "", "directory with the web client to serve")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	applyServeFlags(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	eng, st, hub, err := openEngine(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()
	defer hub.Close()

	var apiOpts []httpapi.Option
	if cfg.StaticDir != "" {
		apiOpts = append(apiOpts, httpapi.WithStaticDir(cfg.StaticDir))
	}
	api := httpapi.New(eng, apiOpts...)

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: api.Handler(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	go keepAlive(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "listen", cfg.Listen, "store", cfg.Store, "data_dir", cfg.DataDir)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "server error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// applyServeFlags overlays non-empty flag values onto the config.
func applyServeFlags(cfg *Config, opts *ServeOptions) {
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Store != "" {
		cfg.Store = opts.Store
	}
	if opts.SQLite != "" {
		cfg.SQLitePath = opts.SQLite
	}
	if opts.StaticDir != "" {
		cfg.StaticDir = opts.StaticDir
	}
}

// keepAlive logs a liveness line on a fixed interval until the context ends.
func keepAlive(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			slog.Info("keep alive")
		}
	}
}
