package cli

import (
	"context"

	"github.com/mealrounds/cartsync/internal/broadcast"
	"github.com/mealrounds/cartsync/internal/engine"
	"github.com/mealrounds/cartsync/internal/store"
)

// openStore opens the configured persistence backend.
func openStore(cfg Config) (store.Store, error) {
	if cfg.Store == StoreSQLite {
		return store.OpenSQLite(cfg.SQLitePath)
	}
	return store.NewFileStore(cfg.DataDir)
}

// openEngine wires a store, hub, and engine together. The administrative
// commands use this too, so every mutation goes through the same engine
// operations whether it comes from HTTP or from the command line.
func openEngine(ctx context.Context, cfg Config) (*engine.Engine, store.Store, *broadcast.Hub, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	hub := broadcast.New()
	eng := engine.New(ctx, st, hub)
	return eng, st, hub, nil
}

// resolveConfig loads the config file named by the global flag.
func resolveConfig(opts *RootOptions) (Config, error) {
	return LoadConfig(opts.Config)
}
