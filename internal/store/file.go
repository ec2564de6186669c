package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mealrounds/cartsync/internal/cart"
)

// File names inside the data directory. These match the layout of earlier
// deployments so an existing data directory is picked up as-is.
const (
	cartsFile   = "carts.json"
	historyFile = "history.json"
)

// FileStore persists each collection as one pretty-printed JSON file inside
// a data directory. Every save rewrites the whole file.
type FileStore struct {
	dir  string
	seed []cart.Cart
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithSeed overrides the default fleet used when no cart collection exists
// yet or when the carts file is unreadable. Used by tests.
func WithSeed(seed []cart.Cart) FileOption {
	return func(s *FileStore) {
		s.seed = seed
	}
}

// NewFileStore creates the data directory if needed and returns a store
// rooted there.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}

	s := &FileStore{
		dir:  dir,
		seed: cart.DefaultFleet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the resolved data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// LoadCarts reads the full cart collection.
//
// A missing carts file means first boot: the default fleet is persisted and
// returned. An unreadable or corrupt file falls back to the default fleet
// without touching the file; the fallback becomes durable on the next save.
func (s *FileStore) LoadCarts(ctx context.Context) []cart.Cart {
	path := filepath.Join(s.dir, cartsFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		seed := cart.Clone(s.seed)
		if saveErr := s.SaveCarts(ctx, seed); saveErr != nil {
			slog.Error("seeding carts file failed", "path", path, "error", saveErr)
		}
		return seed
	}
	if err != nil {
		slog.Error("reading carts file failed, using default fleet", "path", path, "error", err)
		return cart.Clone(s.seed)
	}

	var carts []cart.Cart
	if err := json.Unmarshal(data, &carts); err != nil {
		slog.Error("decoding carts file failed, using default fleet", "path", path, "error", err)
		return cart.Clone(s.seed)
	}
	return carts
}

// SaveCarts overwrites the carts file with the given collection.
func (s *FileStore) SaveCarts(ctx context.Context, carts []cart.Cart) error {
	return s.writeJSON(filepath.Join(s.dir, cartsFile), carts)
}

// LoadHistory reads the full history log, head first. A missing file is an
// empty log; an unreadable or corrupt file falls back to empty.
func (s *FileStore) LoadHistory(ctx context.Context) []cart.HistoryEntry {
	path := filepath.Join(s.dir, historyFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []cart.HistoryEntry{}
	}
	if err != nil {
		slog.Error("reading history file failed, using empty log", "path", path, "error", err)
		return []cart.HistoryEntry{}
	}

	var entries []cart.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Error("decoding history file failed, using empty log", "path", path, "error", err)
		return []cart.HistoryEntry{}
	}
	return entries
}

// SaveHistory overwrites the history file with the given log.
func (s *FileStore) SaveHistory(ctx context.Context, entries []cart.HistoryEntry) error {
	if entries == nil {
		entries = []cart.HistoryEntry{}
	}
	return s.writeJSON(filepath.Join(s.dir, historyFile), entries)
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error {
	return nil
}

// writeJSON serializes a collection as indented JSON and rewrites the file.
func (s *FileStore) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
