package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mealrounds/cartsync/internal/cart"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// SQLiteStore keeps both collections in a single SQLite database file. It
// implements the same wholesale load/save contract as the file backend:
// every save replaces the full table contents in one transaction.
type SQLiteStore struct {
	db   *sql.DB
	seed []cart.Cart
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteSeed overrides the default fleet used to seed a fresh database.
func WithSQLiteSeed(seed []cart.Cart) SQLiteOption {
	return func(s *SQLiteStore) {
		s.seed = seed
	}
}

// OpenSQLite creates or opens a SQLite database at the given path.
//
// The database is configured with WAL mode for concurrent reads, NORMAL
// synchronous mode, and a 5-second busy timeout. The connection pool is
// limited to a single connection; the engine serializes writes anyway and
// SQLite allows only one writer at a time.
//
// A fresh database is seeded with the default fleet, mirroring the file
// backend's first-boot behavior. A database that has been seeded once and
// then bulk-replaced with an empty fleet stays empty.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set user_version: %w", err)
	}

	s := &SQLiteStore{
		db:   db,
		seed: cart.DefaultFleet(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.seedIfFresh(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadCarts returns the full cart collection in stored order. Query failures
// fall back to the default fleet, mirroring the file backend.
func (s *SQLiteStore) LoadCarts(ctx context.Context) []cart.Cart {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, floor, state, active
		FROM carts
		ORDER BY position
	`)
	if err != nil {
		slog.Error("reading carts failed, using default fleet", "error", err)
		return cart.Clone(s.seed)
	}
	defer rows.Close()

	carts := []cart.Cart{}
	for rows.Next() {
		var c cart.Cart
		if err := rows.Scan(&c.ID, &c.Name, &c.Floor, &c.State, &c.Active); err != nil {
			slog.Error("scanning cart row failed, using default fleet", "error", err)
			return cart.Clone(s.seed)
		}
		carts = append(carts, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("iterating cart rows failed, using default fleet", "error", err)
		return cart.Clone(s.seed)
	}
	return carts
}

// SaveCarts replaces the cart table contents with the given collection.
func (s *SQLiteStore) SaveCarts(ctx context.Context, carts []cart.Cart) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save carts: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM carts`); err != nil {
		return fmt.Errorf("save carts: clear table: %w", err)
	}
	for i, c := range carts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO carts (position, id, name, floor, state, active)
			VALUES (?, ?, ?, ?, ?, ?)
		`, i, c.ID, c.Name, c.Floor, c.State, c.Active)
		if err != nil {
			return fmt.Errorf("save carts: insert cart %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save carts: commit: %w", err)
	}
	return nil
}

// LoadHistory returns the full history log, head first. Query failures fall
// back to an empty log.
func (s *SQLiteStore) LoadHistory(ctx context.Context) []cart.HistoryEntry {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cart_name, action, user, timestamp
		FROM history
		ORDER BY position
	`)
	if err != nil {
		slog.Error("reading history failed, using empty log", "error", err)
		return []cart.HistoryEntry{}
	}
	defer rows.Close()

	entries := []cart.HistoryEntry{}
	for rows.Next() {
		var e cart.HistoryEntry
		if err := rows.Scan(&e.ID, &e.CartName, &e.Action, &e.User, &e.Timestamp); err != nil {
			slog.Error("scanning history row failed, using empty log", "error", err)
			return []cart.HistoryEntry{}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		slog.Error("iterating history rows failed, using empty log", "error", err)
		return []cart.HistoryEntry{}
	}
	return entries
}

// SaveHistory replaces the history table contents with the given log.
func (s *SQLiteStore) SaveHistory(ctx context.Context, entries []cart.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save history: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("save history: clear table: %w", err)
	}
	for i, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO history (position, id, cart_name, action, user, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)
		`, i, e.ID, e.CartName, e.Action, e.User, e.Timestamp)
		if err != nil {
			return fmt.Errorf("save history: insert entry %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save history: commit: %w", err)
	}
	return nil
}

// seedIfFresh inserts the default fleet the first time the database is
// opened. The meta flag distinguishes "never seeded" from "deliberately
// emptied by a bulk replace".
func (s *SQLiteStore) seedIfFresh() error {
	var seeded string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'seeded'`).Scan(&seeded)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check seed flag: %w", err)
	}

	if err := s.SaveCarts(context.Background(), s.seed); err != nil {
		return err
	}
	if _, err := s.db.Exec(`INSERT INTO meta (key, value) VALUES ('seeded', '1')`); err != nil {
		return fmt.Errorf("set seed flag: %w", err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}
