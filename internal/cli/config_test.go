package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":3001", cfg.Listen)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cartsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":8080"
store: sqlite
sqlite_path: /tmp/carts.db
static_dir: ./public
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/carts.db", cfg.SQLitePath)
	assert.Equal(t, "./public", cfg.StaticDir)
	// Untouched fields keep their defaults.
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown store", func(c *Config) { c.Store = "postgres" }, "store must be"},
		{"empty listen", func(c *Config) { c.Listen = "" }, "listen address"},
		{"sqlite without path", func(c *Config) { c.Store = StoreSQLite }, "sqlite_path is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
