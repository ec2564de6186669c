package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store backend names accepted in configuration.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config holds server configuration, loaded from an optional YAML file and
// overridable by flags.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// DataDir is where the file backend keeps carts.json and history.json.
	DataDir string `yaml:"data_dir"`

	// Store selects the persistence backend: "file" or "sqlite".
	Store string `yaml:"store"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// StaticDir optionally serves the bundled web client.
	StaticDir string `yaml:"static_dir"`
}

// DefaultConfig returns the configuration used when no file or flags are
// given. The defaults match the original deployment.
func DefaultConfig() Config {
	return Config{
		Listen:  ":3001",
		DataDir: "./data",
		Store:   StoreFile,
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values that a typo would silently break.
func (c Config) Validate() error {
	if c.Store != StoreFile && c.Store != StoreSQLite {
		return fmt.Errorf("store must be %q or %q, got %q", StoreFile, StoreSQLite, c.Store)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Store == StoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("sqlite_path is required with the sqlite store")
	}
	return nil
}
