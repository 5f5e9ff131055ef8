// Package config loads the copy-trading engine's process configuration:
// the copy-trade parameters (the normative, pretty-printed JSON config
// file the control plane and CLI both read/write) plus the ambient
// sections (API base URLs, storage, logging, control plane) that never
// round-trip to that file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/vngelio/polystation/internal/domain"
)

// Config is the full process configuration.
type Config struct {
	Copy    domain.CopyConfig `json:"copy"`
	API     APIConfig         `json:"api"`
	Storage StorageConfig     `json:"storage"`
	Control ControlConfig     `json:"control"`
	Log     LogConfig         `json:"log"`
}

// APIConfig holds the venue's base URLs.
type APIConfig struct {
	DataAPIBase string `json:"data_api_base"`
	CLOBBase    string `json:"clob_base"`
	GammaBase   string `json:"gamma_base"`
}

// StorageConfig controls where movement/settlement logs are written.
type StorageConfig struct {
	Dir string `json:"dir"`
}

// ControlConfig controls the HTTP control plane.
type ControlConfig struct {
	Addr        string `json:"addr"`
	BearerToken string `json:"bearer_token"`
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `json:"level"`  // debug | info | warn | error
	Format string `json:"format"` // text | json
}

// Load reads the JSON config file at path, applies env var overrides
// (via .env if present), and fills in defaults for the ambient sections.
// The copy-trade section itself has no implicit defaults: it must be
// valid per domain.CopyConfig.Validate, or Load fails.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse JSON: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Copy.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: invalid copy config: %w", err)
	}

	return &cfg, nil
}

// Save writes cfg back to path as pretty-printed JSON, the format the
// control plane and CLI both rely on for manual inspection.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config.Save: create dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config.Save: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config.Save: write %q: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("CONTROL_BEARER_TOKEN"); v != "" {
		cfg.Control.BearerToken = v
	}
	if v := os.Getenv("FOLLOWER_PRIVATE_KEY"); v != "" {
		// intentionally not stored on Config: read directly by main from
		// the environment at signer construction time, never persisted.
		_ = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.API.DataAPIBase == "" {
		cfg.API.DataAPIBase = "https://data-api.polymarket.com"
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "./data"
	}
	if cfg.Control.Addr == "" {
		cfg.Control.Addr = ":8090"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
