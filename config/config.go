package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/spektr-org/cardbuffet/engine"
	"github.com/spektr-org/cardbuffet/store"
)

// AppConfig is the cardbuffet configuration file (config.toml).
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Engine EngineConfig `toml:"engine"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// StoreConfig selects the entity store.
type StoreConfig struct {
	Kind   string `toml:"kind"`    // file, csv, postgres
	Path   string `toml:"path"`    // file and csv stores
	DSNEnv string `toml:"dsn_env"` // environment variable holding the postgres URL
}

// EngineConfig holds buffet defaults applied when a request leaves them out.
type EngineConfig struct {
	DefaultDisplayCount   int    `toml:"default_display_count"`
	DefaultPercentageBase string `toml:"default_percentage_base"`
	Currency              string `toml:"currency"`
	MatrixPath            string `toml:"matrix_path"` // replaces the embedded chart context matrix
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    8080,
			DevMode: false,
		},
		Store: StoreConfig{
			Kind:   "file",
			Path:   "data/entities.json",
			DSNEnv: "DATABASE_URL",
		},
		Engine: EngineConfig{
			DefaultDisplayCount: 10,
			Currency:            "$",
		},
	}
}

// Load reads .env (when present) and then the TOML file at path. A missing
// config file yields the defaults.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults.
func Parse(data []byte) (*AppConfig, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the engine would otherwise reject per request.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Engine.DefaultDisplayCount < 0 {
		return fmt.Errorf("config: engine.default_display_count must be >= 0")
	}
	if c.Engine.DefaultPercentageBase != "" {
		if _, err := engine.ParsePercentageBase(c.Engine.DefaultPercentageBase); err != nil {
			return fmt.Errorf("config: engine.default_percentage_base: %w", err)
		}
	}
	return nil
}

// StoreOptions resolves the store settings, reading the DSN from the environment.
func (c *AppConfig) StoreOptions() store.Options {
	opts := store.Options{
		Kind: strings.ToLower(c.Store.Kind),
		Path: c.Store.Path,
	}
	if c.Store.DSNEnv != "" {
		opts.DSN = os.Getenv(c.Store.DSNEnv)
	}
	return opts
}

// EngineOptions builds engine options from the [engine] section.
func (c *AppConfig) EngineOptions() ([]engine.Option, error) {
	opts := []engine.Option{engine.WithCurrency(c.Engine.Currency)}
	if c.Engine.MatrixPath != "" {
		sel, err := engine.LoadSelectorFile(c.Engine.MatrixPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithSelector(sel))
	}
	return opts, nil
}

// ViewDefaults returns request defaults from the [engine] section. The
// percentage base stays empty unless configured.
func (c *AppConfig) ViewDefaults() engine.ViewOptions {
	v := engine.NewViewOptions(engine.PercentageBase(c.Engine.DefaultPercentageBase))
	v.DisplayCount = engine.DisplayCount(c.Engine.DefaultDisplayCount)
	return v
}
