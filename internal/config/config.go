// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// EnvPrefix is prepended to every variable Load reads.
const EnvPrefix = "CURRENCYCONVERTER_"

// DefaultListenAddr is used when CURRENCYCONVERTER_LISTEN_ADDR is unset. The
// healthcheck binary falls back to it as well.
const DefaultListenAddr = "127.0.0.1:8080"

// DefaultAssetURLs are the assets fetched into each static cache generation.
// Relative entries resolve against the embedded static file system.
var DefaultAssetURLs = []string{
	"/static/css/main.css",
	"/static/js/app.js",
	"https://stackpath.bootstrapcdn.com/bootstrap/4.1.1/css/bootstrap.min.css",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"https://free.currencyconverterapi.com" validate:"required,url"`
	APIKey     string        `env:"API_KEY"`
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	ListenAddr  string `env:"LISTEN_ADDR" validate:"required"`
	DBPath      string `env:"DB_PATH" envDefault:"currencyconverter.db"`
	Persistence bool   `env:"PERSISTENCE" envDefault:"true"`

	RatesTTL     time.Duration `env:"RATES_TTL" envDefault:"24h" validate:"gte=0"`
	CountriesTTL time.Duration `env:"COUNTRIES_TTL" envDefault:"0s" validate:"gte=0"`

	AssetVersion int      `env:"ASSET_VERSION" envDefault:"1" validate:"gte=1"`
	AssetURLs    []string `env:"ASSET_URLS" envSeparator:","`

	UpdateRepo     string        `env:"UPDATE_REPO" validate:"omitempty,contains=/"`
	UpdateInterval time.Duration `env:"UPDATE_INTERVAL" envDefault:"6h" validate:"gt=0"`
	GitHubToken    string        `env:"GITHUB_TOKEN"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// StoreEnabled reports whether the local key/value store should be opened.
// Without it the app runs in network-only mode.
func (c *Config) StoreEnabled() bool {
	return c.Persistence && c.DBPath != ""
}

// UpdatesEnabled reports whether release polling is configured.
func (c *Config) UpdatesEnabled() bool {
	return c.UpdateRepo != ""
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads configuration from CURRENCYCONVERTER_* environment variables and
// returns a validated Config. Every variable is optional.
func Load() (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse %s environment: %w", EnvPrefix, err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr); cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	assetURLs := make([]string, 0, len(cfg.AssetURLs))
	for _, u := range cfg.AssetURLs {
		if u = strings.TrimSpace(u); u != "" {
			assetURLs = append(assetURLs, u)
		}
	}
	if len(assetURLs) == 0 {
		assetURLs = append(assetURLs, DefaultAssetURLs...)
	}
	cfg.AssetURLs = assetURLs

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid %s configuration: %w", EnvPrefix, err)
	}

	return &cfg, nil
}
