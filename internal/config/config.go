// Package config loads the collage service configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/youruser/collageapp/internal/collage"
	imagepkg "github.com/youruser/collageapp/internal/image"
)

// Config is the full service configuration.
type Config struct {
	LogLevel string        `yaml:"log_level"` // debug | info | warn | error
	Server   ServerConfig  `yaml:"server"`
	Fetch    FetchConfig   `yaml:"fetch"`
	Collage  CollageConfig `yaml:"collage"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"` // per uploaded image
}

// FetchConfig configures source image retrieval.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	Concurrency  int           `yaml:"concurrency"`
	MaxImageMB   int           `yaml:"max_image_mb"`
	UserAgent    string        `yaml:"user_agent"`
	BlockPrivate bool          `yaml:"block_private_networks"`
}

// CollageConfig holds the render defaults used when a request leaves a
// field unset.
type CollageConfig struct {
	CanvasSize int    `yaml:"canvas_size"`
	Background string `yaml:"background"`
	Seed       int64  `yaml:"seed"`
	Columns    int    `yaml:"columns"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 10,
		},
		Fetch: FetchConfig{
			Timeout:      30 * time.Second,
			Concurrency:  8,
			MaxImageMB:   10,
			UserAgent:    "collageapp/1.0",
			BlockPrivate: true,
		},
		Collage: CollageConfig{
			CanvasSize: collage.DefaultCanvasSize,
			Background: collage.FormatColor(collage.DefaultBackground),
			Seed:       collage.DefaultSeed,
			Columns:    collage.DefaultColumns,
		},
	}
}

// Load reads a YAML file over Default. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PORT, LOG_LEVEL, COLLAGE_SEED and
// COLLAGE_BLOCK_PRIVATE as returned by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if lvl := getenv("LOG_LEVEL"); lvl != "" {
		c.LogLevel = lvl
	}
	if s := getenv("COLLAGE_SEED"); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("COLLAGE_SEED: %w", err)
		}
		c.Collage.Seed = seed
	}
	if s := getenv("COLLAGE_BLOCK_PRIVATE"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("COLLAGE_BLOCK_PRIVATE: %w", err)
		}
		c.Fetch.BlockPrivate = b
	}
	return nil
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be > 0")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be > 0")
	}
	if c.Fetch.MaxImageMB <= 0 {
		return fmt.Errorf("fetch.max_image_mb must be > 0")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level %q (use debug, info, warn or error)", c.LogLevel)
	}
	if _, err := c.RenderConfig(); err != nil {
		return fmt.Errorf("collage: %w", err)
	}
	return nil
}

// RenderConfig converts the collage section into a collage.Config.
func (c *Config) RenderConfig() (collage.Config, error) {
	bg, err := collage.ParseColor(c.Collage.Background)
	if err != nil {
		return collage.Config{}, err
	}
	rc := collage.Config{
		CanvasSize: c.Collage.CanvasSize,
		Background: bg,
		Seed:       c.Collage.Seed,
		Columns:    c.Collage.Columns,
	}
	return rc, rc.Validate()
}

// DownloaderConfig returns the HTTP downloader settings.
func (c *Config) DownloaderConfig() imagepkg.DownloaderConfig {
	return imagepkg.DownloaderConfig{
		Timeout:      c.Fetch.Timeout,
		MaxBytes:     int64(c.Fetch.MaxImageMB) * 1024 * 1024,
		UserAgent:    c.Fetch.UserAgent,
		BlockPrivate: c.Fetch.BlockPrivate,
	}
}

// FetcherConfig returns the fetcher settings.
func (c *Config) FetcherConfig() imagepkg.FetcherConfig {
	return imagepkg.FetcherConfig{
		Timeout:     c.Fetch.Timeout,
		Concurrency: c.Fetch.Concurrency,
	}
}

// MaxUploadBytes returns the per-image upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 { return int64(c.Server.MaxUploadMB) * 1024 * 1024 }

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// ParseLevel maps debug, warn and error to their slog levels and anything
// else to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
