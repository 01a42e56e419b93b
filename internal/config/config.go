// Package config loads the portal's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jacentio/dojo/cache"
	"github.com/jacentio/dojo/store"
)

// Backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
)

// Defaults.
const (
	DefaultRegion          = "us-west-1"
	DefaultSQLitePath      = "dojo.db"
	DefaultSessionLifetime = 4 * time.Hour
	DefaultReadCapacity    = 10
	DefaultWriteCapacity   = 5
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the portal configuration file.
type Config struct {
	// Backend selects the item store: "dynamodb" or "sqlite".
	Backend string `yaml:"backend"`

	// Region, Profile, and Endpoint configure the DynamoDB client. An endpoint
	// points the client at DynamoDB local or another compatible service.
	Region   string `yaml:"region"`
	Profile  string `yaml:"profile"`
	Endpoint string `yaml:"endpoint"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	CacheTTL        time.Duration `yaml:"cache_ttl"`
	SessionLifetime time.Duration `yaml:"session_lifetime"`

	ReadCapacity  int64 `yaml:"read_capacity"`
	WriteCapacity int64 `yaml:"write_capacity"`

	// LogLevel is debug, info, warn, or error. LogFormat is text or json.
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:         BackendDynamoDB,
		Region:          DefaultRegion,
		SQLitePath:      DefaultSQLitePath,
		CacheTTL:        cache.DefaultTTL,
		SessionLifetime: DefaultSessionLifetime,
		ReadCapacity:    DefaultReadCapacity,
		WriteCapacity:   DefaultWriteCapacity,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fills zero values with defaults and rejects unknown settings.
func (c *Config) Validate() error {
	d := Default()

	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.Backend != BackendDynamoDB && c.Backend != BackendSQLite {
		return fmt.Errorf("%w: backend must be %s or %s, got %q", ErrInvalid, BackendDynamoDB, BackendSQLite, c.Backend)
	}
	if c.Region == "" {
		c.Region = d.Region
	}
	if c.SQLitePath == "" {
		c.SQLitePath = d.SQLitePath
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.SessionLifetime <= 0 {
		c.SessionLifetime = d.SessionLifetime
	}
	if c.ReadCapacity <= 0 {
		c.ReadCapacity = d.ReadCapacity
	}
	if c.WriteCapacity <= 0 {
		c.WriteCapacity = d.WriteCapacity
	}

	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	c.LogFormat = strings.ToLower(c.LogFormat)
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalid, c.LogFormat)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, s)
	}
	return level, nil
}

// Logger builds a slog logger writing to w. verbose forces debug level.
func (c Config) Logger(w io.Writer, verbose bool) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// StoreConfig returns the store settings for this configuration.
func (c Config) StoreConfig(logger *slog.Logger) store.Config {
	cfg := store.DefaultConfig()
	cfg.ReadCapacity = c.ReadCapacity
	cfg.WriteCapacity = c.WriteCapacity
	cfg.Logger = logger
	return cfg
}
