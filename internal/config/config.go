package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// #region config
// Config holds the process settings shared by the commands.
type Config struct {
	DBPath          string        `yaml:"db_path"`
	CatalogPath     string        `yaml:"catalog_path"` // empty = embedded catalog
	GRPCAddr        string        `yaml:"grpc_addr"`
	MetricsAddr     string        `yaml:"metrics_addr"` // empty disables /metrics
	Seed            uint64        `yaml:"seed"`         // 0 = time-based
	TransitionDelay time.Duration `yaml:"transition_delay"`
	LogLevel        string        `yaml:"log_level"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		DBPath:          "crisis_decisions.db",
		GRPCAddr:        "localhost:50061",
		MetricsAddr:     "localhost:9464",
		TransitionDelay: 2 * time.Second,
		LogLevel:        "info",
	}
}

// #endregion config

// #region load
// LoadFromFile overlays a YAML file onto the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads path when non-empty, then applies environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from CRISIS_* environment variables.
func (c *Config) ApplyEnv() error {
	c.DBPath = envOr("CRISIS_DB", c.DBPath)
	c.CatalogPath = envOr("CRISIS_CATALOG", c.CatalogPath)
	c.GRPCAddr = envOr("CRISIS_ADDR", c.GRPCAddr)
	c.MetricsAddr = envOr("CRISIS_METRICS_ADDR", c.MetricsAddr)
	c.LogLevel = envOr("CRISIS_LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("CRISIS_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse CRISIS_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("CRISIS_TRANSITION_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CRISIS_TRANSITION_DELAY: %w", err)
		}
		c.TransitionDelay = d
	}
	return nil
}

// #endregion load

// #region validate
// Validate checks required fields and ranges.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc_addr is required"))
	}
	if c.TransitionDelay < 0 {
		errs = append(errs, fmt.Errorf("transition_delay must be >= 0, got %s", c.TransitionDelay))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level %q", c.LogLevel)
}

// Logger builds a text slog logger on stderr at the configured level.
func (c Config) Logger() *slog.Logger {
	level, _ := c.SlogLevel()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// #endregion validate

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
