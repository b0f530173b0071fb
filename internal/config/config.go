package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zypin-testing/zypin-core/internal/logger"
	"github.com/zypin-testing/zypin-core/internal/state"
)

// ServerConfig configures the status service listener.
type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

// Config is the top-level TOML structure plus environment overrides.
// ZYPIN_LOG_LEVEL and ZYPIN_TIMEOUT override their file counterparts; they
// affect logging and the default operation timeout only, never discovery or
// supervision logic.
type Config struct {
	PackageRoots []string       `toml:"package_roots" mapstructure:"package_roots"`
	Env          []string       `toml:"env" mapstructure:"env"`
	LogLevel     string         `toml:"log_level" mapstructure:"log_level"`
	Timeout      time.Duration  `toml:"timeout" mapstructure:"timeout"`
	Log          logger.Config  `toml:"log" mapstructure:"log"`
	Store        state.Config   `toml:"store" mapstructure:"store"`
	Server       ServerConfig   `toml:"server" mapstructure:"server"`
	Metrics      *MetricsConfig `toml:"metrics" mapstructure:"metrics"`
}

// Default returns the configuration used when no file is given: packages and
// state live under ~/.zypin, the status service on the fixed local port.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".zypin")
	return Config{
		PackageRoots: []string{filepath.Join(base, "packages")},
		LogLevel:     "info",
		Timeout:      30 * time.Second,
		Log:          logger.Config{Dir: filepath.Join(base, "logs")},
		Store:        state.Config{Type: "file", Path: filepath.Join(base, "state.json")},
		Server:       ServerConfig{Listen: "127.0.0.1:8421"},
	}
}

// Load reads the TOML file at path (optional) and applies ZYPIN_* overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("ZYPIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// env overrides apply whether or not a file was read
	if lvl := v.GetString("log_level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if raw := v.GetString("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse ZYPIN_TIMEOUT %q: %w", raw, err)
		}
		cfg.Timeout = d
	}

	if len(cfg.PackageRoots) == 0 {
		cfg.PackageRoots = Default().PackageRoots
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = Default().Server.Listen
	}
	return cfg, nil
}
