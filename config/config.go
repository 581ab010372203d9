/*
Package config loads server and engine settings.

PRECEDENCE (lowest to highest):
  1. DefaultConfig()
  2. TOML file (missing file is not an error)
  3. LEASE_ENGINE_* environment variables
  4. command-line flags (applied by cmd/lease-engine)

EXAMPLE FILE:
  [server]
  port = 8080
  allowed_origins = ["http://localhost:5173"]

  [database]
  path = "leases.db"

  [log]
  level = "info"
  format = "json"

  [engine]
  renewal_window_days = 90
  default_time_zone = "America/New_York"
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/warp/lease-engine/calendar"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/logger"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LEASE_ENGINE"

// Config holds all settings.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Engine   EngineConfig   `toml:"engine"`
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	ReadTimeout    Duration `toml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout"`
	IdleTimeout    Duration `toml:"idle_timeout"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type DatabaseConfig struct {
	// Path is the SQLite file; ":memory:" for a throwaway database.
	Path string `toml:"path"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type EngineConfig struct {
	RenewalWindowDays int `toml:"renewal_window_days"`
	// DefaultTimeZone is used for stateless evaluations that name no zone.
	DefaultTimeZone string `toml:"default_time_zone"`
}

// Duration lets TOML carry "15s"-style values.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    Duration{15 * time.Second},
			WriteTimeout:   Duration{15 * time.Second},
			IdleTimeout:    Duration{60 * time.Second},
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Database: DatabaseConfig{Path: "leases.db"},
		Log:      LogConfig{Level: "info", Format: "json"},
		Engine: EngineConfig{
			RenewalWindowDays: lease.DefaultRenewalWindowDays,
			DefaultTimeZone:   "UTC",
		},
	}
}

// Load reads path (when non-empty and present) over the defaults, then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return cfg, fmt.Errorf("reading config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if err := cfg.LoadFromEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFromEnv applies LEASE_ENGINE_* overrides read through getenv.
func (c *Config) LoadFromEnv(getenv func(string) string) error {
	env := func(name string) string { return strings.TrimSpace(getenv(EnvPrefix + "_" + name)) }

	if v := env("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s_PORT: %w", EnvPrefix, err)
		}
		c.Server.Port = port
	}
	if v := env("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := env("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := env("RENEWAL_WINDOW_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s_RENEWAL_WINDOW_DAYS: %w", EnvPrefix, err)
		}
		c.Engine.RenewalWindowDays = days
	}
	if v := env("DEFAULT_TIME_ZONE"); v != "" {
		c.Engine.DefaultTimeZone = v
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level unknown: %q", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "console" {
		return fmt.Errorf("log.format must be json or console: %q", c.Log.Format)
	}
	if c.Engine.RenewalWindowDays < 0 {
		return fmt.Errorf("engine.renewal_window_days must not be negative: %d", c.Engine.RenewalWindowDays)
	}
	if !calendar.ValidZone(c.Engine.DefaultTimeZone) {
		return fmt.Errorf("engine.default_time_zone unknown: %q", c.Engine.DefaultTimeZone)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
