package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/config"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 90, cfg.Engine.RenewalWindowDays)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9090
read_timeout = "5s"

[engine]
renewal_window_days = 60
default_time_zone = "Europe/Berlin"
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Duration)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout.Duration, "untouched keys keep defaults")
	assert.Equal(t, 60, cfg.Engine.RenewalWindowDays)
	assert.Equal(t, "Europe/Berlin", cfg.Engine.DefaultTimeZone)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	env := map[string]string{
		"LEASE_ENGINE_PORT":                "3000",
		"LEASE_ENGINE_ALLOWED_ORIGINS":     "https://a.example, https://b.example",
		"LEASE_ENGINE_RENEWAL_WINDOW_DAYS": "30",
		"LEASE_ENGINE_LOG_FORMAT":          "console",
	}
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv(func(k string) string { return env[k] }))

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30, cfg.Engine.RenewalWindowDays)
	assert.Equal(t, "console", cfg.Log.Format)

	env["LEASE_ENGINE_PORT"] = "eighty"
	assert.Error(t, cfg.LoadFromEnv(func(k string) string { return env[k] }))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"port", func(c *config.Config) { c.Server.Port = 0 }},
		{"db path", func(c *config.Config) { c.Database.Path = "" }},
		{"log level", func(c *config.Config) { c.Log.Level = "loud" }},
		{"log format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"renewal window", func(c *config.Config) { c.Engine.RenewalWindowDays = -1 }},
		{"zone", func(c *config.Config) { c.Engine.DefaultTimeZone = "Atlantis/Capital" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
