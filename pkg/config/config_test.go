package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "8000")
	t.Setenv("METRICS_PORT", "8080")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("ENABLE_USER_AUTHENTICATION", "false")
	t.Setenv("FALLBACK_LANGUAGE", "en")
	t.Setenv("MIGRATIONS_PATH", "file://./migrations")

	cfg := NewConfigFromEnv()

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, 8080, cfg.MetricsPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.EnableUserAuthentication)
	assert.Equal(t, "en", cfg.FallbackLanguage)
	assert.Equal(t, "file://./migrations", cfg.MigrationsPath)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromEnv_CustomValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("METRICS_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENABLE_USER_AUTHENTICATION", "true")
	t.Setenv("FALLBACK_LANGUAGE", "de")
	t.Setenv("MIGRATIONS_PATH", "file:///app/migrations")

	cfg := NewConfigFromEnv()

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.EnableUserAuthentication)
	assert.Equal(t, "de", cfg.FallbackLanguage)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:         8000,
			MetricsPort:      8080,
			LogLevel:         "info",
			FallbackLanguage: "en",
			MigrationsPath:   "file://./migrations",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "http port zero", mutate: func(c *Config) { c.HTTPPort = 0 }},
		{name: "http port too large", mutate: func(c *Config) { c.HTTPPort = 70000 }},
		{name: "metrics port negative", mutate: func(c *Config) { c.MetricsPort = -1 }},
		{name: "ports collide", mutate: func(c *Config) { c.MetricsPort = c.HTTPPort }},
		{name: "empty fallback language", mutate: func(c *Config) { c.FallbackLanguage = "" }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "empty migrations path", mutate: func(c *Config) { c.MigrationsPath = "" }},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
