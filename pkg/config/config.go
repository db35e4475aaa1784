package config

import (
	"github.com/sirupsen/logrus"

	"gamification-engine/pkg/common"
	"gamification-engine/pkg/errors"
)

// Config holds service-level settings loaded from the environment.
// Database settings live in pkg/db.Config.
type Config struct {
	HTTPPort    int
	MetricsPort int
	LogLevel    string

	// EnableUserAuthentication gates the may-increase permission check.
	// When false, any caller may increase any variable (trusted backend mode).
	EnableUserAuthentication bool

	// FallbackLanguage is the language every translation map is guaranteed
	// to contain after resolution.
	FallbackLanguage string

	// MigrationsPath is a file:// URL to the SQL migrations directory.
	MigrationsPath string
}

// NewConfigFromEnv builds a Config from environment variables.
func NewConfigFromEnv() *Config {
	return &Config{
		HTTPPort:                 common.GetEnvInt("HTTP_PORT", 8000),
		MetricsPort:              common.GetEnvInt("METRICS_PORT", 8080),
		LogLevel:                 common.GetEnv("LOG_LEVEL", logrus.InfoLevel.String()),
		EnableUserAuthentication: common.GetEnvBool("ENABLE_USER_AUTHENTICATION", false),
		FallbackLanguage:         common.GetEnv("FALLBACK_LANGUAGE", "en"),
		MigrationsPath:           common.GetEnv("MIGRATIONS_PATH", "file://./migrations"),
	}
}

// Validate fails fast on settings the service cannot start with.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return errors.ErrConfigInvalid("HTTP_PORT out of range")
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return errors.ErrConfigInvalid("METRICS_PORT out of range")
	}
	if c.HTTPPort == c.MetricsPort {
		return errors.ErrConfigInvalid("HTTP_PORT and METRICS_PORT must differ")
	}
	if c.FallbackLanguage == "" {
		return errors.ErrConfigInvalid("FALLBACK_LANGUAGE must not be empty")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.ErrConfigInvalid("LOG_LEVEL is not a valid logrus level")
	}
	if c.MigrationsPath == "" {
		return errors.ErrConfigInvalid("MIGRATIONS_PATH must not be empty")
	}
	return nil
}
