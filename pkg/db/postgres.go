package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pkg/errors"

	"gamification-engine/pkg/common"
)

// Config holds PostgreSQL connection settings, loaded from the environment.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// NewConfigFromEnv builds a Config from DB_* environment variables with
// sensible local-development defaults.
func NewConfigFromEnv() *Config {
	return &Config{
		Host:            common.GetEnv("DB_HOST", "localhost"),
		Port:            common.GetEnvInt("DB_PORT", 5432),
		Database:        common.GetEnv("DB_NAME", "gamification"),
		User:            common.GetEnv("DB_USER", "postgres"),
		Password:        common.GetEnv("DB_PASSWORD", ""),
		SSLMode:         common.GetEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    common.GetEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    common.GetEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(common.GetEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		ConnMaxIdleTime: time.Duration(common.GetEnvInt("DB_CONN_MAX_IDLE_TIME", 300)) * time.Second,
	}
}

// DSN returns the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode)
}

// Connect opens the database, applies pool settings and verifies the
// connection with a ping bounded by ctx.
func Connect(ctx context.Context, cfg *Config) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return conn, nil
}
