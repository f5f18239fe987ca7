// Package db provides database connection pool construction for the service.
package db

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
// The notification dispatch path issues short read-heavy bursts (settings,
// tier, three window aggregates per event), so idle headroom matters more
// than a large open cap.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open creates and configures a new database connection pool.
// It reads DATABASE_URL from the environment, applies pool settings, and
// verifies connectivity with a bounded ping. Startup fails hard on a missing
// DSN or unreachable database.
func Open() *sql.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal(err)
	}

	cfg := connectionConfigFromEnv()
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	return pool
}

// connectionConfigFromEnv reads pool configuration overrides from the
// environment, falling back to defaults for unset or invalid values.
func connectionConfigFromEnv() ConnectionConfig {
	cfg := DefaultConnectionConfig()

	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 {
			cfg.MaxOpenConns = val
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 {
			cfg.MaxIdleConns = val
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME"); raw != "" {
		if val, err := time.ParseDuration(raw); err == nil && val > 0 {
			cfg.ConnMaxLifetime = val
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_TIME"); raw != "" {
		if val, err := time.ParseDuration(raw); err == nil && val > 0 {
			cfg.ConnMaxIdleTime = val
		}
	}

	return cfg
}
