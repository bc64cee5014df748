// Package database provides PostgreSQL connection management using pgx.
package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/retry"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Config holds PostgreSQL connection settings.
type Config struct {
	Host     string `env:"DB_HOST"      env-default:"localhost" validate:"required"`
	Port     string `env:"DB_PORT"      env-default:"5432"      validate:"required,numeric"`
	User     string `env:"DB_USER"      env-default:"postgres"  validate:"required"`
	Password string `env:"DB_PASSWORD"  env-default:"postgres"`
	DBName   string `env:"DB_NAME"      env-default:"ticketing" validate:"required"`
	SSLMode  string `env:"DB_SSLMODE"   env-default:"disable"   validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns int32  `env:"DB_MAX_CONNS" env-default:"20"        validate:"min=1"`
}

// DSN builds a libpq-compatible connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// connectPolicy gives a starting database container a few seconds.
var connectPolicy = retry.Policy{Retries: 5, Initial: time.Second, Max: 4 * time.Second}

// NewPool creates and validates a pgxpool connection pool, retrying while
// the database comes up.
func NewPool(ctx context.Context, cfg Config, log *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	attempt := 0
	err = connectPolicy.Do(ctx, func() error {
		attempt++
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			log.WarnContext(ctx, "db connect attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return pool, nil
}

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
