// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/database"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

// Storage backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Ledger backends.
const (
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
	LedgerMemory   = "memory"
)

// Config is the full runtime configuration.
type Config struct {
	Port     string          `env:"PORT"      env-default:"8080"                     validate:"required,numeric"`
	DB       database.Config `validate:"required"`
	Store    string          `env:"STORE"     env-default:"postgres"                 validate:"oneof=postgres memory"`
	Ledger   string          `env:"LEDGER"    env-default:"postgres"                 validate:"oneof=postgres redis memory"`
	RedisURL string          `env:"REDIS_URL" env-default:"redis://localhost:6379/0" validate:"required,url"`

	// PaymentWebhookSecret keys the HMAC the payment gateway signs its
	// events with.
	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET" validate:"required"`

	PaymentWindow    time.Duration `env:"PAYMENT_WINDOW"     env-default:"15m"   validate:"gt=0"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL"     env-default:"1m"    validate:"gt=0"`
	AllowSelfCheckIn bool          `env:"ALLOW_SELF_CHECKIN" env-default:"false"`
	LogLevel         string        `env:"LOG_LEVEL"          env-default:"info"  validate:"oneof=debug info warn error"`
}

// Level converts LogLevel to a slog.Level.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads .env (if present) and the environment. Every key that fails
// validation is reported in the returned error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg.Store = strings.ToLower(cfg.Store)
	cfg.Ledger = strings.ToLower(cfg.Ledger)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Name fields after their environment key so errors point at what to fix.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("env"), ","); name != "" {
			return name
		}
		return f.Name
	})

	var errs []error
	var fieldErrs validator.ValidationErrors
	if err := v.Struct(c); errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			errs = append(errs, fmt.Errorf("%s: failed %q", fe.Field(), fieldRule(fe)))
		}
	} else if err != nil {
		errs = append(errs, err)
	}
	if c.Store == StoreMemory && c.Ledger == LedgerPostgres {
		errs = append(errs, errors.New("LEDGER: postgres ledger needs STORE=postgres"))
	}
	return errors.Join(errs...)
}

func fieldRule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// NewLogger builds the tint-backed slog logger used across the service.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}
