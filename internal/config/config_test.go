package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every key Load reads for the duration of the test and
// supplies the one key without a default.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"DB_MAX_CONNS", "STORE", "LEDGER", "REDIS_URL", "PAYMENT_WINDOW", "SWEEP_INTERVAL",
		"ALLOW_SELF_CHECKIN", "LOG_LEVEL", "PAYMENT_WEBHOOK_SECRET",
	} {
		t.Setenv(key, "") // restores the original value on cleanup
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec_test")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, LedgerPostgres, cfg.Ledger)
	assert.Equal(t, 15*time.Minute, cfg.PaymentWindow)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.False(t, cfg.AllowSelfCheckIn)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, int32(20), cfg.DB.MaxConns)
	assert.Equal(t, "whsec_test", cfg.PaymentWebhookSecret)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "memory")
	t.Setenv("LEDGER", "REDIS")
	t.Setenv("PAYMENT_WINDOW", "5m")
	t.Setenv("ALLOW_SELF_CHECKIN", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, LedgerRedis, cfg.Ledger)
	assert.Equal(t, 5*time.Minute, cfg.PaymentWindow)
	assert.True(t, cfg.AllowSelfCheckIn)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_ReportsEveryInvalidKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_MAX_CONNS", "0")
	t.Setenv("SWEEP_INTERVAL", "-1s")
	t.Setenv("LEDGER", "etcd")
	t.Setenv("DB_SSLMODE", "sometimes")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "DB_MAX_CONNS")
	assert.ErrorContains(t, err, "SWEEP_INTERVAL")
	assert.ErrorContains(t, err, "LEDGER")
	assert.ErrorContains(t, err, "DB_SSLMODE")
}

func TestLoad_Unparsable(t *testing.T) {
	clearEnv(t)
	t.Setenv("PAYMENT_WINDOW", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_RequiresWebhookSecret(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("PAYMENT_WEBHOOK_SECRET"))

	_, err := Load()
	assert.ErrorContains(t, err, "PAYMENT_WEBHOOK_SECRET")
}

func TestLoad_MemoryStoreNeedsOwnLedger(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "memory")

	_, err := Load()
	assert.ErrorContains(t, err, "LEDGER")
}

func TestDSN(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.DB.DSN(), "dbname=ticketing")
	assert.Contains(t, cfg.DB.DSN(), "sslmode=disable")
}
