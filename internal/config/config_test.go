package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("MANAGER_PIN", "")
	t.Setenv("CASHIER_PIN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AuthSecret)
	assert.Empty(t, cfg.ManagerPIN)
	assert.Empty(t, cfg.CashierPIN)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "TIMEZONE", "CURRENCY_EXPONENT", "CART_TTL_HOURS", "MIGRATE_ON_START", "ACCESS_TOKEN_TTL_MINUTES", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, time.UTC, cfg.Location)
	assert.EqualValues(t, 2, cfg.CurrencyExponent)
	assert.Equal(t, 12*time.Hour, cfg.CartTTL)
	assert.Equal(t, 8*time.Hour, cfg.AccessTokenTTL)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TIMEZONE", "Asia/Jakarta")
	t.Setenv("CURRENCY_EXPONENT", "0")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, "Asia/Jakarta", cfg.Location.String())
	assert.EqualValues(t, 0, cfg.CurrencyExponent)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, 3, cfg.LowStockThreshold)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}
