package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/damon-houk/currency-widget/internal/application/service"
	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/infrastructure/api"
	"github.com/damon-houk/currency-widget/internal/infrastructure/db"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://api.exchangerate-api.com/v4/latest/", cfg.RateAPIURL)
	assert.Equal(t, time.Duration(0), cfg.HTTPTimeout)
	assert.Equal(t, StoreBadger, cfg.StoreBackend)
	assert.Equal(t, logger.InfoLevel, cfg.LogLevel)
	assert.Contains(t, cfg.DisplayCurrencies, "USD")
	assert.Nil(t, cfg.PopularPairs)
}

func TestDefaultsMatchComponents(t *testing.T) {
	assert.Equal(t, api.DefaultRatesURL, DefaultRateAPIURL)
	assert.Equal(t, api.DefaultHistoricalURL, DefaultHistoricalAPIURL)
	assert.Equal(t, db.DefaultRedisPrefix, DefaultRedisPrefix)
	assert.Equal(t, strings.Join(service.DefaultDisplayCurrencies, ","), DefaultDisplayCurrencies)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_API_URL", "http://localhost:1234/latest")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DISPLAY_CURRENCIES", "usd, eur ,,gbp")
	t.Setenv("POPULAR_PAIRS", "EUR/USD, gbp/jpy")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://localhost:1234/latest/", cfg.RateAPIURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, StoreRedis, cfg.StoreBackend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, logger.DebugLevel, cfg.LogLevel)
	assert.Equal(t, []string{"USD", "EUR", "GBP"}, cfg.DisplayCurrencies)
	assert.Equal(t, []entity.CurrencyPair{{From: "EUR", To: "USD"}, {From: "GBP", To: "JPY"}}, cfg.PopularPairs)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BADGER_PATH=/tmp/widget-test\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("BADGER_PATH") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/widget-test", cfg.BadgerPath)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"STORE_BACKEND":      "sqlite",
		"HTTP_TIMEOUT":       "soon",
		"DISPLAY_CURRENCIES": "USD,EURO",
		"POPULAR_PAIRS":      "EURUSD",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
