// Package config loads the service configuration from the environment
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends
const (
	StoreBadger = "badger"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Defaults applied when a variable is unset
const (
	DefaultRateAPIURL        = "https://api.exchangerate-api.com/v4/latest/"
	DefaultHistoricalAPIURL  = "https://api.exchangerate-api.com/v4/history/"
	DefaultRedisPrefix       = "currency-widget:"
	DefaultDisplayCurrencies = "USD,EUR,GBP,JPY,CAD,AUD,CHF,CNY,INR"
)

// Config holds application configuration
type Config struct {
	Port string

	RateAPIURL       string
	HistoricalAPIURL string
	// HTTPTimeout of zero means no timeout
	HTTPTimeout time.Duration

	StoreBackend  string
	BadgerPath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	LogLevel logger.Level

	DisplayCurrencies []string
	PopularPairs      []entity.CurrencyPair
}

// Load reads configuration from a .env file if present, then the
// environment. Environment variables win over the file.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("RATE_API_URL", DefaultRateAPIURL)
	v.SetDefault("HISTORICAL_API_URL", DefaultHistoricalAPIURL)
	v.SetDefault("HTTP_TIMEOUT", "0s")
	v.SetDefault("STORE_BACKEND", StoreBadger)
	v.SetDefault("BADGER_PATH", "./data")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", DefaultRedisPrefix)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DISPLAY_CURRENCIES", DefaultDisplayCurrencies)
	v.SetDefault("POPULAR_PAIRS", "")
	v.AutomaticEnv()

	cfg := &Config{
		Port:             v.GetString("PORT"),
		RateAPIURL:       withTrailingSlash(v.GetString("RATE_API_URL")),
		HistoricalAPIURL: withTrailingSlash(v.GetString("HISTORICAL_API_URL")),
		StoreBackend:     strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		BadgerPath:       v.GetString("BADGER_PATH"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		RedisPrefix:      v.GetString("REDIS_PREFIX"),
		LogLevel:         logger.ParseLevel(v.GetString("LOG_LEVEL")),
	}

	timeout, err := time.ParseDuration(v.GetString("HTTP_TIMEOUT"))
	if err != nil || timeout < 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q", v.GetString("HTTP_TIMEOUT"))
	}
	cfg.HTTPTimeout = timeout

	switch cfg.StoreBackend {
	case StoreBadger, StoreRedis, StoreMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want badger, redis or memory", cfg.StoreBackend)
	}

	if cfg.DisplayCurrencies, err = parseCurrencies(v.GetString("DISPLAY_CURRENCIES")); err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_CURRENCIES: %w", err)
	}

	if cfg.PopularPairs, err = parsePairs(v.GetString("POPULAR_PAIRS")); err != nil {
		return nil, fmt.Errorf("invalid POPULAR_PAIRS: %w", err)
	}

	return cfg, nil
}

// parseCurrencies reads "USD,EUR,GBP". An empty list is returned as nil.
func parseCurrencies(raw string) ([]string, error) {
	var codes []string
	for _, item := range splitList(raw) {
		code := strings.ToUpper(item)
		if !entity.IsCurrencyCode(code) {
			return nil, fmt.Errorf("%q is not a currency code", item)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// parsePairs reads "EUR/USD,USD/JPY". An empty list is returned as nil.
func parsePairs(raw string) ([]entity.CurrencyPair, error) {
	var pairs []entity.CurrencyPair
	for _, item := range splitList(raw) {
		from, to, ok := strings.Cut(strings.ToUpper(item), "/")
		if !ok || !entity.IsCurrencyCode(from) || !entity.IsCurrencyCode(to) {
			return nil, fmt.Errorf("%q is not a FROM/TO pair", item)
		}
		pairs = append(pairs, entity.CurrencyPair{From: from, To: to})
	}
	return pairs, nil
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func withTrailingSlash(u string) string {
	if u != "" && !strings.HasSuffix(u, "/") {
		return u + "/"
	}
	return u
}
