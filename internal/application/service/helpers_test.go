package service

import (
	"io"
	"time"

	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/infrastructure/cache"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
)

var testLog = logger.NewJSONLogger(io.Discard, logger.InfoLevel)

func usdTable() *entity.RateTable {
	return &entity.RateTable{
		Base: "USD",
		Rates: map[string]float64{
			"USD": 1,
			"EUR": 0.92,
			"GBP": 0.8,
			"JPY": 150,
			"CHF": 0.88,
			"CAD": 1.36,
		},
		FetchedAt: time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC).Local(),
	}
}

func newMemoryCache() (*cache.LocalCache, *cache.MemoryStore) {
	store := cache.NewMemoryStore()
	return cache.NewLocalCache(store, testLog, nil), store
}
