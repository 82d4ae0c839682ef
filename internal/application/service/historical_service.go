package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/damon-houk/currency-widget/internal/domain/apperrors"
	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/domain/repository"
	domain "github.com/damon-houk/currency-widget/internal/domain/service"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
)

// HistoricalKey returns the cache key for a pair's historical series
func HistoricalKey(base, target string) string {
	return "historical-" + base + "-" + target
}

// HistoricalService memoizes historical series forever: once a pair is
// cached it is never refetched.
type HistoricalService struct {
	rates  domain.RateProvider
	cache  repository.Cache
	logger logger.Logger
}

// NewHistoricalService creates a new historical series service
func NewHistoricalService(rates domain.RateProvider, cache repository.Cache, log logger.Logger) *HistoricalService {
	return &HistoricalService{
		rates:  rates,
		cache:  cache,
		logger: logger.OrDefault(log).WithField("component", "historical"),
	}
}

// GetHistorical returns the cached series for base/target, fetching and
// storing the raw upstream response on a miss
func (s *HistoricalService) GetHistorical(ctx context.Context, base, target string) (json.RawMessage, error) {
	if !entity.IsCurrencyCode(base) {
		return nil, apperrors.NewValidationError("base", "must be a three-letter currency code")
	}
	if !entity.IsCurrencyCode(target) {
		return nil, apperrors.NewValidationError("target", "must be a three-letter currency code")
	}

	key := HistoricalKey(base, target)

	var cached json.RawMessage
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	series, err := s.rates.GetHistorical(ctx, base, target)
	if err != nil {
		return nil, fmt.Errorf("failed to get historical series: %w", err)
	}

	if err := s.cache.SetRaw(ctx, key, series); err != nil {
		s.logger.Warn("Failed to cache historical series", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	return series, nil
}
