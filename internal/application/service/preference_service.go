package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/domain/repository"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/tidwall/gjson"
)

// PreferencesKey is the cache key holding the user's selections
const PreferencesKey = "userPreferences"

// PreferenceService persists UserPreferences through the local cache
type PreferenceService struct {
	cache  repository.Cache
	logger logger.Logger
}

// NewPreferenceService creates a new preference service
func NewPreferenceService(cache repository.Cache, log logger.Logger) *PreferenceService {
	return &PreferenceService{
		cache:  cache,
		logger: logger.OrDefault(log).WithField("component", "preferences"),
	}
}

// Save overwrites the stored preferences
func (s *PreferenceService) Save(ctx context.Context, prefs entity.UserPreferences) error {
	if err := s.cache.Set(ctx, PreferencesKey, prefs); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	s.logger.Debug("Preferences saved", map[string]interface{}{
		"from":  prefs.FromCurrency,
		"to":    prefs.ToCurrency,
		"theme": string(prefs.Theme),
	})
	return nil
}

// Load returns the stored preferences. Each field that is missing or
// unusable falls back to its default; Load never fails.
func (s *PreferenceService) Load(ctx context.Context) entity.UserPreferences {
	prefs := entity.DefaultPreferences()

	var raw json.RawMessage
	if !s.cache.Get(ctx, PreferencesKey, &raw) {
		return prefs
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		s.logger.Debug("Stored preferences are not an object", nil)
		return prefs
	}

	prefs.FromCurrency = currencyField(doc, "fromCurrency", prefs.FromCurrency)
	prefs.ToCurrency = currencyField(doc, "toCurrency", prefs.ToCurrency)
	prefs.ChartBaseCurrency = currencyField(doc, "chartBaseCurrency", prefs.ChartBaseCurrency)
	prefs.ChartTargetCurrency = currencyField(doc, "chartTargetCurrency", prefs.ChartTargetCurrency)

	if v := doc.Get("theme"); v.Type == gjson.String {
		if theme := entity.Theme(v.Str); theme.Valid() {
			prefs.Theme = theme
		}
	}

	return prefs
}

func currencyField(doc gjson.Result, field, fallback string) string {
	v := doc.Get(field)
	if v.Type != gjson.String || !entity.IsCurrencyCode(v.Str) {
		return fallback
	}
	return v.Str
}
