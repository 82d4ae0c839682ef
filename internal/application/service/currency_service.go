package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/domain/repository"
	domain "github.com/damon-houk/currency-widget/internal/domain/service"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

const (
	// CurrenciesKey is the cache key holding the currency code list
	CurrenciesKey = "currencies"

	// catalogBase anchors the currency list and the popular pair cross rates
	catalogBase = "USD"

	popularPairPlaces = 4
)

// DefaultDisplayCurrencies are the rows shown in the exchange-rate table
var DefaultDisplayCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "CNY", "INR"}

// DefaultPopularPairs are the pairs shown in the popular list
var DefaultPopularPairs = []entity.CurrencyPair{
	{From: "EUR", To: "USD"},
	{From: "USD", To: "JPY"},
	{From: "GBP", To: "USD"},
	{From: "USD", To: "CHF"},
	{From: "AUD", To: "USD"},
	{From: "USD", To: "CAD"},
}

// CurrencyService provides the currency list, the rates table and the
// popular pairs shown next to the converter
type CurrencyService struct {
	rates   domain.RateProvider
	cache   repository.Cache
	display []string
	popular []entity.CurrencyPair
	logger  logger.Logger
}

// NewCurrencyService creates a new currency service. An empty display list
// shows every quoted currency; a nil popular list uses DefaultPopularPairs.
func NewCurrencyService(rates domain.RateProvider, cache repository.Cache, display []string, popular []entity.CurrencyPair, log logger.Logger) *CurrencyService {
	if popular == nil {
		popular = DefaultPopularPairs
	}

	return &CurrencyService{
		rates:   rates,
		cache:   cache,
		display: display,
		popular: popular,
		logger:  logger.OrDefault(log).WithField("component", "currencies"),
	}
}

// ListCurrencies returns the sorted currency codes. The list is cached
// on the first non-empty success and never refreshed.
func (s *CurrencyService) ListCurrencies(ctx context.Context) ([]string, error) {
	var codes []string
	if s.cache.Get(ctx, CurrenciesKey, &codes) {
		return codes, nil
	}

	table, err := s.rates.GetRates(ctx, catalogBase)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch currency list: %w", err)
	}

	codes = table.Currencies()
	if len(codes) == 0 {
		// An empty list would be memoized forever; leave the key unset
		return nil, errors.New("failed to fetch currency list: upstream quoted no currencies")
	}

	if err := s.cache.Set(ctx, CurrenciesKey, codes); err != nil {
		s.logger.Warn("Failed to cache currency list", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.logger.Info("Currency list loaded", map[string]interface{}{
		"count": len(codes),
	})

	return codes, nil
}

// RatesTable returns the current rates against base for the display currencies
func (s *CurrencyService) RatesTable(ctx context.Context, base string) ([]entity.RateRow, error) {
	table, err := s.rates.GetRates(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates table: %w", err)
	}

	codes := s.display
	if len(codes) == 0 {
		codes = table.Currencies()
	}

	rows := make([]entity.RateRow, 0, len(codes))
	for _, code := range codes {
		rate, ok := table.Rate(code)
		if !ok {
			continue
		}
		rows = append(rows, entity.RateRow{Currency: code, Rate: rate})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Currency < rows[j].Currency
	})

	return rows, nil
}

// PopularPairs returns cross rates for the configured pairs from a single
// USD-anchored table. Pairs with an unquoted leg are left out.
func (s *CurrencyService) PopularPairs(ctx context.Context) ([]entity.PopularPair, error) {
	table, err := s.rates.GetRates(ctx, catalogBase)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch popular pairs: %w", err)
	}

	pairs := make([]entity.PopularPair, 0, len(s.popular))
	for _, pair := range s.popular {
		fromRate, okFrom := table.Rate(pair.From)
		toRate, okTo := table.Rate(pair.To)
		if !okFrom || !okTo {
			s.logger.Debug("Skipping popular pair", map[string]interface{}{
				"pair": pair.String(),
			})
			continue
		}

		cross, _ := decimal.NewFromFloat(toRate).
			Div(decimal.NewFromFloat(fromRate)).
			Round(popularPairPlaces).
			Float64()

		pairs = append(pairs, entity.PopularPair{From: pair.From, To: pair.To, Rate: cross})
	}

	return pairs, nil
}
