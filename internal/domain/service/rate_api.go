package service

import (
	"context"
	"encoding/json"

	"github.com/damon-houk/currency-widget/internal/domain/entity"
)

// RateProvider defines the interface for the upstream exchange-rate API
type RateProvider interface {
	// GetRates retrieves the full rate table anchored at base
	GetRates(ctx context.Context, base string) (*entity.RateTable, error)

	// GetHistorical retrieves the raw historical series for a pair
	GetHistorical(ctx context.Context, base, target string) (json.RawMessage, error)
}
