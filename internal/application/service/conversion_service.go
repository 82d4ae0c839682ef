// Package service implements the widget's application services
package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/damon-houk/currency-widget/internal/domain/apperrors"
	"github.com/damon-houk/currency-widget/internal/domain/entity"
	domain "github.com/damon-houk/currency-widget/internal/domain/service"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/damon-houk/currency-widget/internal/infrastructure/metrics"
	"github.com/damon-houk/currency-widget/internal/infrastructure/middleware"
	"github.com/shopspring/decimal"
)

// ConversionService converts amounts using a freshly fetched rate table
type ConversionService struct {
	rates   domain.RateProvider
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewConversionService creates a new conversion service
func NewConversionService(rates domain.RateProvider, log logger.Logger, m *metrics.Metrics) *ConversionService {
	return &ConversionService{
		rates:   rates,
		logger:  logger.OrDefault(log).WithField("component", "conversion"),
		metrics: m,
	}
}

// Convert converts amount from one currency to another.
// Input is validated before any remote call is made.
func (s *ConversionService) Convert(ctx context.Context, amount float64, from, to string) (*entity.ConversionResult, error) {
	requestID := middleware.GetRequestID(ctx)

	if err := validateConversion(amount, from, to); err != nil {
		s.metrics.ObserveConversion("invalid")
		s.logger.Debug("Rejected conversion input", map[string]interface{}{
			"request_id": requestID,
			"from":       from,
			"to":         to,
			"error":      err.Error(),
		})
		return nil, err
	}

	table, err := s.rates.GetRates(ctx, from)
	if err != nil {
		s.metrics.ObserveConversion("network_error")
		s.logger.Error("Failed to get exchange rate", map[string]interface{}{
			"request_id": requestID,
			"from":       from,
			"to":         to,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	rate, ok := table.Rate(to)
	if !ok {
		s.metrics.ObserveConversion("unsupported")
		s.logger.Warn("Target currency not quoted", map[string]interface{}{
			"request_id": requestID,
			"from":       from,
			"to":         to,
		})
		return nil, apperrors.NewValidationError("to", fmt.Sprintf("no rate for %s against %s", to, from))
	}

	// Half away from zero
	converted, _ := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate)).
		Round(2).
		Float64()
	if math.IsInf(converted, 0) || math.IsNaN(converted) {
		s.metrics.ObserveConversion("invalid")
		s.logger.Warn("Converted amount out of range", map[string]interface{}{
			"request_id": requestID,
			"from":       from,
			"to":         to,
			"amount":     amount,
		})
		return nil, apperrors.NewValidationError("amount", "converted amount is out of range")
	}

	s.metrics.ObserveConversion("success")
	s.logger.Info("Conversion completed", map[string]interface{}{
		"request_id":       requestID,
		"from":             from,
		"to":               to,
		"amount":           amount,
		"exchange_rate":    rate,
		"converted_amount": converted,
	})

	return &entity.ConversionResult{
		Amount:          amount,
		From:            from,
		To:              to,
		Rate:            rate,
		ConvertedAmount: converted,
		RateTimestamp:   table.FetchedAt,
	}, nil
}

func validateConversion(amount float64, from, to string) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return apperrors.NewValidationError("amount", "must be a finite number")
	}

	if amount <= 0 {
		return apperrors.NewValidationError("amount", "must be greater than zero")
	}

	if strings.TrimSpace(from) == "" {
		return apperrors.NewValidationError("from", "currency is required")
	}

	if strings.TrimSpace(to) == "" {
		return apperrors.NewValidationError("to", "currency is required")
	}

	return nil
}
