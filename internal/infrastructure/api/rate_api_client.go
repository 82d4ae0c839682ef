// Package api implements the client for the upstream exchange-rate API
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/damon-houk/currency-widget/internal/domain/apperrors"
	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/damon-houk/currency-widget/internal/infrastructure/metrics"
	"github.com/tidwall/gjson"
)

const (
	// DefaultRatesURL is prefixed to the base currency code
	DefaultRatesURL = "https://api.exchangerate-api.com/v4/latest/"
	// DefaultHistoricalURL is prefixed to "{base}/{target}"
	DefaultHistoricalURL = "https://api.exchangerate-api.com/v4/history/"

	opGetRates      = "get_rates"
	opGetHistorical = "get_historical"
)

// RateAPIClient issues single best-effort requests to the rate API.
// It never retries; callers re-issue on failure.
type RateAPIClient struct {
	ratesURL      string
	historicalURL string
	httpClient    *http.Client
	logger        logger.Logger
	metrics       *metrics.Metrics
}

// Option customises a RateAPIClient
type Option func(*RateAPIClient)

// WithRatesURL overrides the latest-rates endpoint prefix
func WithRatesURL(u string) Option {
	return func(c *RateAPIClient) { c.ratesURL = u }
}

// WithHistoricalURL overrides the historical endpoint prefix
func WithHistoricalURL(u string) Option {
	return func(c *RateAPIClient) { c.historicalURL = u }
}

// WithMetrics attaches upstream request instrumentation
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *RateAPIClient) { c.metrics = m }
}

// NewRateAPIClient creates a client. A nil httpClient gets a client with no timeout.
func NewRateAPIClient(httpClient *http.Client, log logger.Logger, opts ...Option) *RateAPIClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	c := &RateAPIClient{
		ratesURL:      DefaultRatesURL,
		historicalURL: DefaultHistoricalURL,
		httpClient:    httpClient,
		logger:        logger.OrDefault(log).WithField("component", "rate_api"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetRates retrieves the rate table anchored at base
func (c *RateAPIClient) GetRates(ctx context.Context, base string) (*entity.RateTable, error) {
	reqURL := c.ratesURL + url.PathEscape(base)

	body, err := c.get(ctx, opGetRates, reqURL)
	if err != nil {
		return nil, err
	}

	table, skipped, err := parseRateTable(base, body)
	if err != nil {
		c.metrics.ObserveUpstream(opGetRates, "decode_error", 0)
		return nil, &apperrors.NetworkError{Op: opGetRates, URL: reqURL, Err: err}
	}

	if len(skipped) > 0 {
		c.logger.Debug("Dropped malformed rate entries", map[string]interface{}{
			"base":    base,
			"skipped": skipped,
		})
	}

	c.logger.Debug("Rate table fetched", map[string]interface{}{
		"base":       table.Base,
		"currencies": len(table.Rates),
		"fetched_at": table.FetchedAt.Format(time.RFC3339),
	})

	return table, nil
}

// GetHistorical retrieves the historical series for base/target verbatim
func (c *RateAPIClient) GetHistorical(ctx context.Context, base, target string) (json.RawMessage, error) {
	reqURL := c.historicalURL + url.PathEscape(base) + "/" + url.PathEscape(target)

	body, err := c.get(ctx, opGetHistorical, reqURL)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		c.metrics.ObserveUpstream(opGetHistorical, "decode_error", 0)
		return nil, &apperrors.NetworkError{Op: opGetHistorical, URL: reqURL, Err: errors.New("response body is not valid JSON")}
	}

	return json.RawMessage(body), nil
}

// get performs one GET and returns the body of a 2xx response
func (c *RateAPIClient) get(ctx context.Context, op, reqURL string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &apperrors.NetworkError{Op: op, URL: reqURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(op, "transport_error", time.Since(start))
		c.logger.Warn("Upstream request failed", map[string]interface{}{
			"op":    op,
			"url":   reqURL,
			"error": err.Error(),
		})
		return nil, &apperrors.NetworkError{Op: op, URL: reqURL, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("Error closing response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveUpstream(op, "transport_error", time.Since(start))
		return nil, &apperrors.NetworkError{Op: op, URL: reqURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.ObserveUpstream(op, "status_error", time.Since(start))
		c.logger.Warn("Upstream returned error status", map[string]interface{}{
			"op":     op,
			"url":    reqURL,
			"status": resp.StatusCode,
		})
		return nil, &apperrors.NetworkError{Op: op, URL: reqURL, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	c.metrics.ObserveUpstream(op, "success", time.Since(start))
	return body, nil
}

// parseRateTable extracts the rates object and the epoch-seconds timestamp.
// Entries that are not a currency code mapped to a positive finite number
// are skipped and reported back.
func parseRateTable(base string, body []byte) (*entity.RateTable, []string, error) {
	if !gjson.ValidBytes(body) {
		return nil, nil, errors.New("response body is not valid JSON")
	}

	rates := gjson.GetBytes(body, "rates")
	if !rates.IsObject() {
		return nil, nil, errors.New("response has no rates object")
	}

	table := &entity.RateTable{
		Base:  base,
		Rates: make(map[string]float64),
	}
	if b := gjson.GetBytes(body, "base"); b.Type == gjson.String && entity.IsCurrencyCode(b.Str) {
		table.Base = b.Str
	}

	var skipped []string
	rates.ForEach(func(key, value gjson.Result) bool {
		code := key.String()
		if !entity.IsCurrencyCode(code) || value.Type != gjson.Number {
			skipped = append(skipped, code)
			return true
		}
		rate := value.Float()
		if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			skipped = append(skipped, code)
			return true
		}
		table.Rates[code] = rate
		return true
	})

	if ts := gjson.GetBytes(body, "time_last_updated"); ts.Type == gjson.Number {
		table.FetchedAt = time.Unix(ts.Int(), 0).Local()
	} else {
		table.FetchedAt = time.Now().Local()
	}

	return table, skipped, nil
}
