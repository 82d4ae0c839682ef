// Package view holds the widget's UI state and the commands that change it.
// The page script renders State; every user gesture is a named Action.
package view

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/damon-houk/currency-widget/internal/domain/apperrors"
	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/infrastructure/chart"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/damon-houk/currency-widget/internal/infrastructure/metrics"
	"github.com/damon-houk/currency-widget/internal/infrastructure/middleware"
	"github.com/shopspring/decimal"
)

// Status messages shown in place of a result
const (
	StatusInvalidInput  = "Please enter valid inputs."
	StatusFetchFailed   = "Error fetching conversion rate."
	StatusCatalogFailed = "Error fetching currencies."
	StatusRatesFailed   = "Error fetching exchange rates."
	StatusPopularFailed = "Error fetching popular pairs."
)

// Converter converts amounts between currencies
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) (*entity.ConversionResult, error)
}

// PreferenceStore persists the user's selections
type PreferenceStore interface {
	Load(ctx context.Context) entity.UserPreferences
	Save(ctx context.Context, prefs entity.UserPreferences) error
}

// Catalog supplies the currency list, the rates table and the popular pairs
type Catalog interface {
	ListCurrencies(ctx context.Context) ([]string, error)
	RatesTable(ctx context.Context, base string) ([]entity.RateRow, error)
	PopularPairs(ctx context.Context) ([]entity.PopularPair, error)
}

// Action names a user gesture
type Action string

const (
	ActionConvert        Action = "convert"
	ActionUpdateChart    Action = "update-chart"
	ActionDropdownChange Action = "dropdown-change"
	ActionThemeToggle    Action = "theme-toggle"
	ActionReset          Action = "reset"
)

// Input carries the form values sent with an action. Unused fields are ignored.
type Input struct {
	Amount   string `json:"amount,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Base     string `json:"base,omitempty"`
	Target   string `json:"target,omitempty"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
}

// State is everything the page renders
type State struct {
	Preferences  entity.UserPreferences   `json:"preferences"`
	Currencies   []string                 `json:"currencies"`
	Result       string                   `json:"result"`
	LastResult   *entity.ConversionResult `json:"lastResult,omitempty"`
	Status       string                   `json:"status"`
	Rates        []entity.RateRow         `json:"rates"`
	PopularPairs []entity.PopularPair     `json:"popularPairs"`
	Chart        *chart.Config            `json:"chart,omitempty"`
}

// CommandHandler applies an action to the state. It runs with the view
// locked. Returning an error leaves the state as the handler left it.
type CommandHandler func(ctx context.Context, state *State, in Input) error

// View is the single process-wide widget state. Commands are serialized.
type View struct {
	mu       sync.Mutex
	state    State
	current  chart.Chart
	handlers map[Action]CommandHandler

	converter Converter
	prefs     PreferenceStore
	catalog   Catalog
	renderer  chart.Renderer
	logger    logger.Logger
	metrics   *metrics.Metrics
}

// New creates a view with the built-in actions registered. Call Load before
// serving it.
func New(converter Converter, prefs PreferenceStore, catalog Catalog, renderer chart.Renderer, log logger.Logger, m *metrics.Metrics) *View {
	v := &View{
		handlers:  make(map[Action]CommandHandler),
		converter: converter,
		prefs:     prefs,
		catalog:   catalog,
		renderer:  renderer,
		logger:    logger.OrDefault(log).WithField("component", "view"),
		metrics:   m,
		state:     State{Preferences: entity.DefaultPreferences()},
	}

	v.Register(ActionConvert, v.convert)
	v.Register(ActionUpdateChart, v.updateChart)
	v.Register(ActionDropdownChange, v.dropdownChange)
	v.Register(ActionThemeToggle, v.toggleTheme)
	v.Register(ActionReset, v.reset)

	return v
}

// Register binds handler to action, replacing any previous binding
func (v *View) Register(action Action, handler CommandHandler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.handlers[action] = handler
}

// Load populates the view from the catalog and the preference store.
// Catalog failures are reported through State.Status, not returned.
func (v *View) Load(ctx context.Context) (State, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	err := v.load(ctx, &v.state)
	return v.snapshot(), err
}

// State returns a copy of the current state
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

// Dispatch runs the handler registered for action. Failures the page
// displays are set on State.Status and are not returned.
func (v *View) Dispatch(ctx context.Context, action Action, in Input) (State, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	handler, ok := v.handlers[action]
	if !ok {
		v.metrics.ObserveAction(string(action), "unknown")
		return v.snapshot(), fmt.Errorf("%w: %q", apperrors.ErrUnknownAction, action)
	}

	if err := handler(ctx, &v.state, in); err != nil {
		v.metrics.ObserveAction(string(action), "error")
		v.logger.Warn("Action failed", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"action":     string(action),
			"error":      err.Error(),
		})
		return v.snapshot(), err
	}

	v.metrics.ObserveAction(string(action), "ok")
	return v.snapshot(), nil
}

// SetPreferences validates and stores prefs wholesale, redrawing the chart
// when its pair changed
func (v *View) SetPreferences(ctx context.Context, prefs entity.UserPreferences) (State, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := validatePreferences(prefs); err != nil {
		return v.snapshot(), err
	}

	previous := v.state.Preferences
	v.state.Preferences = prefs

	if prefs.ChartBaseCurrency != previous.ChartBaseCurrency || prefs.ChartTargetCurrency != previous.ChartTargetCurrency {
		if err := v.redraw(&v.state); err != nil {
			return v.snapshot(), err
		}
	}
	if prefs.FromCurrency != previous.FromCurrency {
		v.refreshRates(ctx, &v.state)
	}

	if err := v.prefs.Save(ctx, prefs); err != nil {
		return v.snapshot(), err
	}
	return v.snapshot(), nil
}

func (v *View) load(ctx context.Context, s *State) error {
	*s = State{Preferences: v.prefs.Load(ctx)}

	currencies, err := v.catalog.ListCurrencies(ctx)
	if err != nil {
		v.logger.Error("Failed to load currencies", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"error":      err.Error(),
		})
		s.Status = StatusCatalogFailed
	}
	s.Currencies = currencies

	if err := v.redraw(s); err != nil {
		return err
	}
	v.save(ctx, s)

	v.refreshRates(ctx, s)

	pairs, err := v.catalog.PopularPairs(ctx)
	if err != nil {
		v.logger.Error("Failed to load popular pairs", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"error":      err.Error(),
		})
		if s.Status == "" {
			s.Status = StatusPopularFailed
		}
	}
	s.PopularPairs = pairs

	return nil
}

func (v *View) convert(ctx context.Context, s *State, in Input) error {
	from := firstNonEmpty(in.From, s.Preferences.FromCurrency)
	to := firstNonEmpty(in.To, s.Preferences.ToCurrency)

	result, err := v.converter.Convert(ctx, parseAmount(in.Amount), from, to)
	if err != nil {
		// Prior result stays on screen
		if apperrors.IsValidation(err) {
			s.Status = StatusInvalidInput
		} else {
			s.Status = StatusFetchFailed
		}
		v.logger.Info("Conversion not shown", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"status":     s.Status,
			"error":      err.Error(),
		})
		return nil
	}

	line, err := FormatResult(result)
	if err != nil {
		s.Status = StatusInvalidInput
		return nil
	}

	s.Status = ""
	s.LastResult = result
	s.Result = line

	fromChanged := s.Preferences.FromCurrency != from
	s.Preferences.FromCurrency = from
	s.Preferences.ToCurrency = to
	if fromChanged {
		v.refreshRates(ctx, s)
	}
	v.save(ctx, s)
	return nil
}

func (v *View) updateChart(ctx context.Context, s *State, in Input) error {
	base := firstNonEmpty(in.Base, s.Preferences.ChartBaseCurrency)
	target := firstNonEmpty(in.Target, s.Preferences.ChartTargetCurrency)

	if !entity.IsCurrencyCode(base) {
		return apperrors.NewValidationError("base", "must be a three-letter currency code")
	}
	if !entity.IsCurrencyCode(target) {
		return apperrors.NewValidationError("target", "must be a three-letter currency code")
	}

	s.Preferences.ChartBaseCurrency = base
	s.Preferences.ChartTargetCurrency = target
	if err := v.redraw(s); err != nil {
		return err
	}

	v.save(ctx, s)
	return nil
}

func (v *View) dropdownChange(ctx context.Context, s *State, in Input) error {
	if !entity.IsCurrencyCode(in.Value) {
		return apperrors.NewValidationError("value", "must be a three-letter currency code")
	}
	if len(s.Currencies) > 0 && !contains(s.Currencies, in.Value) {
		return apperrors.NewValidationError("value", fmt.Sprintf("%s is not a listed currency", in.Value))
	}

	switch in.Selector {
	case "fromCurrency":
		changed := s.Preferences.FromCurrency != in.Value
		s.Preferences.FromCurrency = in.Value
		if changed {
			v.refreshRates(ctx, s)
		}
	case "toCurrency":
		s.Preferences.ToCurrency = in.Value
	case "chartBaseCurrency":
		s.Preferences.ChartBaseCurrency = in.Value
	case "chartTargetCurrency":
		s.Preferences.ChartTargetCurrency = in.Value
	default:
		return apperrors.NewValidationError("selector", fmt.Sprintf("unknown selector %q", in.Selector))
	}

	v.save(ctx, s)
	return nil
}

func (v *View) toggleTheme(ctx context.Context, s *State, _ Input) error {
	s.Preferences.Theme = s.Preferences.Theme.Toggle()
	v.save(ctx, s)
	return nil
}

func (v *View) reset(ctx context.Context, s *State, _ Input) error {
	return v.load(ctx, s)
}

// redraw destroys the current chart and draws the placeholder series for
// the selected chart pair
func (v *View) redraw(s *State) error {
	if v.current != nil {
		v.current.Destroy()
		v.current = nil
	}

	drawn, err := v.renderer.Draw(placeholderData(s.Preferences.ChartBaseCurrency, s.Preferences.ChartTargetCurrency))
	if err != nil {
		s.Chart = nil
		return fmt.Errorf("failed to draw chart: %w", err)
	}

	v.current = drawn
	cfg := drawn.Config()
	s.Chart = &cfg
	return nil
}

func (v *View) refreshRates(ctx context.Context, s *State) {
	rows, err := v.catalog.RatesTable(ctx, s.Preferences.FromCurrency)
	if err != nil {
		v.logger.Error("Failed to load rates table", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"base":       s.Preferences.FromCurrency,
			"error":      err.Error(),
		})
		if s.Status == "" {
			s.Status = StatusRatesFailed
		}
		return
	}
	s.Rates = rows
}

// save persists the selections. A failed write is logged; the page keeps
// working with the in-memory state.
func (v *View) save(ctx context.Context, s *State) {
	if err := v.prefs.Save(ctx, s.Preferences); err != nil {
		v.logger.Error("Failed to save preferences", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"error":      err.Error(),
		})
	}
}

func (v *View) snapshot() State {
	s := v.state
	s.Currencies = append([]string(nil), v.state.Currencies...)
	s.Rates = append([]entity.RateRow(nil), v.state.Rates...)
	s.PopularPairs = append([]entity.PopularPair(nil), v.state.PopularPairs...)
	if v.state.LastResult != nil {
		result := *v.state.LastResult
		s.LastResult = &result
	}
	if v.state.Chart != nil {
		cfg := *v.state.Chart
		s.Chart = &cfg
	}
	return s
}

// FormatResult renders a conversion as "{amount} {from} = {converted} {to}"
// with the converted amount fixed to two decimals
func FormatResult(r *entity.ConversionResult) (string, error) {
	for _, f := range []float64{r.Amount, r.ConvertedAmount} {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return "", apperrors.NewValidationError("amount", "not a finite number")
		}
	}

	return fmt.Sprintf("%s %s = %s %s",
		strconv.FormatFloat(r.Amount, 'f', -1, 64),
		r.From,
		decimal.NewFromFloat(r.ConvertedAmount).StringFixed(2),
		r.To,
	), nil
}

// parseAmount reads the amount field. Anything unparsable becomes NaN so
// the converter rejects it.
func parseAmount(raw string) float64 {
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return amount
}

func validatePreferences(p entity.UserPreferences) error {
	fields := map[string]string{
		"fromCurrency":        p.FromCurrency,
		"toCurrency":          p.ToCurrency,
		"chartBaseCurrency":   p.ChartBaseCurrency,
		"chartTargetCurrency": p.ChartTargetCurrency,
	}
	for name, code := range fields {
		if !entity.IsCurrencyCode(code) {
			return apperrors.NewValidationError(name, "must be a three-letter currency code")
		}
	}
	if !p.Theme.Valid() {
		return apperrors.NewValidationError("theme", "must be light or dark")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
