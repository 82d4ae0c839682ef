package handler

import (
	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/infrastructure/view"
)

// ActionRequest is the body of POST /api/actions/{action}. Amount is kept
// as typed so an unparsable value reaches the view and is reported there.
type ActionRequest struct {
	Amount   string `json:"amount" validate:"max=64"`
	From     string `json:"from" validate:"omitempty,len=3,uppercase"`
	To       string `json:"to" validate:"omitempty,len=3,uppercase"`
	Base     string `json:"base" validate:"omitempty,len=3,uppercase"`
	Target   string `json:"target" validate:"omitempty,len=3,uppercase"`
	Selector string `json:"selector" validate:"omitempty,oneof=fromCurrency toCurrency chartBaseCurrency chartTargetCurrency"`
	Value    string `json:"value" validate:"omitempty,len=3,uppercase"`
}

func (r ActionRequest) input() view.Input {
	return view.Input{
		Amount:   r.Amount,
		From:     r.From,
		To:       r.To,
		Base:     r.Base,
		Target:   r.Target,
		Selector: r.Selector,
		Value:    r.Value,
	}
}

// PreferencesRequest is the body of PUT /api/preferences
type PreferencesRequest struct {
	FromCurrency        string `json:"fromCurrency" validate:"required,len=3,uppercase"`
	ToCurrency          string `json:"toCurrency" validate:"required,len=3,uppercase"`
	ChartBaseCurrency   string `json:"chartBaseCurrency" validate:"required,len=3,uppercase"`
	ChartTargetCurrency string `json:"chartTargetCurrency" validate:"required,len=3,uppercase"`
	Theme               string `json:"theme" validate:"required,oneof=light dark"`
}

func (r PreferencesRequest) preferences() entity.UserPreferences {
	return entity.UserPreferences{
		FromCurrency:        r.FromCurrency,
		ToCurrency:          r.ToCurrency,
		ChartBaseCurrency:   r.ChartBaseCurrency,
		ChartTargetCurrency: r.ChartTargetCurrency,
		Theme:               entity.Theme(r.Theme),
	}
}

// CurrenciesResponse lists the selectable currency codes
type CurrenciesResponse struct {
	Currencies []string `json:"currencies"`
}

// RatesResponse is the exchange-rate table for a base currency
type RatesResponse struct {
	Base  string           `json:"base"`
	Rates []entity.RateRow `json:"rates"`
}

// PopularPairsResponse lists the popular pairs
type PopularPairsResponse struct {
	Pairs []entity.PopularPair `json:"pairs"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}
