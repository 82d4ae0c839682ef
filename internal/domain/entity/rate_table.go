package entity

import (
	"sort"
	"time"
)

// RateTable is a snapshot of exchange rates against a base currency
type RateTable struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// Rate returns the rate quoted for code. The base itself is always 1.
func (t *RateTable) Rate(code string) (float64, bool) {
	if rate, ok := t.Rates[code]; ok {
		return rate, true
	}
	if code == t.Base {
		return 1, true
	}
	return 0, false
}

// Currencies returns the quoted currency codes in ascending order
func (t *RateTable) Currencies() []string {
	codes := make([]string, 0, len(t.Rates))
	for code := range t.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// RateRow is one line of the exchange-rate table
type RateRow struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

// PopularPair is one line of the popular pairs list
type PopularPair struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}
