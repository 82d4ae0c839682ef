package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCurrencyCode(t *testing.T) {
	assert.True(t, IsCurrencyCode("USD"))
	assert.True(t, IsCurrencyCode("EUR"))
	assert.False(t, IsCurrencyCode("usd"))
	assert.False(t, IsCurrencyCode("US"))
	assert.False(t, IsCurrencyCode("EURO"))
	assert.False(t, IsCurrencyCode("U5D"))
	assert.False(t, IsCurrencyCode(""))
}

func TestRateTable(t *testing.T) {
	table := &RateTable{
		Base:  "USD",
		Rates: map[string]float64{"EUR": 0.92, "GBP": 0.79, "CAD": 1.36},
	}

	rate, ok := table.Rate("EUR")
	assert.True(t, ok)
	assert.Equal(t, 0.92, rate)

	// Base is implicitly 1 even when the upstream omits it
	rate, ok = table.Rate("USD")
	assert.True(t, ok)
	assert.Equal(t, 1.0, rate)

	_, ok = table.Rate("XYZ")
	assert.False(t, ok)

	assert.Equal(t, []string{"CAD", "EUR", "GBP"}, table.Currencies())
}

func TestPreferences(t *testing.T) {
	prefs := DefaultPreferences()
	assert.Equal(t, UserPreferences{
		FromCurrency:        "USD",
		ToCurrency:          "EUR",
		ChartBaseCurrency:   "USD",
		ChartTargetCurrency: "EUR",
		Theme:               ThemeLight,
	}, prefs)

	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.True(t, ThemeDark.Valid())
	assert.False(t, Theme("sepia").Valid())
}
