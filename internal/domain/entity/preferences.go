package entity

// Theme is the UI colour scheme
type Theme string

const (
	// ThemeLight is the default theme
	ThemeLight Theme = "light"
	// ThemeDark is the dark-mode theme
	ThemeDark Theme = "dark"
)

// Valid reports whether t is a known theme
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the opposite theme
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Default selections applied when nothing usable is stored
const (
	DefaultFromCurrency = "USD"
	DefaultToCurrency   = "EUR"
)

// UserPreferences holds the user's last currency selections and theme
type UserPreferences struct {
	FromCurrency        string `json:"fromCurrency"`
	ToCurrency          string `json:"toCurrency"`
	ChartBaseCurrency   string `json:"chartBaseCurrency"`
	ChartTargetCurrency string `json:"chartTargetCurrency"`
	Theme               Theme  `json:"theme"`
}

// DefaultPreferences returns the preferences used on first visit
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		FromCurrency:        DefaultFromCurrency,
		ToCurrency:          DefaultToCurrency,
		ChartBaseCurrency:   DefaultFromCurrency,
		ChartTargetCurrency: DefaultToCurrency,
		Theme:               ThemeLight,
	}
}
