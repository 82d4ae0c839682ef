package entity

// IsCurrencyCode reports whether code is a three-letter uppercase currency code
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

// CurrencyPair is an ordered from/to combination of currency codes
type CurrencyPair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// String renders the pair as "FROM/TO"
func (p CurrencyPair) String() string {
	return p.From + "/" + p.To
}
