package entity

import (
	"time"
)

// ConversionResult represents an amount converted between two currencies
type ConversionResult struct {
	Amount          float64   `json:"amount"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Rate            float64   `json:"rate"`
	ConvertedAmount float64   `json:"converted_amount"`
	RateTimestamp   time.Time `json:"rate_timestamp"`
}
