package view

import (
	"fmt"

	"github.com/damon-houk/currency-widget/internal/infrastructure/chart"
)

// The chart shows a fixed series whatever pair is selected
var (
	placeholderLabels = []string{"2023-01-01", "2023-02-01", "2023-03-01", "2023-04-01"}
	placeholderSeries = []float64{1.1, 1.2, 1.15, 1.18}
)

func placeholderData(base, target string) chart.Data {
	return chart.Data{
		Labels: placeholderLabels,
		Series: placeholderSeries,
		Title:  fmt.Sprintf("Exchange Rate (%s to %s)", base, target),
	}
}
