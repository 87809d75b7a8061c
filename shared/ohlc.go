package shared

import (
	"fmt"
	"math"
)

// OHLCSummary summarizes the open, high, low and close prices of a window.
type OHLCSummary struct {
	Open  float64
	Close float64
	High  float64
	Low   float64
}

// NewOHLCSummary derives an OHLC summary from the provided sorted series.
// The open is the earliest sample, the close the latest.
func NewOHLCSummary(series Series) (*OHLCSummary, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("deriving ohlc summary: %w", ErrNoData)
	}

	summary := &OHLCSummary{
		Open:  series[0].Price,
		Close: series[len(series)-1].Price,
		High:  series[0].Price,
		Low:   series[0].Price,
	}

	for idx := range series {
		price := series[idx].Price
		if price > summary.High {
			summary.High = price
		}
		if price < summary.Low {
			summary.Low = price
		}
	}

	return summary, nil
}

// PopulationStdDev returns the population standard deviation of the series'
// prices. The population convention is used throughout so a single-sample day
// is exactly zero.
func PopulationStdDev(series Series) float64 {
	if len(series) == 0 {
		return 0
	}

	var sum float64
	for idx := range series {
		sum += series[idx].Price
	}
	mean := sum / float64(len(series))

	var squares float64
	for idx := range series {
		diff := series[idx].Price - mean
		squares += diff * diff
	}

	return math.Sqrt(squares / float64(len(series)))
}
