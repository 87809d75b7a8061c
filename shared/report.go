package shared

import (
	"fmt"
	"time"
)

// DailyReport represents the settlement report for a single calendar date.
// A report is immutable once computed, settled days do not change.
type DailyReport struct {
	// Date is midnight of the report's calendar date.
	Date time.Time
	// Open, Close, High and Low are the day's OHLC prices.
	Open  float64
	Close float64
	High  float64
	Low   float64
	// Volatility is the population standard deviation of the day's prices.
	Volatility float64
	// PercentageChange is the day's percentage move from open to close.
	PercentageChange float64
	// CreatedOn is the time the report was computed.
	CreatedOn time.Time
}

// NewDailyReport computes the settlement report for the provided date from
// the day's sorted samples.
func NewDailyReport(date time.Time, daySamples Series, createdOn time.Time) (*DailyReport, error) {
	summary, err := NewOHLCSummary(daySamples)
	if err != nil {
		return nil, fmt.Errorf("computing report for %s: %w",
			date.Format(ReportDateLayout), ErrNoData)
	}

	if summary.Open == 0 {
		return nil, fmt.Errorf("computing report for %s: %w",
			date.Format(ReportDateLayout), ErrDegenerateReport)
	}

	report := &DailyReport{
		Date:             DayStart(date),
		Open:             summary.Open,
		Close:            summary.Close,
		High:             summary.High,
		Low:              summary.Low,
		Volatility:       PopulationStdDev(daySamples),
		PercentageChange: (summary.Close - summary.Open) / summary.Open * 100,
		CreatedOn:        createdOn,
	}

	return report, nil
}
