package report

import (
	"fmt"
	"slices"
	"sort"

	"pricewatch/shared"
)

// WindowSummary filters the provided sorted series down to the lookback
// window anchored at the series' own latest timestamp and derives its OHLC
// summary. Anchoring to the data rather than the wall clock keeps results
// reproducible against a delayed feed.
func WindowSummary(series shared.Series, lookback shared.Lookback) (shared.Series, *shared.OHLCSummary, error) {
	if len(series) == 0 {
		return nil, nil, fmt.Errorf("windowing %s: %w", lookback.String(), shared.ErrNoData)
	}

	latest := series[len(series)-1].Timestamp
	start := latest.Add(-lookback.Duration())

	startIdx := sort.Search(len(series), func(i int) bool {
		return !series[i].Timestamp.Before(start)
	})

	window := slices.Clone(series[startIdx:])
	summary, err := shared.NewOHLCSummary(window)
	if err != nil {
		return nil, nil, fmt.Errorf("windowing %s: %w", lookback.String(), err)
	}

	return window, summary, nil
}
