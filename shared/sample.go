package shared

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Sample represents a single observed price point for the tracked asset.
type Sample struct {
	Timestamp time.Time
	Price     float64
}

// Series is an ordered collection of samples, non-decreasing by timestamp.
type Series []Sample

// Sort sorts the series ascending by timestamp. The sort is stable, samples
// sharing a timestamp retain their ingestion order.
func (s Series) Sort() {
	slices.SortStableFunc(s, func(a, b Sample) int {
		switch {
		case a.Timestamp.Before(b.Timestamp):
			return -1
		case a.Timestamp.After(b.Timestamp):
			return 1
		default:
			return 0
		}
	})
}

// Latest returns the most recent sample of the series.
func (s Series) Latest() (Sample, error) {
	if len(s) == 0 {
		return Sample{}, fmt.Errorf("fetching latest sample: %w", ErrNotAvailable)
	}

	return s[len(s)-1], nil
}

// ParsePrice parses the provided price field. Prices must be decimal and
// non-negative.
func ParsePrice(value string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric price '%s'", value)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %v", price)
	}

	return price, nil
}

// ParseSamples parses samples from the provided gjson results. Each entry is
// expected to carry 'timestamp' and 'price' fields.
func ParseSamples(data []gjson.Result, loc *time.Location) (Series, error) {
	samples := make(Series, 0, len(data))
	for idx := range data {
		entry := data[idx]

		ts, err := ParseTimestamp(entry.Get("timestamp").String(), loc)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedRecord, idx, err)
		}

		price, err := ParsePrice(entry.Get("price").String())
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedRecord, idx, err)
		}

		samples = append(samples, Sample{Timestamp: ts, Price: price})
	}

	return samples, nil
}
