package shared

import (
	"fmt"
	"time"
)

// Lookback represents the supported chart lookback windows.
type Lookback int

const (
	LookbackHour Lookback = iota
	LookbackDay
	LookbackWeek
)

// String stringifies the provided lookback.
func (l *Lookback) String() string {
	switch *l {
	case LookbackHour:
		return "1H"
	case LookbackDay:
		return "24H"
	case LookbackWeek:
		return "7D"
	default:
		return "unknown"
	}
}

// Duration returns the duration covered by the provided lookback.
func (l *Lookback) Duration() time.Duration {
	switch *l {
	case LookbackHour:
		return time.Hour
	case LookbackDay:
		return time.Hour * 24
	case LookbackWeek:
		return time.Hour * 24 * 7
	default:
		return 0
	}
}

// ParseLookback parses a lookback from its string form.
func ParseLookback(value string) (Lookback, error) {
	switch value {
	case "1H":
		return LookbackHour, nil
	case "24H":
		return LookbackDay, nil
	case "7D":
		return LookbackWeek, nil
	default:
		return 0, fmt.Errorf("unknown lookback '%s'", value)
	}
}
