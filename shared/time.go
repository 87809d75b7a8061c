package shared

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateTimeLayout is the format layout for parsing feed timestamps without
	// an explicit zone.
	DateTimeLayout = "2006-01-02 15:04:05"
	// ReportDateLayout is the format layout for report dates.
	ReportDateLayout = "2006-01-02"
)

// timestampLayouts are the accepted feed timestamp forms, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	DateTimeLayout,
	"2006-01-02T15:04:05",
	ReportDateLayout,
}

// ParseTimestamp parses the provided feed timestamp in the provided locale.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for idx := range timestampLayouts {
		ts, err := time.ParseInLocation(timestampLayouts[idx], value, loc)
		if err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable timestamp '%s'", value)
}

// DayStart returns midnight of the provided time's calendar date, in its locale.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
