package shared

import (
	"context"
	"time"
)

// ReportStorer defines the requirements for persisting daily reports.
type ReportStorer interface {
	// PersistDailyReport stores the provided daily report, overwriting any
	// existing record for the same date.
	PersistDailyReport(ctx context.Context, report *DailyReport) error
	// FetchDailyReport fetches the persisted report for the provided date.
	// A nil report with a nil error indicates no record exists for the date.
	FetchDailyReport(ctx context.Context, date time.Time) (*DailyReport, error)
}
