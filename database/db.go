package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"

	"pricewatch/shared"
)

const (
	// SQL statements.
	createDailyReportTableSQL = "CREATE TABLE IF NOT EXISTS dailyreport (date TEXT PRIMARY KEY, open_price REAL, close_price REAL, max_price REAL, min_price REAL, volatility REAL, percentage_change REAL, createdon INTEGER)"
	persistDailyReportSQL     = "INSERT OR REPLACE INTO dailyreport(date, open_price, close_price, max_price, min_price, volatility, percentage_change, createdon) VALUES(?,?,?,?,?,?,?,?)"
	findDailyReportSQL        = "SELECT * FROM dailyreport WHERE date = ?"
)

// ReportStoreConfig is the configuration for the daily report store.
type ReportStoreConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Location is the locale report dates are interpreted in.
	Location *time.Location
	// Logger is the report store logger.
	Logger *zerolog.Logger
}

// ReportStore persists daily settlement reports, one row per calendar date.
type ReportStore struct {
	cfg    *ReportStoreConfig
	client *rqlitehttp.Client
}

// Ensure the report store implements the ReportStorer interface.
var _ shared.ReportStorer = (*ReportStore)(nil)

// NewReportStore initializes a new daily report store.
func NewReportStore(ctx context.Context, cfg *ReportStoreConfig) (*ReportStore, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	store := &ReportStore{
		cfg:    cfg,
		client: client,
	}

	err = store.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping report store: %w", err)
	}

	return store, nil
}

// bootstrap initializes the report table.
func (r *ReportStore) bootstrap(ctx context.Context) error {
	_, err := r.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createDailyReportTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// PersistDailyReport stores the provided daily report, rewriting any
// existing row for the same date.
func (r *ReportStore) PersistDailyReport(ctx context.Context, report *shared.DailyReport) error {
	resp, err := r.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistDailyReportSQL,
			PositionalParams: []any{report.Date.Format(shared.ReportDateLayout),
				report.Open, report.Close, report.High, report.Low,
				report.Volatility, report.PercentageChange, report.CreatedOn.Unix()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting report %s: %d -> %s",
			report.Date.Format(shared.ReportDateLayout), idx, errStr)
	}

	return nil
}

// assocFloat fetches the provided key from an associative result row as a float.
func assocFloat(row map[string]any, key string) (float64, error) {
	value, ok := row[key]
	if !ok {
		return 0, fmt.Errorf("result row missing column %s", key)
	}

	f, ok := value.(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T for column %s", value, key)
	}

	return f, nil
}

// FetchDailyReport fetches the persisted report for the provided date.
// A nil report with a nil error indicates no record exists for the date.
func (r *ReportStore) FetchDailyReport(ctx context.Context, date time.Time) (*shared.DailyReport, error) {
	resp, err := r.client.QuerySingle(ctx, findDailyReportSQL,
		date.Format(shared.ReportDateLayout))
	if err != nil {
		return nil, err
	}

	results := resp.GetQueryResultsAssoc()
	if len(results) == 0 || len(results[0].Rows) == 0 {
		return nil, nil
	}

	row := results[0].Rows[0]

	dateStr, ok := row["date"].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected type %T for column date", row["date"])
	}

	reportDate, err := time.ParseInLocation(shared.ReportDateLayout, dateStr, r.cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("parsing report date '%s': %v", dateStr, err)
	}

	report := &shared.DailyReport{
		Date: reportDate,
	}

	fields := []struct {
		column string
		field  *float64
	}{
		{"open_price", &report.Open},
		{"close_price", &report.Close},
		{"max_price", &report.High},
		{"min_price", &report.Low},
		{"volatility", &report.Volatility},
		{"percentage_change", &report.PercentageChange},
	}

	for _, f := range fields {
		value, err := assocFloat(row, f.column)
		if err != nil {
			return nil, err
		}
		*f.field = value
	}

	createdOn, err := assocFloat(row, "createdon")
	if err != nil {
		return nil, err
	}
	report.CreatedOn = time.Unix(int64(createdOn), 0).In(r.cfg.Location)

	return report, nil
}
