package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pricewatch/series"
	"pricewatch/shared"
)

// EngineConfig represents the report engine configuration.
type EngineConfig struct {
	// Store supplies the canonical price series.
	Store *series.Store
	// ReportStore persists computed daily reports.
	ReportStore shared.ReportStorer
	// CutoffHour is the local hour after which the current day is
	// considered settled.
	CutoffHour int
	// Now returns the current time in the configured locale.
	Now func() time.Time
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *EngineConfig) Validate() error {
	var errs error

	if cfg.Store == nil {
		errs = errors.Join(errs, fmt.Errorf("series store cannot be nil"))
	}
	if cfg.ReportStore == nil {
		errs = errors.Join(errs, fmt.Errorf("report store cannot be nil"))
	}
	if cfg.CutoffHour < 0 || cfg.CutoffHour > 23 {
		errs = errors.Join(errs, fmt.Errorf("cutoff hour must be in [0,23], got %d", cfg.CutoffHour))
	}
	if cfg.Now == nil {
		errs = errors.Join(errs, fmt.Errorf("now function cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Engine computes windowed summaries on demand and maintains the single
// authoritative daily settlement report per calendar date.
type Engine struct {
	cfg *EngineConfig

	// current memoizes the report for the current effective date. Access
	// to it and to the recompute path is serialized, concurrent readers
	// observing a missing report must not race to persist two snapshots.
	current    *shared.DailyReport
	currentMtx sync.Mutex
	recomputes uint64
}

// NewEngine initializes a new report engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating engine config: %w", err)
	}

	return &Engine{
		cfg: cfg,
	}, nil
}

// EffectiveReportDate returns the calendar date whose settlement report is
// currently authoritative. Before the cutoff hour the current day is still
// in progress, so the previous day's report applies.
func EffectiveReportDate(now time.Time, cutoffHour int) time.Time {
	date := shared.DayStart(now)
	if now.Hour() < cutoffHour {
		date = date.AddDate(0, 0, -1)
	}

	return date
}

// Window returns the windowed series and OHLC summary for the provided
// lookback, anchored at the latest held sample.
func (e *Engine) Window(lookback shared.Lookback) (shared.Series, *shared.OHLCSummary, error) {
	return WindowSummary(e.cfg.Store.Series(), lookback)
}

// LatestPrice returns the most recent sample of the held series.
func (e *Engine) LatestPrice() (shared.Sample, error) {
	return e.cfg.Store.Latest()
}

// CurrentReport returns the settlement report for the current effective
// date. The first request for a date computes and persists its report,
// subsequent requests return the settled record without recomputation.
func (e *Engine) CurrentReport(ctx context.Context) (*shared.DailyReport, error) {
	now := e.cfg.Now()
	date := EffectiveReportDate(now, e.cfg.CutoffHour)

	e.currentMtx.Lock()
	defer e.currentMtx.Unlock()

	if e.current != nil && e.current.Date.Equal(date) {
		return e.current, nil
	}

	// Look up a previously persisted record before recomputing.
	report, err := e.cfg.ReportStore.FetchDailyReport(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("fetching daily report: %w", err)
	}
	if report != nil {
		e.current = report
		return report, nil
	}

	if e.cfg.Store.Size() == 0 {
		return nil, fmt.Errorf("no samples loaded: %w", shared.ErrNotAvailable)
	}

	daySamples := e.cfg.Store.ByCalendarDate(date)
	report, err = shared.NewDailyReport(date, daySamples, now)
	if err != nil {
		if errors.Is(err, shared.ErrDegenerateReport) {
			e.cfg.Logger.Error().Msgf("degenerate opening sample for %s: %s",
				date.Format(shared.ReportDateLayout), spew.Sdump(daySamples[0]))
		}

		// Nothing is cached or persisted for an empty or degenerate day,
		// the computation is re-attempted on the next request.
		return nil, err
	}

	e.recomputes++

	runID := uuid.New().String()
	e.cfg.Logger.Info().Str("run", runID).Msgf("computed daily report for %s: "+
		"open=%.2f close=%.2f high=%.2f low=%.2f volatility=%.2f change=%.2f%%",
		date.Format(shared.ReportDateLayout), report.Open, report.Close,
		report.High, report.Low, report.Volatility, report.PercentageChange)

	err = e.cfg.ReportStore.PersistDailyReport(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("persisting daily report: %w", err)
	}

	e.current = report

	return report, nil
}

// RefreshReport eagerly computes the report for the current effective date.
// It is invoked by the cutoff-time job, a missed tick is harmless since
// CurrentReport falls back to computing on first read.
func (e *Engine) RefreshReport(ctx context.Context) {
	_, err := e.CurrentReport(ctx)
	switch {
	case err == nil:
		// do nothing.
	case errors.Is(err, shared.ErrNoData), errors.Is(err, shared.ErrNotAvailable):
		e.cfg.Logger.Info().Msgf("no settled report yet: %v", err)
	default:
		e.cfg.Logger.Error().Msgf("refreshing daily report: %v", err)
	}
}

// Recomputes returns the number of report recomputations performed.
func (e *Engine) Recomputes() uint64 {
	e.currentMtx.Lock()
	defer e.currentMtx.Unlock()

	return e.recomputes
}
