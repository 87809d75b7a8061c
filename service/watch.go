package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"

	"pricewatch/database"
	"pricewatch/report"
	"pricewatch/series"
	"pricewatch/shared"
)

// WatcherConfig represents the configuration struct for the price watcher service.
type WatcherConfig struct {
	// FeedPath is the filepath to the price feed.
	FeedPath string
	// Timezone is the locale used for feed timestamps and the report cutoff.
	Timezone string
	// CutoffHour is the local hour after which the current day is settled.
	CutoffHour int
	// ReloadInterval is the interval between feed reloads.
	ReloadInterval time.Duration
	// DatabaseEndpoint represents the database connection endpoint.
	DatabaseEndpoint string
	// DatabaseUser is the database user.
	DatabaseUser string
	// DatabasePass is the database user pass.
	DatabasePass string
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config has sane inputs.
func (cfg *WatcherConfig) Validate() error {
	var errs error

	if cfg.FeedPath == "" {
		errs = errors.Join(errs, fmt.Errorf("feed path cannot be an empty string"))
	}
	if cfg.Timezone == "" {
		errs = errors.Join(errs, fmt.Errorf("timezone cannot be an empty string"))
	}
	if cfg.CutoffHour < 0 || cfg.CutoffHour > 23 {
		errs = errors.Join(errs, fmt.Errorf("cutoff hour must be in [0,23], got %d", cfg.CutoffHour))
	}
	if cfg.ReloadInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("reload interval must be positive"))
	}
	if cfg.DatabaseEndpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("database endpoint cannot be an empty string"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// Watcher derives windowed views and daily settlement reports from the
// tracked asset's price feed.
type Watcher struct {
	cfg          *WatcherConfig
	seriesStore  *series.Store
	reportStore  *database.ReportStore
	reportEngine *report.Engine
	jobScheduler gocron.Scheduler
	logger       *zerolog.Logger
}

// NewWatcher initializes a new price watcher service.
func NewWatcher(ctx context.Context, cfg *WatcherConfig) (*Watcher, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating watcher config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "pricewatch").Logger()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading location '%s': %w", cfg.Timezone, err)
	}

	seriesLogger := logger.With().Str("component", "seriesstore").Logger()
	seriesStore, err := series.NewStore(&series.StoreConfig{
		FilePath: cfg.FeedPath,
		Location: loc,
		Logger:   &seriesLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating series store: %w", err)
	}

	reportStoreLogger := logger.With().Str("component", "reportstore").Logger()
	reportStore, err := database.NewReportStore(ctx, &database.ReportStoreConfig{
		Endpoint: cfg.DatabaseEndpoint,
		User:     cfg.DatabaseUser,
		Pass:     cfg.DatabasePass,
		Location: loc,
		Logger:   &reportStoreLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating report store: %w", err)
	}

	engineLogger := logger.With().Str("component", "reportengine").Logger()
	reportEngine, err := report.NewEngine(&report.EngineConfig{
		Store:       seriesStore,
		ReportStore: reportStore,
		CutoffHour:  cfg.CutoffHour,
		Now: func() time.Time {
			return time.Now().In(loc)
		},
		Logger: &engineLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating report engine: %w", err)
	}

	jobScheduler, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("creating job scheduler: %w", err)
	}

	watcher := &Watcher{
		cfg:          cfg,
		seriesStore:  seriesStore,
		reportStore:  reportStore,
		reportEngine: reportEngine,
		jobScheduler: jobScheduler,
		logger:       &logger,
	}

	// Reload the feed periodically to pick up appended samples.
	_, err = jobScheduler.NewJob(gocron.DurationJob(cfg.ReloadInterval),
		gocron.NewTask(watcher.reloadFeed))
	if err != nil {
		return nil, fmt.Errorf("creating feed reload job: %w", err)
	}

	// Eagerly settle the day's report at the cutoff hour. A missed tick is
	// harmless, the engine computes on first read after the cutoff.
	_, err = jobScheduler.NewJob(gocron.DailyJob(1,
		gocron.NewAtTimes(gocron.NewAtTime(uint(cfg.CutoffHour), 0, 0))),
		gocron.NewTask(func() {
			watcher.reportEngine.RefreshReport(ctx)
		}))
	if err != nil {
		return nil, fmt.Errorf("creating report refresh job: %w", err)
	}

	return watcher, nil
}

// reloadFeed re-reads the price feed.
func (w *Watcher) reloadFeed() {
	err := w.seriesStore.Load()
	switch {
	case err == nil:
		// do nothing.
	case errors.Is(err, shared.ErrEmptySource):
		w.logger.Info().Msgf("price feed %s has no records yet", w.cfg.FeedPath)
	default:
		w.logger.Error().Msgf("reloading price feed: %v", err)
	}
}

// Engine returns the report engine, the query surface for callers.
func (w *Watcher) Engine() *report.Engine {
	return w.reportEngine
}

// Run handles the lifecycle processes of the price watcher service.
func (w *Watcher) Run(ctx context.Context) {
	w.jobScheduler.Start()

	<-ctx.Done()

	err := w.jobScheduler.Shutdown()
	if err != nil {
		w.logger.Error().Msgf("shutting down job scheduler: %v", err)
	}
}
