package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"

	"pricewatch/series"
	"pricewatch/shared"
)

// memReportStore is an in-memory report store for tests. It counts persist
// calls so recomputation behaviour can be asserted.
type memReportStore struct {
	mtx      sync.Mutex
	reports  map[string]*shared.DailyReport
	persists int
}

func newMemReportStore() *memReportStore {
	return &memReportStore{
		reports: make(map[string]*shared.DailyReport),
	}
}

func (m *memReportStore) PersistDailyReport(_ context.Context, report *shared.DailyReport) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.persists++
	m.reports[report.Date.Format(shared.ReportDateLayout)] = report

	return nil
}

func (m *memReportStore) FetchDailyReport(_ context.Context, date time.Time) (*shared.DailyReport, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.reports[date.Format(shared.ReportDateLayout)], nil
}

// newTestSeriesStore builds a series store over a temp csv feed.
func newTestSeriesStore(t *testing.T, contents string) *series.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "prices.csv")
	err := os.WriteFile(path, []byte(contents), 0o644)
	assert.NoError(t, err)

	logger := zerolog.Nop()
	store, err := series.NewStore(&series.StoreConfig{
		FilePath: path,
		Location: time.UTC,
		Logger:   &logger,
	})
	assert.NoError(t, err)

	return store
}

// newTestEngine wires an engine over the provided feed with an adjustable clock.
func newTestEngine(t *testing.T, contents string, now *time.Time) (*Engine, *memReportStore) {
	t.Helper()

	store := newTestSeriesStore(t, contents)
	reportStore := newMemReportStore()

	logger := zerolog.Nop()
	engine, err := NewEngine(&EngineConfig{
		Store:       store,
		ReportStore: reportStore,
		CutoffHour:  20,
		Now: func() time.Time {
			return *now
		},
		Logger: &logger,
	})
	assert.NoError(t, err)

	return engine, reportStore
}

const referenceFeed = `timestamp,price
2024-03-05 09:00:00,100
2024-03-05 10:00:00,110
2024-03-05 11:00:00,90
2024-03-05 12:00:00,105
`

func TestEffectiveReportDate(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		cutoffHour int
		want       time.Time
	}{
		{
			name:       "just before the cutoff",
			now:        time.Date(2024, 3, 5, 19, 59, 0, 0, time.UTC),
			cutoffHour: 20,
			want:       time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "at the cutoff exactly",
			now:        time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC),
			cutoffHour: 20,
			want:       time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "after the cutoff",
			now:        time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC),
			cutoffHour: 20,
			want:       time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "early morning before an afternoon cutoff",
			now:        time.Date(2024, 3, 5, 0, 10, 0, 0, time.UTC),
			cutoffHour: 16,
			want:       time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, test := range tests {
		got := EffectiveReportDate(test.now, test.cutoffHour)
		if !got.Equal(test.want) {
			t.Errorf("%s: expected %s, got %s", test.name,
				test.want.Format(shared.ReportDateLayout), got.Format(shared.ReportDateLayout))
		}
	}
}

func TestCurrentReportComputesOnce(t *testing.T) {
	now := time.Date(2024, 3, 5, 20, 30, 0, 0, time.UTC)
	engine, reportStore := newTestEngine(t, referenceFeed, &now)
	ctx := context.Background()

	report, err := engine.CurrentReport(ctx)
	assert.NoError(t, err)
	assert.Equal(t, report.Date, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, report.Open, float64(100))
	assert.Equal(t, report.Close, float64(105))
	assert.Equal(t, report.High, float64(110))
	assert.Equal(t, report.Low, float64(90))
	assert.Equal(t, report.PercentageChange, float64(5))
	assert.Equal(t, engine.Recomputes(), uint64(1))
	assert.Equal(t, reportStore.persists, 1)

	// A second request for the same effective date returns the settled
	// record without a second recomputation.
	second, err := engine.CurrentReport(ctx)
	assert.NoError(t, err)
	assert.Equal(t, engine.Recomputes(), uint64(1))
	assert.Equal(t, reportStore.persists, 1)

	if diff := cmp.Diff(report, second); diff != "" {
		t.Errorf("unexpected report diff (-first +second):\n%s", diff)
	}
}

func TestCurrentReportCutoffBoundary(t *testing.T) {
	feed := referenceFeed + `2024-03-06 09:00:00,120
2024-03-06 10:00:00,130
`

	// Before the cutoff the previous day is authoritative.
	now := time.Date(2024, 3, 6, 19, 59, 0, 0, time.UTC)
	engine, _ := newTestEngine(t, feed, &now)
	ctx := context.Background()

	report, err := engine.CurrentReport(ctx)
	assert.NoError(t, err)
	assert.Equal(t, report.Date, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, report.Close, float64(105))

	// Crossing the cutoff moves the effective date to the current day and
	// triggers a fresh computation.
	now = time.Date(2024, 3, 6, 20, 0, 0, 0, time.UTC)

	report, err = engine.CurrentReport(ctx)
	assert.NoError(t, err)
	assert.Equal(t, report.Date, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, report.Open, float64(120))
	assert.Equal(t, report.Close, float64(130))
	assert.Equal(t, engine.Recomputes(), uint64(2))
}

func TestCurrentReportEmptySeries(t *testing.T) {
	now := time.Date(2024, 3, 5, 20, 30, 0, 0, time.UTC)
	engine, reportStore := newTestEngine(t, "timestamp,price\n", &now)

	report, err := engine.CurrentReport(context.Background())
	assert.True(t, errors.Is(err, shared.ErrNotAvailable))
	assert.Nil(t, report)

	// No persistence write occurs for an empty series.
	assert.Equal(t, reportStore.persists, 0)
	assert.Equal(t, engine.Recomputes(), uint64(0))
}

func TestCurrentReportEmptyDayRetries(t *testing.T) {
	// The feed only covers the 5th, the effective date is the 6th.
	feedPath := filepath.Join(t.TempDir(), "prices.csv")
	err := os.WriteFile(feedPath, []byte(referenceFeed), 0o644)
	assert.NoError(t, err)

	logger := zerolog.Nop()
	store, err := series.NewStore(&series.StoreConfig{
		FilePath: feedPath,
		Location: time.UTC,
		Logger:   &logger,
	})
	assert.NoError(t, err)

	reportStore := newMemReportStore()
	now := time.Date(2024, 3, 6, 20, 30, 0, 0, time.UTC)
	engine, err := NewEngine(&EngineConfig{
		Store:       store,
		ReportStore: reportStore,
		CutoffHour:  20,
		Now: func() time.Time {
			return now
		},
		Logger: &logger,
	})
	assert.NoError(t, err)

	ctx := context.Background()

	report, err := engine.CurrentReport(ctx)
	assert.True(t, errors.Is(err, shared.ErrNoData))
	assert.Nil(t, report)
	assert.Equal(t, reportStore.persists, 0)

	// An empty day is not cached, the computation is re-attempted once
	// samples for the day arrive.
	f, err := os.OpenFile(feedPath, os.O_APPEND|os.O_WRONLY, 0o644)
	assert.NoError(t, err)
	_, err = f.WriteString("2024-03-06 09:00:00,120\n")
	assert.NoError(t, err)
	assert.NoError(t, f.Close())
	assert.NoError(t, store.Load())

	report, err = engine.CurrentReport(ctx)
	assert.NoError(t, err)
	assert.Equal(t, report.Date, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, reportStore.persists, 1)
}

func TestCurrentReportUsesPersistedRecord(t *testing.T) {
	now := time.Date(2024, 3, 5, 20, 30, 0, 0, time.UTC)
	engine, reportStore := newTestEngine(t, referenceFeed, &now)
	ctx := context.Background()

	// Seed the report store with a previously settled record.
	persisted := &shared.DailyReport{
		Date:             time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Open:             100,
		Close:            105,
		High:             110,
		Low:              90,
		Volatility:       7.3951,
		PercentageChange: 5,
		CreatedOn:        now,
	}
	assert.NoError(t, reportStore.PersistDailyReport(ctx, persisted))

	// A fresh engine reads the persisted record without recomputing.
	report, err := engine.CurrentReport(ctx)
	assert.NoError(t, err)
	assert.Equal(t, engine.Recomputes(), uint64(0))

	if diff := cmp.Diff(persisted, report); diff != "" {
		t.Errorf("unexpected report diff (-persisted +got):\n%s", diff)
	}
}

func TestCurrentReportDegenerate(t *testing.T) {
	feed := `timestamp,price
2024-03-05 09:00:00,0
2024-03-05 10:00:00,100
`
	now := time.Date(2024, 3, 5, 20, 30, 0, 0, time.UTC)
	engine, reportStore := newTestEngine(t, feed, &now)

	report, err := engine.CurrentReport(context.Background())
	assert.True(t, errors.Is(err, shared.ErrDegenerateReport))
	assert.Nil(t, report)
	assert.Equal(t, reportStore.persists, 0)
}

func TestEngineWindowAndLatestPrice(t *testing.T) {
	now := time.Date(2024, 3, 5, 20, 30, 0, 0, time.UTC)
	engine, _ := newTestEngine(t, referenceFeed, &now)

	window, summary, err := engine.Window(shared.LookbackDay)
	assert.NoError(t, err)
	assert.Equal(t, len(window), 4)
	assert.Equal(t, summary.Open, float64(100))
	assert.Equal(t, summary.Close, float64(105))
	assert.Equal(t, summary.High, float64(110))
	assert.Equal(t, summary.Low, float64(90))

	latest, err := engine.LatestPrice()
	assert.NoError(t, err)
	assert.Equal(t, latest.Price, float64(105))
}

func TestEngineConfigValidate(t *testing.T) {
	cfg := &EngineConfig{}
	err := cfg.Validate()
	assert.Error(t, err)

	_, err = NewEngine(cfg)
	assert.Error(t, err)
}
