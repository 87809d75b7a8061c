package shared

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

func TestNewDailyReport(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	createdOn := time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)

	report, err := NewDailyReport(date, daySeries(), createdOn)
	assert.NoError(t, err)

	assert.Equal(t, report.Date, date)
	assert.Equal(t, report.Open, float64(100))
	assert.Equal(t, report.Close, float64(105))
	assert.Equal(t, report.High, float64(110))
	assert.Equal(t, report.Low, float64(90))
	assert.Equal(t, report.PercentageChange, float64(5))
	assert.Equal(t, report.CreatedOn, createdOn)

	if math.Abs(report.Volatility-7.3951) > 1e-4 {
		t.Errorf("expected volatility ~7.3951, got %v", report.Volatility)
	}
}

func TestNewDailyReportIdempotent(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	createdOn := time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)

	// Recomputing a settled day from unchanged samples yields an identical record.
	first, err := NewDailyReport(date, daySeries(), createdOn)
	assert.NoError(t, err)

	second, err := NewDailyReport(date, daySeries(), createdOn)
	assert.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("recomputation not idempotent (-first +second):\n%s", diff)
	}
}

func TestNewDailyReportSingleSample(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	series := Series{
		{Timestamp: date.Add(time.Hour * 9), Price: 100},
	}

	report, err := NewDailyReport(date, series, date)
	assert.NoError(t, err)

	assert.Equal(t, report.Open, float64(100))
	assert.Equal(t, report.Close, float64(100))
	assert.Equal(t, report.High, float64(100))
	assert.Equal(t, report.Low, float64(100))
	assert.Equal(t, report.Volatility, float64(0))
	assert.Equal(t, report.PercentageChange, float64(0))
}

func TestNewDailyReportNoData(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	report, err := NewDailyReport(date, Series{}, date)
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Nil(t, report)
}

func TestNewDailyReportDegenerate(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	series := Series{
		{Timestamp: date.Add(time.Hour * 9), Price: 0},
		{Timestamp: date.Add(time.Hour * 10), Price: 100},
	}

	report, err := NewDailyReport(date, series, date)
	assert.True(t, errors.Is(err, ErrDegenerateReport))
	assert.Nil(t, report)
}
