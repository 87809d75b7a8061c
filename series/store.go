package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"pricewatch/shared"
)

// StoreConfig represents the series store configuration.
type StoreConfig struct {
	// FilePath is the filepath to the price feed.
	FilePath string
	// Location is the locale used to interpret feed timestamps and
	// calendar day boundaries.
	Location *time.Location
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Store holds the canonical ordered price series for the tracked asset.
// The feed is appended to by an external collaborator, the store only
// ever reads it.
type Store struct {
	cfg        *StoreConfig
	samples    shared.Series
	samplesMtx sync.RWMutex
}

// NewStore initializes a new series store and performs the initial load.
// An empty feed is a valid state, the store starts with an empty series.
func NewStore(cfg *StoreConfig) (*Store, error) {
	store := &Store{
		cfg: cfg,
	}

	err := store.Load()
	if err != nil {
		if !errors.Is(err, shared.ErrEmptySource) {
			return nil, fmt.Errorf("loading price feed: %w", err)
		}

		cfg.Logger.Warn().Msgf("price feed %s has no records yet", cfg.FilePath)
	}

	return store, nil
}

// loadCSVSamples parses samples from a csv feed with timestamp and price
// columns identified by a header row.
func loadCSVSamples(f io.Reader, loc *time.Location) (shared.Series, error) {
	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err == io.EOF {
		return shared.Series{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", shared.ErrMalformedRecord, err)
	}

	tsIdx, priceIdx := -1, -1
	for idx := range header {
		switch strings.ToLower(strings.TrimSpace(header[idx])) {
		case "timestamp":
			tsIdx = idx
		case "price":
			priceIdx = idx
		}
	}
	if tsIdx == -1 || priceIdx == -1 {
		return nil, fmt.Errorf("%w: header missing timestamp or price column",
			shared.ErrMalformedRecord)
	}

	var samples shared.Series
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", shared.ErrMalformedRecord, row, err)
		}

		ts, err := shared.ParseTimestamp(record[tsIdx], loc)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", shared.ErrMalformedRecord, row, err)
		}

		price, err := shared.ParsePrice(record[priceIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", shared.ErrMalformedRecord, row, err)
		}

		samples = append(samples, shared.Sample{Timestamp: ts, Price: price})
	}

	return samples, nil
}

// loadJSONSamples parses samples from a json feed carrying a samples array.
func loadJSONSamples(readb []byte, loc *time.Location) (shared.Series, error) {
	b := gjson.ParseBytes(readb)

	data := b.Get("samples").Array()
	samples, err := shared.ParseSamples(data, loc)
	if err != nil {
		return nil, err
	}

	return samples, nil
}

// Load reads, parses and sorts the price feed, replacing the held series.
// A parse failure aborts the load and leaves the held series untouched.
func (s *Store) Load() error {
	var samples shared.Series

	switch strings.ToLower(filepath.Ext(s.cfg.FilePath)) {
	case ".json":
		readb, err := os.ReadFile(s.cfg.FilePath)
		if err != nil {
			return fmt.Errorf("reading price feed '%s': %v", s.cfg.FilePath, err)
		}

		samples, err = loadJSONSamples(readb, s.cfg.Location)
		if err != nil {
			return err
		}
	default:
		f, err := os.Open(s.cfg.FilePath)
		if err != nil {
			return fmt.Errorf("opening price feed '%s': %v", s.cfg.FilePath, err)
		}
		defer f.Close()

		samples, err = loadCSVSamples(f, s.cfg.Location)
		if err != nil {
			return err
		}
	}

	samples.Sort()

	s.samplesMtx.Lock()
	s.samples = samples
	s.samplesMtx.Unlock()

	if len(samples) == 0 {
		return shared.ErrEmptySource
	}

	return nil
}

// Size returns the number of held samples.
func (s *Store) Size() int {
	s.samplesMtx.RLock()
	defer s.samplesMtx.RUnlock()

	return len(s.samples)
}

// Latest returns the most recent sample of the held series.
func (s *Store) Latest() (shared.Sample, error) {
	s.samplesMtx.RLock()
	defer s.samplesMtx.RUnlock()

	return s.samples.Latest()
}

// Series returns a copy of the full held series.
func (s *Store) Series() shared.Series {
	s.samplesMtx.RLock()
	defer s.samplesMtx.RUnlock()

	return slices.Clone(s.samples)
}

// Range returns all samples with timestamps in [start, end). A zero end
// means through the latest sample inclusive. An empty result is an empty
// series, not an error.
func (s *Store) Range(start time.Time, end time.Time) shared.Series {
	s.samplesMtx.RLock()
	defer s.samplesMtx.RUnlock()

	startIdx := sort.Search(len(s.samples), func(i int) bool {
		return !s.samples[i].Timestamp.Before(start)
	})

	endIdx := len(s.samples)
	if !end.IsZero() {
		endIdx = sort.Search(len(s.samples), func(i int) bool {
			return !s.samples[i].Timestamp.Before(end)
		})
	}

	return slices.Clone(s.samples[startIdx:endIdx])
}

// ByCalendarDate returns all samples whose local calendar date equals the
// provided date's.
func (s *Store) ByCalendarDate(date time.Time) shared.Series {
	dayStart := shared.DayStart(date)
	return s.Range(dayStart, dayStart.Add(time.Hour*24))
}
