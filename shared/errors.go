package shared

import "errors"

var (
	// ErrEmptySource indicates the price feed yielded zero records. This is a
	// valid no-data state, not a fatal condition.
	ErrEmptySource = errors.New("price feed has no records")
	// ErrMalformedRecord indicates a feed record could not be parsed. Loading
	// must abort rather than silently skip the record.
	ErrMalformedRecord = errors.New("malformed price feed record")
	// ErrNoData indicates the requested interval contains no samples.
	ErrNoData = errors.New("no data for the requested interval")
	// ErrDegenerateReport indicates a report day opened at a price of zero,
	// which is economically invalid for the tracked asset.
	ErrDegenerateReport = errors.New("degenerate report: day opened at zero")
	// ErrNotAvailable indicates no samples exist at all, or no report has
	// been computed yet.
	ErrNotAvailable = errors.New("not available")
)
