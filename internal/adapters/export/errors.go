package export

import "errors"

// Sentinel kinds for export errors.
var (
	ErrNoData            = errors.New("no data to export")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrUnknownFormat     = errors.New("unknown export format")
)
