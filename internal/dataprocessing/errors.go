package dataprocessing

import "errors"

var (
	// ErrEmptyInput is returned when a raw table has no data rows.
	ErrEmptyInput = errors.New("input table has no rows")

	// ErrSourceNotFound is returned when the source file does not exist.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrUnsupportedFormat is returned for file extensions the loader cannot read.
	ErrUnsupportedFormat = errors.New("unsupported input format")

	// ErrMissingColumn is returned when an aggregate needs a column the
	// canonical table does not carry.
	ErrMissingColumn = errors.New("required column missing")
)
