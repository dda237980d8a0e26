package services

import "errors"

// Data service errors
var (
	// ErrDatasetNotFound is returned when the configured canonical file does not exist.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrInvalidInput marks a query parameter the service cannot use.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable is returned while a dependency is not ready.
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
