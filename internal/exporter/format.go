package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"investcli/internal/config"
	"investcli/pkg/contracts/domain"
)

// Format names an output sink.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatSQLite Format = "sqlite"
)

// TableWriter persists a canonical table.
type TableWriter interface {
	Write(ctx context.Context, path string, table *domain.CanonicalTable) error
}

// FormatFromPath picks the sink from the file extension. Anything that is
// not a SQLite database is written as CSV.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sqlite", ".sqlite3", ".db":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// ParseFormat validates a format flag.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatSQLite:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// NewWriter returns the writer for format.
func NewWriter(format Format, paths *config.Paths, logger *slog.Logger) (TableWriter, error) {
	switch format {
	case FormatCSV:
		return NewCanonicalCSVWriter(paths, CSVOptions{}, logger), nil
	case FormatSQLite:
		return NewSQLiteWriter(logger), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}
