package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"investcli/internal/config"
	"investcli/internal/errors"
	"investcli/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures canonical CSV output.
type CSVOptions struct {
	// BOMPrefix writes a UTF-8 byte order mark so spreadsheet tools detect
	// the encoding. The loader skips it on read.
	BOMPrefix bool
}

// CanonicalCSVWriter writes canonical tables as one header row plus one row
// per record in table order.
type CanonicalCSVWriter struct {
	paths  *config.Paths
	opts   CSVOptions
	logger *slog.Logger
}

// NewCanonicalCSVWriter creates a writer. Relative output paths resolve
// against the processed directory of paths; a nil paths leaves them as given.
func NewCanonicalCSVWriter(paths *config.Paths, opts CSVOptions, logger *slog.Logger) *CanonicalCSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CanonicalCSVWriter{
		paths:  paths,
		opts:   opts,
		logger: logger.With(slog.String("component", "csv_writer")),
	}
}

// Write replaces the file at path with table. The file is written next to
// its destination and renamed into place, so readers never see a partial
// dataset.
func (w *CanonicalCSVWriter) Write(ctx context.Context, path string, table *domain.CanonicalTable) error {
	fullPath := w.resolvePath(path)

	w.logger.InfoContext(ctx, "writing canonical csv",
		slog.String("path", fullPath),
		slog.Int("records", table.Len()))

	stream, err := CreateStreamWriter(fullPath, table.Columns, w.opts.BOMPrefix)
	if err != nil {
		return err
	}

	for i := range table.Records {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				stream.Abort()
				return err
			}
		}
		if err := stream.WriteRecord(table.Row(i)); err != nil {
			stream.Abort()
			return errors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}

	if err := stream.Close(); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "canonical csv written", slog.String("path", fullPath))
	return nil
}

func (w *CanonicalCSVWriter) resolvePath(path string) string {
	if w.paths == nil || filepath.IsAbs(path) || filepath.Dir(path) != "." {
		return path
	}
	return w.paths.GetProcessedPath(path)
}

// StreamWriter writes CSV rows to a temporary file that is renamed to its
// destination on Close.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	dest   string
}

// CreateStreamWriter opens a stream for dest, creating parent directories
// and writing headers when given.
func CreateStreamWriter(dest string, headers []string, bom bool) (*StreamWriter, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewStorageError("failed to create output directory", err).WithContext("dir", dir)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return nil, errors.NewStorageError("failed to create output file", err).WithContext("path", dest)
	}

	s := &StreamWriter{file: file, writer: csv.NewWriter(file), dest: dest}

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			s.Abort()
			return nil, errors.NewStorageError("failed to write BOM", err)
		}
	}
	if len(headers) > 0 {
		if err := s.writer.Write(headers); err != nil {
			s.Abort()
			return nil, errors.NewStorageError("failed to write header row", err)
		}
	}
	return s, nil
}

// WriteRecord writes a single row.
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes the stream and moves it to its destination.
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.Abort()
		return errors.NewStorageError("failed to flush csv", err)
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.file.Name())
		return errors.NewStorageError("failed to close csv", err)
	}
	if err := os.Rename(s.file.Name(), s.dest); err != nil {
		os.Remove(s.file.Name())
		return errors.NewStorageError("failed to move csv into place", err).WithContext("path", s.dest)
	}
	return nil
}

// Abort discards the stream without touching the destination.
func (s *StreamWriter) Abort() {
	s.file.Close()
	os.Remove(s.file.Name())
}
