package dataprocessing

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"investcli/internal/config"
	apperrors "investcli/internal/errors"
	"investcli/pkg/contracts/domain"
)

// DefaultNATokens are the cell values read as missing, in addition to
// empty and whitespace-only cells.
var DefaultNATokens = []string{"NA", "N/A", "NaN", "nan", "null", "NULL", "None", "#N/A", "<NA>"}

// DefaultLiteralColumns hold codes where an NA token is real data: "NA" is
// Namibia's ISO country code. Only blank cells are missing there.
var DefaultLiteralColumns = []string{domain.ColumnCountryCode}

// LoaderOptions configures how source files are read.
type LoaderOptions struct {
	// NATokens replaces DefaultNATokens when non-empty.
	NATokens []string
	// LiteralColumns are exempt from NA tokens; nil means
	// DefaultLiteralColumns.
	LiteralColumns []string
	// Delimiter is the CSV field separator; zero means ','.
	Delimiter rune
	// Sheet selects the workbook sheet; empty means the first sheet.
	Sheet string
}

// LoaderOptionsFromConfig maps the normalize section of the application config.
func LoaderOptionsFromConfig(cfg config.NormalizeConfig) LoaderOptions {
	opts := LoaderOptions{NATokens: cfg.NATokens, Sheet: cfg.Sheet}
	if r, _ := utf8.DecodeRuneInString(cfg.Delimiter); r != utf8.RuneError {
		opts.Delimiter = r
	}
	return opts
}

// Loader reads delimited text and spreadsheet files into raw tables.
type Loader struct {
	opts    LoaderOptions
	na      map[string]struct{}
	literal map[string]bool
	logger  *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(opts LoaderOptions, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	tokens := opts.NATokens
	if len(tokens) == 0 {
		tokens = DefaultNATokens
	}
	na := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		na[t] = struct{}{}
	}
	literalColumns := opts.LiteralColumns
	if literalColumns == nil {
		literalColumns = DefaultLiteralColumns
	}
	literal := make(map[string]bool, len(literalColumns))
	for _, c := range literalColumns {
		literal[c] = true
	}
	return &Loader{
		opts:    opts,
		na:      na,
		literal: literal,
		logger:  logger.With(slog.String("component", "loader")),
	}
}

// LoadFile reads path, choosing the reader by file extension.
func (l *Loader) LoadFile(ctx context.Context, path string) (*domain.RawTable, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("source file", fmt.Errorf("%w: %s", ErrSourceNotFound, path)).
				WithContext("path", path)
		}
		return nil, apperrors.NewStorageError("stat source file", err).WithContext("path", path)
	}
	if info.IsDir() {
		return nil, apperrors.NewInputError("source is a directory", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	l.logger.InfoContext(ctx, "loading source file",
		slog.String("path", path),
		slog.String("format", ext),
		slog.Int64("size_bytes", info.Size()))

	var table *domain.RawTable
	switch ext {
	case ".csv", ".txt":
		table, err = l.loadCSVFile(ctx, path)
	case ".xlsx", ".xlsm":
		table, err = l.LoadXLSX(ctx, path)
	default:
		return nil, apperrors.NewInputError("cannot load "+filepath.Base(path), fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext))
	}
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "source file loaded",
		slog.String("path", path),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", table.Len()))
	return table, nil
}

func (l *Loader) loadCSVFile(ctx context.Context, path string) (*domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("open source file", err).WithContext("path", path)
	}
	defer f.Close()
	return l.LoadCSV(ctx, f, path)
}

// LoadCSV reads a delimited table from r. A UTF-8 byte order mark is
// skipped, ragged rows are padded or truncated to the header width.
func (l *Loader) LoadCSV(ctx context.Context, r io.Reader, source string) (*domain.RawTable, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.Comma = l.opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for n := 0; ; n++ {
		if n%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("read csv", err).WithContext("source", source)
		}
		records = append(records, rec)
	}

	return l.buildTable(source, records), nil
}

// LoadXLSX reads the configured sheet of a workbook. The header is the first
// row with any non-blank cell.
func (l *Loader) LoadXLSX(ctx context.Context, path string) (*domain.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheet := l.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &domain.RawTable{Source: path}, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError("read sheet "+sheet, err).WithContext("path", path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.DebugContext(ctx, "workbook sheet read",
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))

	for len(rows) > 0 && blankRow(rows[0]) {
		rows = rows[1:]
	}
	return l.buildTable(path, rows), nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// buildTable turns string records into a raw table: records[0] is the header.
func (l *Loader) buildTable(source string, records [][]string) *domain.RawTable {
	table := &domain.RawTable{Source: source}
	if len(records) == 0 {
		return table
	}

	table.Columns = headerNames(records[0])
	width := len(table.Columns)
	literal := make([]bool, width)
	for j, name := range table.Columns {
		literal[j] = l.literal[name]
	}

	truncated := 0
	table.Rows = make([][]domain.Cell, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) > width {
			truncated++
		}
		row := make([]domain.Cell, width)
		for j := 0; j < width && j < len(rec); j++ {
			row[j] = l.cell(rec[j], literal[j])
		}
		table.Rows = append(table.Rows, row)
	}

	if truncated > 0 {
		l.logger.Warn("rows wider than header were truncated",
			slog.String("source", source),
			slog.Int("rows", truncated))
	}
	return table
}

func (l *Loader) cell(v string, literal bool) domain.Cell {
	if strings.TrimSpace(v) == "" {
		return domain.Missing()
	}
	if _, na := l.na[v]; na && !literal {
		return domain.Missing()
	}
	return domain.Value(v)
}

// headerNames trims column names, names blank headers "Unnamed: i" and
// suffixes repeated names with ".1", ".2", ...
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	suffix := make(map[string]int)
	for i, h := range raw {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for used[name] {
			suffix[base]++
			name = base + "." + strconv.Itoa(suffix[base])
		}
		used[name] = true
		names[i] = name
	}
	return names
}
