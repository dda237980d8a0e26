package exporter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"investcli/internal/errors"
	"investcli/pkg/contracts/domain"
)

const (
	recordsTable = "canonical_records"
	metaTable    = "dataset_meta"
)

var sqliteSchema = []string{
	`DROP TABLE IF EXISTS ` + recordsTable,
	`DROP TABLE IF EXISTS ` + metaTable,
	`CREATE TABLE ` + recordsTable + ` (
		row_index         INTEGER PRIMARY KEY,
		permalink         TEXT NOT NULL,
		funding_total_usd REAL NOT NULL,
		country_code      TEXT NOT NULL,
		market            TEXT NOT NULL,
		status            TEXT NOT NULL,
		category_list     TEXT NOT NULL,
		founded_at        TEXT,
		first_funding_at  TEXT,
		last_funding_at   TEXT,
		founded_year      INTEGER NOT NULL,
		extra             TEXT
	)`,
	`CREATE INDEX idx_records_market ON ` + recordsTable + ` (market)`,
	`CREATE INDEX idx_records_country ON ` + recordsTable + ` (country_code)`,
	`CREATE INDEX idx_records_status ON ` + recordsTable + ` (status)`,
	`CREATE TABLE ` + metaTable + ` (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
}

// SQLiteWriter stores canonical tables in a SQLite database with typed
// columns. Unknown dates are stored as NULL; pass-through columns are kept
// as a JSON object per row.
type SQLiteWriter struct {
	logger *slog.Logger
}

// NewSQLiteWriter creates a SQLite sink.
func NewSQLiteWriter(logger *slog.Logger) *SQLiteWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteWriter{logger: logger.With(slog.String("component", "sqlite_writer"))}
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// Write recreates the canonical tables in the database at path inside a
// single transaction.
func (w *SQLiteWriter) Write(ctx context.Context, path string, table *domain.CanonicalTable) error {
	db, err := OpenSQLite(path)
	if err != nil {
		return errors.NewStorageError("failed to open sqlite database", err).WithContext("path", path)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, stmt := range sqliteSchema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.NewStorageError("failed to create schema", err)
		}
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO `+recordsTable+` (
		row_index, permalink, funding_total_usd, country_code, market, status,
		category_list, founded_at, first_funding_at, last_funding_at, founded_year, extra
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.NewStorageError("failed to prepare insert", err)
	}
	defer insert.Close()

	for i := range table.Records {
		rec := &table.Records[i]
		extra, err := extraJSON(rec.Extra)
		if err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to encode record %d", i), err)
		}
		if _, err := insert.ExecContext(ctx,
			i, rec.Permalink, rec.FundingTotalUSD, rec.CountryCode, rec.Market, rec.Status,
			rec.CategoryList, nullDate(rec.FoundedAt), nullDate(rec.FirstFundingAt), nullDate(rec.LastFundingAt),
			rec.FoundedYear, extra,
		); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to insert record %d", i), err)
		}
	}

	columns, err := json.Marshal(table.Columns)
	if err != nil {
		return errors.NewStorageError("failed to encode columns", err)
	}
	for key, value := range map[string]string{"source": table.Source, "columns": string(columns)} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO `+metaTable+` (key, value) VALUES (?, ?)`, key, value); err != nil {
			return errors.NewStorageError("failed to write dataset metadata", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit sqlite export", err)
	}

	w.logger.InfoContext(ctx, "sqlite export complete",
		slog.String("path", path),
		slog.Int("records", table.Len()))
	return nil
}

func nullDate(d domain.Date) sql.NullString {
	if !d.Known {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func extraJSON(extra map[string]domain.Cell) (sql.NullString, error) {
	if len(extra) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
