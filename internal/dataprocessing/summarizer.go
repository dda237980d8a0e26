package dataprocessing

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"investcli/internal/errors"
	"investcli/pkg/contracts/domain"
)

// Summarizer builds the insight report of a canonical dataset and writes it
// for the dashboard and the insights CLI.
type Summarizer struct {
	logger *slog.Logger
	cfg    SummarizerConfig
	now    func() time.Time
}

// SummarizerConfig holds the sizes of the ranked sections of a report.
type SummarizerConfig struct {
	TopMarkets      int // markets ranked by total funding
	TopCountries    int
	MarketShare     int
	AcquisitionTop  int
	TimestampFormat string
}

// DefaultSummarizerConfig mirrors the dashboard panels.
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{
		TopMarkets:      10,
		TopCountries:    10,
		MarketShare:     5,
		AcquisitionTop:  10,
		TimestampFormat: time.RFC3339,
	}
}

// NewSummarizer creates a Summarizer. Zero sizes fall back to the defaults.
func NewSummarizer(logger *slog.Logger, cfg SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultSummarizerConfig()
	if cfg.TopMarkets <= 0 {
		cfg.TopMarkets = def.TopMarkets
	}
	if cfg.TopCountries <= 0 {
		cfg.TopCountries = def.TopCountries
	}
	if cfg.MarketShare <= 0 {
		cfg.MarketShare = def.MarketShare
	}
	if cfg.AcquisitionTop <= 0 {
		cfg.AcquisitionTop = def.AcquisitionTop
	}
	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = def.TimestampFormat
	}

	return &Summarizer{logger: logger, cfg: cfg, now: time.Now}
}

// Insights computes the report over the records with a known founded year.
// Sections whose columns are absent are skipped with a warning.
func (s *Summarizer) Insights(ctx context.Context, table *domain.CanonicalTable) (*domain.Insights, error) {
	if table.Len() == 0 {
		return nil, errors.NewInputError("cannot summarize an empty dataset", ErrEmptyInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	view := NewAnalytics(table).Filter(Filter{YearFrom: 1})

	out := &domain.Insights{
		Source:              table.Source,
		GeneratedAt:         s.now().UTC().Format(s.cfg.TimestampFormat),
		Summary:             view.Summarize(),
		TopMarketsByFunding: view.TopMarketsByFunding(s.cfg.TopMarkets),
		FundingByStatus:     view.FundingStatsByStatus(),
		TopCountries:        view.CountryCounts(s.cfg.TopCountries),
		FundingByYear:       view.FundingByYear(),
		MarketShare:         view.MarketCounts(s.cfg.MarketShare),
		FundingByType:       view.FundingByType(),
	}

	warn := func(msg string) {
		out.Warnings = append(out.Warnings, msg)
	}

	if view.Len() == 0 {
		warn("no records with a known founded year")
	}
	for _, col := range []string{domain.ColumnMarket, domain.ColumnCountryCode, domain.ColumnStatus} {
		if !table.Has(col) {
			warn("dataset lacks column " + col)
		}
	}

	if corr, ok := view.RoundsCorrelation(); ok {
		out.RoundsCorrelation = &corr
	} else {
		warn("funding rounds correlation unavailable")
	}

	rates, ok := view.AcquisitionRates(s.cfg.AcquisitionTop)
	if !ok {
		warn("no acquired startups")
	}
	out.AcquisitionRates = rates

	if len(out.FundingByType) == 0 {
		warn("no funding type columns")
	}

	s.logger.InfoContext(ctx, "insights generated",
		slog.String("source", table.Source),
		slog.Int("records", table.Len()),
		slog.Int("with_year", view.Len()),
		slog.Int("warnings", len(out.Warnings)))

	return out, nil
}

// WriteJSON writes the report as indented JSON, creating the directory.
func (s *Summarizer) WriteJSON(ctx context.Context, path string, insights *domain.Insights) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for insights", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("failed to create insights file", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(insights); err != nil {
		return errors.NewStorageError("failed to encode insights", err)
	}

	s.logger.InfoContext(ctx, "insights written", slog.String("path", path))
	return nil
}
