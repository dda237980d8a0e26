package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	apperrors "investcli/internal/errors"
	"investcli/pkg/contracts/domain"
)

// Normalizer turns a raw investments table into its canonical form.
// It performs no I/O and holds no mutable state, so one Normalizer may serve
// concurrent calls over different tables.
type Normalizer struct {
	opts    Options
	missing map[string]struct{}
	logger  *slog.Logger
}

// NewNormalizer creates a normalizer. A nil logger falls back to slog.Default.
func NewNormalizer(opts Options, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MarketCasing == "" {
		opts.MarketCasing = CasingTitle
	}
	corrections := make(map[string]string, len(opts.CountryCorrections))
	for k, v := range opts.CountryCorrections {
		corrections[k] = v
	}
	opts.CountryCorrections = corrections

	tokens := opts.MissingTokens
	if len(tokens) == 0 {
		tokens = DefaultNATokens
	}
	missing := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		missing[t] = struct{}{}
	}

	return &Normalizer{
		opts:    opts,
		missing: missing,
		logger:  logger.With(slog.String("component", "normalizer")),
	}
}

// Options returns a copy of the normalizer's options.
func (n *Normalizer) Options() Options {
	out := n.opts
	out.MissingTokens = append([]string(nil), n.opts.MissingTokens...)
	out.CountryCorrections = make(map[string]string, len(n.opts.CountryCorrections))
	for k, v := range n.opts.CountryCorrections {
		out.CountryCorrections[k] = v
	}
	return out
}

// run carries the working set of one Normalize call. rows[i] is the raw
// row that records[i] was derived from.
type run struct {
	plan    Plan
	records []domain.CanonicalRecord
	rows    [][]domain.Cell
	report  *Report
}

// Normalize applies the planned steps in order: funding coercion,
// categorical defaults, market standardization, country correction,
// deduplication, date parsing and founded-year filling. Per-value parse
// failures degrade to defaults; the only error besides cancellation is
// ErrEmptyInput.
func (n *Normalizer) Normalize(ctx context.Context, raw *domain.RawTable) (*domain.CanonicalTable, *Report, error) {
	start := time.Now()

	if raw.Len() == 0 {
		source := ""
		if raw != nil {
			source = raw.Source
		}
		return nil, nil, apperrors.NewInputError("cannot normalize "+sourceLabel(source), ErrEmptyInput).
			WithContext("source", source)
	}

	plan := NewPlan(raw.Columns)
	r := &run{
		plan:   plan,
		report: newReport(raw.Source, raw.Len()),
	}
	r.report.Steps = plan.Names()
	r.seed(raw)

	for _, step := range plan.Steps() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		before := len(r.records)
		switch step.Name {
		case StepFundingCoercion:
			r.coerceFunding(step, n.opts.ThousandsSeparator)
		case StepCategoricalDefaults:
			r.defaultCategoricals(step)
		case StepMarketStandardize:
			r.standardizeMarkets(n.opts.MarketCasing, n.missing)
		case StepCountryCorrection:
			r.correctCountries(n.opts.CountryCorrections)
		case StepDeduplicate:
			r.deduplicate()
		case StepDateParsing:
			r.parseDates(step)
		case StepFoundedYear:
			r.fillFoundedYears(step, n.opts.ImputeFoundedYear)
		}

		n.logger.DebugContext(ctx, "normalization step complete",
			slog.String("step", string(step.Name)),
			slog.Any("columns", step.Columns),
			slog.Int("rows_before", before),
			slog.Int("rows_after", len(r.records)))
	}

	columns := make([]string, len(raw.Columns))
	copy(columns, raw.Columns)

	table := &domain.CanonicalTable{
		Source:  raw.Source,
		Columns: columns,
		Records: r.records,
	}

	r.report.RowsOut = len(r.records)
	r.report.Duration = time.Since(start)

	n.logger.InfoContext(ctx, "normalization complete",
		slog.String("source", raw.Source),
		slog.Int("rows_in", r.report.RowsIn),
		slog.Int("rows_out", r.report.RowsOut),
		slog.Int("duplicates_dropped", r.report.DuplicatesDropped),
		slog.Int("funding_defaulted", r.report.FundingDefaulted),
		slog.Int("country_corrections", r.report.CountryCorrections),
		slog.Duration("duration", r.report.Duration))

	return table, r.report, nil
}

func sourceLabel(source string) string {
	if source == "" {
		return "empty table"
	}
	return "empty table from " + source
}

// seed creates one record per raw row carrying the permalink and every
// pass-through column.
func (r *run) seed(raw *domain.RawTable) {
	permalink := r.plan.index(domain.ColumnPermalink)

	var extras []int
	for i, c := range raw.Columns {
		if !managedColumns[c] && r.plan.index(c) == i {
			extras = append(extras, i)
		}
	}

	r.records = make([]domain.CanonicalRecord, len(raw.Rows))
	r.rows = make([][]domain.Cell, len(raw.Rows))

	for i, row := range raw.Rows {
		row = padRow(row, len(raw.Columns))
		r.rows[i] = row

		rec := &r.records[i]
		if permalink >= 0 && row[permalink].Valid {
			rec.Permalink = row[permalink].Value
		}
		if len(extras) > 0 {
			rec.Extra = make(map[string]domain.Cell, len(extras))
			for _, j := range extras {
				rec.Extra[raw.Columns[j]] = row[j]
			}
		}
	}
}

func padRow(row []domain.Cell, width int) []domain.Cell {
	if len(row) >= width {
		return row
	}
	padded := make([]domain.Cell, width)
	copy(padded, row)
	return padded
}

func (r *run) coerceFunding(step Step, stripThousands bool) {
	idx := step.indexes[0]
	for i := range r.records {
		v, ok := parseAmount(r.rows[i][idx], stripThousands)
		if !ok {
			r.report.FundingDefaulted++
		}
		r.records[i].FundingTotalUSD = v
	}
}

func (r *run) defaultCategoricals(step Step) {
	for k, column := range step.Columns {
		idx := step.indexes[k]
		for i := range r.records {
			cell := r.rows[i][idx]
			value := cell.Value
			if !cell.Valid {
				value = domain.UnknownValue
				r.report.CategoricalDefaults[column]++
			}
			setCategorical(&r.records[i], column, value)
		}
	}
}

func setCategorical(rec *domain.CanonicalRecord, column, value string) {
	switch column {
	case domain.ColumnCountryCode:
		rec.CountryCode = value
	case domain.ColumnMarket:
		rec.Market = value
	case domain.ColumnStatus:
		rec.Status = value
	case domain.ColumnCategoryList:
		rec.CategoryList = value
	}
}

// standardizeMarkets cases every market. Results that are blank or read as
// missing on reload ("none" title-cases to "None") become "Unknown".
func (r *run) standardizeMarkets(rule CasingRule, missing map[string]struct{}) {
	caser := newMarketCaser(rule)
	for i := range r.records {
		market := caser.Apply(r.records[i].Market)
		if _, na := missing[market]; na || market == "" {
			market = domain.UnknownValue
			r.report.CategoricalDefaults[domain.ColumnMarket]++
		}
		r.records[i].Market = market
	}
}

func (r *run) correctCountries(corrections map[string]string) {
	if len(corrections) == 0 {
		return
	}
	for i := range r.records {
		if fixed, ok := corrections[r.records[i].CountryCode]; ok {
			r.records[i].CountryCode = fixed
			r.report.CountryCorrections++
		}
	}
}

// deduplicate keeps the first record per permalink in input order. Records
// without a permalink share the empty key.
func (r *run) deduplicate() {
	seen := make(map[string]struct{}, len(r.records))
	kept := 0
	for i := range r.records {
		key := r.records[i].Permalink
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		r.records[kept] = r.records[i]
		r.rows[kept] = r.rows[i]
		kept++
	}
	r.report.DuplicatesDropped = len(r.records) - kept
	r.records = r.records[:kept]
	r.rows = r.rows[:kept]
}

func (r *run) parseDates(step Step) {
	for k, column := range step.Columns {
		idx := step.indexes[k]
		for i := range r.records {
			d := parseDate(r.rows[i][idx])
			if !d.Known {
				r.report.UnknownDates[column]++
			}
			switch column {
			case domain.ColumnFoundedAt:
				r.records[i].FoundedAt = d
			case domain.ColumnFirstFundingAt:
				r.records[i].FirstFundingAt = d
			case domain.ColumnLastFundingAt:
				r.records[i].LastFundingAt = d
			}
		}
	}
}

func (r *run) fillFoundedYears(step Step, impute bool) {
	idx := step.indexes[0]

	var known []int
	var missing []int
	for i := range r.records {
		year, ok := parseYear(r.rows[i][idx])
		if !ok {
			missing = append(missing, i)
			continue
		}
		r.records[i].FoundedYear = year
		known = append(known, year)
	}
	if len(missing) == 0 {
		return
	}

	fill := 0
	if impute {
		fill = medianYear(known)
	}
	for _, i := range missing {
		r.records[i].FoundedYear = fill
	}
	r.report.ImputedYears = len(missing)
	r.report.ImputedValue = fill
}
