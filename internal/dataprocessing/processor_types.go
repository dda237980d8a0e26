package dataprocessing

import (
	"time"

	"investcli/internal/config"
	"investcli/pkg/contracts/domain"
)

// Options configures a Normalizer.
type Options struct {
	// MarketCasing selects the market capitalization rule.
	MarketCasing CasingRule

	// CountryCorrections maps malformed country codes to their ISO form.
	// Matching is exact.
	CountryCorrections map[string]string

	// ThousandsSeparator strips "," from funding values before parsing.
	ThousandsSeparator bool

	// MissingTokens are the values the loader reads as missing. A market
	// that standardizes to one of them becomes "Unknown" so it survives a
	// write and reload unchanged. Empty means DefaultNATokens.
	MissingTokens []string

	// ImputeFoundedYear fills missing founded_year values with the median
	// year. When false, missing years become 0.
	ImputeFoundedYear bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MarketCasing:       CasingTitle,
		CountryCorrections: config.DefaultCountryCorrections(),
		ThousandsSeparator: true,
		ImputeFoundedYear:  true,
	}
}

// OptionsFromConfig maps the normalize section of the application config.
func OptionsFromConfig(cfg config.NormalizeConfig) (Options, error) {
	rule, err := ParseCasingRule(cfg.MarketCasing)
	if err != nil {
		return Options{}, err
	}

	corrections := make(map[string]string, len(cfg.CountryCorrections))
	for k, v := range cfg.CountryCorrections {
		corrections[k] = v
	}

	return Options{
		MarketCasing:       rule,
		CountryCorrections: corrections,
		ThousandsSeparator: cfg.ThousandsSeparator,
		MissingTokens:      cfg.NATokens,
		ImputeFoundedYear:  cfg.ImputeFoundedYear,
	}, nil
}

// Report describes what one Normalize call changed.
type Report struct {
	Source string   `json:"source,omitempty"`
	Steps  []string `json:"steps"`

	RowsIn            int `json:"rows_in"`
	RowsOut           int `json:"rows_out"`
	DuplicatesDropped int `json:"duplicates_dropped"`

	// FundingDefaulted counts funding values replaced with 0.
	FundingDefaulted int `json:"funding_defaulted"`

	// CategoricalDefaults counts "Unknown" substitutions per column.
	// Blank markets defaulted after trimming are included.
	CategoricalDefaults map[string]int `json:"categorical_defaults"`

	CountryCorrections int `json:"country_corrections"`

	// UnknownDates counts unknown-date markers per date column.
	UnknownDates map[string]int `json:"unknown_dates"`

	ImputedYears int `json:"imputed_years"`
	ImputedValue int `json:"imputed_value,omitempty"`

	Duration time.Duration `json:"duration_ns"`
}

func newReport(source string, rowsIn int) *Report {
	return &Report{
		Source:              source,
		RowsIn:              rowsIn,
		CategoricalDefaults: make(map[string]int),
		UnknownDates:        make(map[string]int),
	}
}

// DefaultsFilled sums every substitution made to reach a total record.
func (r *Report) DefaultsFilled() map[string]int {
	out := make(map[string]int, len(r.CategoricalDefaults)+len(r.UnknownDates)+2)
	for k, v := range r.CategoricalDefaults {
		out[k] += v
	}
	for k, v := range r.UnknownDates {
		out[k] += v
	}
	if r.FundingDefaulted > 0 {
		out[domain.ColumnFundingTotalUSD] = r.FundingDefaulted
	}
	if r.ImputedYears > 0 {
		out[domain.ColumnFoundedYear] = r.ImputedYears
	}
	return out
}
