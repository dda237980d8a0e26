package domain

import (
	"encoding/json"
	"strconv"
)

// Column names of the startup-investment dataset that receive canonical treatment.
const (
	ColumnPermalink       = "permalink"
	ColumnFundingTotalUSD = "funding_total_usd"
	ColumnCountryCode     = "country_code"
	ColumnMarket          = "market"
	ColumnStatus          = "status"
	ColumnCategoryList    = "category_list"
	ColumnFoundedAt       = "founded_at"
	ColumnFirstFundingAt  = "first_funding_at"
	ColumnLastFundingAt   = "last_funding_at"
	ColumnFoundedYear     = "founded_year"
)

// UnknownValue replaces missing categorical values.
const UnknownValue = "Unknown"

// StatusAcquired is the status value counted by acquisition-rate analytics.
const StatusAcquired = "acquired"

// Cell is a single raw value. Valid=false marks a missing value.
type Cell struct {
	Value string
	Valid bool
}

// Missing returns a missing cell.
func Missing() Cell {
	return Cell{}
}

// Value returns a present cell.
func Value(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// MarshalJSON encodes missing cells as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// RawTable is a loaded but unprocessed dataset. Every row has len(Columns) cells.
type RawTable struct {
	Source  string
	Columns []string
	Rows    [][]Cell
}

// Len returns the number of data rows.
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// CanonicalRecord is one normalized row. Managed fields are typed; every other
// input column is carried in Extra untouched.
type CanonicalRecord struct {
	Permalink       string          `json:"permalink"`
	FundingTotalUSD float64         `json:"funding_total_usd"`
	CountryCode     string          `json:"country_code"`
	Market          string          `json:"market"`
	Status          string          `json:"status"`
	CategoryList    string          `json:"category_list"`
	FoundedAt       Date            `json:"founded_at"`
	FirstFundingAt  Date            `json:"first_funding_at"`
	LastFundingAt   Date            `json:"last_funding_at"`
	FoundedYear     int             `json:"founded_year"`
	Extra           map[string]Cell `json:"extra,omitempty"`
}

// Field returns the serialized value of the named column for this record.
// The boolean is false for missing pass-through cells.
func (r *CanonicalRecord) Field(column string) (string, bool) {
	switch column {
	case ColumnPermalink:
		return r.Permalink, true
	case ColumnFundingTotalUSD:
		return FormatAmount(r.FundingTotalUSD), true
	case ColumnCountryCode:
		return r.CountryCode, true
	case ColumnMarket:
		return r.Market, true
	case ColumnStatus:
		return r.Status, true
	case ColumnCategoryList:
		return r.CategoryList, true
	case ColumnFoundedAt:
		return r.FoundedAt.String(), true
	case ColumnFirstFundingAt:
		return r.FirstFundingAt.String(), true
	case ColumnLastFundingAt:
		return r.LastFundingAt.String(), true
	case ColumnFoundedYear:
		return strconv.Itoa(r.FoundedYear), true
	}
	c, ok := r.Extra[column]
	if !ok || !c.Valid {
		return "", false
	}
	return c.Value, true
}

// CanonicalTable is the normalizer output. Columns keeps the input order.
type CanonicalTable struct {
	Source  string            `json:"source,omitempty"`
	Columns []string          `json:"columns"`
	Records []CanonicalRecord `json:"records"`
}

// Len returns the number of records.
func (t *CanonicalTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Has reports whether the table carries the named column.
func (t *CanonicalTable) Has(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Row serializes record i in column order.
func (t *CanonicalTable) Row(i int) []string {
	rec := &t.Records[i]
	row := make([]string, len(t.Columns))
	for j, col := range t.Columns {
		row[j], _ = rec.Field(col)
	}
	return row
}

// FormatAmount renders a funding amount with the shortest exact representation.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
