package dataprocessing

import (
	"investcli/pkg/contracts/domain"
)

// ColumnFundingRounds holds the number of funding rounds per startup.
const ColumnFundingRounds = "funding_rounds"

// FundingTypeColumns are the per-round funding columns aggregated by
// FundingByType, in report order. Only columns present in a table are used.
var FundingTypeColumns = []string{
	"seed", "venture", "equity_crowdfunding", "undisclosed", "convertible_note",
	"debt_financing", "angel", "grant", "private_equity", "post_ipo_equity",
	"post_ipo_debt", "secondary_market", "product_crowdfunding",
	"round_A", "round_B", "round_C", "round_D", "round_E", "round_F", "round_G", "round_H",
}

// Filter selects canonical records. Empty sets match everything; year
// bounds are inclusive and 0 leaves a bound open. Any year bound excludes
// records whose founded year is unknown.
type Filter struct {
	Markets    []string `json:"markets,omitempty"`
	Countries  []string `json:"countries,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`
	YearFrom   int      `json:"year_from,omitempty"`
	YearTo     int      `json:"year_to,omitempty"`
	MinFunding float64  `json:"min_funding,omitempty"`
}

// IsZero reports whether the filter matches every record.
func (f Filter) IsZero() bool {
	return len(f.Markets) == 0 && len(f.Countries) == 0 && len(f.Statuses) == 0 &&
		f.YearFrom == 0 && f.YearTo == 0 && f.MinFunding == 0
}

// compiledFilter is a Filter with set lookups.
type compiledFilter struct {
	Filter
	markets, countries, statuses map[string]struct{}
}

func (f Filter) compile() compiledFilter {
	return compiledFilter{
		Filter:    f,
		markets:   toSet(f.Markets),
		countries: toSet(f.Countries),
		statuses:  toSet(f.Statuses),
	}
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func (c compiledFilter) match(rec *domain.CanonicalRecord, year int) bool {
	if c.markets != nil {
		if _, ok := c.markets[rec.Market]; !ok {
			return false
		}
	}
	if c.countries != nil {
		if _, ok := c.countries[rec.CountryCode]; !ok {
			return false
		}
	}
	if c.statuses != nil {
		if _, ok := c.statuses[rec.Status]; !ok {
			return false
		}
	}
	if (c.YearFrom != 0 || c.YearTo != 0) && year <= 0 {
		return false
	}
	if c.YearFrom != 0 && year < c.YearFrom {
		return false
	}
	if c.YearTo != 0 && year > c.YearTo {
		return false
	}
	return rec.FundingTotalUSD >= c.MinFunding
}
