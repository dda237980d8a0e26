package dataprocessing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	apperrors "investcli/internal/errors"
	"investcli/pkg/contracts/domain"
)

// Analytics answers grouping and aggregation queries over a view of a
// canonical table. Views are immutable; Filter returns a new one.
type Analytics struct {
	table   *domain.CanonicalTable
	rows    []int
	hasYear bool
}

// NewAnalytics creates a view over every record of table.
func NewAnalytics(table *domain.CanonicalTable) *Analytics {
	if table == nil {
		table = &domain.CanonicalTable{}
	}
	rows := make([]int, table.Len())
	for i := range rows {
		rows[i] = i
	}
	return &Analytics{
		table:   table,
		rows:    rows,
		hasYear: table.Has(domain.ColumnFoundedYear),
	}
}

// Table returns the underlying canonical table.
func (a *Analytics) Table() *domain.CanonicalTable {
	return a.table
}

// Require returns ErrMissingColumn naming the first absent column.
func (a *Analytics) Require(columns ...string) error {
	for _, c := range columns {
		if !a.table.Has(c) {
			return apperrors.NewInputError("dataset lacks column "+c, fmt.Errorf("%w: %s", ErrMissingColumn, c)).
				WithContext("column", c)
		}
	}
	return nil
}

// Len returns the number of records in the view.
func (a *Analytics) Len() int {
	return len(a.rows)
}

func (a *Analytics) record(i int) *domain.CanonicalRecord {
	return &a.table.Records[a.rows[i]]
}

// Year returns the founded year used for filtering and grouping: the
// founded_year column when present, otherwise the year of founded_at.
func (a *Analytics) Year(rec *domain.CanonicalRecord) int {
	if a.hasYear {
		return rec.FoundedYear
	}
	return rec.FoundedAt.Year()
}

// Filter returns the records of the view that match f.
func (a *Analytics) Filter(f Filter) *Analytics {
	if f.IsZero() {
		return a
	}
	cf := f.compile()
	rows := make([]int, 0, len(a.rows))
	for i, r := range a.rows {
		rec := a.record(i)
		if cf.match(rec, a.Year(rec)) {
			rows = append(rows, r)
		}
	}
	return &Analytics{table: a.table, rows: rows, hasYear: a.hasYear}
}

// Head returns up to n records in table order.
func (a *Analytics) Head(n int) []domain.CanonicalRecord {
	if n <= 0 || n > len(a.rows) {
		n = len(a.rows)
	}
	out := make([]domain.CanonicalRecord, n)
	for i := 0; i < n; i++ {
		out[i] = *a.record(i)
	}
	return out
}

// TotalFunding sums funding over the view.
func (a *Analytics) TotalFunding() float64 {
	var total float64
	for i := range a.rows {
		total += a.record(i).FundingTotalUSD
	}
	return total
}

// TopMarketsByFunding ranks markets by total funding.
func (a *Analytics) TopMarketsByFunding(n int) []domain.Ranked {
	sums := make(map[string]float64)
	for i := range a.rows {
		rec := a.record(i)
		sums[rec.Market] += rec.FundingTotalUSD
	}
	return topRanked(sums, n)
}

// AverageFundingByMarket ranks markets by mean funding.
func (a *Analytics) AverageFundingByMarket(n int) []domain.Ranked {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := range a.rows {
		rec := a.record(i)
		sums[rec.Market] += rec.FundingTotalUSD
		counts[rec.Market]++
	}
	for k, s := range sums {
		sums[k] = s / float64(counts[k])
	}
	return topRanked(sums, n)
}

// CountryCounts ranks countries by number of startups.
func (a *Analytics) CountryCounts(n int) []domain.Count {
	return a.countBy(n, func(r *domain.CanonicalRecord) string { return r.CountryCode })
}

// MarketCounts ranks markets by number of startups.
func (a *Analytics) MarketCounts(n int) []domain.Count {
	return a.countBy(n, func(r *domain.CanonicalRecord) string { return r.Market })
}

func (a *Analytics) countBy(n int, key func(*domain.CanonicalRecord) string) []domain.Count {
	counts := make(map[string]int)
	for i := range a.rows {
		counts[key(a.record(i))]++
	}
	out := make([]domain.Count, 0, len(counts))
	for k, c := range counts {
		out = append(out, domain.Count{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return limit(out, n)
}

// FundingByYear sums funding per founded year, ascending. Year 0 (unknown)
// is excluded.
func (a *Analytics) FundingByYear() []domain.YearTotal {
	totals := make(map[int]float64)
	for i := range a.rows {
		rec := a.record(i)
		if y := a.Year(rec); y > 0 {
			totals[y] += rec.FundingTotalUSD
		}
	}
	out := make([]domain.YearTotal, 0, len(totals))
	for y, t := range totals {
		out = append(out, domain.YearTotal{Year: y, Total: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// FundingByType sums every per-round funding column present in the table,
// in FundingTypeColumns order.
func (a *Analytics) FundingByType() []domain.Ranked {
	var out []domain.Ranked
	for _, col := range FundingTypeColumns {
		if !a.table.Has(col) {
			continue
		}
		var total float64
		for i := range a.rows {
			v, ok := a.record(i).Field(col)
			total += ParseAmount(v, ok)
		}
		out = append(out, domain.Ranked{Key: col, Value: total})
	}
	return out
}

// AcquisitionRates ranks markets by the share of acquired startups. ok is
// false when no record in the view has the acquired status.
func (a *Analytics) AcquisitionRates(n int) (rates []domain.Ranked, ok bool) {
	totals := make(map[string]int)
	acquired := make(map[string]int)
	for i := range a.rows {
		rec := a.record(i)
		totals[rec.Market]++
		if rec.Status == domain.StatusAcquired {
			acquired[rec.Market]++
			ok = true
		}
	}
	if !ok {
		return []domain.Ranked{}, false
	}
	share := make(map[string]float64, len(totals))
	for m, t := range totals {
		share[m] = float64(acquired[m]) / float64(t)
	}
	return topRanked(share, n), true
}

// StatusDistribution returns the percentage of startups per status.
func (a *Analytics) StatusDistribution() []domain.StatusShare {
	counts := a.countBy(0, func(r *domain.CanonicalRecord) string { return r.Status })
	out := make([]domain.StatusShare, len(counts))
	for i, c := range counts {
		out[i] = domain.StatusShare{
			Status:  c.Key,
			Count:   c.Count,
			Percent: float64(c.Count) * 100 / float64(len(a.rows)),
		}
	}
	return out
}

// Summarize returns the headline statistics of the view.
func (a *Analytics) Summarize() domain.DatasetSummary {
	s := domain.DatasetSummary{
		TotalStartups:      a.Len(),
		TotalFundingUSD:    a.TotalFunding(),
		StatusDistribution: a.StatusDistribution(),
	}
	if s.TotalStartups > 0 {
		s.AverageFundingUSD = s.TotalFundingUSD / float64(s.TotalStartups)
	}
	return s
}

// FundingStatsByStatus describes the funding distribution of every status,
// ordered by status. Quartiles use linear interpolation.
func (a *Analytics) FundingStatsByStatus() []domain.FundingStats {
	groups := make(map[string][]float64)
	for i := range a.rows {
		rec := a.record(i)
		groups[rec.Status] = append(groups[rec.Status], rec.FundingTotalUSD)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.FundingStats, 0, len(keys))
	for _, k := range keys {
		values := groups[k]
		sort.Float64s(values)
		var sum float64
		for _, v := range values {
			sum += v
		}
		out = append(out, domain.FundingStats{
			Group:  k,
			Count:  len(values),
			Min:    values[0],
			Q1:     quantile(values, 0.25),
			Median: quantile(values, 0.5),
			Q3:     quantile(values, 0.75),
			Max:    values[len(values)-1],
			Mean:   sum / float64(len(values)),
		})
	}
	return out
}

// RoundsCorrelation returns the Pearson correlation between the number of
// funding rounds and total funding. ok is false when the column is absent
// or either series is constant.
func (a *Analytics) RoundsCorrelation() (float64, bool) {
	if !a.table.Has(ColumnFundingRounds) {
		return 0, false
	}

	var xs, ys []float64
	for i := range a.rows {
		rec := a.record(i)
		raw, present := rec.Field(ColumnFundingRounds)
		if !present {
			continue
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, rec.FundingTotalUSD)
	}
	return pearson(xs, ys)
}

// FilterOptions lists distinct filter values and the ranges of the view.
func (a *Analytics) FilterOptions() domain.FilterOptions {
	markets := make(map[string]struct{})
	countries := make(map[string]struct{})
	statuses := make(map[string]struct{})
	opts := domain.FilterOptions{}

	for i := range a.rows {
		rec := a.record(i)
		markets[rec.Market] = struct{}{}
		countries[rec.CountryCode] = struct{}{}
		statuses[rec.Status] = struct{}{}

		if y := a.Year(rec); y > 0 {
			if opts.MinYear == 0 || y < opts.MinYear {
				opts.MinYear = y
			}
			if y > opts.MaxYear {
				opts.MaxYear = y
			}
		}
		if rec.FundingTotalUSD > opts.MaxFunding {
			opts.MaxFunding = rec.FundingTotalUSD
		}
	}

	if a.table.Has(domain.ColumnMarket) {
		opts.Markets = sortedKeys(markets)
	}
	if a.table.Has(domain.ColumnCountryCode) {
		opts.Countries = sortedKeys(countries)
	}
	if a.table.Has(domain.ColumnStatus) {
		opts.Statuses = sortedKeys(statuses)
	}
	return opts
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// topRanked orders by value descending, then key ascending, and keeps n
// entries (all when n <= 0).
func topRanked(values map[string]float64, n int) []domain.Ranked {
	out := make([]domain.Ranked, 0, len(values))
	for k, v := range values {
		out = append(out, domain.Ranked{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key < out[j].Key
	})
	return limit(out, n)
}

func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func pearson(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0, false
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}
