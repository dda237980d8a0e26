package dataprocessing

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"investcli/pkg/contracts/domain"
)

// parseYear reads a founded_year cell. Spreadsheet exports store the year as
// a float ("2007.0"), so whole floats are accepted.
func parseYear(c domain.Cell) (int, bool) {
	if !c.Valid {
		return 0, false
	}
	s := strings.TrimSpace(c.Value)
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// medianYear returns the median of years rounded to the nearest integer,
// or 0 when years is empty. years is sorted in place.
func medianYear(years []int) int {
	n := len(years)
	if n == 0 {
		return 0
	}
	sort.Ints(years)
	if n%2 == 1 {
		return years[n/2]
	}
	return int(math.Round(float64(years[n/2-1]+years[n/2]) / 2))
}
