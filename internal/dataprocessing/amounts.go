package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	"investcli/pkg/contracts/domain"
)

// FundingSentinel is the placeholder the raw export uses for "no amount".
const FundingSentinel = "-"

// parseAmount converts a raw funding cell to a non-negative amount.
// ok is false when the cell is missing or the value is unusable; the caller
// substitutes 0.
func parseAmount(c domain.Cell, stripThousands bool) (float64, bool) {
	if !c.Valid || c.Value == FundingSentinel {
		return 0, false
	}

	s := strings.TrimSpace(c.Value)
	if stripThousands {
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" || hexLiteral(s) {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	// -0 parses as a valid number; store it as 0 so it serializes as "0".
	if v == 0 {
		v = 0
	}
	return v, true
}

// hexLiteral reports whether s uses the 0x prefix that strconv accepts but
// spreadsheet exports never produce.
func hexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// ParseAmount applies the funding coercion rule to a single raw string and
// returns 0 for anything unusable. Analytics use it for the per-round
// funding columns that stay pass-through.
func ParseAmount(raw string, valid bool) float64 {
	v, _ := parseAmount(domain.Cell{Value: raw, Valid: valid}, true)
	return v
}
