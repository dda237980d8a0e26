package dataprocessing

import (
	"strings"
	"time"

	"investcli/pkg/contracts/domain"
)

// dateLayouts are tried in order. The canonical layout comes first so a
// normalized file reloads on the first attempt.
var dateLayouts = []string{
	domain.DateLayout,
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"2006-01",
	"2006",
}

// MinYear and MaxYear bound the representable dates. Years outside the
// range are treated as unparsable.
const (
	MinYear = 1677
	MaxYear = 2262
)

// parseDate returns the calendar date of a raw cell, or the unknown-date
// marker when the cell is missing or matches no accepted layout.
func parseDate(c domain.Cell) domain.Date {
	if !c.Valid {
		return domain.UnknownDate()
	}
	s := strings.TrimSpace(c.Value)
	if s == "" {
		return domain.UnknownDate()
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if y := t.Year(); y < MinYear || y > MaxYear {
			return domain.UnknownDate()
		}
		return domain.NewDate(t)
	}
	return domain.UnknownDate()
}
