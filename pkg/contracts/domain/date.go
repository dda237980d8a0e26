package domain

import (
	"encoding/json"
	"time"
)

// DateLayout is the serialized form of a known calendar date.
const DateLayout = "2006-01-02"

// Date is a calendar date or the explicit unknown-date marker (Known=false).
type Date struct {
	Time  time.Time
	Known bool
}

// UnknownDate returns the unknown-date marker.
func UnknownDate() Date {
	return Date{}
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Known: true}
}

// String returns YYYY-MM-DD, or the empty string for the unknown marker.
func (d Date) String() string {
	if !d.Known {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// Year returns the calendar year, or 0 when unknown.
func (d Date) Year() int {
	if !d.Known {
		return 0
	}
	return d.Time.Year()
}

// MarshalJSON encodes the unknown marker as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Known {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}
