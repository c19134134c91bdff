// Package dateutils parses the date layouts found in SWIFT fields and bank
// CSV feeds.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Layouts used by the supported input formats
const (
	DateLayoutISO   = "2006-01-02"
	DateLayoutFull  = "2006-01-02 15:04:05"
	DateLayoutSWIFT = "060102"
)

// ParseSWIFTDate parses a six digit YYMMDD date. Two digit years follow the
// Go convention: 69-99 map to the 1900s, 00-68 to the 2000s.
func ParseSWIFTDate(s string) (time.Time, error) {
	if len(s) != 6 {
		return time.Time{}, fmt.Errorf("SWIFT date must be YYMMDD, got %q", s)
	}
	t, err := time.Parse(DateLayoutSWIFT, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid SWIFT date %q: %w", s, err)
	}
	return t, nil
}

// ParseEntryDate resolves a four digit MMDD booking date relative to the value
// date it accompanies. The year is the value date's, moved by one when the
// two dates straddle a year boundary (booked in December, valued in January
// and the reverse).
func ParseEntryDate(mmdd string, valueDate time.Time) (time.Time, error) {
	if len(mmdd) != 4 {
		return time.Time{}, fmt.Errorf("entry date must be MMDD, got %q", mmdd)
	}
	md, err := time.Parse("0102", mmdd)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid entry date %q: %w", mmdd, err)
	}

	year := valueDate.Year()
	switch {
	case valueDate.Month() == time.January && md.Month() == time.December:
		year--
	case valueDate.Month() == time.December && md.Month() == time.January:
		year++
	}

	entry := time.Date(year, md.Month(), md.Day(), 0, 0, 0, 0, time.UTC)
	if entry.Month() != md.Month() {
		// 29 February resolved against a non-leap year.
		return time.Time{}, fmt.Errorf("invalid entry date %q for year %d", mmdd, year)
	}
	return entry, nil
}

// ParseOptional parses s with layout, returning nil for a blank value.
func ParseOptional(s, layout string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}
