package utils

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const (
	// CADTimeLayout is the compact calendar-date format used by the JPL CAD API,
	// e.g. "2020-Jan-01 00:00".
	CADTimeLayout = "2006-Jan-02 15:04"
	// OutputTimeLayout is the fixed textual form written by exports.
	OutputTimeLayout = "2006-01-02 15:04"
	// DateLayout is the accepted form for date criteria.
	DateLayout = "2006-01-02"
)

// ParseCADTime converts a CAD calendar date string into a UTC time.
func ParseCADTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(CADTimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse close approach time %q: %w", s, err)
	}
	return t, nil
}

// FormatTime renders t in UTC using OutputTimeLayout.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(OutputTimeLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// RoundTo2 parses a decimal string and rounds it half away from zero to two
// places. Rounding happens on the decimal text, so "19.995" becomes 20.
func RoundTo2(raw string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", raw, err)
	}
	f, _ := d.Round(2).Float64()
	return f, nil
}
