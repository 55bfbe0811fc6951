package core

import (
	"fmt"
	"strings"
	"time"
)

const monthLayout = "2006-01"

// Month is a calendar month keyed as YYYY-MM on the wire.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonthOr parses s and falls back to the month containing now when s is
// empty or malformed.
func ParseMonthOr(s string, now time.Time) Month {
	if m, err := ParseMonth(s); err == nil {
		return m
	}
	return MonthOf(now)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label is the human readable form, e.g. "March 2025".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

func (m Month) first() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) Prev() Month { return MonthOf(m.first().AddDate(0, -1, 0)) }

func (m Month) Next() Month { return MonthOf(m.first().AddDate(0, 1, 0)) }

// Contains reports whether t falls in m. The timestamp's own location is used.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}
