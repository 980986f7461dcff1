package balance

import (
	"fmt"
	"time"
)

// MonthFormat is the canonical ISO month key, e.g. "2025-07".
const MonthFormat = "2006-01"

// Month is a calendar month with no finer granularity.
type Month struct {
	y int
	m time.Month
}

// NewMonth returns a normalized Month (out-of-range months roll over).
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{t.Year(), t.Month()}
}

// CurrentMonth returns the month containing now.
func CurrentMonth() Month {
	now := time.Now()
	return NewMonth(now.Year(), now.Month())
}

// ParseMonth parses an ISO month key "2006-01".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthFormat, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q want format %q: %w", s, MonthFormat, err)
	}
	return NewMonth(t.Year(), t.Month()), nil
}

// MonthOfDate extracts the month from an ISO date "2006-01-02".
// Bucketing works on the string prefix so no timezone conversion is involved.
func MonthOfDate(date string) (Month, error) {
	if len(date) < len(MonthFormat) {
		return Month{}, fmt.Errorf("invalid date %q", date)
	}
	return ParseMonth(date[:len(MonthFormat)])
}

// String formats the month in its canonical key form.
func (m Month) String() string {
	return time.Date(m.y, m.m, 1, 0, 0, 0, 0, time.UTC).Format(MonthFormat)
}

// Next returns the following calendar month.
func (m Month) Next() Month { return NewMonth(m.y, m.m+1) }

// Before reports whether m is strictly earlier than x.
func (m Month) Before(x Month) bool {
	return m.y < x.y || (m.y == x.y && m.m < x.m)
}

// After reports whether m is strictly later than x.
func (m Month) After(x Month) bool { return x.Before(m) }
