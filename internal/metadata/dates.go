package metadata

import (
	"strconv"
	"strings"
	"time"
)

// YearFromDate extracts the year from a date string that starts with a
// four-digit year ("2009-04-05", "2009-04-05 10:00:00", "2009").
// Returns 0 when no year is present.
func YearFromDate(s string) int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || y <= 0 {
		return 0
	}
	return y
}

// ParseTimestamp parses the timestamp layouts providers use. The zero time
// means the value was empty or unrecognized.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
