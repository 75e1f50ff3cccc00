package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestYearFromDate(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"2009-04-05", 2009},
		{"2012-03-14 10:01:02", 2012},
		{"1999", 1999},
		{"", 0},
		{"n/a", 0},
		{"abcd-01-01", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, YearFromDate(tt.input), "input %q", tt.input)
	}
}

func TestParseTimestamp(t *testing.T) {
	assert.Equal(t, time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC), ParseTimestamp("2025-06-01 08:30:00"))
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), ParseTimestamp("2025-06-01"))
	assert.True(t, ParseTimestamp("yesterday").IsZero())
	assert.True(t, ParseTimestamp("").IsZero())
}
