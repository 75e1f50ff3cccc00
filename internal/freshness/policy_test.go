package freshness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mediashelf/mediashelf-server/internal/domain"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func newClock() *clock                   { return &clock{now: epoch} }

func defaultPolicy(c *clock) *Policy {
	p := NewPolicy(24*time.Hour,
		[]domain.MediaType{domain.MediaMovie, domain.MediaBook, domain.MediaGame},
		[]domain.MediaType{domain.MediaComic},
	)
	p.Now = c.Now
	return p
}

func record(t domain.MediaType, status string, refreshedAt time.Time) *domain.MediaRecord {
	return &domain.MediaRecord{
		MediaType:       t,
		ExternalID:      "1",
		Title:           "Title",
		Status:          status,
		LastRefreshedAt: refreshedAt,
	}
}

func TestPolicy_Class(t *testing.T) {
	p := defaultPolicy(newClock())

	assert.Equal(t, Windowed, p.Class(domain.MediaAnime))
	assert.Equal(t, Windowed, p.Class(domain.MediaShow))
	assert.Equal(t, Permanent, p.Class(domain.MediaMovie))
	assert.Equal(t, RetryIncomplete, p.Class(domain.MediaComic))
	assert.Equal(t, "permanent", Permanent.String())
}

func TestPolicy_PermanentWinsOverRetryIncomplete(t *testing.T) {
	p := NewPolicy(time.Hour, []domain.MediaType{domain.MediaComic}, []domain.MediaType{domain.MediaComic})

	assert.Equal(t, Permanent, p.Class(domain.MediaComic))
	assert.True(t, p.IsFresh(record(domain.MediaComic, domain.UnknownStatus, epoch)))
}

func TestPolicy_IsFresh_Window(t *testing.T) {
	c := newClock()
	p := defaultPolicy(c)

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just refreshed", 0, true},
		{"one hour", time.Hour, true},
		{"just under window", 24*time.Hour - time.Nanosecond, true},
		{"exactly window", 24 * time.Hour, false},
		{"two days", 48 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := record(domain.MediaAnime, "Finished", c.now.Add(-tt.age))
			assert.Equal(t, tt.want, p.IsFresh(r))
		})
	}
}

func TestPolicy_IsFresh_NilAndNeverRefreshed(t *testing.T) {
	p := defaultPolicy(newClock())

	assert.False(t, p.IsFresh(nil))
	assert.False(t, p.IsFresh(record(domain.MediaManga, "Publishing", time.Time{})))
}

func TestPolicy_PermanentTypesNeverExpire(t *testing.T) {
	c := newClock()
	p := defaultPolicy(c)

	for _, mt := range []domain.MediaType{domain.MediaMovie, domain.MediaBook, domain.MediaGame} {
		r := record(mt, domain.UnknownStatus, epoch)
		for range 30 {
			c.Advance(24 * time.Hour)
			assert.True(t, p.IsFresh(r), "%s should stay fresh", mt)
		}
	}
}

func TestPolicy_IncompleteSentinelForcesRefresh(t *testing.T) {
	c := newClock()
	p := defaultPolicy(c)

	assert.False(t, p.IsFresh(record(domain.MediaComic, domain.UnknownStatus, epoch)))
	assert.False(t, p.IsFresh(record(domain.MediaComic, "", epoch)))
	assert.True(t, p.IsFresh(record(domain.MediaComic, "Publishing", epoch)))

	// The sentinel only matters for retry-incomplete types.
	assert.True(t, p.IsFresh(record(domain.MediaAnime, domain.UnknownStatus, epoch)))
}

func TestPolicy_Monotonicity(t *testing.T) {
	c := newClock()
	p := defaultPolicy(c)

	// If a record is fresh at some check time, it is fresh at every earlier
	// check time after its refresh.
	for _, mt := range domain.AllMediaTypes() {
		r := record(mt, "Finished", epoch)
		for _, later := range []time.Duration{time.Hour, 12 * time.Hour, 23 * time.Hour, 25 * time.Hour, 72 * time.Hour} {
			c.now = epoch.Add(later)
			freshLater := p.IsFresh(r)
			for _, earlier := range []time.Duration{0, time.Minute, time.Hour} {
				if earlier > later {
					continue
				}
				c.now = epoch.Add(earlier)
				if freshLater {
					assert.True(t, p.IsFresh(r), "%s fresh at +%s but not at +%s", mt, later, earlier)
				}
			}
		}
	}
}

func TestPolicy_ZeroValueUsesDefaultWindow(t *testing.T) {
	c := newClock()
	p := &Policy{Now: c.Now}

	assert.True(t, p.IsFresh(record(domain.MediaMovie, "Released", epoch.Add(-23*time.Hour))))
	assert.False(t, p.IsFresh(record(domain.MediaMovie, "Released", epoch.Add(-25*time.Hour))))
}

func TestPolicy_Age(t *testing.T) {
	c := newClock()
	p := defaultPolicy(c)

	assert.Equal(t, 3*time.Hour, p.Age(record(domain.MediaAnime, "", epoch.Add(-3*time.Hour))))
}
