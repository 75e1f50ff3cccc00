// Package freshness decides whether a cached media record can be served
// without asking its provider again.
package freshness

import (
	"time"

	"github.com/mediashelf/mediashelf-server/internal/domain"
)

// DefaultWindow is how long a refreshed record is reused.
const DefaultWindow = 24 * time.Hour

// Class is the volatility class of a media type.
type Class int

const (
	// Windowed records are fresh for Window after their last refresh.
	Windowed Class = iota
	// Permanent records are fresh forever once cached.
	Permanent
	// RetryIncomplete records are windowed, but stale while their status
	// still carries the "Unknown" sentinel.
	RetryIncomplete
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case Permanent:
		return "permanent"
	case RetryIncomplete:
		return "retry_incomplete"
	default:
		return "windowed"
	}
}

// Policy is the freshness rule set. The zero value treats every type as
// windowed with DefaultWindow.
type Policy struct {
	Window          time.Duration
	Permanent       map[domain.MediaType]bool
	RetryIncomplete map[domain.MediaType]bool
	Now             func() time.Time
}

// NewPolicy builds a Policy from type lists.
func NewPolicy(window time.Duration, permanent, retryIncomplete []domain.MediaType) *Policy {
	p := &Policy{
		Window:          window,
		Permanent:       make(map[domain.MediaType]bool, len(permanent)),
		RetryIncomplete: make(map[domain.MediaType]bool, len(retryIncomplete)),
		Now:             time.Now,
	}
	for _, t := range permanent {
		p.Permanent[t] = true
	}
	for _, t := range retryIncomplete {
		p.RetryIncomplete[t] = true
	}
	return p
}

// Class returns the volatility class of t. Permanent wins over RetryIncomplete.
func (p *Policy) Class(t domain.MediaType) Class {
	switch {
	case p.Permanent[t]:
		return Permanent
	case p.RetryIncomplete[t]:
		return RetryIncomplete
	default:
		return Windowed
	}
}

// IsFresh reports whether record can be served as-is. A nil record is never fresh.
func (p *Policy) IsFresh(record *domain.MediaRecord) bool {
	if record == nil {
		return false
	}

	switch p.Class(record.MediaType) {
	case Permanent:
		return true
	case RetryIncomplete:
		if record.HasIncompleteStatus() {
			return false
		}
	}

	return p.withinWindow(record.LastRefreshedAt)
}

// Age returns how long ago record was refreshed.
func (p *Policy) Age(record *domain.MediaRecord) time.Duration {
	return p.now().Sub(record.LastRefreshedAt)
}

func (p *Policy) withinWindow(refreshedAt time.Time) bool {
	if refreshedAt.IsZero() {
		return false
	}
	return p.now().Sub(refreshedAt) < p.window()
}

func (p *Policy) window() time.Duration {
	if p.Window <= 0 {
		return DefaultWindow
	}
	return p.Window
}

func (p *Policy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
