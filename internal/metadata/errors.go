package metadata

import (
	"errors"
	"fmt"

	"github.com/mediashelf/mediashelf-server/internal/domain"
)

// Sentinel errors for provider operations.
var (
	// ErrUpstreamUnavailable matches every failure a Provider returns.
	ErrUpstreamUnavailable = errors.New("metadata: upstream unavailable")

	ErrNotFound       = errors.New("metadata: not found")
	ErrRateLimited    = errors.New("metadata: rate limited by upstream")
	ErrBadRequest     = errors.New("metadata: bad request")
	ErrServer         = errors.New("metadata: upstream server error")
	ErrBadPayload     = errors.New("metadata: malformed payload")
	ErrCircuitOpen    = errors.New("metadata: circuit open")
	ErrNoLiveProvider = errors.New("metadata: media type has no live provider")
)

// Error wraps a provider failure with operation context. It always matches
// ErrUpstreamUnavailable under errors.Is.
type Error struct {
	Op         string // "fetch" or "search"
	Provider   string
	ExternalID domain.ExternalID // If applicable
	Err        error
}

func (e *Error) Error() string {
	if e.ExternalID != "" {
		return fmt.Sprintf("%s %s [%s]: %v", e.Provider, e.Op, e.ExternalID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrUpstreamUnavailable.
func (e *Error) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// WrapError creates an Error with context. A nil err stays nil.
func WrapError(op, provider string, externalID domain.ExternalID, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{
		Op:         op,
		Provider:   provider,
		ExternalID: externalID,
		Err:        err,
	}
}
