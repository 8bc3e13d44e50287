// Package common holds the error taxonomy shared by the store, the abuse gate,
// and the HTTP handlers so each layer can tell failure kinds apart with errors.Is.
package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited means the caller exhausted the action's request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrBlocked means the suspicious-activity score met the block threshold.
	ErrBlocked = errors.New("action blocked due to suspicious activity")
	// ErrConflict means a uniqueness constraint rejected the write (duplicate vote).
	ErrConflict = errors.New("already exists")
	// ErrNotFound means the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the request was malformed.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream means the store or identity provider failed.
	ErrUpstream = errors.New("upstream failure")
)

// RateLimitError carries the retry hint for a denied action.
type RateLimitError struct {
	Action  string
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, ErrRateLimited)
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// RetryAfter returns the time left until the window resets, rounded up to a
// whole second and never below one second.
func (e *RateLimitError) RetryAfter(now time.Time) time.Duration {
	d := e.ResetAt.Sub(now)
	if d <= 0 {
		return time.Second
	}
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	return d
}

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type upstreamError struct {
	err error
}

func (e *upstreamError) Error() string        { return "upstream: " + e.err.Error() }
func (e *upstreamError) Unwrap() error        { return e.err }
func (e *upstreamError) Is(target error) bool { return target == ErrUpstream }

// Upstream marks err as a store/provider failure. It returns nil for nil and
// leaves errors that already belong to the taxonomy untouched.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrUpstream, ErrNotFound, ErrConflict, ErrValidation} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &upstreamError{err: err}
}
