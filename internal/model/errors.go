package model

import (
	"errors"
	"fmt"
)

var (
	// ErrThrottled marks a refresh call suppressed by the cooldown.
	// It is a no-op signal, not a failure.
	ErrThrottled = errors.New("refresh throttled")

	// ErrStaleGeneration marks a result that arrived for a pool id
	// that is no longer active. Callers discard it silently.
	ErrStaleGeneration = errors.New("stale generation")
)

// FetchError reports a metrics endpoint that returned a failure or an
// empty payload. Recoverable by retry.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s failed", e.Endpoint)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DerivationError reports a failed chain read during position
// derivation. The previously known position list is retained.
type DerivationError struct {
	Op  string
	Err error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("derive %s: %v", e.Op, e.Err)
}

func (e *DerivationError) Unwrap() error { return e.Err }
