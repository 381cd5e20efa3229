package scrape

import (
	"errors"
	"fmt"
)

// Sentinel errors shared between the pipeline and the fetch backends.
var (
	// ErrElementNotFound reports a selector with no match. For optional
	// fields the caller recovers and leaves the field empty.
	ErrElementNotFound = errors.New("element not found")

	// ErrNavigationTimeout reports that a page did not load within the
	// timeout budget. Retried up to the configured bound.
	ErrNavigationTimeout = errors.New("navigation timed out")

	// ErrWindowTimeout reports that a clicked link did not produce a
	// secondary window within the timeout budget.
	ErrWindowTimeout = errors.New("secondary window did not appear")

	// ErrSecureTransport classifies a reachability probe that failed at
	// the TLS layer. The resolver downgrades the URL scheme on it.
	ErrSecureTransport = errors.New("secure transport failure")

	// ErrConnectivity classifies a reachability probe that could not reach
	// the host at all. The resolver keeps the URL as constructed.
	ErrConnectivity = errors.New("connection failure")
)

// ParseError reports an address string that does not match the expected
// prefecture/city/street structure.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("address %q does not match the expected structure", e.Raw)
}

// FatalAccessError aborts the run: a detail page stayed unreachable after
// every navigation attempt. The controller cleans partial output before
// propagating it.
type FatalAccessError struct {
	Ref      DetailReference
	Attempts int
	Err      error
}

func (e *FatalAccessError) Error() string {
	return fmt.Sprintf("detail page %s unreachable after %d attempts: %v", e.Ref, e.Attempts, e.Err)
}

func (e *FatalAccessError) Unwrap() error {
	return e.Err
}
