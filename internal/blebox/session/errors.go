package session

import (
	"errors"
	"fmt"
)

// Transport error kinds. Every error returned by Client wraps exactly one.
var (
	// ErrTimeout indicates the box did not answer in time.
	ErrTimeout = errors.New("session: timeout")

	// ErrConnection indicates the box could not be reached.
	ErrConnection = errors.New("session: connection failed")

	// ErrHTTPStatus indicates the box answered with a non-200 status.
	ErrHTTPStatus = errors.New("session: unexpected http status")

	// ErrClient indicates any other request or decoding failure.
	ErrClient = errors.New("session: client error")
)

// ErrUnknownFeature is returned when a command names an alias the box does
// not have.
var ErrUnknownFeature = errors.New("session: unknown feature")

// HTTPError carries the status of a rejected request. It unwraps to
// ErrHTTPStatus.
type HTTPError struct {
	Method string
	Path   string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("session: %s %s returned http %d", e.Method, e.Path, e.Status)
}

func (e *HTTPError) Unwrap() error { return ErrHTTPStatus }
