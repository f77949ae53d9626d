package api

import (
	"errors"
	"fmt"
)

// Kind tells the two failure families of a backend call apart.
type Kind int

const (
	// KindHTTP means the backend answered with a non-2xx status.
	KindHTTP Kind = iota + 1
	// KindConnection covers everything else: transport failures, cancelled
	// requests and bodies that could not be decoded.
	KindConnection
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Error is the only error type returned by Client methods.
type Error struct {
	Kind     Kind
	Status   int    // set only for KindHTTP
	Endpoint string // request path relative to the base URL
	Host     string // backend host, used in the connection message
	Err      error  // underlying cause, nil for KindHTTP
}

func (e *Error) Error() string {
	if e.Kind == KindHTTP {
		return fmt.Sprintf("HTTP error! status: %d", e.Status)
	}
	return fmt.Sprintf("Failed to connect to EconoRise API. Please ensure the backend server is running on %s.", e.Host)
}

func (e *Error) Unwrap() error { return e.Err }

// HasStatus reports whether the backend answered at all.
func (e *Error) HasStatus() bool { return e.Kind == KindHTTP }

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsConnection reports whether err is a connection-kind *Error.
func IsConnection(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindConnection
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	if apiErr, ok := AsError(err); ok && apiErr.HasStatus() {
		return apiErr.Status
	}
	return 0
}
