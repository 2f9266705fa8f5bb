// Package api provides error types for paired-site REST responses.
package api

import (
	"errors"
	"fmt"
)

// ErrUnexpectedResponse indicates a success status with a malformed or incomplete payload.
var ErrUnexpectedResponse = errors.New("unexpected pairing response")

// TransportError indicates the site could not be reached (DNS, refused
// connection, TLS, timeout, or a body cut off mid-read).
type TransportError struct {
	Op  string // "pairing claim" or "heartbeat"
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError indicates the site answered with a non-success HTTP status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string

	// Message is the site's "error" field when present, otherwise a generic
	// description with the status and raw body.
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// IsTransportError reports whether err is (or wraps) a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsStatusError reports whether err is (or wraps) a *StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
