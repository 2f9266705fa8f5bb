package pairing

import (
	"errors"
)

// Kind classifies failures surfaced to the shell.
type Kind int

const (
	// KindUnknown is never produced by Service; it marks non-pairing errors.
	KindUnknown Kind = iota
	// KindValidation is bad caller input, detected before any I/O.
	KindValidation
	// KindNetwork is a transport failure reaching the site.
	KindNetwork
	// KindRemote is a non-success status from the site.
	KindRemote
	// KindProtocol is a success status with a malformed or incomplete payload.
	KindProtocol
	// KindPersistence is a failure to write the local pairing record.
	KindPersistence
)

// String returns a human-readable name for a Kind
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindRemote:
		return "remote"
	case KindProtocol:
		return "protocol"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is returned by every failing Service operation. Its message is
// meant to be shown to the user verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown when err is not a *Error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
