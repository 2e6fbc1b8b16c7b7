package model

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind int

const (
	// KindURL is a malformed input URL. No request was sent.
	KindURL Kind = iota + 1

	// KindConnection is a transport failure reaching or reading from the remote host.
	KindConnection

	// KindHTTPStatus is a non-2xx response.
	KindHTTPStatus

	// KindIO is a local filesystem failure.
	KindIO

	// KindArchive is an unreadable or corrupt archive or archive entry.
	KindArchive

	// KindCodec is a chart the codec could not convert.
	KindCodec

	// KindConfig is a destination that is configured but unusable.
	KindConfig
)

// String returns the kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url error"
	case KindConnection:
		return "connection error"
	case KindHTTPStatus:
		return "http error"
	case KindIO:
		return "io error"
	case KindArchive:
		return "archive error"
	case KindCodec:
		return "codec error"
	case KindConfig:
		return "config error"
	default:
		return "error"
	}
}

// Error is a classified pipeline error.
//
// Path is set for filesystem and archive failures, Status for KindHTTPStatus.
// Use errors.As to extract it, or IsKind for a quick check.
type Error struct {
	Kind   Kind
	Path   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	switch {
	case e.Kind == KindHTTPStatus:
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	case e.Path != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns an *Error of the given kind wrapping err.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// PathError returns an *Error of the given kind for a filesystem path.
func PathError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// StatusError returns a KindHTTPStatus error.
func StatusError(status int) *Error {
	return &Error{Kind: KindHTTPStatus, Status: status}
}

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
