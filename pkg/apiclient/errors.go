package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind categorizes API client errors.
type ErrorKind int

const (
	// ErrTransport covers connection failures and anything before a response arrived.
	ErrTransport ErrorKind = iota
	// ErrTimeout means the request deadline expired.
	ErrTimeout
	// ErrStatus means the backend answered with a non-2xx status.
	ErrStatus
	// ErrDecode means a 2xx body could not be decoded.
	ErrDecode
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTransport:
		return "transport"
	case ErrTimeout:
		return "timeout"
	case ErrStatus:
		return "status"
	case ErrDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that fails.
type Error struct {
	Kind       ErrorKind
	Method     string
	Path       string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("%s %s", e.Method, e.Path)
	if e.Kind == ErrStatus {
		prefix = fmt.Sprintf("%s: %d", prefix, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) IsNotFound() bool {
	return e.Kind == ErrStatus && e.StatusCode == http.StatusNotFound
}

// IsTimeout reports whether err, or anything it wraps, is an API timeout.
func IsTimeout(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == ErrTimeout
}

// IsNotFound reports whether err is a 404 answer from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}
