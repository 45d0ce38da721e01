package errors

import (
	stderrors "errors"
)

// Failure categories. Every sentinel error in the relay wraps exactly one of
// these so callers can decide containment with errors.Is.
var (
	// ErrConfiguration is fatal at startup and never retried.
	ErrConfiguration = stderrors.New("configuration error")
	// ErrCodec drops the offending message; the stream continues.
	ErrCodec = stderrors.New("codec error")
	// ErrTransport is retried at the site and surfaced as a link-down event.
	ErrTransport = stderrors.New("transport error")
	// ErrRouting drops the message per policy.
	ErrRouting = stderrors.New("routing error")
)

// Category names the failure category of err, or "unknown".
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, ErrConfiguration):
		return "configuration"
	case stderrors.Is(err, ErrCodec):
		return "codec"
	case stderrors.Is(err, ErrTransport):
		return "transport"
	case stderrors.Is(err, ErrRouting):
		return "routing"
	default:
		return "unknown"
	}
}

// IsFatal reports whether err must stop the process.
func IsFatal(err error) bool {
	return stderrors.Is(err, ErrConfiguration)
}

// Is, As and Join re-export the standard helpers so callers importing this
// package do not need a second errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func Join(errs ...error) error { return stderrors.Join(errs...) }

func New(text string) error { return stderrors.New(text) }
