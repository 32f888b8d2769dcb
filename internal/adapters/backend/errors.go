package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a backend call failed.
type Kind uint8

const (
	// KindUnavailable means the backend could not be reached.
	KindUnavailable Kind = iota + 1
	// KindTimeout means the call exceeded the request timeout.
	KindTimeout
	// KindRejected means the backend answered with a non-2xx status.
	KindRejected
	// KindDecode means a 2xx body could not be decoded.
	KindDecode
)

// String returns the kind name used in log attributes.
func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	case KindRejected:
		return "rejected"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the failure value returned by every Client call.
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int    // HTTP status; 0 unless Kind is KindRejected or KindDecode
	Message string // backend "message" field, or the status text when the body had none
	Generic bool   // Message is the status text rather than the backend's own
	Err     error  // underlying transport or decode error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindRejected:
		return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	default:
		return fmt.Sprintf("backend %s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a backend error, or 0 if err is not one.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

// StatusOf returns the HTTP status carried by a backend error, or 0.
func StatusOf(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.Status
	}
	return 0
}

// UserMessage returns text safe to show in a flash message.
// Rejections surface the backend message verbatim; everything else gets a generic message.
// POST: Returns fallback when err carries nothing presentable
func UserMessage(err error, fallback string) string {
	var be *Error
	if !errors.As(err, &be) {
		return fallback
	}
	switch be.Kind {
	case KindRejected:
		if be.Generic || be.Message == "" {
			return fallback
		}
		return be.Message
	case KindTimeout:
		return "The server took too long to respond. Please try again."
	case KindUnavailable:
		return "The server is unavailable. Please try again later."
	default:
		return fallback
	}
}

// genericMessage is used when a rejected response carries no message.
func genericMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "request failed"
}
