// Package errs defines the sentinel error kinds shared across the scheduling
// engine. The HTTP facade maps these to the wire-level {success:false,error}
// shape; internally they carry enough detail to log but never leak past the
// boundary except as the one-line message attached to the sentinel.
package errs

import "errors"

// Kind classifies an error for the purposes of boundary mapping and metrics.
type Kind string

const (
	KindInvalidInput           Kind = "InvalidInput"
	KindInvalidTime            Kind = "InvalidTime"
	KindInvalidCron            Kind = "InvalidCron"
	KindUrlRejected            Kind = "UrlRejected"
	KindPayloadTooLarge        Kind = "PayloadTooLarge"
	KindPayloadInvalid         Kind = "PayloadInvalid"
	KindTooManyActive          Kind = "TooManyActive"
	KindNotFound               Kind = "NotFound"
	KindIllegalStateTransition Kind = "IllegalStateTransition"
	KindRateLimited            Kind = "RateLimited"
	KindTimeout                Kind = "Timeout"
	KindCallbackFailure        Kind = "CallbackFailure"
	KindStoreError             Kind = "StoreError"
)

// Error is a classified, user-facing error. The Message field is always safe
// to return to a caller; Cause (if set) is logged internally but never
// serialized.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a classified error with a caller-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an internal error, keeping the original for logging while
// exposing a generic, safe message at the boundary.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// As is a thin re-export of errors.As for callers that don't want to import
// both packages just to unwrap a *Error.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

// KindOf extracts the Kind of a classified error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
