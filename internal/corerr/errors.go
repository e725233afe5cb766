// Package corerr defines the error kind taxonomy shared across the pipeline
// core, so callers can recover the kind with errors.As regardless of which
// package raised it.
package corerr

import "fmt"

// Kind tags an error with the stage of the pipeline that raised it.
type Kind string

const (
	KindConfigShape       Kind = "config_shape"
	KindConfigResolve     Kind = "config_resolve"
	KindConfigType        Kind = "config_type"
	KindConfigCycle       Kind = "config_cycle"
	KindConfigResource    Kind = "config_resource"
	KindBuildHealthcheck  Kind = "build_healthcheck"
	KindBufferIO          Kind = "buffer_io"
	KindBufferCorruption  Kind = "buffer_corruption"
	KindEnrichmentPhase   Kind = "enrichment_phase"
	KindEnrichmentLookup  Kind = "enrichment_lookup"
	KindShutdown          Kind = "shutdown"
)

// Error is the concrete error type carrying a Kind plus a message and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind wrapping cause, with a formatted
// message.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err, or an error it wraps, is an *Error of kind k
// (e.g. corerr.KindBufferIO.Is(err)), for convenience in tests.
func (k Kind) Is(err error) bool {
	var e *Error
	return AsKind(err, &e) && e.Kind == k
}

// AsKind is a small errors.As helper kept local to avoid importing "errors"
// in every call site that only wants the Kind.
func AsKind(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
