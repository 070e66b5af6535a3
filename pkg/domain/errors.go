package domain

import (
	"errors"
	"fmt"
)

// Kind is a stable error code surfaced to adapters. HTTP status mapping is
// the adapter's concern; the core only decides the kind.
type Kind string

const (
	KindInvalidInput      Kind = "InvalidInput"
	KindNotFound          Kind = "NotFound"
	KindStoreUnavailable  Kind = "StoreUnavailable"
	KindMalformedKey      Kind = "MalformedKey"
	KindNoPath            Kind = "NoPath"
	KindPostUpsertMissing Kind = "PostUpsertMissing"
	KindTimeout           Kind = "Timeout"
	KindReconcilerPartial Kind = "ReconcilerPartial"
)

// Error carries a Kind plus a human-readable message and an optional cause.
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

func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err, unwrapping as needed. Unknown errors
// report as StoreUnavailable, the only kind the core cannot classify better.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStoreUnavailable
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
