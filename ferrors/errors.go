// Package ferrors enumerates the error taxonomy of spec.md §7 as
// sentinel-comparable kinds, in the same style the teacher uses
// database.ErrNotFound: plain values wrapped with github.com/pkg/errors at
// the call site so both the kind and the causal chain survive.
package ferrors

import "github.com/pkg/errors"

// Kind classifies a failure the way the request pipeline and background
// tasks need to react to it, independent of the underlying cause.
type Kind int

const (
	// KindTransport means the node was unreachable or the TCP layer failed.
	KindTransport Kind = iota
	// KindBadStatus means the node responded with a non-200, non-404 status,
	// including a 503 that persists after the client's one retry.
	KindBadStatus
	// KindDecode means JSON or binary deserialization of a node response failed.
	KindDecode
	// KindNotFound means the resource does not exist in the node's chain state.
	KindNotFound
	// KindWrongNetwork means the node reports a different chain than configured.
	KindWrongNetwork
	// KindGenesisTx is synthetic: the genesis coinbase is handled locally.
	KindGenesisTx
	// KindInvalidPage means a page number was out of range.
	KindInvalidPage
	// KindBadRequest means the caller's request was malformed.
	KindBadRequest
	// KindIO means a persistent-store operation failed.
	KindIO
	// KindRestDisabled means chain-info 404s, indicating the node's REST interface is off.
	KindRestDisabled
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindBadStatus:
		return "bad-status"
	case KindDecode:
		return "decode"
	case KindNotFound:
		return "not-found"
	case KindWrongNetwork:
		return "wrong-network"
	case KindGenesisTx:
		return "genesis-tx"
	case KindInvalidPage:
		return "invalid-page"
	case KindBadRequest:
		return "bad-request"
	case KindIO:
		return "io"
	case KindRestDisabled:
		return "rest-disabled"
	default:
		return "unknown"
	}
}

// Error is a kind-tagged error. Background tasks and the pipeline switch on
// Kind; humans get the wrapped message via Error().
type Error struct {
	Kind       Kind
	StatusCode int // populated for KindBadStatus
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Kind.String() + ": " + e.cause.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a kind-tagged error wrapping cause with a formatted message,
// mirroring errors.Wrapf's call shape.
func New(kind Kind, cause error, format string, args ...interface{}) *Error {
	if cause == nil {
		return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
	}
	return &Error{Kind: kind, cause: errors.Wrapf(cause, format, args...)}
}

// NewBadStatus builds a KindBadStatus error carrying the HTTP status code.
func NewBadStatus(code int, context string) *Error {
	return &Error{Kind: KindBadStatus, StatusCode: code, cause: errors.Errorf("%s: unexpected status %d", context, code)}
}

// Is reports whether err (or anything it wraps) is a *Error of kind k.
func Is(err error, k Kind) bool {
	var fe *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			fe = e
			break
		}
		err = errors.Unwrap(err)
	}
	return fe != nil && fe.Kind == k
}
