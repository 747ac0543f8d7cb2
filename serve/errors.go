// Package serve implements the producer/consumer pipeline shared by every
// publisher and subscriber: Broadcast, Track, Group, Subgroup, and Object
// handles split into Writer/Reader pairs connected by package watch's
// State and Queue primitives. None of this package knows about QUIC,
// WebTransport, or control messages; package session wires it to the wire.
package serve

import "fmt"

// Error classifies why a serve-pipeline handle closed, distinct from
// transport or codec failures (see package session for those). Code
// returns the SUBSCRIBE_DONE / SUBSCRIBE_ERROR status code a publisher
// reports to its peer for this failure.
type Error struct {
	Kind   ErrorKind
	Reason string
}

// ErrorKind enumerates the ways a serve-pipeline handle can close.
type ErrorKind int

const (
	// ErrNotFound means a Reader requested a track the Writer will never
	// produce.
	ErrNotFound ErrorKind = iota
	// ErrDuplicate means a Track, Group, or Subgroup was created twice
	// where the pipeline requires uniqueness.
	ErrDuplicate
	// ErrMode means a Track's delivery mode was already bound to a
	// different mode than the one now requested.
	ErrMode
	// ErrCancel means a Reader or Writer stopped early without a specific
	// reason (e.g. the peer sent UNSUBSCRIBE).
	ErrCancel
	// ErrDone means the handle finished normally; no payload follows.
	ErrDone
	// ErrClosed means the handle was explicitly closed by its owner.
	ErrClosed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotFound:
		return "not found"
	case ErrDuplicate:
		return "duplicate"
	case ErrMode:
		return "wrong track mode"
	case ErrCancel:
		return "cancelled"
	case ErrDone:
		return "done"
	case ErrClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// NewError returns a *Error of the given kind with reason as its message.
func NewError(kind ErrorKind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("serve: %s", e.Kind)
	}
	return fmt.Sprintf("serve: %s: %s", e.Kind, e.Reason)
}

// Code maps an Error to the numeric status code carried on SUBSCRIBE_DONE
// or SUBSCRIBE_ERROR.
func (e *Error) Code() uint64 {
	switch e.Kind {
	case ErrNotFound:
		return 404
	case ErrDuplicate:
		return 409
	case ErrMode:
		return 400
	case ErrCancel:
		return 499
	case ErrDone:
		return 0
	case ErrClosed:
		return 500
	default:
		return 500
	}
}

// Is supports errors.Is(err, serve.NewError(kind, "")) comparisons by Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}
