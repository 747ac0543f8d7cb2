package session

import (
	"errors"
	"fmt"

	"github.com/coaxial-labs/moqtransport/serve"
)

// errCodeProtocolViolation is the stream error code used to reset a data
// stream that sent a header or object we couldn't parse, and the
// connection-level code used to close a session whose control stream sent
// something we couldn't decode.
const errCodeProtocolViolation uint64 = 0x1

// errCodeBadRequest is the code sent for a structurally well-formed but
// semantically invalid request, such as a Subscribe naming a filter type
// we don't recognize.
const errCodeBadRequest uint64 = 400

// errCodeNotFound is the code sent when a session has no local TrackSource
// at all to resolve a peer's Subscribe/Fetch against.
var errCodeNotFound = serve.NewError(serve.ErrNotFound, "").Code()

// SessionError wraps a control-plane failure with the request it came
// from and the numeric code it should be reported under on the wire.
// handlePeerSubscribe, handlePeerFetch, and servePublisherTrack each
// compose their SubscribeError/FetchError/SubscribeDone reply from one of
// these rather than formatting err.Error() directly.
type SessionError struct {
	Op   string
	code uint64
	Err  error
}

// newSessionError wraps err for op, taking its numeric code from err's
// *serve.Error if it wraps one, or a generic closed/protocol code
// otherwise.
func newSessionError(op string, err error) *SessionError {
	var se *serve.Error
	if errors.As(err, &se) {
		return &SessionError{Op: op, code: se.Code(), Err: err}
	}
	return &SessionError{Op: op, code: serve.NewError(serve.ErrClosed, "").Code(), Err: err}
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session: %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// Code returns the numeric status this error is reported under on
// SubscribeError, FetchError, or SubscribeDone.
func (e *SessionError) Code() uint64 { return e.code }
