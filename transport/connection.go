package transport

import (
	"context"
	"io"
)

// SendStream is the write half of a unidirectional or bidirectional stream.
type SendStream interface {
	io.Writer
	io.Closer
	// SetPriority orders this stream against others on the same connection;
	// lower values are sent first. Mirrors quic.SendStream.SetPriority.
	SetPriority(priority int)
	CancelWrite(code uint64)
}

// ReceiveStream is the read half of a unidirectional or bidirectional stream.
type ReceiveStream interface {
	io.Reader
	CancelRead(code uint64)
}

// Stream is a bidirectional stream, used for the control channel.
type Stream interface {
	SendStream
	ReceiveStream
}

// Connection abstracts a single peer session, whether it arrived as a raw
// QUIC connection or as an upgraded WebTransport session. session.Session
// is built entirely against this interface and never imports quic-go or
// webtransport-go directly.
type Connection interface {
	// AcceptStream blocks until the peer opens a new bidirectional stream.
	// The control stream is always the first one exchanged after setup.
	AcceptStream(ctx context.Context) (Stream, error)
	// OpenStream opens a new bidirectional stream to the peer, blocking if
	// the peer's flow-control limits require it.
	OpenStream(ctx context.Context) (Stream, error)

	// AcceptUniStream blocks until the peer opens a new unidirectional
	// stream, used for Subgroup, Fetch and legacy Track data streams.
	AcceptUniStream(ctx context.Context) (ReceiveStream, error)
	// OpenUniStream opens a new unidirectional stream to the peer.
	OpenUniStream(ctx context.Context) (SendStream, error)

	// SendDatagram sends one unreliable datagram, used for the Datagram
	// track delivery mode.
	SendDatagram(payload []byte) error
	// ReceiveDatagram blocks until a datagram arrives.
	ReceiveDatagram(ctx context.Context) ([]byte, error)

	// CloseWithError tears down the connection, notifying the peer of the
	// application error code and reason.
	CloseWithError(code uint64, reason string) error

	// Context is canceled when the connection closes, for any reason.
	Context() context.Context
}
