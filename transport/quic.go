package transport

import (
	"context"

	"github.com/quic-go/quic-go"
)

// quicConnection adapts a raw QUIC connection to Connection.
type quicConnection struct {
	conn *quic.Conn
}

// NewQUICConnection wraps an established raw QUIC connection, used for the
// `moqt://` URL scheme which skips the WebTransport/HTTP3 upgrade.
func NewQUICConnection(conn *quic.Conn) Connection {
	return &quicConnection{conn: conn}
}

func (c *quicConnection) AcceptStream(ctx context.Context) (Stream, error) {
	s, err := c.conn.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return quicStream{s}, nil
}

func (c *quicConnection) OpenStream(ctx context.Context) (Stream, error) {
	s, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return quicStream{s}, nil
}

func (c *quicConnection) AcceptUniStream(ctx context.Context) (ReceiveStream, error) {
	s, err := c.conn.AcceptUniStream(ctx)
	if err != nil {
		return nil, err
	}
	return quicReceiveStream{s}, nil
}

func (c *quicConnection) OpenUniStream(ctx context.Context) (SendStream, error) {
	s, err := c.conn.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return quicSendStream{s}, nil
}

func (c *quicConnection) SendDatagram(payload []byte) error {
	return c.conn.SendDatagram(payload)
}

func (c *quicConnection) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	return c.conn.ReceiveDatagram(ctx)
}

func (c *quicConnection) CloseWithError(code uint64, reason string) error {
	return c.conn.CloseWithError(quic.ApplicationErrorCode(code), reason)
}

func (c *quicConnection) Context() context.Context {
	return c.conn.Context()
}

// quicSendStream adapts *quic.SendStream to SendStream.
type quicSendStream struct {
	*quic.SendStream
}

func (s quicSendStream) SetPriority(priority int) {
	s.SendStream.SetPriority(priority)
}

func (s quicSendStream) CancelWrite(code uint64) {
	s.SendStream.CancelWrite(quic.StreamErrorCode(code))
}

// quicReceiveStream adapts *quic.ReceiveStream to ReceiveStream.
type quicReceiveStream struct {
	*quic.ReceiveStream
}

func (s quicReceiveStream) CancelRead(code uint64) {
	s.ReceiveStream.CancelRead(quic.StreamErrorCode(code))
}

// quicStream adapts *quic.Stream to Stream, combining both halves.
type quicStream struct {
	*quic.Stream
}

func (s quicStream) SetPriority(priority int) {
	s.Stream.SetPriority(priority)
}

func (s quicStream) CancelWrite(code uint64) {
	s.Stream.CancelWrite(quic.StreamErrorCode(code))
}

func (s quicStream) CancelRead(code uint64) {
	s.Stream.CancelRead(quic.StreamErrorCode(code))
}
