package transport

import (
	"context"

	"github.com/quic-go/webtransport-go"
)

// webtransportConnection adapts a WebTransport session to Connection.
type webtransportConnection struct {
	session *webtransport.Session
}

// NewWebTransportConnection wraps a session handed back by
// (*webtransport.Server).Upgrade or webtransport.Dial, used for the
// `https://` URL scheme.
func NewWebTransportConnection(session *webtransport.Session) Connection {
	return &webtransportConnection{session: session}
}

func (c *webtransportConnection) AcceptStream(ctx context.Context) (Stream, error) {
	s, err := c.session.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return webtransportStream{s}, nil
}

func (c *webtransportConnection) OpenStream(ctx context.Context) (Stream, error) {
	s, err := c.session.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return webtransportStream{s}, nil
}

func (c *webtransportConnection) AcceptUniStream(ctx context.Context) (ReceiveStream, error) {
	s, err := c.session.AcceptUniStream(ctx)
	if err != nil {
		return nil, err
	}
	return webtransportReceiveStream{s}, nil
}

func (c *webtransportConnection) OpenUniStream(ctx context.Context) (SendStream, error) {
	s, err := c.session.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return webtransportSendStream{s}, nil
}

func (c *webtransportConnection) SendDatagram(payload []byte) error {
	return c.session.SendDatagram(payload)
}

func (c *webtransportConnection) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	return c.session.ReceiveDatagram(ctx)
}

func (c *webtransportConnection) CloseWithError(code uint64, reason string) error {
	return c.session.CloseWithError(webtransport.SessionErrorCode(code), reason)
}

func (c *webtransportConnection) Context() context.Context {
	return c.session.Context()
}

// webtransportSendStream adapts webtransport.SendStream to SendStream.
// The underlying library does not expose send-stream prioritization, so
// SetPriority is a no-op here; relay and session logic should not depend
// on it actually reordering WebTransport traffic.
type webtransportSendStream struct {
	webtransport.SendStream
}

func (s webtransportSendStream) SetPriority(priority int) {}

func (s webtransportSendStream) CancelWrite(code uint64) {
	s.SendStream.CancelWrite(webtransport.StreamErrorCode(code))
}

// webtransportReceiveStream adapts webtransport.ReceiveStream to ReceiveStream.
type webtransportReceiveStream struct {
	webtransport.ReceiveStream
}

func (s webtransportReceiveStream) CancelRead(code uint64) {
	s.ReceiveStream.CancelRead(webtransport.StreamErrorCode(code))
}

// webtransportStream adapts webtransport.Stream to Stream.
type webtransportStream struct {
	webtransport.Stream
}

func (s webtransportStream) SetPriority(priority int) {}

func (s webtransportStream) CancelWrite(code uint64) {
	s.Stream.CancelWrite(webtransport.StreamErrorCode(code))
}

func (s webtransportStream) CancelRead(code uint64) {
	s.Stream.CancelRead(webtransport.StreamErrorCode(code))
}
