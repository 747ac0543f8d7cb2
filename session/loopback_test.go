package session

import (
	"context"
	"fmt"
	"io"

	"github.com/coaxial-labs/moqtransport/transport"
)

// pipeStream is a transport.Stream backed by a pair of io.Pipes, one per
// direction, so two fakeConns can exchange a framed control stream without
// any real network or QUIC dependency.
type pipeStream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p pipeStream) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipeStream) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p pipeStream) Close() error                { return p.w.Close() }
func (p pipeStream) SetPriority(int)             {}
func (p pipeStream) CancelWrite(uint64)          { _ = p.w.CloseWithError(io.ErrClosedPipe) }
func (p pipeStream) CancelRead(uint64)           { _ = p.r.CloseWithError(io.ErrClosedPipe) }

func newStreamPair() (a, b pipeStream) {
	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()
	return pipeStream{r: r2, w: w1}, pipeStream{r: r1, w: w2}
}

type pipeSendStream struct{ w *io.PipeWriter }

func (p pipeSendStream) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p pipeSendStream) Close() error                { return p.w.Close() }
func (p pipeSendStream) SetPriority(int)             {}
func (p pipeSendStream) CancelWrite(uint64)          { _ = p.w.CloseWithError(io.ErrClosedPipe) }

type pipeRecvStream struct{ r *io.PipeReader }

func (p pipeRecvStream) Read(b []byte) (int, error) { return p.r.Read(b) }
func (p pipeRecvStream) CancelRead(uint64)          { _ = p.r.CloseWithError(io.ErrClosedPipe) }

// fakeConn is a loopback transport.Connection. Two of them, built in a
// pair by newFakeConnPair, stand in for the two ends of a QUIC or
// WebTransport connection in tests: OpenStream/OpenUniStream on one side
// deliver to AcceptStream/AcceptUniStream on the other, and datagrams
// cross the same way.
type fakeConn struct {
	peer *fakeConn

	streamCh chan transport.Stream
	uniCh    chan transport.ReceiveStream
	dgCh     chan []byte

	ctx    context.Context
	cancel context.CancelFunc
}

func newFakeConnPair() (*fakeConn, *fakeConn) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &fakeConn{
		streamCh: make(chan transport.Stream, 1),
		uniCh:    make(chan transport.ReceiveStream, 64),
		dgCh:     make(chan []byte, 64),
		ctx:      ctx, cancel: cancel,
	}
	b := &fakeConn{
		streamCh: make(chan transport.Stream, 1),
		uniCh:    make(chan transport.ReceiveStream, 64),
		dgCh:     make(chan []byte, 64),
		ctx:      ctx, cancel: cancel,
	}
	a.peer, b.peer = b, a
	return a, b
}

func (c *fakeConn) OpenStream(ctx context.Context) (transport.Stream, error) {
	a, b := newStreamPair()
	c.peer.streamCh <- b
	return a, nil
}

func (c *fakeConn) AcceptStream(ctx context.Context) (transport.Stream, error) {
	select {
	case s := <-c.streamCh:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

func (c *fakeConn) OpenUniStream(ctx context.Context) (transport.SendStream, error) {
	r, w := io.Pipe()
	c.peer.uniCh <- pipeRecvStream{r: r}
	return pipeSendStream{w: w}, nil
}

func (c *fakeConn) AcceptUniStream(ctx context.Context) (transport.ReceiveStream, error) {
	select {
	case s := <-c.uniCh:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

func (c *fakeConn) SendDatagram(payload []byte) error {
	buf := append([]byte(nil), payload...)
	select {
	case c.peer.dgCh <- buf:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

func (c *fakeConn) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	select {
	case d := <-c.dgCh:
		return d, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

func (c *fakeConn) CloseWithError(code uint64, reason string) error {
	c.cancel()
	return nil
}

func (c *fakeConn) Context() context.Context { return c.ctx }

var _ transport.Connection = (*fakeConn)(nil)

// newLoopbackSessions builds and handshakes a client/server Session pair
// wired together by an in-memory fakeConn pair, ready for Run. cfgA backs
// the client (first return value), cfgB the server.
func newLoopbackSessions(ctx context.Context, cfgA, cfgB Config) (client, server *Session, err error) {
	connA, connB := newFakeConnPair()

	type setupResult struct {
		sess *Session
		err  error
	}
	serverCh := make(chan setupResult, 1)
	go func() {
		s := newSession(connB, false, cfgB)
		err := s.serverSetup(ctx)
		serverCh <- setupResult{s, err}
	}()

	c := newSession(connA, true, cfgA)
	if err := c.clientSetup(ctx); err != nil {
		return nil, nil, fmt.Errorf("client setup: %w", err)
	}
	res := <-serverCh
	if res.err != nil {
		return nil, nil, fmt.Errorf("server setup: %w", res.err)
	}
	return c, res.sess, nil
}
