// Package session drives one MoQ Transport connection end to end: the
// setup handshake, the control-message dispatch loop, and the data-stream
// and datagram demultiplexing that feeds serve.TrackWriter/TrackReader
// pairs. It is built entirely against the transport package's Connection
// interface, so it runs identically over raw QUIC and WebTransport.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/serve"
	"github.com/coaxial-labs/moqtransport/transport"
)

// TrackSource resolves a (namespace, name) pair to a live track, serving
// SUBSCRIBE and FETCH requests the peer sends us. A relay's Locals/Remotes
// router and a simple in-process broadcast map both satisfy it.
type TrackSource interface {
	Subscribe(ctx context.Context, namespace moq.Tuple, name string) (*serve.TrackReader, error)
}

// Session manages one MoQ Transport connection, in either the client or
// server role. Use Dial or Accept to perform the setup handshake, then
// Run to start the control loop.
type Session struct {
	conn     transport.Connection
	isClient bool
	log      *slog.Logger

	control       transport.Stream
	controlReader *bufio.Reader
	writeMu       sync.Mutex

	local TrackSource

	nextID atomic.Uint64

	subMu      sync.Mutex
	subscribes map[uint64]*outgoingSubscribe
	fetches    map[uint64]*outgoingFetch
	announces  map[string]*outgoingAnnounce

	pubMu    sync.Mutex
	serving  map[uint64]*servingSubscribe // keyed by the peer's Subscribe.ID
	fetching map[uint64]*servingFetch

	trackAliasMu sync.Mutex
	byAlias      map[uint64]*incomingTrack // incoming data demuxed by track alias

	onAnnounce   func(namespace moq.Tuple, source TrackSource)
	onUnannounce func(namespace moq.Tuple)
}

// Config configures a new Session.
type Config struct {
	// Local resolves incoming Subscribe/Fetch requests against locally
	// published broadcasts. May be nil for a subscribe-only client.
	Local TrackSource
	Log   *slog.Logger

	// OnAnnounce is called when the peer announces a namespace, with the
	// Session itself passed as source — it satisfies TrackSource, so a
	// relay can register it as the route for that namespace's future
	// Subscribe/Fetch traffic without knowing anything about this peer
	// beyond its namespace.
	OnAnnounce func(namespace moq.Tuple, source TrackSource)
	// OnUnannounce is called when the peer withdraws a namespace it
	// previously announced.
	OnUnannounce func(namespace moq.Tuple)
}

func newSession(conn transport.Connection, isClient bool, cfg Config) *Session {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		conn:       conn,
		isClient:   isClient,
		log:        log.With("component", "session.Session", "client", isClient),
		local:      cfg.Local,
		subscribes: make(map[uint64]*outgoingSubscribe),
		fetches:    make(map[uint64]*outgoingFetch),
		announces:  make(map[string]*outgoingAnnounce),
		serving:    make(map[uint64]*servingSubscribe),
		fetching:   make(map[uint64]*servingFetch),
		byAlias:    make(map[uint64]*incomingTrack),

		onAnnounce:   cfg.OnAnnounce,
		onUnannounce: cfg.OnUnannounce,
	}
}

// Dial connects to url and performs the client side of the setup
// handshake. insecureSkipVerify should stay false outside development.
func Dial(ctx context.Context, url string, insecureSkipVerify bool, cfg Config) (*Session, error) {
	conn, err := transport.Dial(ctx, url, insecureSkipVerify)
	if err != nil {
		return nil, fmt.Errorf("session: dial: %w", err)
	}
	s := newSession(conn, true, cfg)
	if err := s.clientSetup(ctx); err != nil {
		_ = conn.CloseWithError(0, err.Error())
		return nil, err
	}
	return s, nil
}

// Accept takes an already-established Connection (from transport.Server)
// and performs the server side of the setup handshake.
func Accept(ctx context.Context, conn transport.Connection, cfg Config) (*Session, error) {
	s := newSession(conn, false, cfg)
	if err := s.serverSetup(ctx); err != nil {
		_ = conn.CloseWithError(0, err.Error())
		return nil, err
	}
	return s, nil
}

func (s *Session) clientSetup(ctx context.Context) error {
	stream, err := s.conn.OpenStream(ctx)
	if err != nil {
		return fmt.Errorf("session: open control stream: %w", err)
	}
	s.control = stream
	s.controlReader = bufio.NewReader(stream)

	hello := moq.EncodeClientSetup(moq.ClientSetup{
		Versions: []uint64{moq.Version},
	})
	if _, err := stream.Write(hello); err != nil {
		return fmt.Errorf("session: write CLIENT_SETUP: %w", err)
	}

	data, err := readFramedMessage(s.controlReader, moq.MsgServerSetup)
	if err != nil {
		return fmt.Errorf("session: read SERVER_SETUP: %w", err)
	}
	ss, err := moq.DecodeServerSetup(data)
	if err != nil {
		return fmt.Errorf("session: decode SERVER_SETUP: %w", err)
	}
	if ss.SelectedVersion != moq.Version {
		return fmt.Errorf("session: %w: server selected 0x%x", moq.ErrVersionMismatch, ss.SelectedVersion)
	}
	return nil
}

func (s *Session) serverSetup(ctx context.Context) error {
	stream, err := s.conn.AcceptStream(ctx)
	if err != nil {
		return fmt.Errorf("session: accept control stream: %w", err)
	}
	s.control = stream
	s.controlReader = bufio.NewReader(stream)

	data, err := readFramedMessage(s.controlReader, moq.MsgClientSetup)
	if err != nil {
		return fmt.Errorf("session: read CLIENT_SETUP: %w", err)
	}
	cs, err := moq.DecodeClientSetup(data)
	if err != nil {
		return fmt.Errorf("session: decode CLIENT_SETUP: %w", err)
	}
	if !cs.SupportsVersion(moq.Version) {
		return fmt.Errorf("session: %w: client offered %v", moq.ErrVersionMismatch, cs.Versions)
	}

	reply := moq.EncodeServerSetup(moq.ServerSetup{SelectedVersion: moq.Version})
	if _, err := stream.Write(reply); err != nil {
		return fmt.Errorf("session: write SERVER_SETUP: %w", err)
	}
	return nil
}

// readFramedMessage reads one [type][length][payload] record from r and
// re-frames it for moq.Decode*Setup, which expects the tag and length
// inline. want is only used for a clearer error on mismatch; decoding
// still validates the tag itself.
func readFramedMessage(r *bufio.Reader, want uint64) ([]byte, error) {
	typ, payload, err := moq.ReadControlMessage(r)
	if err != nil {
		return nil, err
	}
	if typ != want {
		return nil, fmt.Errorf("expected message type 0x%x, got 0x%x", want, typ)
	}
	var buf []byte
	buf = moq.AppendVarint(buf, typ)
	buf = moq.AppendVarint(buf, uint64(len(payload)))
	return append(buf, payload...), nil
}

// Run starts the control loop and the inbound data-stream/datagram
// listeners, blocking until ctx is canceled or any of them fails. A
// genuine failure (as opposed to ctx cancellation) closes the underlying
// connection with a protocol-error code, per the control stream's
// fail-fast contract: a codec error anywhere is fatal to the session.
func (s *Session) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.readControlLoop(gctx) })
	g.Go(func() error { return s.acceptDataStreams(gctx) })
	g.Go(func() error { return s.acceptDatagrams(gctx) })

	err := g.Wait()
	if err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		_ = s.conn.CloseWithError(errCodeProtocolViolation, err.Error())
	}
	return err
}

func (s *Session) writeControl(msgType uint64, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return moq.WriteControlMessage(s.control, msgType, payload)
}

func (s *Session) allocID() uint64 {
	return s.nextID.Add(1) - 1
}
