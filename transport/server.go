package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"
)

// ALPN is the application protocol negotiated for raw QUIC MoQ Transport
// connections, per draft-ietf-moq-transport.
const ALPN = "moq-00"

// ServerConfig configures a Server. Either QUICAddr, WebTransportAddr, or
// both may be set; a zero-value address disables that listener.
type ServerConfig struct {
	QUICAddr         string
	WebTransportAddr string
	WebTransportPath string
	Cert             tls.Certificate
	Logger           *slog.Logger
}

// Server accepts inbound MoQ Transport connections over raw QUIC and/or
// WebTransport, handing each back through Accept as a single Connection
// regardless of which transport it arrived on.
type Server struct {
	cfg      ServerConfig
	log      *slog.Logger
	conns    chan Connection
	errs     chan error
	quicLn   *quic.Listener
	wtServer *webtransport.Server
}

// NewServer prepares a Server but does not yet listen; call Run to start
// accepting connections.
func NewServer(cfg ServerConfig) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.WebTransportPath == "" {
		cfg.WebTransportPath = "/moq"
	}
	return &Server{
		cfg:  cfg,
		log:  log.With("component", "transport.Server"),
		conns: make(chan Connection, 16),
		errs:  make(chan error, 2),
	}
}

// Run starts whichever listeners are configured and blocks until ctx is
// canceled. A listener that fails after starting reports its error through
// Accept.
func (s *Server) Run(ctx context.Context) error {
	started := 0

	if s.cfg.QUICAddr != "" {
		ln, err := quic.ListenAddr(s.cfg.QUICAddr, &tls.Config{
			Certificates: []tls.Certificate{s.cfg.Cert},
			NextProtos:   []string{ALPN},
		}, &quic.Config{EnableDatagrams: true})
		if err != nil {
			return fmt.Errorf("transport: listen quic: %w", err)
		}
		s.quicLn = ln
		started++
		go s.acceptQUIC(ctx)
	}

	if s.cfg.WebTransportAddr != "" {
		mux := http.NewServeMux()
		wt := &webtransport.Server{
			H3: http3.Server{
				Addr:      s.cfg.WebTransportAddr,
				TLSConfig: &tls.Config{Certificates: []tls.Certificate{s.cfg.Cert}},
				Handler:   mux,
			},
			CheckOrigin: func(r *http.Request) bool { return true },
		}
		s.wtServer = wt
		mux.HandleFunc(s.cfg.WebTransportPath, s.handleUpgrade)
		started++
		go s.acceptWebTransport(ctx)
	}

	if started == 0 {
		return fmt.Errorf("transport: no listener addresses configured")
	}

	<-ctx.Done()
	s.Close()
	return ctx.Err()
}

// Accept blocks until a new Connection arrives from either listener, or ctx
// is canceled.
func (s *Server) Accept(ctx context.Context) (Connection, error) {
	select {
	case c := <-s.conns:
		return c, nil
	case err := <-s.errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close tears down whichever listeners were started.
func (s *Server) Close() {
	if s.quicLn != nil {
		_ = s.quicLn.Close()
	}
	if s.wtServer != nil {
		_ = s.wtServer.Close()
	}
}

func (s *Server) acceptQUIC(ctx context.Context) {
	for {
		conn, err := s.quicLn.Accept(ctx)
		if err != nil {
			select {
			case s.errs <- fmt.Errorf("transport: quic accept: %w", err):
			case <-ctx.Done():
			}
			return
		}
		s.log.Debug("accepted raw quic connection", "remote", conn.RemoteAddr())
		select {
		case s.conns <- NewQUICConnection(conn):
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) acceptWebTransport(ctx context.Context) {
	if err := s.wtServer.H3.ListenAndServeTLS("", ""); err != nil {
		select {
		case s.errs <- fmt.Errorf("transport: webtransport serve: %w", err):
		case <-ctx.Done():
		}
	}
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	session, err := s.wtServer.Upgrade(w, r)
	if err != nil {
		s.log.Warn("webtransport upgrade failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.log.Debug("accepted webtransport session", "remote", r.RemoteAddr)
	select {
	case s.conns <- NewWebTransportConnection(session):
	case <-r.Context().Done():
	}
}
