// Command moqd is a MoQ Transport relay and origin server. It accepts
// connections over raw QUIC and WebTransport, serves locally announced
// broadcasts, and forwards Subscribe/Fetch traffic between connected peers
// via relay.Producer. Configured upstream origins are dialed lazily on
// first miss.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coaxial-labs/moqtransport/internal/certs"
	"github.com/coaxial-labs/moqtransport/relay"
	"github.com/coaxial-labs/moqtransport/session"
	"github.com/coaxial-labs/moqtransport/transport"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("generating self-signed certificate")
	cert, err := certs.Generate(14 * 24 * time.Hour)
	if err != nil {
		slog.Error("failed to generate cert", "error", err)
		os.Exit(1)
	}
	slog.Info("certificate generated",
		"fingerprint", cert.FingerprintBase64(),
		"expires", cert.NotAfter.Format(time.RFC3339),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	quicAddr := envOr("QUIC_ADDR", ":4443")
	wtAddr := envOr("WT_ADDR", ":4444")
	wtPath := envOr("WT_PATH", "/moq")

	var remote relay.Remote
	if origins := parseOrigins(envOr("ORIGINS", "")); len(origins) > 0 {
		remote = relay.NewOrigins(origins, os.Getenv("ORIGINS_INSECURE") != "")
		slog.Info("configured upstream origins", "count", len(origins))
	}

	producer := relay.NewProducer(slog.Default(), remote, 32)

	srv := transport.NewServer(transport.ServerConfig{
		QUICAddr:         quicAddr,
		WebTransportAddr: wtAddr,
		WebTransportPath: wtPath,
		Cert:             cert.TLSCert,
	})

	slog.Info("moqd starting",
		"version", version,
		"quic", quicAddr,
		"webtransport", wtAddr,
		"cert_hash", cert.FingerprintBase64(),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(ctx)
	})

	g.Go(func() error {
		for {
			conn, err := srv.Accept(ctx)
			if err != nil {
				return err
			}
			go acceptConnection(ctx, conn, producer)
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func acceptConnection(ctx context.Context, conn transport.Connection, producer *relay.Producer) {
	log := slog.With("component", "moqd")

	sess, err := session.Accept(ctx, conn, session.Config{
		Local:        producer,
		Log:          slog.Default(),
		OnAnnounce:   producer.Announce,
		OnUnannounce: producer.Withdraw,
	})
	if err != nil {
		log.Warn("setup handshake failed", "error", err)
		return
	}
	log.Info("session established")

	if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
		log.Info("session ended", "error", err)
	}
}

// parseOrigins parses a comma-separated list of prefix=url pairs, e.g.
// "demo=moqt://origin1:4443,live=https://origin2:4444/moq".
func parseOrigins(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
