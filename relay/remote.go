package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/serve"
	"github.com/coaxial-labs/moqtransport/session"
)

// dialer is the subset of session.Dial this package needs, so tests can
// substitute a fake without dialing real QUIC.
type dialer func(ctx context.Context, url string, insecureSkipVerify bool, cfg session.Config) (*session.Session, error)

// Origins maps a namespace's leading tuple field (e.g. "demo" in
// "demo/bbb") to the URL of the upstream MoQ server that owns it, and
// implements Remote by dialing and reusing one Session per origin URL.
type Origins struct {
	dial     dialer
	insecure bool
	byPrefix map[string]string

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// NewOrigins builds an Origins router. byPrefix maps a namespace's first
// tuple field to an upstream server URL (moqt://host:port or
// https://host:port/path).
func NewOrigins(byPrefix map[string]string, insecureSkipVerify bool) *Origins {
	return &Origins{
		dial:     session.Dial,
		insecure: insecureSkipVerify,
		byPrefix: byPrefix,
		sessions: make(map[string]*session.Session),
	}
}

// Resolve implements Remote.
func (o *Origins) Resolve(ctx context.Context, namespace moq.Tuple, name string) (*serve.TrackReader, error) {
	if len(namespace) == 0 {
		return nil, serve.NewError(serve.ErrNotFound, "empty namespace has no origin")
	}
	url, ok := o.byPrefix[string(namespace[0])]
	if !ok {
		return nil, serve.NewError(serve.ErrNotFound, fmt.Sprintf("no origin configured for %q", namespace[0]))
	}

	sess, err := o.sessionFor(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("relay: dial origin %s: %w", url, err)
	}

	return sess.Subscribe(ctx, namespace, name)
}

func (o *Origins) sessionFor(ctx context.Context, url string) (*session.Session, error) {
	o.mu.Lock()
	if s, ok := o.sessions[url]; ok {
		o.mu.Unlock()
		return s, nil
	}
	o.mu.Unlock()

	s, err := o.dial(ctx, url, o.insecure, session.Config{})
	if err != nil {
		return nil, err
	}
	go func() {
		_ = s.Run(context.Background())
		o.mu.Lock()
		delete(o.sessions, url)
		o.mu.Unlock()
	}()

	o.mu.Lock()
	o.sessions[url] = s
	o.mu.Unlock()
	return s, nil
}
