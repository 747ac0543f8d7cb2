// Package relay implements the MoQ-generic routing layer a relay or origin
// server plugs into session.Config.Local: a registry of locally announced
// namespaces, falling back to an optional upstream Remote for namespaces
// nobody has announced on this node.
package relay

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/serve"
	"github.com/coaxial-labs/moqtransport/session"
)

// Remote resolves a namespace this Producer has no local announcement for,
// typically by subscribing to an upstream origin or relay.
type Remote interface {
	Resolve(ctx context.Context, namespace moq.Tuple, name string) (*serve.TrackReader, error)
}

// Producer is a session.TrackSource backed by a local namespace registry
// with an optional Remote fallback. One Producer is shared across every
// Session a relay or origin server accepts: Session.Config.OnAnnounce feeds
// Announce below with the announcing peer's own Session (which is itself a
// TrackSource), and Session.Config.Local is this Producer, so a Subscribe
// from one peer is routed straight to whichever peer announced it.
type Producer struct {
	log *slog.Logger

	mu     sync.RWMutex
	locals map[string]session.TrackSource

	remote      Remote
	remoteLimit *semaphore.Weighted
}

// NewProducer builds a Producer. remote may be nil for a pure origin server
// with no upstream. maxConcurrentRemote bounds how many Resolve calls run
// at once; it is ignored when remote is nil.
func NewProducer(log *slog.Logger, remote Remote, maxConcurrentRemote int64) *Producer {
	if log == nil {
		log = slog.Default()
	}
	if maxConcurrentRemote <= 0 {
		maxConcurrentRemote = 32
	}
	return &Producer{
		log:         log.With("component", "relay.Producer"),
		locals:      make(map[string]session.TrackSource),
		remote:      remote,
		remoteLimit: semaphore.NewWeighted(maxConcurrentRemote),
	}
}

// Announce registers source as the route for namespace, so incoming
// Subscribe/Fetch requests for it are served without consulting Remote.
// Replaces any source previously announced under the same namespace.
func (p *Producer) Announce(namespace moq.Tuple, source session.TrackSource) {
	key := namespace.String()
	p.mu.Lock()
	p.locals[key] = source
	p.mu.Unlock()
	p.log.Info("announced namespace", "namespace", key)
}

// Withdraw removes a previously announced namespace.
func (p *Producer) Withdraw(namespace moq.Tuple) {
	key := namespace.String()
	p.mu.Lock()
	delete(p.locals, key)
	p.mu.Unlock()
	p.log.Info("withdrew namespace", "namespace", key)
}

// Subscribe implements session.TrackSource: it resolves namespace/name
// against the local registry first, then Remote if nothing local matches.
func (p *Producer) Subscribe(ctx context.Context, namespace moq.Tuple, name string) (*serve.TrackReader, error) {
	p.mu.RLock()
	source, ok := p.locals[namespace.String()]
	p.mu.RUnlock()

	if ok {
		return source.Subscribe(ctx, namespace, name)
	}

	if p.remote == nil {
		return nil, serve.NewError(serve.ErrNotFound, "namespace not announced on this node")
	}

	if err := p.remoteLimit.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.remoteLimit.Release(1)

	return p.remote.Resolve(ctx, namespace, name)
}

// BroadcastSource adapts a process-local serve.BroadcastReader into a
// session.TrackSource, for announcing a broadcast this process itself
// produces (as opposed to one relayed from a connected peer).
type BroadcastSource struct {
	Reader *serve.BroadcastReader
}

func (b BroadcastSource) Subscribe(_ context.Context, _ moq.Tuple, name string) (*serve.TrackReader, error) {
	return b.Reader.Subscribe(name)
}
