package serve

import (
	"context"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/watch"
)

// Broadcast identifies a namespace publishing zero or more tracks.
type Broadcast struct {
	Namespace moq.Tuple
}

type broadcastState struct {
	tracks map[moq.TupleField]*TrackReader
}

// Produce creates a broadcast's Writer, Request, and Reader handles. The
// Writer creates tracks proactively; the Request handle receives requests
// for tracks that don't exist yet from any Reader, so the broadcast's owner
// can create them on demand.
func (b Broadcast) Produce() (*BroadcastWriter, *BroadcastRequest, *BroadcastReader) {
	state := watch.NewState(broadcastState{tracks: make(map[moq.TupleField]*TrackReader)})
	queue := watch.NewQueue[*TrackWriter]()

	w := &BroadcastWriter{Broadcast: b, state: state}
	req := &BroadcastRequest{Broadcast: b, state: state, queue: queue}
	r := &BroadcastReader{Broadcast: b, state: state, queue: queue}
	return w, req, r
}

// BroadcastWriter publishes new tracks for a broadcast by name.
type BroadcastWriter struct {
	Broadcast
	state *watch.State[broadcastState]
}

// Create makes a new track with the given name and inserts it into the
// broadcast, overwriting any existing track of the same name.
func (w *BroadcastWriter) Create(name string) *TrackWriter {
	track := Track{Namespace: w.Namespace, Name: moq.TupleField(name)}
	tw, tr := track.Produce()

	w.state.Modify(func(s *broadcastState) {
		s.tracks[moq.TupleField(name)] = tr
	})
	return tw
}

// Remove drops a track from the broadcast, returning its Reader if it was
// present.
func (w *BroadcastWriter) Remove(name string) (*TrackReader, bool) {
	var removed *TrackReader
	w.state.Modify(func(s *broadcastState) {
		removed = s.tracks[moq.TupleField(name)]
		delete(s.tracks, moq.TupleField(name))
	})
	return removed, removed != nil
}

// Close marks the broadcast finished; no further tracks may be created.
func (w *BroadcastWriter) Close() {
	w.state.Close()
}

// BroadcastRequest receives requests to create tracks that a Reader asked
// for but don't exist yet.
type BroadcastRequest struct {
	Broadcast
	state *watch.State[broadcastState]
	queue *watch.Queue[*TrackWriter]
}

// Next blocks until a Reader requests an unknown track, returning its
// Writer so the caller can Create (or fail) it. ok is false once Close has
// been called on this BroadcastRequest.
func (r *BroadcastRequest) Next(ctx context.Context) (tw *TrackWriter, ok bool, err error) {
	return r.queue.Pop(ctx)
}

// Close stops accepting track requests and closes, with no mode bound, the
// TrackWriter of every request still queued. A Reader of such a track gets
// an ErrClosed error from Mode; the error does not carry ErrNotFound.
func (r *BroadcastRequest) Close() {
	r.queue.Close()
	for _, tw := range r.queue.Drain() {
		tw.Close()
	}
}

// BroadcastReader subscribes to a broadcast by requesting tracks by name.
type BroadcastReader struct {
	Broadcast
	state *watch.State[broadcastState]
	queue *watch.Queue[*TrackWriter]
}

// Subscribe returns the named track, creating a request for it via
// BroadcastRequest.Next if it doesn't already exist. It returns ErrClosed
// if the broadcast's request queue has stopped accepting new tracks.
func (r *BroadcastReader) Subscribe(name string) (*TrackReader, error) {
	field := moq.TupleField(name)

	v, _ := r.state.Value()
	if tr, ok := v.tracks[field]; ok {
		return tr, nil
	}

	track := Track{Namespace: r.Namespace, Name: field}
	tw, tr := track.Produce()

	if err := r.queue.Push(tw); err != nil {
		return nil, NewError(ErrClosed, "broadcast no longer accepting track requests")
	}

	r.state.Modify(func(s *broadcastState) {
		if _, ok := s.tracks[field]; !ok {
			s.tracks[field] = tr
		}
	})

	v, _ = r.state.Value()
	return v.tracks[field], nil
}
