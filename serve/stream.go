package serve

import (
	"context"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/watch"
)

// GroupWriter produces the objects of one group within a Stream-mode
// track. Unlike Subgroups mode, every group of a Stream-mode track shares
// the same underlying QUIC stream, so groups cannot be reordered or
// delivered concurrently by the session layer.
type GroupWriter struct {
	Group uint64
	queue *watch.Queue[*ObjectWriter]
}

func newGroupWriter(group uint64) *GroupWriter {
	return &GroupWriter{Group: group, queue: watch.NewQueue[*ObjectWriter]()}
}

// Append starts a new object within the group and returns its writer.
func (w *GroupWriter) Append(id uint64) *ObjectWriter {
	obj := newObjectWriter(w.Group, 0, id, moq.ObjectStatusNormal)
	_ = w.queue.Push(obj)
	return obj
}

// WriteStatus appends a status-only object, used to signal
// moq.ObjectStatusEndOfGroup or moq.ObjectStatusEndOfTrack.
func (w *GroupWriter) WriteStatus(id uint64, status moq.ObjectStatus) {
	obj := newObjectWriter(w.Group, 0, id, status)
	obj.Close()
	_ = w.queue.Push(obj)
}

// Close signals that no further objects will be appended to this group.
func (w *GroupWriter) Close() {
	w.queue.Close()
}

func (w *GroupWriter) reader() *GroupReader {
	return &GroupReader{Group: w.Group, queue: w.queue}
}

// GroupReader reads the objects of one group in order.
type GroupReader struct {
	Group uint64
	queue *watch.Queue[*ObjectWriter]
}

// Next returns the next object's reader, or ok=false once the group is
// complete.
func (r *GroupReader) Next(ctx context.Context) (obj *ObjectReader, ok bool, err error) {
	w, ok, err := r.queue.Pop(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	return w.reader(), true, nil
}

// StreamWriter produces the groups of a track whose delivery mode is
// Stream: every group and object interleaves onto the single QUIC stream
// the session layer opens for the track.
type StreamWriter struct {
	Priority byte
	queue    *watch.Queue[*GroupWriter]
}

func newStreamWriter(priority byte) *StreamWriter {
	return &StreamWriter{Priority: priority, queue: watch.NewQueue[*GroupWriter]()}
}

// Append starts a new group and returns its writer.
func (w *StreamWriter) Append(group uint64) *GroupWriter {
	g := newGroupWriter(group)
	_ = w.queue.Push(g)
	return g
}

// Close signals that no further groups will be appended to this track.
func (w *StreamWriter) Close() {
	w.queue.Close()
}

func (w *StreamWriter) reader() *StreamReader {
	return &StreamReader{Priority: w.Priority, queue: w.queue}
}

// StreamReader reads the groups of a Stream-mode track in order.
type StreamReader struct {
	Priority byte
	queue    *watch.Queue[*GroupWriter]
}

// Next returns the next group's reader, or ok=false once the track's
// writer has closed.
func (r *StreamReader) Next(ctx context.Context) (g *GroupReader, ok bool, err error) {
	w, ok, err := r.queue.Pop(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	return w.reader(), true, nil
}
