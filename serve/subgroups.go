package serve

import (
	"context"
	"sync"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/watch"
)

// SubgroupWriter produces the objects of one (group, subgroup) pair, all
// delivered on a single QUIC stream by the session layer.
type SubgroupWriter struct {
	Group    uint64
	Subgroup uint64
	Priority byte

	queue *watch.Queue[*ObjectWriter]
}

func newSubgroupWriter(group, subgroup uint64, priority byte) *SubgroupWriter {
	return &SubgroupWriter{Group: group, Subgroup: subgroup, Priority: priority, queue: watch.NewQueue[*ObjectWriter]()}
}

// Append starts a new object within the subgroup and returns its writer.
// Objects must be appended in increasing ID order; the session layer does
// not reorder them.
func (w *SubgroupWriter) Append(id uint64) *ObjectWriter {
	obj := newObjectWriter(w.Group, w.Subgroup, id, moq.ObjectStatusNormal)
	_ = w.queue.Push(obj)
	return obj
}

// WriteStatus appends a status-only object (no payload), used to signal
// moq.ObjectStatusEndOfGroup or moq.ObjectStatusEndOfTrack.
func (w *SubgroupWriter) WriteStatus(id uint64, status moq.ObjectStatus) {
	obj := newObjectWriter(w.Group, w.Subgroup, id, status)
	obj.Close()
	_ = w.queue.Push(obj)
}

// Close signals that no further objects will be appended to this subgroup.
func (w *SubgroupWriter) Close() {
	w.queue.Close()
}

func (w *SubgroupWriter) reader() *SubgroupReader {
	return &SubgroupReader{Group: w.Group, Subgroup: w.Subgroup, Priority: w.Priority, queue: w.queue}
}

// SubgroupReader reads the objects of one (group, subgroup) pair in order.
type SubgroupReader struct {
	Group    uint64
	Subgroup uint64
	Priority byte

	queue *watch.Queue[*ObjectWriter]
}

// Next returns the next object's reader, or ok=false once the subgroup is
// complete.
func (r *SubgroupReader) Next(ctx context.Context) (obj *ObjectReader, ok bool, err error) {
	w, ok, err := r.queue.Pop(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	return w.reader(), true, nil
}

// SubgroupsWriter produces the subgroups of a track whose delivery mode is
// Subgroups: each (group, subgroup) pair gets its own QUIC stream.
type SubgroupsWriter struct {
	mu    sync.Mutex
	seen  map[[2]uint64]bool
	queue *watch.Queue[*SubgroupWriter]
}

func newSubgroupsWriter() *SubgroupsWriter {
	return &SubgroupsWriter{seen: make(map[[2]uint64]bool), queue: watch.NewQueue[*SubgroupWriter]()}
}

// Create opens a new subgroup. It returns ErrDuplicate if this
// (group, subgroup) pair was already created on this track.
func (w *SubgroupsWriter) Create(group, subgroup uint64, priority byte) (*SubgroupWriter, error) {
	key := [2]uint64{group, subgroup}

	w.mu.Lock()
	if w.seen[key] {
		w.mu.Unlock()
		return nil, NewError(ErrDuplicate, "subgroup already created")
	}
	w.seen[key] = true
	w.mu.Unlock()

	sg := newSubgroupWriter(group, subgroup, priority)
	if err := w.queue.Push(sg); err != nil {
		return nil, NewError(ErrClosed, "track reader gone")
	}
	return sg, nil
}

// Close signals that no further subgroups will be created for this track.
func (w *SubgroupsWriter) Close() {
	w.queue.Close()
}

func (w *SubgroupsWriter) reader() *SubgroupsReader {
	return &SubgroupsReader{queue: w.queue}
}

// SubgroupsReader reads the subgroups of a track in creation order. A
// subscriber fans out a goroutine per subgroup as they arrive, since
// subgroups deliver independently and out of order relative to each other.
type SubgroupsReader struct {
	queue *watch.Queue[*SubgroupWriter]
}

// Next returns the next subgroup's reader, or ok=false once the track's
// writer has closed.
func (r *SubgroupsReader) Next(ctx context.Context) (sg *SubgroupReader, ok bool, err error) {
	w, ok, err := r.queue.Pop(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	return w.reader(), true, nil
}
