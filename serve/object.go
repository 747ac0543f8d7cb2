package serve

import (
	"context"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/watch"
)

// ObjectWriter streams one object's payload as a sequence of chunks,
// closed when the object is complete. A status other than
// moq.ObjectStatusNormal means the object carries no payload at all; Write
// is never called in that case.
type ObjectWriter struct {
	Group    uint64
	Subgroup uint64
	ID       uint64
	Status   moq.ObjectStatus

	queue *watch.Queue[[]byte]
}

func newObjectWriter(group, subgroup, id uint64, status moq.ObjectStatus) *ObjectWriter {
	return &ObjectWriter{
		Group: group, Subgroup: subgroup, ID: id, Status: status,
		queue: watch.NewQueue[[]byte](),
	}
}

// Write appends a chunk of the object's payload. Chunks are delivered to
// the reader in the order written.
func (w *ObjectWriter) Write(chunk []byte) error {
	return w.queue.Push(append([]byte(nil), chunk...))
}

// Close signals that the object's payload is complete.
func (w *ObjectWriter) Close() {
	w.queue.Close()
}

func (w *ObjectWriter) reader() *ObjectReader {
	return &ObjectReader{Group: w.Group, Subgroup: w.Subgroup, ID: w.ID, Status: w.Status, queue: w.queue}
}

// ObjectReader reads one object's payload chunk by chunk.
type ObjectReader struct {
	Group    uint64
	Subgroup uint64
	ID       uint64
	Status   moq.ObjectStatus

	queue *watch.Queue[[]byte]
}

// Read returns the next chunk, or ok=false once the object is complete.
func (r *ObjectReader) Read(ctx context.Context) (chunk []byte, ok bool, err error) {
	return r.queue.Pop(ctx)
}

// ReadAll reads and concatenates every remaining chunk.
func (r *ObjectReader) ReadAll(ctx context.Context) ([]byte, error) {
	var buf []byte
	for {
		chunk, ok, err := r.Read(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return buf, nil
		}
		buf = append(buf, chunk...)
	}
}
