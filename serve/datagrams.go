package serve

import (
	"context"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/watch"
)

// Datagram is one complete object delivered as a single unreliable QUIC
// datagram. Unlike Stream and Subgroups objects, a datagram's payload is
// never chunked: it either arrives whole or is lost entirely.
type Datagram struct {
	Group    uint64
	ObjectID uint64
	Priority byte
	Status   moq.ObjectStatus
	Payload  []byte
}

// DatagramsWriter produces the datagrams of a track whose delivery mode is
// Datagrams.
type DatagramsWriter struct {
	queue *watch.Queue[Datagram]
}

func newDatagramsWriter() *DatagramsWriter {
	return &DatagramsWriter{queue: watch.NewQueue[Datagram]()}
}

// Write enqueues one datagram for delivery. The session layer is free to
// drop it under congestion, per the transport's unreliable-datagram
// semantics.
func (w *DatagramsWriter) Write(d Datagram) error {
	return w.queue.Push(d)
}

// Close signals that no further datagrams will be produced for this track.
func (w *DatagramsWriter) Close() {
	w.queue.Close()
}

func (w *DatagramsWriter) reader() *DatagramsReader {
	return &DatagramsReader{queue: w.queue}
}

// DatagramsReader reads the datagrams of a track in production order (the
// session layer is responsible for actually sending them unreliably; this
// queue only orders the producer's calls).
type DatagramsReader struct {
	queue *watch.Queue[Datagram]
}

// Read returns the next datagram, or ok=false once the writer has closed.
func (r *DatagramsReader) Read(ctx context.Context) (d Datagram, ok bool, err error) {
	return r.queue.Pop(ctx)
}
