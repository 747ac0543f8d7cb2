package serve

import (
	"context"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/watch"
)

// TrackMode discriminates which of the three delivery shapes a track uses
// once its Writer picks one. The choice is late-bound: nothing commits
// until the first UseStream, UseSubgroups, or UseDatagrams call, so a
// publisher can wait until it knows its own encoder's output shape before
// deciding.
type TrackMode int

const (
	TrackModeUnbound TrackMode = iota
	TrackModeStream
	TrackModeSubgroups
	TrackModeDatagrams
)

// Track names one track of a broadcast.
type Track struct {
	Namespace moq.Tuple
	Name      moq.TupleField
	Priority  byte
}

type trackModeState struct {
	mode      TrackMode
	stream    *StreamWriter
	subgroups *SubgroupsWriter
	datagrams *DatagramsWriter
}

// Produce creates a track's Writer and Reader halves.
func (t Track) Produce() (*TrackWriter, *TrackReader) {
	modeState := watch.NewState(trackModeState{})
	latest := watch.NewState(moq.Location{})

	w := &TrackWriter{Track: t, mode: modeState, latest: latest}
	r := &TrackReader{Track: t, mode: modeState, latest: latest}
	return w, r
}

// TrackWriter produces one track's content, in exactly one of three
// modes. Calling a second Use* method after the mode is already bound
// returns ErrMode.
type TrackWriter struct {
	Track
	mode   *watch.State[trackModeState]
	latest *watch.State[moq.Location]
}

// UseStream binds this track to Stream mode and returns its writer.
func (w *TrackWriter) UseStream(priority byte) (*StreamWriter, error) {
	sw := newStreamWriter(priority)
	var bound *StreamWriter
	w.mode.Modify(func(s *trackModeState) {
		if s.mode != TrackModeUnbound {
			return
		}
		s.mode = TrackModeStream
		s.stream = sw
		bound = sw
	})
	if bound == nil {
		return nil, NewError(ErrMode, "track mode already bound")
	}
	return sw, nil
}

// UseSubgroups binds this track to Subgroups mode and returns its writer.
func (w *TrackWriter) UseSubgroups() (*SubgroupsWriter, error) {
	sw := newSubgroupsWriter()
	var bound *SubgroupsWriter
	w.mode.Modify(func(s *trackModeState) {
		if s.mode != TrackModeUnbound {
			return
		}
		s.mode = TrackModeSubgroups
		s.subgroups = sw
		bound = sw
	})
	if bound == nil {
		return nil, NewError(ErrMode, "track mode already bound")
	}
	return sw, nil
}

// UseDatagrams binds this track to Datagrams mode and returns its writer.
func (w *TrackWriter) UseDatagrams() (*DatagramsWriter, error) {
	dw := newDatagramsWriter()
	var bound *DatagramsWriter
	w.mode.Modify(func(s *trackModeState) {
		if s.mode != TrackModeUnbound {
			return
		}
		s.mode = TrackModeDatagrams
		s.datagrams = dw
		bound = dw
	})
	if bound == nil {
		return nil, NewError(ErrMode, "track mode already bound")
	}
	return dw, nil
}

// SetLatest records the most recently produced (group, object) location,
// reported to subscribers via SUBSCRIBE_OK's content_exists/largest_location
// fields.
func (w *TrackWriter) SetLatest(loc moq.Location) {
	w.latest.Modify(func(l *moq.Location) { *l = loc })
}

// Close marks the track finished; no further mode may be bound. If a mode
// is already bound, its writer is closed too, so that mode's readers see
// ok=false once they have drained what was written.
func (w *TrackWriter) Close() {
	w.mode.Close()
	w.latest.Close()
	s, _ := w.mode.Value()
	switch s.mode {
	case TrackModeStream:
		s.stream.Close()
	case TrackModeSubgroups:
		s.subgroups.Close()
	case TrackModeDatagrams:
		s.datagrams.Close()
	}
}

// TrackReader consumes one track's content once its mode is known.
type TrackReader struct {
	Track
	mode   *watch.State[trackModeState]
	latest *watch.State[moq.Location]
}

// Mode blocks until the track's Writer has bound a delivery mode, then
// returns it along with the matching reader handle (exactly one of
// stream/subgroups/datagrams is non-nil).
func (r *TrackReader) Mode(ctx context.Context) (mode TrackMode, stream *StreamReader, subgroups *SubgroupsReader, datagrams *DatagramsReader, err error) {
	s, _, closed, err := r.mode.Next(ctx, 0)
	if err != nil {
		return TrackModeUnbound, nil, nil, nil, err
	}
	if s.mode == TrackModeUnbound {
		if closed {
			return TrackModeUnbound, nil, nil, nil, NewError(ErrClosed, "track closed before any mode was bound")
		}
		return TrackModeUnbound, nil, nil, nil, NewError(ErrDone, "no mode bound")
	}

	switch s.mode {
	case TrackModeStream:
		return TrackModeStream, s.stream.reader(), nil, nil, nil
	case TrackModeSubgroups:
		return TrackModeSubgroups, nil, s.subgroups.reader(), nil, nil
	case TrackModeDatagrams:
		return TrackModeDatagrams, nil, nil, s.datagrams.reader(), nil
	default:
		return TrackModeUnbound, nil, nil, nil, NewError(ErrMode, "unknown track mode")
	}
}

// Latest returns the most recently produced (group, object) location and
// whether any object has been produced yet.
func (r *TrackReader) Latest() (moq.Location, bool) {
	loc, ver := r.latest.Value()
	return loc, ver > 0
}
