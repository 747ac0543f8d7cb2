package session

import (
	"context"
	"fmt"
	"io"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/serve"
	"github.com/coaxial-labs/moqtransport/transport"
)

// byteReader is the shape moq's streaming Read* functions need. A value
// from moq.NewStreamReader satisfies this structurally without naming
// moq's own (unexported) interface type.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// acceptDataStreams accepts every unidirectional stream the peer opens and
// demultiplexes it by its leading header, one goroutine per stream so a
// slow subgroup never blocks another.
func (s *Session) acceptDataStreams(ctx context.Context) error {
	for {
		rs, err := s.conn.AcceptUniStream(ctx)
		if err != nil {
			return fmt.Errorf("session: accept uni stream: %w", err)
		}
		go s.handleUniStream(rs)
	}
}

func (s *Session) handleUniStream(rs transport.ReceiveStream) {
	r := moq.NewStreamReader(rs)

	typ, err := moq.ReadStreamHeaderType(r)
	if err != nil {
		rs.CancelRead(errCodeProtocolViolation)
		return
	}

	switch typ {
	case moq.StreamHeaderTrack:
		s.demuxTrackStream(rs, r)
	case moq.StreamHeaderSubgroup:
		s.demuxSubgroupStream(rs, r)
	case moq.StreamHeaderFetch:
		s.demuxFetchStream(rs, r)
	default:
		s.log.Warn("unknown data stream header type", "type", fmt.Sprintf("0x%x", typ))
		rs.CancelRead(errCodeProtocolViolation)
	}
}

func (s *Session) demuxTrackStream(rs transport.ReceiveStream, r byteReader) {
	h, err := moq.ReadTrackHeader(r)
	if err != nil {
		rs.CancelRead(errCodeProtocolViolation)
		return
	}
	it := s.trackForAlias(h.TrackAlias)
	if it == nil {
		rs.CancelRead(errCodeProtocolViolation)
		return
	}
	sw, err := it.stream(h.Priority)
	if err != nil {
		rs.CancelRead(errCodeProtocolViolation)
		return
	}

	for {
		o, err := moq.ReadTrackObject(r)
		if err != nil {
			it.closeGroup()
			return
		}
		g := it.group(sw, o.Group)
		if o.Status != moq.ObjectStatusNormal {
			g.WriteStatus(o.ID, o.Status)
			continue
		}
		obj := g.Append(o.ID)
		_ = obj.Write(o.Payload)
		obj.Close()
	}
}

func (s *Session) demuxSubgroupStream(rs transport.ReceiveStream, r byteReader) {
	h, err := moq.ReadSubgroupHeader(r)
	if err != nil {
		rs.CancelRead(errCodeProtocolViolation)
		return
	}
	it := s.trackForAlias(h.TrackAlias)
	if it == nil {
		rs.CancelRead(errCodeProtocolViolation)
		return
	}
	sgw, err := it.subgroupsMode()
	if err != nil {
		rs.CancelRead(errCodeProtocolViolation)
		return
	}
	sg, err := it.subgroup(sgw, h.Group, h.Subgroup, h.Priority)
	if err != nil {
		rs.CancelRead(errCodeProtocolViolation)
		return
	}

	for {
		o, err := moq.ReadSubgroupObject(r)
		if err != nil {
			sg.Close()
			return
		}
		if o.Status != moq.ObjectStatusNormal {
			sg.WriteStatus(o.ID, o.Status)
			continue
		}
		obj := sg.Append(o.ID)
		_ = obj.Write(o.Payload)
		obj.Close()
	}
}

func (s *Session) demuxFetchStream(rs transport.ReceiveStream, r byteReader) {
	h, err := moq.ReadFetchHeader(r)
	if err != nil {
		rs.CancelRead(errCodeProtocolViolation)
		return
	}

	s.subMu.Lock()
	out, ok := s.fetches[h.RequestID]
	s.subMu.Unlock()
	if !ok {
		rs.CancelRead(errCodeProtocolViolation)
		return
	}

	sgw, err := out.track.subgroupsMode()
	if err != nil {
		return
	}

	for {
		o, err := moq.ReadFetchObject(r)
		if err != nil {
			out.track.mu.Lock()
			for _, sg := range out.track.subgroups {
				sg.Close()
			}
			out.track.mu.Unlock()
			sgw.Close()
			return
		}
		sg, err := out.track.subgroup(sgw, o.Group, o.Subgroup, o.Priority)
		if err != nil {
			return
		}
		if o.Status != moq.ObjectStatusNormal {
			sg.WriteStatus(o.ID, o.Status)
			continue
		}
		obj := sg.Append(o.ID)
		_ = obj.Write(o.Payload)
		obj.Close()
	}
}

// acceptDatagrams receives every unreliable datagram the peer sends and
// routes it to the track it's tagged for.
func (s *Session) acceptDatagrams(ctx context.Context) error {
	for {
		payload, err := s.conn.ReceiveDatagram(ctx)
		if err != nil {
			return fmt.Errorf("session: receive datagram: %w", err)
		}

		d, err := moq.DecodeDatagram(payload)
		if err != nil {
			s.log.Warn("dropping undecodable datagram", "error", err)
			continue
		}

		it := s.trackForAlias(d.TrackAlias)
		if it == nil {
			continue
		}
		dw, err := it.datagramsMode()
		if err != nil {
			continue
		}
		_ = dw.Write(serve.Datagram{
			Group: d.Group, ObjectID: d.ObjectID, Priority: d.Priority,
			Status: d.Status, Payload: d.Payload,
		})
	}
}
