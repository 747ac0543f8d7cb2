package moq

// Data-stream header type tags. These prefix a unidirectional stream (or a
// datagram) and discriminate which of the four delivery modes follows.
const (
	StreamHeaderTrack    uint64 = 0x00
	DatagramHeaderType   uint64 = 0x02
	StreamHeaderSubgroup uint64 = 0x04
	StreamHeaderFetch    uint64 = 0x05
)

// ObjectStatus reports why an object carries no payload, or that it is a
// normal object with payload present.
type ObjectStatus uint64

const (
	ObjectStatusNormal         ObjectStatus = 0x00
	ObjectStatusDoesNotExist   ObjectStatus = 0x01
	ObjectStatusEndOfGroup     ObjectStatus = 0x03
	ObjectStatusEndOfTrack     ObjectStatus = 0x04
)

// TrackHeader opens the single QUIC stream used by legacy Stream-mode
// delivery, where every group and object of a track is interleaved onto one
// stream rather than split across per-subgroup streams. Wire layout:
// [type(varint)=0x00] [track_alias(varint)] [priority(byte)].
type TrackHeader struct {
	TrackAlias uint64
	Priority   byte
}

func EncodeTrackHeader(h TrackHeader) []byte {
	var buf []byte
	buf = AppendVarint(buf, StreamHeaderTrack)
	buf = AppendVarint(buf, h.TrackAlias)
	buf = append(buf, h.Priority)
	return buf
}

// TrackObject is one object on a Stream-mode track stream. It carries its
// (group, object) coordinates explicitly since all groups interleave onto
// the same stream.
type TrackObject struct {
	Group   uint64
	ID      uint64
	Status  ObjectStatus
	Payload []byte
}

func EncodeTrackObject(o TrackObject) []byte {
	var buf []byte
	buf = AppendVarint(buf, o.Group)
	buf = AppendVarint(buf, o.ID)
	if len(o.Payload) == 0 && o.Status != ObjectStatusNormal {
		buf = AppendVarint(buf, 0)
		buf = AppendVarint(buf, uint64(o.Status))
		return buf
	}
	buf = AppendVarint(buf, uint64(len(o.Payload)))
	buf = append(buf, o.Payload...)
	return buf
}

// SubgroupHeader opens a QUIC stream carrying one subgroup of one group.
// Wire layout: [type(varint)=0x04] [track_alias(varint)] [group(varint)]
// [subgroup(varint)] [priority(byte)], followed by zero or more objects
// until the stream is closed.
type SubgroupHeader struct {
	TrackAlias uint64
	Group      uint64
	Subgroup   uint64
	Priority   byte
}

func EncodeSubgroupHeader(h SubgroupHeader) []byte {
	var buf []byte
	buf = AppendVarint(buf, StreamHeaderSubgroup)
	buf = AppendVarint(buf, h.TrackAlias)
	buf = AppendVarint(buf, h.Group)
	buf = AppendVarint(buf, h.Subgroup)
	buf = append(buf, h.Priority)
	return buf
}

// SubgroupObject is one object within a subgroup stream: [object_id(varint)]
// [length(varint)] [status(varint) iff length==0] [payload].
type SubgroupObject struct {
	ID      uint64
	Status  ObjectStatus
	Payload []byte
}

func EncodeSubgroupObject(o SubgroupObject) []byte {
	var buf []byte
	buf = AppendVarint(buf, o.ID)
	if len(o.Payload) == 0 && o.Status != ObjectStatusNormal {
		buf = AppendVarint(buf, 0)
		buf = AppendVarint(buf, uint64(o.Status))
		return buf
	}
	buf = AppendVarint(buf, uint64(len(o.Payload)))
	buf = append(buf, o.Payload...)
	return buf
}

// FetchHeader opens the single QUIC stream a Fetch response is delivered
// on. Wire layout: [type(varint)=0x05] [request_id(varint)], followed by
// FetchObjects in (group, subgroup, object) order until the stream closes.
type FetchHeader struct {
	RequestID uint64
}

func EncodeFetchHeader(h FetchHeader) []byte {
	var buf []byte
	buf = AppendVarint(buf, StreamHeaderFetch)
	buf = AppendVarint(buf, h.RequestID)
	return buf
}

// FetchObject is one object on a Fetch stream, explicitly carrying its
// (group, subgroup) coordinates since a single Fetch stream interleaves
// objects from possibly many subgroups.
type FetchObject struct {
	Group    uint64
	Subgroup uint64
	ID       uint64
	Priority byte
	Status   ObjectStatus
	Payload  []byte
}

func EncodeFetchObject(o FetchObject) []byte {
	var buf []byte
	buf = AppendVarint(buf, o.Group)
	buf = AppendVarint(buf, o.Subgroup)
	buf = AppendVarint(buf, o.ID)
	buf = append(buf, o.Priority)
	if len(o.Payload) == 0 && o.Status != ObjectStatusNormal {
		buf = AppendVarint(buf, 0)
		buf = AppendVarint(buf, uint64(o.Status))
		return buf
	}
	buf = AppendVarint(buf, uint64(len(o.Payload)))
	buf = append(buf, o.Payload...)
	return buf
}

// Datagram carries exactly one object, self-contained with no separate
// stream header: [type(varint)=0x02] [track_alias(varint)] [group(varint)]
// [object_id(varint)] [priority(byte)] [length(varint)]
// [status(varint) iff length==0] [payload].
type Datagram struct {
	TrackAlias uint64
	Group      uint64
	ObjectID   uint64
	Priority   byte
	Status     ObjectStatus
	Payload    []byte
}

func EncodeDatagram(d Datagram) []byte {
	var buf []byte
	buf = AppendVarint(buf, DatagramHeaderType)
	buf = AppendVarint(buf, d.TrackAlias)
	buf = AppendVarint(buf, d.Group)
	buf = AppendVarint(buf, d.ObjectID)
	buf = append(buf, d.Priority)
	if len(d.Payload) == 0 && d.Status != ObjectStatusNormal {
		buf = AppendVarint(buf, 0)
		buf = AppendVarint(buf, uint64(d.Status))
		return buf
	}
	buf = AppendVarint(buf, uint64(len(d.Payload)))
	buf = append(buf, d.Payload...)
	return buf
}

// DecodeDatagram parses a full datagram payload, including its leading type
// tag.
func DecodeDatagram(payload []byte) (Datagram, error) {
	c := newCursor(payload)
	typ, err := c.readVarint()
	if err != nil {
		return Datagram{}, &ParseError{Field: "type", Err: err}
	}
	if typ != DatagramHeaderType {
		return Datagram{}, &DecodeError{Kind: ErrInvalidMessage, MessageType: typ}
	}

	var d Datagram
	if d.TrackAlias, err = c.readVarint(); err != nil {
		return d, &ParseError{Field: "track_alias", Err: err}
	}
	if d.Group, err = c.readVarint(); err != nil {
		return d, &ParseError{Field: "group", Err: err}
	}
	if d.ObjectID, err = c.readVarint(); err != nil {
		return d, &ParseError{Field: "object_id", Err: err}
	}
	if d.Priority, err = c.readByte(); err != nil {
		return d, &ParseError{Field: "priority", Err: err}
	}
	length, err := c.readVarint()
	if err != nil {
		return d, &ParseError{Field: "length", Err: err}
	}
	if length == 0 {
		status, err := c.readVarint()
		if err != nil {
			return d, &ParseError{Field: "status", Err: err}
		}
		d.Status = ObjectStatus(status)
		return d, nil
	}
	d.Status = ObjectStatusNormal
	d.Payload, err = c.readBytes(length)
	if err != nil {
		return d, &ParseError{Field: "payload", Err: err}
	}
	return d, nil
}
