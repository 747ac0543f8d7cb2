package moq

import (
	"bufio"
	"io"

	"github.com/quic-go/quic-go/quicvarint"
)

// byteReader is what the streaming Read* functions need: bufio.Reader and
// transport.ReceiveStream both satisfy it directly.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// NewStreamReader wraps r for use with the Read* functions in this file, if
// it doesn't already implement io.ByteReader.
func NewStreamReader(r io.Reader) byteReader {
	if br, ok := r.(byteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

func readVarintFrom(r io.ByteReader) (uint64, error) {
	return quicvarint.Read(r)
}

func readBytesFrom(r io.Reader, n uint64) ([]byte, error) {
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// ReadStreamHeaderType reads the leading type varint of a unidirectional
// data stream, so the caller can dispatch to ReadTrackHeader,
// ReadSubgroupHeader, or ReadFetchHeader for the remainder.
func ReadStreamHeaderType(r byteReader) (uint64, error) {
	return readVarintFrom(r)
}

// ReadTrackHeader reads a TrackHeader's fields after the leading type tag
// has already been consumed via ReadStreamHeaderType.
func ReadTrackHeader(r byteReader) (TrackHeader, error) {
	var h TrackHeader
	var err error
	if h.TrackAlias, err = readVarintFrom(r); err != nil {
		return h, err
	}
	priority, err := r.ReadByte()
	if err != nil {
		return h, err
	}
	h.Priority = priority
	return h, nil
}

// ReadTrackObject reads one object from a Stream-mode track stream.
func ReadTrackObject(r byteReader) (TrackObject, error) {
	var o TrackObject
	var err error
	if o.Group, err = readVarintFrom(r); err != nil {
		return o, err
	}
	if o.ID, err = readVarintFrom(r); err != nil {
		return o, err
	}
	length, err := readVarintFrom(r)
	if err != nil {
		return o, err
	}
	if length == 0 {
		status, err := readVarintFrom(r)
		if err != nil {
			return o, err
		}
		o.Status = ObjectStatus(status)
		return o, nil
	}
	o.Status = ObjectStatusNormal
	o.Payload, err = readBytesFrom(r, length)
	return o, err
}

// ReadSubgroupHeader reads a SubgroupHeader's fields after the leading type
// tag has already been consumed via ReadStreamHeaderType.
func ReadSubgroupHeader(r byteReader) (SubgroupHeader, error) {
	var h SubgroupHeader
	var err error
	if h.TrackAlias, err = readVarintFrom(r); err != nil {
		return h, err
	}
	if h.Group, err = readVarintFrom(r); err != nil {
		return h, err
	}
	if h.Subgroup, err = readVarintFrom(r); err != nil {
		return h, err
	}
	priority, err := r.ReadByte()
	if err != nil {
		return h, err
	}
	h.Priority = priority
	return h, nil
}

// ReadSubgroupObject reads one object from a subgroup stream.
func ReadSubgroupObject(r byteReader) (SubgroupObject, error) {
	var o SubgroupObject
	var err error
	if o.ID, err = readVarintFrom(r); err != nil {
		return o, err
	}
	length, err := readVarintFrom(r)
	if err != nil {
		return o, err
	}
	if length == 0 {
		status, err := readVarintFrom(r)
		if err != nil {
			return o, err
		}
		o.Status = ObjectStatus(status)
		return o, nil
	}
	o.Status = ObjectStatusNormal
	o.Payload, err = readBytesFrom(r, length)
	return o, err
}

// ReadFetchHeader reads a FetchHeader's fields after the leading type tag
// has already been consumed via ReadStreamHeaderType.
func ReadFetchHeader(r byteReader) (FetchHeader, error) {
	id, err := readVarintFrom(r)
	if err != nil {
		return FetchHeader{}, err
	}
	return FetchHeader{RequestID: id}, nil
}

// ReadFetchObject reads one object from a Fetch response stream.
func ReadFetchObject(r byteReader) (FetchObject, error) {
	var o FetchObject
	var err error
	if o.Group, err = readVarintFrom(r); err != nil {
		return o, err
	}
	if o.Subgroup, err = readVarintFrom(r); err != nil {
		return o, err
	}
	if o.ID, err = readVarintFrom(r); err != nil {
		return o, err
	}
	priority, err := r.ReadByte()
	if err != nil {
		return o, err
	}
	o.Priority = priority
	length, err := readVarintFrom(r)
	if err != nil {
		return o, err
	}
	if length == 0 {
		status, err := readVarintFrom(r)
		if err != nil {
			return o, err
		}
		o.Status = ObjectStatus(status)
		return o, nil
	}
	o.Status = ObjectStatusNormal
	o.Payload, err = readBytesFrom(r, length)
	return o, err
}
