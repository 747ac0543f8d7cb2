package moq

import (
	"bufio"
	"bytes"
	"testing"
)

func TestTrackHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	h := TrackHeader{TrackAlias: 3, Priority: 64}
	buf := EncodeTrackHeader(h)

	r := NewStreamReader(bytes.NewReader(buf))
	typ, err := ReadStreamHeaderType(r)
	if err != nil || typ != StreamHeaderTrack {
		t.Fatalf("type = 0x%x, err %v", typ, err)
	}

	got, err := ReadTrackHeader(r)
	if err != nil || got != h {
		t.Errorf("got %+v, want %+v, err %v", got, h, err)
	}
}

func TestTrackObjectRoundTrip(t *testing.T) {
	t.Parallel()

	o := TrackObject{Group: 1, ID: 2, Status: ObjectStatusNormal, Payload: []byte("data")}
	buf := EncodeTrackObject(o)
	r := NewStreamReader(bytes.NewReader(buf))
	got, err := ReadTrackObject(r)
	if err != nil {
		t.Fatalf("ReadTrackObject: %v", err)
	}
	if got.Group != o.Group || got.ID != o.ID || !bytes.Equal(got.Payload, o.Payload) {
		t.Errorf("got %+v, want %+v", got, o)
	}
}

func TestSubgroupHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	h := SubgroupHeader{TrackAlias: 1, Group: 2, Subgroup: 0, Priority: 128}
	buf := EncodeSubgroupHeader(h)

	r := NewStreamReader(bytes.NewReader(buf))
	typ, err := ReadStreamHeaderType(r)
	if err != nil {
		t.Fatalf("ReadStreamHeaderType: %v", err)
	}
	if typ != StreamHeaderSubgroup {
		t.Fatalf("type = 0x%x, want 0x%x", typ, StreamHeaderSubgroup)
	}

	got, err := ReadSubgroupHeader(r)
	if err != nil {
		t.Fatalf("ReadSubgroupHeader: %v", err)
	}
	if got != h {
		t.Errorf("got %+v, want %+v", got, h)
	}
}

func TestSubgroupObjectRoundTrip(t *testing.T) {
	t.Parallel()

	normal := SubgroupObject{ID: 0, Status: ObjectStatusNormal, Payload: []byte("frame")}
	buf := EncodeSubgroupObject(normal)
	r := NewStreamReader(bytes.NewReader(buf))
	got, err := ReadSubgroupObject(r)
	if err != nil {
		t.Fatalf("ReadSubgroupObject: %v", err)
	}
	if got.ID != normal.ID || !bytes.Equal(got.Payload, normal.Payload) {
		t.Errorf("got %+v, want %+v", got, normal)
	}

	endOfGroup := SubgroupObject{ID: 5, Status: ObjectStatusEndOfGroup}
	buf = EncodeSubgroupObject(endOfGroup)
	r = NewStreamReader(bytes.NewReader(buf))
	got, err = ReadSubgroupObject(r)
	if err != nil {
		t.Fatalf("ReadSubgroupObject: %v", err)
	}
	if got.Status != ObjectStatusEndOfGroup || len(got.Payload) != 0 {
		t.Errorf("got %+v, want end-of-group with no payload", got)
	}
}

func TestFetchHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	h := FetchHeader{RequestID: 7}
	buf := EncodeFetchHeader(h)

	r := NewStreamReader(bytes.NewReader(buf))
	typ, err := ReadStreamHeaderType(r)
	if err != nil || typ != StreamHeaderFetch {
		t.Fatalf("type = 0x%x, err %v", typ, err)
	}

	got, err := ReadFetchHeader(r)
	if err != nil || got != h {
		t.Errorf("got %+v, want %+v, err %v", got, h, err)
	}
}

func TestFetchObjectRoundTrip(t *testing.T) {
	t.Parallel()

	o := FetchObject{Group: 1, Subgroup: 0, ID: 3, Priority: 10, Status: ObjectStatusNormal, Payload: []byte{1, 2, 3}}
	buf := EncodeFetchObject(o)
	r := NewStreamReader(bytes.NewReader(buf))
	got, err := ReadFetchObject(r)
	if err != nil {
		t.Fatalf("ReadFetchObject: %v", err)
	}
	if got.Group != o.Group || got.ID != o.ID || !bytes.Equal(got.Payload, o.Payload) {
		t.Errorf("got %+v, want %+v", got, o)
	}

	endOfTrack := FetchObject{Group: 9, Subgroup: 0, ID: 0, Priority: 0, Status: ObjectStatusEndOfTrack}
	buf = EncodeFetchObject(endOfTrack)
	r = NewStreamReader(bytes.NewReader(buf))
	got, err = ReadFetchObject(r)
	if err != nil || got.Status != ObjectStatusEndOfTrack || len(got.Payload) != 0 {
		t.Errorf("got %+v, err %v", got, err)
	}
}

func TestDatagramRoundTrip(t *testing.T) {
	t.Parallel()

	d := Datagram{TrackAlias: 1, Group: 2, ObjectID: 3, Priority: 200, Status: ObjectStatusNormal, Payload: []byte("keyframe")}
	got, err := DecodeDatagram(EncodeDatagram(d))
	if err != nil {
		t.Fatalf("DecodeDatagram: %v", err)
	}
	if got.TrackAlias != d.TrackAlias || got.Group != d.Group || !bytes.Equal(got.Payload, d.Payload) {
		t.Errorf("got %+v, want %+v", got, d)
	}
}

func TestDatagramDoesNotExist(t *testing.T) {
	t.Parallel()

	d := Datagram{TrackAlias: 1, Group: 2, ObjectID: 0, Status: ObjectStatusDoesNotExist}
	got, err := DecodeDatagram(EncodeDatagram(d))
	if err != nil {
		t.Fatalf("DecodeDatagram: %v", err)
	}
	if got.Status != ObjectStatusDoesNotExist || len(got.Payload) != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestDatagramRejectsWrongType(t *testing.T) {
	t.Parallel()

	// A Subgroup header's bytes are not a valid datagram.
	bogus := EncodeSubgroupHeader(SubgroupHeader{TrackAlias: 1, Group: 1, Subgroup: 1, Priority: 1})
	if _, err := DecodeDatagram(bogus); err == nil {
		t.Fatal("expected error decoding a subgroup header as a datagram")
	}
}

func TestStreamReaderReusesExistingByteReader(t *testing.T) {
	t.Parallel()

	br := bufio.NewReader(bytes.NewReader([]byte{0x01}))
	if got := NewStreamReader(br); got != br {
		t.Errorf("NewStreamReader wrapped an existing byteReader instead of reusing it")
	}
}
