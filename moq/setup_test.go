package moq

import (
	"bytes"
	"testing"
)

// TestClientSetupByteExact checks the wire encoding against the literal
// test vector: one offered version (0xff00000c, encoded as an 8-byte
// varint since it exceeds the 4-byte range) and no parameters.
func TestClientSetupByteExact(t *testing.T) {
	t.Parallel()

	want := []byte{
		0x20,       // type
		0x0A,       // length = 10
		0x01,       // num_versions
		0xC0, 0x00, 0x00, 0x00, 0xFF, 0x00, 0x00, 0x0C, // version, 8-byte varint
		0x00, // num_params
	}

	cs := ClientSetup{Versions: []uint64{Version}, Params: NewParams()}
	got := EncodeClientSetup(cs)
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeClientSetup = % x, want % x", got, want)
	}

	decoded, err := DecodeClientSetup(got)
	if err != nil {
		t.Fatalf("DecodeClientSetup: %v", err)
	}
	if len(decoded.Versions) != 1 || decoded.Versions[0] != Version {
		t.Errorf("decoded versions = %v, want [%d]", decoded.Versions, Version)
	}
	if !decoded.SupportsVersion(Version) {
		t.Error("SupportsVersion(Version) = false")
	}
}

// TestServerSetupByteExact checks the wire encoding against the literal
// test vector: selected version 0xff00000c and no parameters.
func TestServerSetupByteExact(t *testing.T) {
	t.Parallel()

	want := []byte{
		0x21, // type
		0x09, // length = 9
		0xC0, 0x00, 0x00, 0x00, 0xFF, 0x00, 0x00, 0x0C,
		0x00, // num_params
	}

	ss := ServerSetup{SelectedVersion: Version, Params: NewParams()}
	got := EncodeServerSetup(ss)
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeServerSetup = % x, want % x", got, want)
	}

	decoded, err := DecodeServerSetup(got)
	if err != nil {
		t.Fatalf("DecodeServerSetup: %v", err)
	}
	if decoded.SelectedVersion != Version {
		t.Errorf("decoded version = 0x%x, want 0x%x", decoded.SelectedVersion, Version)
	}
}

func TestClientSetupRejectsWrongType(t *testing.T) {
	t.Parallel()

	ss := EncodeServerSetup(ServerSetup{SelectedVersion: Version, Params: NewParams()})
	if _, err := DecodeClientSetup(ss); err == nil {
		t.Fatal("expected error decoding a ServerSetup frame as ClientSetup")
	}
}

func TestClientSetupWithParams(t *testing.T) {
	t.Parallel()

	params := NewParams()
	params.SetVarint(ParamMaxRequestID, 64)

	cs := ClientSetup{Versions: []uint64{Version, 0xff00000b}, Params: params}
	buf := EncodeClientSetup(cs)

	decoded, err := DecodeClientSetup(buf)
	if err != nil {
		t.Fatalf("DecodeClientSetup: %v", err)
	}
	if len(decoded.Versions) != 2 {
		t.Fatalf("decoded versions = %v", decoded.Versions)
	}
	v, ok, err := decoded.Params.GetVarint(ParamMaxRequestID)
	if err != nil || !ok || v != 64 {
		t.Errorf("GetVarint(ParamMaxRequestID) = %d, %v, %v", v, ok, err)
	}
}
