package moq

import (
	"bytes"
	"testing"
)

func TestVarintRoundTrip(t *testing.T) {
	t.Parallel()

	values := []uint64{
		0, 1, 63, 64, 16383, 16384,
		1<<30 - 1, 1 << 30, MaxVarint,
	}

	for _, v := range values {
		buf := AppendVarint(nil, v)
		if len(buf) != VarintLen(v) {
			t.Errorf("VarintLen(%d) = %d, encoded length = %d", v, VarintLen(v), len(buf))
		}

		c := newCursor(buf)
		got, err := c.readVarint()
		if err != nil {
			t.Fatalf("readVarint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round-trip %d: got %d", v, got)
		}
		if c.remaining() != 0 {
			t.Errorf("round-trip %d: %d bytes left over", v, c.remaining())
		}
	}
}

func TestVarintTruncated(t *testing.T) {
	t.Parallel()

	full := AppendVarint(nil, 1<<20)
	for n := 0; n < len(full); n++ {
		c := newCursor(full[:n])
		if _, err := c.readVarint(); err == nil {
			t.Errorf("readVarint on %d/%d bytes: expected error", n, len(full))
		}
	}
}

func TestReadBytesBounds(t *testing.T) {
	t.Parallel()

	c := newCursor([]byte{1, 2, 3})
	if _, err := c.readBytes(4); err == nil {
		t.Error("readBytes(4) on 3-byte cursor: expected error")
	}

	c = newCursor([]byte{1, 2, 3})
	got, err := c.readBytes(3)
	if err != nil {
		t.Fatalf("readBytes(3): %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("readBytes(3) = %v", got)
	}
}

func TestReadStringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "a", "hello world", "catalog.json"} {
		buf := appendString(nil, s)
		c := newCursor(buf)
		got, err := c.readString()
		if err != nil {
			t.Fatalf("readString(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("readString round-trip: got %q, want %q", got, s)
		}
	}
}
