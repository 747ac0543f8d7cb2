package moq

import (
	"github.com/quic-go/quic-go/quicvarint"
)

// MaxVarint is the largest value representable by a MoQ/QUIC variable-length
// integer (62-bit value space).
const MaxVarint = uint64(1)<<62 - 1

// AppendVarint appends the QUIC variable-length encoding of v to buf,
// selecting the minimal 1/2/4/8-byte form from the two high bits of the
// first byte, covering [0,2^6), [2^6,2^14), [2^14,2^30), [2^30,2^62)
// respectively.
func AppendVarint(buf []byte, v uint64) []byte {
	return quicvarint.Append(buf, v)
}

// VarintLen returns the number of bytes AppendVarint would write for v.
func VarintLen(v uint64) int {
	return quicvarint.Len(v)
}

// cursor reads sequentially from a byte slice, used by every control message
// and data header decoder. It never panics on short input: every read
// returns ErrUnexpectedEnd instead, so a session layer that only has a
// partial frame can retry once more bytes arrive.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) readVarint() (uint64, error) {
	if c.pos >= len(c.data) {
		return 0, newDecodeError(ErrUnexpectedEnd)
	}
	v, n, err := quicvarint.Parse(c.data[c.pos:])
	if err != nil {
		return 0, newDecodeError(ErrUnexpectedEnd)
	}
	c.pos += n
	return v, nil
}

func (c *cursor) readByte() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, newDecodeError(ErrUnexpectedEnd)
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) readBytes(n uint64) ([]byte, error) {
	if n > uint64(c.remaining()) {
		return nil, newDecodeError(ErrUnexpectedEnd)
	}
	end := c.pos + int(n)
	v := c.data[c.pos:end]
	c.pos = end
	return v, nil
}

func (c *cursor) readVarintBytes() ([]byte, error) {
	n, err := c.readVarint()
	if err != nil {
		return nil, err
	}
	return c.readBytes(n)
}

func (c *cursor) readString() (string, error) {
	b, err := c.readVarintBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// appendVarintBytes appends a varint-length-prefixed byte string to buf.
func appendVarintBytes(buf []byte, data []byte) []byte {
	buf = AppendVarint(buf, uint64(len(data)))
	buf = append(buf, data...)
	return buf
}

func appendString(buf []byte, s string) []byte {
	return appendVarintBytes(buf, []byte(s))
}
