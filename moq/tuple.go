package moq

import "strings"

// TupleField is a single length-prefixed byte field within a Tuple. Tracks
// index a broadcast's name map by TupleField.
type TupleField string

// Tuple is a length-prefixed sequence of length-prefixed byte fields, used
// to identify a broadcast's namespace. Equality and hashing are field-wise,
// which Go's comparable slice-of-string semantics give for free once
// compared element-by-element (see Equal).
type Tuple []TupleField

// TupleFromUTF8Path splits a '/'-delimited UTF-8 path into tuple fields,
// mirroring the convenience constructor used throughout the reference
// implementation and its CLIs (e.g. "demo/bbb" -> ["demo", "bbb"]).
func TupleFromUTF8Path(path string) Tuple {
	parts := strings.Split(path, "/")
	t := make(Tuple, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		t = append(t, TupleField(p))
	}
	return t
}

// Equal reports whether two tuples have the same fields in the same order.
func (t Tuple) Equal(other Tuple) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the tuple as a '/'-joined path, for logging.
func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, f := range t {
		parts[i] = string(f)
	}
	return strings.Join(parts, "/")
}

// DecodeTuple reads a tuple: [count(varint)] ([len(varint)] [bytes])*.
func DecodeTuple(c *cursor) (Tuple, error) {
	count, err := c.readVarint()
	if err != nil {
		return nil, &ParseError{Field: "tuple_count", Err: err}
	}
	fields := make(Tuple, count)
	for i := uint64(0); i < count; i++ {
		b, err := c.readVarintBytes()
		if err != nil {
			return nil, &ParseError{Field: "tuple_field", Err: err}
		}
		fields[i] = TupleField(b)
	}
	return fields, nil
}

// Encode appends the wire encoding of the tuple to buf.
func (t Tuple) Encode(buf []byte) []byte {
	buf = AppendVarint(buf, uint64(len(t)))
	for _, f := range t {
		buf = appendVarintBytes(buf, []byte(f))
	}
	return buf
}
