package moq

// Parameter kinds used by Setup and control messages.
const (
	ParamPath         uint64 = 0x01 // odd -> length-prefixed byte string; forbidden over WebTransport
	ParamMaxRequestID uint64 = 0x02 // even -> varint value
	ParamAuthToken    uint64 = 0x03 // odd -> length-prefixed bytes; only kind allowed to repeat
)

// MaxParamLen is the maximum encoded length of a single odd-kind
// (length-prefixed) parameter value.
const MaxParamLen = 8192

// Params is a mapping from varint kind to opaque bytes. Keys whose low bit
// is 0 carry a single varint value with no length prefix; keys whose low
// bit is 1 carry a length-prefixed byte string. Being a Go map, Params keeps
// no order and holds one value per kind; DecodeParams describes how a
// repeated kind is handled.
type Params map[uint64][]byte

// NewParams returns an empty parameter map.
func NewParams() Params {
	return make(Params)
}

// Has reports whether kind is present.
func (p Params) Has(kind uint64) bool {
	_, ok := p[kind]
	return ok
}

// SetVarint stores an even-kind (bare varint) parameter.
func (p Params) SetVarint(kind uint64, v uint64) {
	p[kind] = AppendVarint(nil, v)
}

// SetBytes stores an odd-kind (length-prefixed) parameter.
func (p Params) SetBytes(kind uint64, v []byte) {
	p[kind] = append([]byte(nil), v...)
}

// GetVarint decodes an even-kind parameter's value.
func (p Params) GetVarint(kind uint64) (uint64, bool, error) {
	raw, ok := p[kind]
	if !ok {
		return 0, false, nil
	}
	c := newCursor(raw)
	v, err := c.readVarint()
	if err != nil {
		return 0, true, newDecodeError(ErrInvalidValueKind)
	}
	return v, true, nil
}

// GetBytes returns an odd-kind parameter's raw bytes.
func (p Params) GetBytes(kind uint64) ([]byte, bool) {
	raw, ok := p[kind]
	return raw, ok
}

// DecodeParams reads a parameter map: [count(varint)] ([kind(varint)]
// [value])*. Duplicate keys are rejected except for ParamAuthToken. Every
// even-kind value must itself be a valid varint; every odd-kind value is
// length-prefixed and capped at MaxParamLen bytes.
func DecodeParams(c *cursor) (Params, error) {
	count, err := c.readVarint()
	if err != nil {
		return nil, &ParseError{Field: "num_params", Err: err}
	}

	params := make(Params, count)
	for i := uint64(0); i < count; i++ {
		kind, err := c.readVarint()
		if err != nil {
			return nil, &ParseError{Field: "param_kind", Err: err}
		}

		if _, dup := params[kind]; dup && kind != ParamAuthToken {
			return nil, newDecodeError(ErrDuplicateParameterKind)
		}

		if kind%2 == 0 {
			start := c.pos
			if _, err := c.readVarint(); err != nil {
				return nil, &ParseError{Field: "param_value", Err: err}
			}
			params[kind] = append([]byte(nil), c.data[start:c.pos]...)
		} else {
			n, err := c.readVarint()
			if err != nil {
				return nil, &ParseError{Field: "param_length", Err: err}
			}
			if n > MaxParamLen {
				return nil, newDecodeError(ErrInvalidParameterKind)
			}
			val, err := c.readBytes(n)
			if err != nil {
				return nil, &ParseError{Field: "param_value", Err: err}
			}
			params[kind] = append([]byte(nil), val...)
		}
	}

	return params, nil
}

// Encode appends the wire encoding of the parameter map to buf. Key
// iteration order doesn't matter for round-trip equality (spec §8: "order-
// independent equality"), so map range order is fine.
func (p Params) Encode(buf []byte) []byte {
	buf = AppendVarint(buf, uint64(len(p)))
	for kind, value := range p {
		buf = AppendVarint(buf, kind)
		if kind%2 == 0 {
			buf = append(buf, value...)
		} else {
			buf = appendVarintBytes(buf, value)
		}
	}
	return buf
}
