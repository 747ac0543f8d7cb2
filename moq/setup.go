package moq

// Setup stream header type tags. These are not control-message types; they
// are the first bytes sent on the control stream by each peer respectively.
const (
	MsgClientSetup uint64 = 0x20
	MsgServerSetup uint64 = 0x21
)

// Version is the MoQ Transport version this package implements:
// draft-ietf-moq-transport-12 (0xff000000 + draft number).
const Version uint64 = 0xff00000c

// ClientSetup is the first message sent by a MoQ client on the control
// stream: [0x20] [length(varint)] [versions] [params].
type ClientSetup struct {
	Versions []uint64
	Params   Params
}

// ServerSetup is the server's reply: [0x21] [length(varint)] [version] [params].
type ServerSetup struct {
	SelectedVersion uint64
	Params          Params
}

// SupportsVersion reports whether v is one of the client's offered versions.
func (cs ClientSetup) SupportsVersion(v uint64) bool {
	for _, offered := range cs.Versions {
		if offered == v {
			return true
		}
	}
	return false
}

// EncodeClientSetup serializes a ClientSetup frame including its type tag
// and varint length prefix.
func EncodeClientSetup(cs ClientSetup) []byte {
	var body []byte
	body = AppendVarint(body, uint64(len(cs.Versions)))
	for _, v := range cs.Versions {
		body = AppendVarint(body, v)
	}
	body = cs.Params.Encode(body)

	var buf []byte
	buf = AppendVarint(buf, MsgClientSetup)
	buf = AppendVarint(buf, uint64(len(body)))
	return append(buf, body...)
}

// DecodeClientSetup parses a ClientSetup frame, including its leading type
// tag and length. It accepts a PATH parameter whatever the transport, since
// this package has no notion of transport kind; package session does not
// reject PATH on WebTransport connections either.
func DecodeClientSetup(data []byte) (ClientSetup, error) {
	c := newCursor(data)

	typ, err := c.readVarint()
	if err != nil {
		return ClientSetup{}, &ParseError{Field: "type", Err: err}
	}
	if typ != MsgClientSetup {
		return ClientSetup{}, &DecodeError{Kind: ErrInvalidMessage, MessageType: typ}
	}

	length, err := c.readVarint()
	if err != nil {
		return ClientSetup{}, &ParseError{Field: "length", Err: err}
	}
	body, err := c.readBytes(length)
	if err != nil {
		return ClientSetup{}, &ParseError{Field: "body", Err: err}
	}
	bc := newCursor(body)

	numVersions, err := bc.readVarint()
	if err != nil {
		return ClientSetup{}, &ParseError{Field: "num_versions", Err: err}
	}
	versions := make([]uint64, numVersions)
	for i := range versions {
		v, err := bc.readVarint()
		if err != nil {
			return ClientSetup{}, &ParseError{Field: "version", Err: err}
		}
		versions[i] = v
	}

	params, err := DecodeParams(bc)
	if err != nil {
		return ClientSetup{}, err
	}

	return ClientSetup{Versions: versions, Params: params}, nil
}

// EncodeServerSetup serializes a ServerSetup frame including its type tag
// and varint length prefix.
func EncodeServerSetup(ss ServerSetup) []byte {
	var body []byte
	body = AppendVarint(body, ss.SelectedVersion)
	body = ss.Params.Encode(body)

	var buf []byte
	buf = AppendVarint(buf, MsgServerSetup)
	buf = AppendVarint(buf, uint64(len(body)))
	return append(buf, body...)
}

// DecodeServerSetup parses a ServerSetup frame, including its leading type
// tag and length.
func DecodeServerSetup(data []byte) (ServerSetup, error) {
	c := newCursor(data)

	typ, err := c.readVarint()
	if err != nil {
		return ServerSetup{}, &ParseError{Field: "type", Err: err}
	}
	if typ != MsgServerSetup {
		return ServerSetup{}, &DecodeError{Kind: ErrInvalidMessage, MessageType: typ}
	}

	length, err := c.readVarint()
	if err != nil {
		return ServerSetup{}, &ParseError{Field: "length", Err: err}
	}
	body, err := c.readBytes(length)
	if err != nil {
		return ServerSetup{}, &ParseError{Field: "body", Err: err}
	}
	bc := newCursor(body)

	version, err := bc.readVarint()
	if err != nil {
		return ServerSetup{}, &ParseError{Field: "version", Err: err}
	}

	params, err := DecodeParams(bc)
	if err != nil {
		return ServerSetup{}, err
	}

	return ServerSetup{SelectedVersion: version, Params: params}, nil
}
