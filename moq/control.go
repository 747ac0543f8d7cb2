package moq

// Control-message type tags carried on the bidirectional control stream
// (draft-ietf-moq-transport-12 numbering).
const (
	MsgSubscribeUpdate        uint64 = 0x02
	MsgSubscribe              uint64 = 0x03
	MsgSubscribeOk            uint64 = 0x04
	MsgSubscribeError         uint64 = 0x05
	MsgAnnounce               uint64 = 0x06
	MsgAnnounceOk             uint64 = 0x07
	MsgAnnounceError          uint64 = 0x08
	MsgUnannounce             uint64 = 0x09
	MsgUnsubscribe            uint64 = 0x0a
	MsgSubscribeDone          uint64 = 0x0b
	MsgTrackStatusRequest     uint64 = 0x0d
	MsgTrackStatus            uint64 = 0x0e
	MsgSubscribeNamespace     uint64 = 0x11
	MsgSubscribeNamespaceOk   uint64 = 0x12
	MsgUnsubscribeNamespace   uint64 = 0x14
	MsgGoAway                 uint64 = 0x10
	MsgFetch                  uint64 = 0x16
	MsgFetchCancel            uint64 = 0x17
	MsgFetchOk                uint64 = 0x18
	MsgFetchError             uint64 = 0x19
)

// FilterType selects how a Subscribe or SubscribeUpdate anchors delivery.
type FilterType uint64

const (
	FilterNextGroupStart FilterType = 0x01
	FilterLatestObject   FilterType = 0x02
	FilterAbsoluteStart  FilterType = 0x03
	FilterAbsoluteRange  FilterType = 0x04
)

// GroupOrder controls the order groups are delivered in.
type GroupOrder byte

const (
	GroupOrderPublisher  GroupOrder = 0x00
	GroupOrderAscending  GroupOrder = 0x01
	GroupOrderDescending GroupOrder = 0x02
)

// Location identifies a (group, object) pair, used for subscribe filter
// boundaries and largest-location reporting.
type Location struct {
	Group  uint64
	Object uint64
}

// Less reports whether l sorts strictly before other by (group, object).
func (l Location) Less(other Location) bool {
	if l.Group != other.Group {
		return l.Group < other.Group
	}
	return l.Object < other.Object
}

// Subscribe requests delivery of a track.
type Subscribe struct {
	ID          uint64
	TrackAlias  uint64
	Namespace   Tuple
	TrackName   string
	Priority    byte
	GroupOrder  GroupOrder
	FilterType  FilterType
	Start       Location // valid for AbsoluteStart, AbsoluteRange
	EndGroup    uint64   // valid for AbsoluteRange
	Params      Params
}

// EncodeSubscribe serializes the Subscribe payload (without the
// [type][length] envelope — callers pass this to WriteControlMessage).
func EncodeSubscribe(s Subscribe) []byte {
	var buf []byte
	buf = AppendVarint(buf, s.ID)
	buf = AppendVarint(buf, s.TrackAlias)
	buf = s.Namespace.Encode(buf)
	buf = appendString(buf, s.TrackName)
	buf = append(buf, s.Priority)
	buf = append(buf, byte(s.GroupOrder))
	buf = AppendVarint(buf, uint64(s.FilterType))

	switch s.FilterType {
	case FilterAbsoluteStart:
		buf = AppendVarint(buf, s.Start.Group)
		buf = AppendVarint(buf, s.Start.Object)
	case FilterAbsoluteRange:
		buf = AppendVarint(buf, s.Start.Group)
		buf = AppendVarint(buf, s.Start.Object)
		buf = AppendVarint(buf, s.EndGroup)
	}

	buf = s.Params.Encode(buf)
	return buf
}

// DecodeSubscribe parses a Subscribe payload.
func DecodeSubscribe(payload []byte) (Subscribe, error) {
	c := newCursor(payload)
	var s Subscribe

	var err error
	if s.ID, err = c.readVarint(); err != nil {
		return s, &ParseError{Field: "id", Err: err}
	}
	if s.TrackAlias, err = c.readVarint(); err != nil {
		return s, &ParseError{Field: "track_alias", Err: err}
	}
	if s.Namespace, err = DecodeTuple(c); err != nil {
		return s, &ParseError{Field: "namespace", Err: err}
	}
	if s.TrackName, err = c.readString(); err != nil {
		return s, &ParseError{Field: "track_name", Err: err}
	}
	if s.Priority, err = c.readByte(); err != nil {
		return s, &ParseError{Field: "priority", Err: err}
	}
	groupOrder, err := c.readByte()
	if err != nil {
		return s, &ParseError{Field: "group_order", Err: err}
	}
	s.GroupOrder = GroupOrder(groupOrder)

	filterType, err := c.readVarint()
	if err != nil {
		return s, &ParseError{Field: "filter_type", Err: err}
	}
	s.FilterType = FilterType(filterType)

	switch s.FilterType {
	case FilterAbsoluteStart:
		if s.Start.Group, err = c.readVarint(); err != nil {
			return s, &ParseError{Field: "start_group", Err: err}
		}
		if s.Start.Object, err = c.readVarint(); err != nil {
			return s, &ParseError{Field: "start_object", Err: err}
		}
	case FilterAbsoluteRange:
		if s.Start.Group, err = c.readVarint(); err != nil {
			return s, &ParseError{Field: "start_group", Err: err}
		}
		if s.Start.Object, err = c.readVarint(); err != nil {
			return s, &ParseError{Field: "start_object", Err: err}
		}
		if s.EndGroup, err = c.readVarint(); err != nil {
			return s, &ParseError{Field: "end_group", Err: err}
		}
	case FilterNextGroupStart, FilterLatestObject:
		// no bounds fields
	default:
		return s, newDecodeError(ErrInvalidValueKind)
	}

	if s.Params, err = DecodeParams(c); err != nil {
		return s, err
	}

	return s, nil
}

// SubscribeOk confirms a subscription.
type SubscribeOk struct {
	ID            uint64
	TrackAlias    uint64
	Expires       uint64 // milliseconds; 0 = never
	GroupOrder    GroupOrder
	ContentExists bool
	LargestLoc    Location // valid iff ContentExists
	Params        Params
}

func EncodeSubscribeOk(ok SubscribeOk) []byte {
	var buf []byte
	buf = AppendVarint(buf, ok.ID)
	buf = AppendVarint(buf, ok.TrackAlias)
	buf = AppendVarint(buf, ok.Expires)
	buf = append(buf, byte(ok.GroupOrder))

	if ok.ContentExists {
		buf = append(buf, 1)
		buf = AppendVarint(buf, ok.LargestLoc.Group)
		buf = AppendVarint(buf, ok.LargestLoc.Object)
	} else {
		buf = append(buf, 0)
	}

	buf = ok.Params.Encode(buf)
	return buf
}

func DecodeSubscribeOk(payload []byte) (SubscribeOk, error) {
	c := newCursor(payload)
	var ok SubscribeOk
	var err error

	if ok.ID, err = c.readVarint(); err != nil {
		return ok, &ParseError{Field: "id", Err: err}
	}
	if ok.TrackAlias, err = c.readVarint(); err != nil {
		return ok, &ParseError{Field: "track_alias", Err: err}
	}
	if ok.Expires, err = c.readVarint(); err != nil {
		return ok, &ParseError{Field: "expires", Err: err}
	}
	groupOrder, err := c.readByte()
	if err != nil {
		return ok, &ParseError{Field: "group_order", Err: err}
	}
	ok.GroupOrder = GroupOrder(groupOrder)

	contentExists, err := c.readByte()
	if err != nil {
		return ok, &ParseError{Field: "content_exists", Err: err}
	}
	switch contentExists {
	case 0:
		ok.ContentExists = false
	case 1:
		ok.ContentExists = true
		if ok.LargestLoc.Group, err = c.readVarint(); err != nil {
			return ok, &ParseError{Field: "largest_group", Err: err}
		}
		if ok.LargestLoc.Object, err = c.readVarint(); err != nil {
			return ok, &ParseError{Field: "largest_object", Err: err}
		}
	default:
		return ok, newDecodeError(ErrInvalidValueKind)
	}

	if ok.Params, err = DecodeParams(c); err != nil {
		return ok, err
	}

	return ok, nil
}

// SubscribeError rejects a subscription.
type SubscribeError struct {
	ID     uint64
	Code   uint64
	Reason string
}

func EncodeSubscribeError(se SubscribeError) []byte {
	var buf []byte
	buf = AppendVarint(buf, se.ID)
	buf = AppendVarint(buf, se.Code)
	buf = appendString(buf, se.Reason)
	return buf
}

func DecodeSubscribeError(payload []byte) (SubscribeError, error) {
	c := newCursor(payload)
	var se SubscribeError
	var err error
	if se.ID, err = c.readVarint(); err != nil {
		return se, &ParseError{Field: "id", Err: err}
	}
	if se.Code, err = c.readVarint(); err != nil {
		return se, &ParseError{Field: "code", Err: err}
	}
	if se.Reason, err = c.readString(); err != nil {
		return se, &ParseError{Field: "reason", Err: err}
	}
	return se, nil
}

// SubscribeDone is sent by the publisher to cleanly terminate a Subscribe.
type SubscribeDone struct {
	ID     uint64
	Code   uint64
	Count  uint64
	Reason string
}

func EncodeSubscribeDone(d SubscribeDone) []byte {
	var buf []byte
	buf = AppendVarint(buf, d.ID)
	buf = AppendVarint(buf, d.Code)
	buf = AppendVarint(buf, d.Count)
	buf = appendString(buf, d.Reason)
	return buf
}

func DecodeSubscribeDone(payload []byte) (SubscribeDone, error) {
	c := newCursor(payload)
	var d SubscribeDone
	var err error
	if d.ID, err = c.readVarint(); err != nil {
		return d, &ParseError{Field: "id", Err: err}
	}
	if d.Code, err = c.readVarint(); err != nil {
		return d, &ParseError{Field: "code", Err: err}
	}
	if d.Count, err = c.readVarint(); err != nil {
		return d, &ParseError{Field: "count", Err: err}
	}
	if d.Reason, err = c.readString(); err != nil {
		return d, &ParseError{Field: "reason", Err: err}
	}
	return d, nil
}

// SubscribeUpdate narrows an active subscription. A zero EndGroup means
// open-ended; a nonzero value denotes inclusive end group EndGroup-1 (the
// +1 on the wire lets 0 mean "absent").
type SubscribeUpdate struct {
	ID       uint64
	Start    Location
	EndGroup uint64
	Priority byte
	Params   Params
}

func EncodeSubscribeUpdate(u SubscribeUpdate) []byte {
	var buf []byte
	buf = AppendVarint(buf, u.ID)
	buf = AppendVarint(buf, u.Start.Group)
	buf = AppendVarint(buf, u.Start.Object)
	buf = AppendVarint(buf, u.EndGroup)
	buf = append(buf, u.Priority)
	buf = u.Params.Encode(buf)
	return buf
}

func DecodeSubscribeUpdate(payload []byte) (SubscribeUpdate, error) {
	c := newCursor(payload)
	var u SubscribeUpdate
	var err error
	if u.ID, err = c.readVarint(); err != nil {
		return u, &ParseError{Field: "id", Err: err}
	}
	if u.Start.Group, err = c.readVarint(); err != nil {
		return u, &ParseError{Field: "start_group", Err: err}
	}
	if u.Start.Object, err = c.readVarint(); err != nil {
		return u, &ParseError{Field: "start_object", Err: err}
	}
	if u.EndGroup, err = c.readVarint(); err != nil {
		return u, &ParseError{Field: "end_group", Err: err}
	}
	if u.Priority, err = c.readByte(); err != nil {
		return u, &ParseError{Field: "priority", Err: err}
	}
	if u.Params, err = DecodeParams(c); err != nil {
		return u, err
	}
	return u, nil
}

// Unsubscribe cancels a subscription.
type Unsubscribe struct {
	ID uint64
}

func EncodeUnsubscribe(u Unsubscribe) []byte {
	return AppendVarint(nil, u.ID)
}

func DecodeUnsubscribe(payload []byte) (Unsubscribe, error) {
	c := newCursor(payload)
	id, err := c.readVarint()
	if err != nil {
		return Unsubscribe{}, &ParseError{Field: "id", Err: err}
	}
	return Unsubscribe{ID: id}, nil
}

// Announce advertises a namespace to a peer.
type Announce struct {
	Namespace Tuple
	Params    Params
}

func EncodeAnnounce(a Announce) []byte {
	buf := a.Namespace.Encode(nil)
	return a.Params.Encode(buf)
}

func DecodeAnnounce(payload []byte) (Announce, error) {
	c := newCursor(payload)
	var a Announce
	var err error
	if a.Namespace, err = DecodeTuple(c); err != nil {
		return a, &ParseError{Field: "namespace", Err: err}
	}
	if a.Params, err = DecodeParams(c); err != nil {
		return a, err
	}
	return a, nil
}

// AnnounceOk accepts an Announce.
type AnnounceOk struct {
	Namespace Tuple
}

func EncodeAnnounceOk(a AnnounceOk) []byte {
	return a.Namespace.Encode(nil)
}

func DecodeAnnounceOk(payload []byte) (AnnounceOk, error) {
	c := newCursor(payload)
	ns, err := DecodeTuple(c)
	if err != nil {
		return AnnounceOk{}, &ParseError{Field: "namespace", Err: err}
	}
	return AnnounceOk{Namespace: ns}, nil
}

// AnnounceError rejects an Announce.
type AnnounceError struct {
	Namespace Tuple
	Code      uint64
	Reason    string
}

func EncodeAnnounceError(a AnnounceError) []byte {
	buf := a.Namespace.Encode(nil)
	buf = AppendVarint(buf, a.Code)
	buf = appendString(buf, a.Reason)
	return buf
}

func DecodeAnnounceError(payload []byte) (AnnounceError, error) {
	c := newCursor(payload)
	var a AnnounceError
	var err error
	if a.Namespace, err = DecodeTuple(c); err != nil {
		return a, &ParseError{Field: "namespace", Err: err}
	}
	if a.Code, err = c.readVarint(); err != nil {
		return a, &ParseError{Field: "code", Err: err}
	}
	if a.Reason, err = c.readString(); err != nil {
		return a, &ParseError{Field: "reason", Err: err}
	}
	return a, nil
}

// Unannounce withdraws a previously announced namespace.
type Unannounce struct {
	Namespace Tuple
}

func EncodeUnannounce(u Unannounce) []byte {
	return u.Namespace.Encode(nil)
}

func DecodeUnannounce(payload []byte) (Unannounce, error) {
	c := newCursor(payload)
	ns, err := DecodeTuple(c)
	if err != nil {
		return Unannounce{}, &ParseError{Field: "namespace", Err: err}
	}
	return Unannounce{Namespace: ns}, nil
}

// Fetch bounded-retrieves a range of a track.
type Fetch struct {
	ID         uint64
	Namespace  Tuple
	TrackName  string
	Priority   byte
	GroupOrder GroupOrder
	StartGroup uint64
	StartObj   uint64
	EndGroup   uint64
	EndObj     uint64
	Params     Params
}

func EncodeFetch(f Fetch) []byte {
	var buf []byte
	buf = AppendVarint(buf, f.ID)
	buf = f.Namespace.Encode(buf)
	buf = appendString(buf, f.TrackName)
	buf = append(buf, f.Priority)
	buf = append(buf, byte(f.GroupOrder))
	buf = AppendVarint(buf, f.StartGroup)
	buf = AppendVarint(buf, f.StartObj)
	buf = AppendVarint(buf, f.EndGroup)
	buf = AppendVarint(buf, f.EndObj)
	buf = f.Params.Encode(buf)
	return buf
}

func DecodeFetch(payload []byte) (Fetch, error) {
	c := newCursor(payload)
	var f Fetch
	var err error
	if f.ID, err = c.readVarint(); err != nil {
		return f, &ParseError{Field: "id", Err: err}
	}
	if f.Namespace, err = DecodeTuple(c); err != nil {
		return f, &ParseError{Field: "namespace", Err: err}
	}
	if f.TrackName, err = c.readString(); err != nil {
		return f, &ParseError{Field: "track_name", Err: err}
	}
	if f.Priority, err = c.readByte(); err != nil {
		return f, &ParseError{Field: "priority", Err: err}
	}
	groupOrder, err := c.readByte()
	if err != nil {
		return f, &ParseError{Field: "group_order", Err: err}
	}
	f.GroupOrder = GroupOrder(groupOrder)
	if f.StartGroup, err = c.readVarint(); err != nil {
		return f, &ParseError{Field: "start_group", Err: err}
	}
	if f.StartObj, err = c.readVarint(); err != nil {
		return f, &ParseError{Field: "start_object", Err: err}
	}
	if f.EndGroup, err = c.readVarint(); err != nil {
		return f, &ParseError{Field: "end_group", Err: err}
	}
	if f.EndObj, err = c.readVarint(); err != nil {
		return f, &ParseError{Field: "end_object", Err: err}
	}
	if f.Params, err = DecodeParams(c); err != nil {
		return f, err
	}
	return f, nil
}

// FetchOk accepts a Fetch. LargestLoc is the track's latest location,
// snapshotted at acceptance time (spec invariant 6): when the track had
// content at that point, later writes beyond this location are not
// delivered on this fetch.
type FetchOk struct {
	ID          uint64
	GroupOrder  GroupOrder
	EndOfTrack  bool
	LargestLoc  Location
	Params      Params
}

func EncodeFetchOk(f FetchOk) []byte {
	var buf []byte
	buf = AppendVarint(buf, f.ID)
	buf = append(buf, byte(f.GroupOrder))
	if f.EndOfTrack {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = AppendVarint(buf, f.LargestLoc.Group)
	buf = AppendVarint(buf, f.LargestLoc.Object)
	buf = f.Params.Encode(buf)
	return buf
}

func DecodeFetchOk(payload []byte) (FetchOk, error) {
	c := newCursor(payload)
	var f FetchOk
	var err error
	if f.ID, err = c.readVarint(); err != nil {
		return f, &ParseError{Field: "id", Err: err}
	}
	groupOrder, err := c.readByte()
	if err != nil {
		return f, &ParseError{Field: "group_order", Err: err}
	}
	f.GroupOrder = GroupOrder(groupOrder)
	eot, err := c.readByte()
	if err != nil {
		return f, &ParseError{Field: "end_of_track", Err: err}
	}
	f.EndOfTrack = eot != 0
	if f.LargestLoc.Group, err = c.readVarint(); err != nil {
		return f, &ParseError{Field: "largest_group", Err: err}
	}
	if f.LargestLoc.Object, err = c.readVarint(); err != nil {
		return f, &ParseError{Field: "largest_object", Err: err}
	}
	if f.Params, err = DecodeParams(c); err != nil {
		return f, err
	}
	return f, nil
}

// FetchError rejects a Fetch.
type FetchError struct {
	ID     uint64
	Code   uint64
	Reason string
}

func EncodeFetchError(f FetchError) []byte {
	var buf []byte
	buf = AppendVarint(buf, f.ID)
	buf = AppendVarint(buf, f.Code)
	buf = appendString(buf, f.Reason)
	return buf
}

func DecodeFetchError(payload []byte) (FetchError, error) {
	c := newCursor(payload)
	var f FetchError
	var err error
	if f.ID, err = c.readVarint(); err != nil {
		return f, &ParseError{Field: "id", Err: err}
	}
	if f.Code, err = c.readVarint(); err != nil {
		return f, &ParseError{Field: "code", Err: err}
	}
	if f.Reason, err = c.readString(); err != nil {
		return f, &ParseError{Field: "reason", Err: err}
	}
	return f, nil
}

// FetchCancel aborts an in-flight Fetch.
type FetchCancel struct {
	ID uint64
}

func EncodeFetchCancel(f FetchCancel) []byte {
	return AppendVarint(nil, f.ID)
}

func DecodeFetchCancel(payload []byte) (FetchCancel, error) {
	c := newCursor(payload)
	id, err := c.readVarint()
	if err != nil {
		return FetchCancel{}, &ParseError{Field: "id", Err: err}
	}
	return FetchCancel{ID: id}, nil
}

// GoAway signals a graceful session shutdown, optionally redirecting the
// peer to a new session URI.
type GoAway struct {
	NewSessionURI string
}

func EncodeGoAway(g GoAway) []byte {
	return appendString(nil, g.NewSessionURI)
}

func DecodeGoAway(payload []byte) (GoAway, error) {
	c := newCursor(payload)
	uri, err := c.readString()
	if err != nil {
		return GoAway{}, &ParseError{Field: "new_session_uri", Err: err}
	}
	return GoAway{NewSessionURI: uri}, nil
}

// SubscribeNamespace requests announcements for every namespace under a prefix.
type SubscribeNamespace struct {
	NamespacePrefix Tuple
	Params          Params
}

func EncodeSubscribeNamespace(s SubscribeNamespace) []byte {
	buf := s.NamespacePrefix.Encode(nil)
	return s.Params.Encode(buf)
}

func DecodeSubscribeNamespace(payload []byte) (SubscribeNamespace, error) {
	c := newCursor(payload)
	var s SubscribeNamespace
	var err error
	if s.NamespacePrefix, err = DecodeTuple(c); err != nil {
		return s, &ParseError{Field: "namespace_prefix", Err: err}
	}
	if s.Params, err = DecodeParams(c); err != nil {
		return s, err
	}
	return s, nil
}

// SubscribeNamespaceOk confirms a SubscribeNamespace.
type SubscribeNamespaceOk struct {
	NamespacePrefix Tuple
}

func EncodeSubscribeNamespaceOk(s SubscribeNamespaceOk) []byte {
	return s.NamespacePrefix.Encode(nil)
}

func DecodeSubscribeNamespaceOk(payload []byte) (SubscribeNamespaceOk, error) {
	c := newCursor(payload)
	ns, err := DecodeTuple(c)
	if err != nil {
		return SubscribeNamespaceOk{}, &ParseError{Field: "namespace_prefix", Err: err}
	}
	return SubscribeNamespaceOk{NamespacePrefix: ns}, nil
}

// UnsubscribeNamespace cancels a SubscribeNamespace.
type UnsubscribeNamespace struct {
	NamespacePrefix Tuple
}

func EncodeUnsubscribeNamespace(u UnsubscribeNamespace) []byte {
	return u.NamespacePrefix.Encode(nil)
}

func DecodeUnsubscribeNamespace(payload []byte) (UnsubscribeNamespace, error) {
	c := newCursor(payload)
	ns, err := DecodeTuple(c)
	if err != nil {
		return UnsubscribeNamespace{}, &ParseError{Field: "namespace_prefix", Err: err}
	}
	return UnsubscribeNamespace{NamespacePrefix: ns}, nil
}

// TrackStatusRequest asks the peer for an out-of-band status of a track.
type TrackStatusRequest struct {
	Namespace Tuple
	TrackName string
}

func EncodeTrackStatusRequest(t TrackStatusRequest) []byte {
	buf := t.Namespace.Encode(nil)
	return appendString(buf, t.TrackName)
}

func DecodeTrackStatusRequest(payload []byte) (TrackStatusRequest, error) {
	c := newCursor(payload)
	var t TrackStatusRequest
	var err error
	if t.Namespace, err = DecodeTuple(c); err != nil {
		return t, &ParseError{Field: "namespace", Err: err}
	}
	if t.TrackName, err = c.readString(); err != nil {
		return t, &ParseError{Field: "track_name", Err: err}
	}
	return t, nil
}

// TrackStatusCode reports track availability.
type TrackStatusCode uint64

const (
	TrackStatusOk             TrackStatusCode = 0x00
	TrackStatusDoesNotExist   TrackStatusCode = 0x01
	TrackStatusNotYetBegun    TrackStatusCode = 0x02
	TrackStatusFinished       TrackStatusCode = 0x03
)

// TrackStatus replies to a TrackStatusRequest.
type TrackStatus struct {
	Namespace  Tuple
	TrackName  string
	StatusCode TrackStatusCode
	LargestLoc Location
}

func EncodeTrackStatus(t TrackStatus) []byte {
	buf := t.Namespace.Encode(nil)
	buf = appendString(buf, t.TrackName)
	buf = AppendVarint(buf, uint64(t.StatusCode))
	buf = AppendVarint(buf, t.LargestLoc.Group)
	buf = AppendVarint(buf, t.LargestLoc.Object)
	return buf
}

func DecodeTrackStatus(payload []byte) (TrackStatus, error) {
	c := newCursor(payload)
	var t TrackStatus
	var err error
	if t.Namespace, err = DecodeTuple(c); err != nil {
		return t, &ParseError{Field: "namespace", Err: err}
	}
	if t.TrackName, err = c.readString(); err != nil {
		return t, &ParseError{Field: "track_name", Err: err}
	}
	statusCode, err := c.readVarint()
	if err != nil {
		return t, &ParseError{Field: "status_code", Err: err}
	}
	t.StatusCode = TrackStatusCode(statusCode)
	if t.LargestLoc.Group, err = c.readVarint(); err != nil {
		return t, &ParseError{Field: "largest_group", Err: err}
	}
	if t.LargestLoc.Object, err = c.readVarint(); err != nil {
		return t, &ParseError{Field: "largest_object", Err: err}
	}
	return t, nil
}
