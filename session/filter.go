package session

import "github.com/coaxial-labs/moqtransport/moq"

// subscribeFilter bounds which locations of a track get forwarded to a
// subscriber, derived from a Subscribe message's filter_type/start/
// end_group. LatestObject and NextGroupStart both deliver everything the
// reader produces from its current position onward, so neither field
// needs checking for them.
type subscribeFilter struct {
	kind     moq.FilterType
	start    moq.Location
	endGroup uint64
}

func newSubscribeFilter(sub moq.Subscribe) subscribeFilter {
	return subscribeFilter{kind: sub.FilterType, start: sub.Start, endGroup: sub.EndGroup}
}

// validFilterType reports whether t is one of the four filter types this
// session knows how to apply.
func validFilterType(t moq.FilterType) bool {
	switch t {
	case moq.FilterNextGroupStart, moq.FilterLatestObject, moq.FilterAbsoluteStart, moq.FilterAbsoluteRange:
		return true
	default:
		return false
	}
}

// skipGroup reports whether an entire group is before the filter's start
// and can be dropped without inspecting its objects.
func (f subscribeFilter) skipGroup(group uint64) bool {
	switch f.kind {
	case moq.FilterAbsoluteStart, moq.FilterAbsoluteRange:
		return group < f.start.Group
	default:
		return false
	}
}

// pastEnd reports whether group is beyond an AbsoluteRange filter's
// end_group, meaning delivery should stop entirely.
func (f subscribeFilter) pastEnd(group uint64) bool {
	return f.kind == moq.FilterAbsoluteRange && group > f.endGroup
}

// skipObject reports whether one object within the filter's boundary
// group should still be dropped, per AbsoluteStart/AbsoluteRange's
// "for the boundary group, skip objects with object_id < o" rule.
func (f subscribeFilter) skipObject(loc moq.Location) bool {
	switch f.kind {
	case moq.FilterAbsoluteStart, moq.FilterAbsoluteRange:
		return loc.Group == f.start.Group && loc.Object < f.start.Object
	default:
		return false
	}
}
