package session

import (
	"sync"

	"github.com/coaxial-labs/moqtransport/serve"
)

// incomingTrack lazily binds one delivery mode on a locally-held
// TrackWriter as data arrives for it, demultiplexing streams and
// datagrams tagged with the same track alias onto the right group,
// subgroup, or datagram queue.
type incomingTrack struct {
	tw *serve.TrackWriter

	mu              sync.Mutex
	streamWriter    *serve.StreamWriter
	currentGroup    *serve.GroupWriter
	currentGroupID  uint64
	haveGroup       bool
	subgroupsWriter *serve.SubgroupsWriter
	subgroups       map[[2]uint64]*serve.SubgroupWriter
	datagramsWriter *serve.DatagramsWriter
}

func newIncomingTrack(tw *serve.TrackWriter) *incomingTrack {
	return &incomingTrack{tw: tw, subgroups: make(map[[2]uint64]*serve.SubgroupWriter)}
}

func (t *incomingTrack) stream(priority byte) (*serve.StreamWriter, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.streamWriter != nil {
		return t.streamWriter, nil
	}
	sw, err := t.tw.UseStream(priority)
	if err != nil {
		return nil, err
	}
	t.streamWriter = sw
	return sw, nil
}

// group returns the GroupWriter for id, closing the previous group first if
// id differs (a Stream-mode track interleaves groups on one stream in
// order, so only one group is ever open at a time).
func (t *incomingTrack) group(sw *serve.StreamWriter, id uint64) *serve.GroupWriter {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.haveGroup && t.currentGroupID == id {
		return t.currentGroup
	}
	if t.haveGroup {
		t.currentGroup.Close()
	}
	t.currentGroup = sw.Append(id)
	t.currentGroupID = id
	t.haveGroup = true
	return t.currentGroup
}

func (t *incomingTrack) closeGroup() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.haveGroup {
		t.currentGroup.Close()
		t.haveGroup = false
	}
}

func (t *incomingTrack) subgroupsMode() (*serve.SubgroupsWriter, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subgroupsWriter != nil {
		return t.subgroupsWriter, nil
	}
	sgw, err := t.tw.UseSubgroups()
	if err != nil {
		return nil, err
	}
	t.subgroupsWriter = sgw
	return sgw, nil
}

func (t *incomingTrack) subgroup(sgw *serve.SubgroupsWriter, group, subgroup uint64, priority byte) (*serve.SubgroupWriter, error) {
	key := [2]uint64{group, subgroup}

	t.mu.Lock()
	if sg, ok := t.subgroups[key]; ok {
		t.mu.Unlock()
		return sg, nil
	}
	t.mu.Unlock()

	sg, err := sgw.Create(group, subgroup, priority)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.subgroups[key] = sg
	t.mu.Unlock()
	return sg, nil
}

func (t *incomingTrack) datagramsMode() (*serve.DatagramsWriter, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.datagramsWriter != nil {
		return t.datagramsWriter, nil
	}
	dw, err := t.tw.UseDatagrams()
	if err != nil {
		return nil, err
	}
	t.datagramsWriter = dw
	return dw, nil
}

// trackForAlias returns the demux state registered for alias, or nil if no
// Subscribe is pending or active under that alias.
func (s *Session) trackForAlias(alias uint64) *incomingTrack {
	s.trackAliasMu.Lock()
	defer s.trackAliasMu.Unlock()
	return s.byAlias[alias]
}

func (s *Session) registerAlias(alias uint64, tw *serve.TrackWriter) *incomingTrack {
	t := newIncomingTrack(tw)
	s.trackAliasMu.Lock()
	s.byAlias[alias] = t
	s.trackAliasMu.Unlock()
	return t
}

func (s *Session) unregisterAlias(alias uint64) {
	s.trackAliasMu.Lock()
	delete(s.byAlias, alias)
	s.trackAliasMu.Unlock()
}
