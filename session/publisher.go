package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/serve"
)

// handlePeerSubscribe answers a Subscribe the peer sent us by resolving it
// against the local TrackSource and, on success, spawning a goroutine that
// pumps the resulting TrackReader onto new streams or datagrams tagged
// with the peer's chosen track alias, bounded by the requested filter.
func (s *Session) handlePeerSubscribe(ctx context.Context, sub moq.Subscribe) error {
	if !validFilterType(sub.FilterType) {
		se := &SessionError{Op: "subscribe", code: errCodeBadRequest, Err: moq.ErrUnsupportedFilter}
		return s.writeControl(moq.MsgSubscribeError, moq.EncodeSubscribeError(moq.SubscribeError{
			ID: sub.ID, Code: se.Code(), Reason: se.Error(),
		}))
	}

	if s.local == nil {
		se := &SessionError{Op: "subscribe", code: errCodeNotFound, Err: moq.ErrUnknownNamespace}
		return s.writeControl(moq.MsgSubscribeError, moq.EncodeSubscribeError(moq.SubscribeError{
			ID: sub.ID, Code: se.Code(), Reason: se.Error(),
		}))
	}

	tr, err := s.local.Subscribe(ctx, sub.Namespace, sub.TrackName)
	if err != nil {
		se := trackLookupError("subscribe", err)
		return s.writeControl(moq.MsgSubscribeError, moq.EncodeSubscribeError(moq.SubscribeError{
			ID: sub.ID, Code: se.Code(), Reason: se.Error(),
		}))
	}

	ok := moq.SubscribeOk{ID: sub.ID, TrackAlias: sub.TrackAlias, GroupOrder: sub.GroupOrder}
	if loc, exists := tr.Latest(); exists {
		ok.ContentExists = true
		ok.LargestLoc = loc
	}
	if err := s.writeControl(moq.MsgSubscribeOk, moq.EncodeSubscribeOk(ok)); err != nil {
		return err
	}

	pubCtx, cancel := context.WithCancel(ctx)
	s.pubMu.Lock()
	s.serving[sub.ID] = &servingSubscribe{trackAlias: sub.TrackAlias, reader: tr, cancel: cancel}
	s.pubMu.Unlock()

	go s.servePublisherTrack(pubCtx, sub.ID, sub.TrackAlias, tr, newSubscribeFilter(sub))
	return nil
}

// trackLookupError rewrites a serve.ErrNotFound failure from a TrackSource
// with the wire-facing moq.ErrUnknownTrack sentinel: "not found" from the
// serve package conflates several internal reasons into one we don't want
// to leak verbatim to the peer. Its numeric code still comes from the
// underlying serve.Error.
func trackLookupError(op string, err error) *SessionError {
	var se *serve.Error
	if errors.As(err, &se) && se.Kind == serve.ErrNotFound {
		return &SessionError{Op: op, code: se.Code(), Err: moq.ErrUnknownTrack}
	}
	return newSessionError(op, err)
}

func (s *Session) servePublisherTrack(ctx context.Context, subID, trackAlias uint64, tr *serve.TrackReader, filter subscribeFilter) {
	defer func() {
		s.pubMu.Lock()
		delete(s.serving, subID)
		s.pubMu.Unlock()
	}()

	mode, streamR, subgroupsR, datagramsR, err := tr.Mode(ctx)

	var count atomic.Uint64
	if err == nil {
		switch mode {
		case serve.TrackModeStream:
			err = s.pumpStream(ctx, trackAlias, streamR, filter, &count)
		case serve.TrackModeSubgroups:
			err = s.pumpSubgroups(ctx, trackAlias, subgroupsR, filter, &count)
		case serve.TrackModeDatagrams:
			err = s.pumpDatagrams(ctx, trackAlias, datagramsR, filter, &count)
		}
	}

	done := moq.SubscribeDone{ID: subID, Count: count.Load()}
	if err != nil {
		se := newSessionError("publish", err)
		done.Code = se.Code()
		done.Reason = se.Error()
	}
	_ = s.writeControl(moq.MsgSubscribeDone, moq.EncodeSubscribeDone(done))
}

func (s *Session) pumpStream(ctx context.Context, trackAlias uint64, r *serve.StreamReader, filter subscribeFilter, count *atomic.Uint64) error {
	stream, err := s.conn.OpenUniStream(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	header := moq.EncodeTrackHeader(moq.TrackHeader{TrackAlias: trackAlias, Priority: r.Priority})
	if _, err := stream.Write(header); err != nil {
		return err
	}

	for {
		g, ok, err := r.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if filter.pastEnd(g.Group) {
			return nil
		}
		skipGroup := filter.skipGroup(g.Group)
		for {
			obj, ok, err := g.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if skipGroup || filter.skipObject(moq.Location{Group: g.Group, Object: obj.ID}) {
				continue
			}
			payload, err := obj.ReadAll(ctx)
			if err != nil {
				return err
			}
			frame := moq.EncodeTrackObject(moq.TrackObject{Group: g.Group, ID: obj.ID, Status: obj.Status, Payload: payload})
			if _, err := stream.Write(frame); err != nil {
				return err
			}
			count.Add(1)
		}
	}
}

func (s *Session) pumpSubgroups(ctx context.Context, trackAlias uint64, r *serve.SubgroupsReader, filter subscribeFilter, count *atomic.Uint64) error {
	var wg sync.WaitGroup
	var firstErr atomic.Pointer[error]

	for {
		sg, ok, err := r.Next(ctx)
		if err != nil {
			wg.Wait()
			return err
		}
		if !ok {
			wg.Wait()
			if p := firstErr.Load(); p != nil {
				return *p
			}
			return nil
		}
		if filter.pastEnd(sg.Group) {
			wg.Wait()
			return nil
		}
		if filter.skipGroup(sg.Group) {
			continue
		}
		wg.Add(1)
		go func(sg *serve.SubgroupReader) {
			defer wg.Done()
			if err := s.pumpSubgroup(ctx, trackAlias, sg, filter, count); err != nil {
				firstErr.CompareAndSwap(nil, &err)
			}
		}(sg)
	}
}

func (s *Session) pumpSubgroup(ctx context.Context, trackAlias uint64, sg *serve.SubgroupReader, filter subscribeFilter, count *atomic.Uint64) error {
	stream, err := s.conn.OpenUniStream(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	header := moq.EncodeSubgroupHeader(moq.SubgroupHeader{
		TrackAlias: trackAlias, Group: sg.Group, Subgroup: sg.Subgroup, Priority: sg.Priority,
	})
	if _, err := stream.Write(header); err != nil {
		return err
	}

	for {
		obj, ok, err := sg.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if filter.skipObject(moq.Location{Group: sg.Group, Object: obj.ID}) {
			continue
		}
		payload, err := obj.ReadAll(ctx)
		if err != nil {
			return err
		}
		frame := moq.EncodeSubgroupObject(moq.SubgroupObject{ID: obj.ID, Status: obj.Status, Payload: payload})
		if _, err := stream.Write(frame); err != nil {
			return err
		}
		count.Add(1)
	}
}

func (s *Session) pumpDatagrams(ctx context.Context, trackAlias uint64, r *serve.DatagramsReader, filter subscribeFilter, count *atomic.Uint64) error {
	for {
		d, ok, err := r.Read(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if filter.pastEnd(d.Group) {
			return nil
		}
		loc := moq.Location{Group: d.Group, Object: d.ObjectID}
		if filter.skipGroup(d.Group) || filter.skipObject(loc) {
			continue
		}
		frame := moq.EncodeDatagram(moq.Datagram{
			TrackAlias: trackAlias, Group: d.Group, ObjectID: d.ObjectID,
			Priority: d.Priority, Status: d.Status, Payload: d.Payload,
		})
		if err := s.conn.SendDatagram(frame); err != nil {
			return err
		}
		count.Add(1)
	}
}

func (s *Session) handleUnsubscribe(u moq.Unsubscribe) {
	s.pubMu.Lock()
	serving, ok := s.serving[u.ID]
	delete(s.serving, u.ID)
	s.pubMu.Unlock()
	if ok {
		serving.cancel()
	}
}

// handlePeerAnnounce accepts every announced namespace. If the session was
// configured with OnAnnounce (a relay or origin server), it registers this
// Session as the route for the announced namespace's future Subscribe and
// Fetch traffic.
func (s *Session) handlePeerAnnounce(ctx context.Context, a moq.Announce) error {
	if s.onAnnounce != nil {
		s.onAnnounce(a.Namespace, s)
	}
	return s.writeControl(moq.MsgAnnounceOk, moq.EncodeAnnounceOk(moq.AnnounceOk{Namespace: a.Namespace}))
}

// handlePeerFetch answers a bounded Fetch the peer sent us.
func (s *Session) handlePeerFetch(ctx context.Context, f moq.Fetch) error {
	if s.local == nil {
		se := &SessionError{Op: "fetch", code: errCodeNotFound, Err: moq.ErrUnknownNamespace}
		return s.writeControl(moq.MsgFetchError, moq.EncodeFetchError(moq.FetchError{
			ID: f.ID, Code: se.Code(), Reason: se.Error(),
		}))
	}

	tr, err := s.local.Subscribe(ctx, f.Namespace, f.TrackName)
	if err != nil {
		se := trackLookupError("fetch", err)
		return s.writeControl(moq.MsgFetchError, moq.EncodeFetchError(moq.FetchError{
			ID: f.ID, Code: se.Code(), Reason: se.Error(),
		}))
	}

	ok := moq.FetchOk{ID: f.ID, GroupOrder: f.GroupOrder}
	if loc, exists := tr.Latest(); exists {
		ok.LargestLoc = loc
		if loc.Less(moq.Location{Group: f.EndGroup, Object: f.EndObj}) {
			f.EndGroup, f.EndObj = loc.Group, loc.Object
		}
	}
	if err := s.writeControl(moq.MsgFetchOk, moq.EncodeFetchOk(ok)); err != nil {
		return err
	}

	pubCtx, cancel := context.WithCancel(ctx)
	s.pubMu.Lock()
	s.fetching[f.ID] = &servingFetch{reader: tr, cancel: cancel}
	s.pubMu.Unlock()

	go s.serveFetch(pubCtx, f, tr)
	return nil
}

func (s *Session) serveFetch(ctx context.Context, f moq.Fetch, tr *serve.TrackReader) {
	defer func() {
		s.pubMu.Lock()
		delete(s.fetching, f.ID)
		s.pubMu.Unlock()
	}()

	stream, err := s.conn.OpenUniStream(ctx)
	if err != nil {
		return
	}
	defer stream.Close()

	if _, err := stream.Write(moq.EncodeFetchHeader(moq.FetchHeader{RequestID: f.ID})); err != nil {
		return
	}

	start := moq.Location{Group: f.StartGroup, Object: f.StartObj}
	end := moq.Location{Group: f.EndGroup, Object: f.EndObj}
	inRange := func(loc moq.Location) bool {
		return !loc.Less(start) && !end.Less(loc)
	}

	mode, streamR, subgroupsR, datagramsR, err := tr.Mode(ctx)
	if err != nil {
		return
	}

	switch mode {
	case serve.TrackModeStream:
		for {
			g, ok, err := streamR.Next(ctx)
			if err != nil || !ok {
				return
			}
			for {
				obj, ok, err := g.Next(ctx)
				if err != nil || !ok {
					break
				}
				loc := moq.Location{Group: g.Group, Object: obj.ID}
				if !inRange(loc) {
					continue
				}
				payload, err := obj.ReadAll(ctx)
				if err != nil {
					return
				}
				frame := moq.EncodeFetchObject(moq.FetchObject{
					Group: g.Group, Subgroup: 0, ID: obj.ID, Priority: streamR.Priority,
					Status: obj.Status, Payload: payload,
				})
				if _, err := stream.Write(frame); err != nil {
					return
				}
			}
		}

	case serve.TrackModeSubgroups:
		for {
			sg, ok, err := subgroupsR.Next(ctx)
			if err != nil || !ok {
				return
			}
			for {
				obj, ok, err := sg.Next(ctx)
				if err != nil || !ok {
					break
				}
				loc := moq.Location{Group: sg.Group, Object: obj.ID}
				if !inRange(loc) {
					continue
				}
				payload, err := obj.ReadAll(ctx)
				if err != nil {
					return
				}
				frame := moq.EncodeFetchObject(moq.FetchObject{
					Group: sg.Group, Subgroup: sg.Subgroup, ID: obj.ID, Priority: sg.Priority,
					Status: obj.Status, Payload: payload,
				})
				if _, err := stream.Write(frame); err != nil {
					return
				}
			}
		}

	case serve.TrackModeDatagrams:
		for {
			d, ok, err := datagramsR.Read(ctx)
			if err != nil || !ok {
				return
			}
			loc := moq.Location{Group: d.Group, Object: d.ObjectID}
			if !inRange(loc) {
				continue
			}
			frame := moq.EncodeFetchObject(moq.FetchObject{
				Group: d.Group, Subgroup: 0, ID: d.ObjectID, Priority: d.Priority,
				Status: d.Status, Payload: d.Payload,
			})
			if _, err := stream.Write(frame); err != nil {
				return
			}
		}
	}
}

func (s *Session) handleFetchCancel(fc moq.FetchCancel) {
	s.pubMu.Lock()
	fetching, ok := s.fetching[fc.ID]
	delete(s.fetching, fc.ID)
	s.pubMu.Unlock()
	if ok {
		fetching.cancel()
	}
}
