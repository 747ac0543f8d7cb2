package session

import (
	"context"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/serve"
)

// Subscribe requests delivery of namespace/name from the peer starting
// from whatever the peer is currently serving, and returns a TrackReader
// fed by whatever streams or datagrams the peer sends tagged with the
// track alias this call allocates. It blocks until the peer replies with
// SubscribeOk or SubscribeError.
func (s *Session) Subscribe(ctx context.Context, namespace moq.Tuple, name string) (*serve.TrackReader, error) {
	return s.subscribe(ctx, namespace, name, moq.FilterLatestObject, moq.Location{}, 0)
}

// SubscribeFrom requests delivery of namespace/name starting at start
// (inclusive), dropping any earlier group or, within start's own group,
// any earlier object. It otherwise behaves like Subscribe.
func (s *Session) SubscribeFrom(ctx context.Context, namespace moq.Tuple, name string, start moq.Location) (*serve.TrackReader, error) {
	return s.subscribe(ctx, namespace, name, moq.FilterAbsoluteStart, start, 0)
}

// SubscribeRange requests delivery of namespace/name bounded to
// [start, endGroup] (inclusive at both ends, endGroup measured in whole
// groups): the peer stops delivery once it reaches a group past endGroup.
// It otherwise behaves like Subscribe.
func (s *Session) SubscribeRange(ctx context.Context, namespace moq.Tuple, name string, start moq.Location, endGroup uint64) (*serve.TrackReader, error) {
	return s.subscribe(ctx, namespace, name, moq.FilterAbsoluteRange, start, endGroup)
}

func (s *Session) subscribe(ctx context.Context, namespace moq.Tuple, name string, filterType moq.FilterType, start moq.Location, endGroup uint64) (*serve.TrackReader, error) {
	id := s.allocID()

	track := serve.Track{Namespace: namespace, Name: moq.TupleField(name)}
	tw, tr := track.Produce()
	it := s.registerAlias(id, tw)

	out := &outgoingSubscribe{namespace: namespace, name: name, tw: tw, track: it, reply: make(chan subscribeReply, 1)}
	s.subMu.Lock()
	s.subscribes[id] = out
	s.subMu.Unlock()

	msg := moq.Subscribe{
		ID: id, TrackAlias: id, Namespace: namespace, TrackName: name,
		FilterType: filterType, Start: start, EndGroup: endGroup, GroupOrder: moq.GroupOrderPublisher,
	}
	if err := s.writeControl(moq.MsgSubscribe, moq.EncodeSubscribe(msg)); err != nil {
		s.abandonSubscribe(id)
		return nil, err
	}

	select {
	case rep := <-out.reply:
		if rep.err != nil {
			s.abandonSubscribe(id)
			return nil, rep.err
		}
		if rep.ok.ContentExists {
			tw.SetLatest(rep.ok.LargestLoc)
		}
		return tr, nil
	case <-ctx.Done():
		s.abandonSubscribe(id)
		_ = s.writeControl(moq.MsgUnsubscribe, moq.EncodeUnsubscribe(moq.Unsubscribe{ID: id}))
		return nil, ctx.Err()
	}
}

// Unsubscribe cancels a subscription previously returned by Subscribe.
func (s *Session) Unsubscribe(id uint64) error {
	s.abandonSubscribe(id)
	return s.writeControl(moq.MsgUnsubscribe, moq.EncodeUnsubscribe(moq.Unsubscribe{ID: id}))
}

func (s *Session) abandonSubscribe(id uint64) {
	s.subMu.Lock()
	out, ok := s.subscribes[id]
	delete(s.subscribes, id)
	s.subMu.Unlock()
	if ok {
		out.tw.Close()
	}
	s.unregisterAlias(id)
}

func (s *Session) resolveSubscribe(id uint64, r subscribeReply) {
	s.subMu.Lock()
	out, ok := s.subscribes[id]
	s.subMu.Unlock()
	if !ok {
		return
	}
	select {
	case out.reply <- r:
	default:
	}
}

func (s *Session) handleSubscribeDone(done moq.SubscribeDone) error {
	s.subMu.Lock()
	out, ok := s.subscribes[done.ID]
	delete(s.subscribes, done.ID)
	s.subMu.Unlock()
	if !ok {
		return nil
	}
	out.tw.Close()
	s.unregisterAlias(done.ID)
	return nil
}

// Fetch bounded-retrieves namespace/name between start and end (inclusive)
// and returns a TrackReader populated from the single Fetch response
// stream the peer opens. It blocks until the peer replies with FetchOk or
// FetchError.
func (s *Session) Fetch(ctx context.Context, namespace moq.Tuple, name string, start, end moq.Location) (*serve.TrackReader, error) {
	id := s.allocID()

	track := serve.Track{Namespace: namespace, Name: moq.TupleField(name)}
	tw, tr := track.Produce()
	it := newIncomingTrack(tw)

	out := &outgoingFetch{tw: tw, track: it, reply: make(chan fetchReply, 1)}
	s.subMu.Lock()
	s.fetches[id] = out
	s.subMu.Unlock()

	msg := moq.Fetch{
		ID: id, Namespace: namespace, TrackName: name, GroupOrder: moq.GroupOrderPublisher,
		StartGroup: start.Group, StartObj: start.Object, EndGroup: end.Group, EndObj: end.Object,
	}
	if err := s.writeControl(moq.MsgFetch, moq.EncodeFetch(msg)); err != nil {
		s.abandonFetch(id)
		return nil, err
	}

	select {
	case rep := <-out.reply:
		if rep.err != nil {
			s.abandonFetch(id)
			return nil, rep.err
		}
		return tr, nil
	case <-ctx.Done():
		s.abandonFetch(id)
		_ = s.writeControl(moq.MsgFetchCancel, moq.EncodeFetchCancel(moq.FetchCancel{ID: id}))
		return nil, ctx.Err()
	}
}

func (s *Session) abandonFetch(id uint64) {
	s.subMu.Lock()
	out, ok := s.fetches[id]
	delete(s.fetches, id)
	s.subMu.Unlock()
	if ok {
		out.tw.Close()
	}
}

func (s *Session) resolveFetch(id uint64, r fetchReply) {
	s.subMu.Lock()
	out, ok := s.fetches[id]
	s.subMu.Unlock()
	if !ok {
		return
	}
	select {
	case out.reply <- r:
	default:
	}
}

// Announce advertises namespace to the peer and blocks until it replies
// with AnnounceOk or AnnounceError.
func (s *Session) Announce(ctx context.Context, namespace moq.Tuple) error {
	key := namespace.String()

	out := &outgoingAnnounce{reply: make(chan error, 1)}
	s.subMu.Lock()
	s.announces[key] = out
	s.subMu.Unlock()
	defer func() {
		s.subMu.Lock()
		delete(s.announces, key)
		s.subMu.Unlock()
	}()

	if err := s.writeControl(moq.MsgAnnounce, moq.EncodeAnnounce(moq.Announce{Namespace: namespace})); err != nil {
		return err
	}

	select {
	case err := <-out.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unannounce withdraws a previously announced namespace.
func (s *Session) Unannounce(namespace moq.Tuple) error {
	return s.writeControl(moq.MsgUnannounce, moq.EncodeUnannounce(moq.Unannounce{Namespace: namespace}))
}

func (s *Session) resolveAnnounce(namespace moq.Tuple, err error) {
	key := namespace.String()
	s.subMu.Lock()
	out, ok := s.announces[key]
	s.subMu.Unlock()
	if !ok {
		return
	}
	select {
	case out.reply <- err:
	default:
	}
}
