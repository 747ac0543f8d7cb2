package session

import (
	"context"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/serve"
)

// outgoingSubscribe tracks a Subscribe this session sent to the peer, from
// the moment it's sent until the peer replies with SubscribeOk/Error and
// for the lifetime of the resulting TrackReader.
type outgoingSubscribe struct {
	namespace moq.Tuple
	name      string
	tw        *serve.TrackWriter
	track     *incomingTrack
	reply     chan subscribeReply
}

type subscribeReply struct {
	ok  moq.SubscribeOk
	err error
}

// outgoingFetch tracks a Fetch this session sent to the peer.
type outgoingFetch struct {
	tw    *serve.TrackWriter
	track *incomingTrack
	reply chan fetchReply
}

type fetchReply struct {
	ok  moq.FetchOk
	err error
}

// outgoingAnnounce tracks an Announce this session sent to the peer.
type outgoingAnnounce struct {
	reply chan error
}

// servingSubscribe is a peer Subscribe this session is serving out of its
// local TrackSource: cancel stops the goroutine pumping the TrackReader
// onto the wire.
type servingSubscribe struct {
	trackAlias uint64
	reader     *serve.TrackReader
	cancel     context.CancelFunc
}

// servingFetch is a peer Fetch this session is serving.
type servingFetch struct {
	reader *serve.TrackReader
	cancel context.CancelFunc
}
