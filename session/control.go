package session

import (
	"context"
	"fmt"

	"github.com/coaxial-labs/moqtransport/moq"
)

// readControlLoop reads and dispatches every message on the control stream
// until it errors or ctx is done. It never returns nil; callers treat any
// return as fatal to the session.
func (s *Session) readControlLoop(ctx context.Context) error {
	for {
		msgType, payload, err := moq.ReadControlMessage(s.controlReader)
		if err != nil {
			return fmt.Errorf("session: read control message: %w", err)
		}

		if err := s.dispatchControl(ctx, msgType, payload); err != nil {
			return fmt.Errorf("session: dispatch control message 0x%x: %w", msgType, err)
		}
	}
}

func (s *Session) dispatchControl(ctx context.Context, msgType uint64, payload []byte) error {
	switch msgType {
	case moq.MsgSubscribe:
		sub, err := moq.DecodeSubscribe(payload)
		if err != nil {
			return err
		}
		return s.handlePeerSubscribe(ctx, sub)

	case moq.MsgSubscribeOk:
		ok, err := moq.DecodeSubscribeOk(payload)
		if err != nil {
			return err
		}
		s.resolveSubscribe(ok.ID, subscribeReply{ok: ok})
		return nil

	case moq.MsgSubscribeError:
		se, err := moq.DecodeSubscribeError(payload)
		if err != nil {
			return err
		}
		s.resolveSubscribe(se.ID, subscribeReply{err: fmt.Errorf("subscribe rejected: code %d: %s", se.Code, se.Reason)})
		return nil

	case moq.MsgSubscribeDone:
		done, err := moq.DecodeSubscribeDone(payload)
		if err != nil {
			return err
		}
		return s.handleSubscribeDone(done)

	case moq.MsgSubscribeUpdate:
		_, err := moq.DecodeSubscribeUpdate(payload)
		if err != nil {
			return err
		}
		// The update is decoded and otherwise ignored: the in-flight
		// subscription keeps its bounds, priority and group order.
		return nil

	case moq.MsgUnsubscribe:
		u, err := moq.DecodeUnsubscribe(payload)
		if err != nil {
			return err
		}
		s.handleUnsubscribe(u)
		return nil

	case moq.MsgAnnounce:
		a, err := moq.DecodeAnnounce(payload)
		if err != nil {
			return err
		}
		return s.handlePeerAnnounce(ctx, a)

	case moq.MsgAnnounceOk:
		ok, err := moq.DecodeAnnounceOk(payload)
		if err != nil {
			return err
		}
		s.resolveAnnounce(ok.Namespace, nil)
		return nil

	case moq.MsgAnnounceError:
		ae, err := moq.DecodeAnnounceError(payload)
		if err != nil {
			return err
		}
		s.resolveAnnounce(ae.Namespace, fmt.Errorf("announce rejected: code %d: %s", ae.Code, ae.Reason))
		return nil

	case moq.MsgUnannounce:
		u, err := moq.DecodeUnannounce(payload)
		if err != nil {
			return err
		}
		if s.onUnannounce != nil {
			s.onUnannounce(u.Namespace)
		}
		return nil

	case moq.MsgFetch:
		f, err := moq.DecodeFetch(payload)
		if err != nil {
			return err
		}
		return s.handlePeerFetch(ctx, f)

	case moq.MsgFetchOk:
		ok, err := moq.DecodeFetchOk(payload)
		if err != nil {
			return err
		}
		s.resolveFetch(ok.ID, fetchReply{ok: ok})
		return nil

	case moq.MsgFetchError:
		fe, err := moq.DecodeFetchError(payload)
		if err != nil {
			return err
		}
		s.resolveFetch(fe.ID, fetchReply{err: fmt.Errorf("fetch rejected: code %d: %s", fe.Code, fe.Reason)})
		return nil

	case moq.MsgFetchCancel:
		fc, err := moq.DecodeFetchCancel(payload)
		if err != nil {
			return err
		}
		s.handleFetchCancel(fc)
		return nil

	case moq.MsgGoAway:
		g, err := moq.DecodeGoAway(payload)
		if err != nil {
			return err
		}
		s.log.Info("received GOAWAY", "new_session_uri", g.NewSessionURI)
		return nil

	case moq.MsgSubscribeNamespace:
		sn, err := moq.DecodeSubscribeNamespace(payload)
		if err != nil {
			return err
		}
		return s.writeControl(moq.MsgSubscribeNamespaceOk, moq.EncodeSubscribeNamespaceOk(moq.SubscribeNamespaceOk{NamespacePrefix: sn.NamespacePrefix}))

	case moq.MsgSubscribeNamespaceOk:
		_, err := moq.DecodeSubscribeNamespaceOk(payload)
		return err

	case moq.MsgUnsubscribeNamespace:
		_, err := moq.DecodeUnsubscribeNamespace(payload)
		return err

	case moq.MsgTrackStatusRequest:
		tsr, err := moq.DecodeTrackStatusRequest(payload)
		if err != nil {
			return err
		}
		return s.handleTrackStatusRequest(ctx, tsr)

	case moq.MsgTrackStatus:
		_, err := moq.DecodeTrackStatus(payload)
		return err

	default:
		return fmt.Errorf("unknown control message type 0x%x", msgType)
	}
}

func (s *Session) handleTrackStatusRequest(ctx context.Context, req moq.TrackStatusRequest) error {
	status := moq.TrackStatus{Namespace: req.Namespace, TrackName: req.TrackName, StatusCode: moq.TrackStatusDoesNotExist}

	if s.local != nil {
		if tr, err := s.local.Subscribe(ctx, req.Namespace, req.TrackName); err == nil {
			status.StatusCode = moq.TrackStatusNotYetBegun
			if loc, ok := tr.Latest(); ok {
				status.StatusCode = moq.TrackStatusOk
				status.LargestLoc = loc
			}
		}
	}

	return s.writeControl(moq.MsgTrackStatus, moq.EncodeTrackStatus(status))
}
