package session

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/serve"
)

// fakeSource is a session.TrackSource serving a single fixed track under
// any namespace/name, for tests that don't need routing.
type fakeSource struct {
	tr *serve.TrackReader
}

func (f fakeSource) Subscribe(_ context.Context, _ moq.Tuple, _ string) (*serve.TrackReader, error) {
	if f.tr == nil {
		return nil, serve.NewError(serve.ErrNotFound, "no track")
	}
	return f.tr, nil
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func quietConfig(local TrackSource) Config {
	return Config{Local: local, Log: slog.New(slog.DiscardHandler)}
}

// subgroupFixture publishes one object per subgroup, one subgroup per
// entry in groups, in Subgroups mode, then closes the writer so the
// publisher-side pump sees a clean Done.
func subgroupFixture(groups []uint64) *serve.TrackReader {
	track := serve.Track{Namespace: moq.Tuple{"demo"}, Name: "video"}
	tw, tr := track.Produce()
	sgw, err := tw.UseSubgroups()
	if err != nil {
		panic(err)
	}
	go func() {
		for _, g := range groups {
			sg, err := sgw.Create(g, 0, 0)
			if err != nil {
				panic(err)
			}
			obj := sg.Append(0)
			_ = obj.Write([]byte("payload"))
			obj.Close()
			sg.Close()
		}
		sgw.Close()
		tw.Close()
	}()
	return tr
}

// TestSubscribeUnsubscribe covers scenario 2: a client subscribes to a
// server-published track, receives its objects, then unsubscribes and the
// server's publisher-side goroutine is torn down.
func TestSubscribeUnsubscribe(t *testing.T) {
	ctx := testContext(t)

	tr := subgroupFixture([]uint64{0, 1})
	client, server, err := newLoopbackSessions(ctx, quietConfig(nil), quietConfig(fakeSource{tr: tr}))
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	go client.Run(ctx)
	go server.Run(ctx)

	got, err := client.Subscribe(ctx, moq.Tuple{"demo"}, "video")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	mode, _, subgroups, _, err := got.Mode(ctx)
	if err != nil {
		t.Fatalf("Mode: %v", err)
	}
	if mode != serve.TrackModeSubgroups {
		t.Fatalf("mode = %v, want Subgroups", mode)
	}

	var seen int
	for {
		sg, ok, err := subgroups.Next(ctx)
		if err != nil {
			t.Fatalf("subgroups.Next: %v", err)
		}
		if !ok {
			break
		}
		for {
			obj, ok, err := sg.Next(ctx)
			if err != nil {
				t.Fatalf("sg.Next: %v", err)
			}
			if !ok {
				break
			}
			if _, err := obj.ReadAll(ctx); err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			seen++
		}
	}
	if seen != 2 {
		t.Fatalf("delivered %d objects, want 2", seen)
	}

	// Find the subscribe ID the client allocated so we can watch the
	// server tear its publisher goroutine down.
	client.subMu.Lock()
	var id uint64
	for k := range client.subscribes {
		id = k
	}
	client.subMu.Unlock()

	if err := client.Unsubscribe(id); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		server.pubMu.Lock()
		n := len(server.serving)
		server.pubMu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server still serving %d subscriptions after unsubscribe", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestFetchRange covers scenario 3: a bounded Fetch only delivers objects
// within [start, end] inclusive.
func TestFetchRange(t *testing.T) {
	ctx := testContext(t)

	tr := subgroupFixture([]uint64{0, 1, 2, 3})
	client, server, err := newLoopbackSessions(ctx, quietConfig(nil), quietConfig(fakeSource{tr: tr}))
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	go client.Run(ctx)
	go server.Run(ctx)

	start := moq.Location{Group: 1, Object: 0}
	end := moq.Location{Group: 2, Object: 0}
	got, err := client.Fetch(ctx, moq.Tuple{"demo"}, "video", start, end)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	mode, _, subgroups, _, err := got.Mode(ctx)
	if err != nil {
		t.Fatalf("Mode: %v", err)
	}
	if mode != serve.TrackModeSubgroups {
		t.Fatalf("mode = %v, want Subgroups", mode)
	}

	var gotGroups []uint64
	for {
		sg, ok, err := subgroups.Next(ctx)
		if err != nil {
			t.Fatalf("subgroups.Next: %v", err)
		}
		if !ok {
			break
		}
		gotGroups = append(gotGroups, sg.Group)
		for {
			_, ok, err := sg.Next(ctx)
			if err != nil {
				t.Fatalf("sg.Next: %v", err)
			}
			if !ok {
				break
			}
		}
	}

	if len(gotGroups) != 2 || gotGroups[0] != 1 || gotGroups[1] != 2 {
		t.Fatalf("groups delivered = %v, want [1 2]", gotGroups)
	}
}

// TestSubscribeFilterSkip covers scenario 4: AbsoluteStart(2, 5) drops an
// entire earlier group and skips the boundary group's earlier objects,
// without those skipped objects ever reaching the wire.
func TestSubscribeFilterSkip(t *testing.T) {
	ctx := testContext(t)

	track := serve.Track{Namespace: moq.Tuple{"demo"}, Name: "video"}
	tw, tr := track.Produce()
	sgw, err := tw.UseSubgroups()
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		sg1, _ := sgw.Create(1, 0, 0)
		for i := uint64(0); i < 3; i++ {
			obj := sg1.Append(i)
			_ = obj.Write([]byte("x"))
			obj.Close()
		}
		sg1.Close()

		sg2, _ := sgw.Create(2, 0, 0)
		for i := uint64(0); i <= 10; i++ {
			obj := sg2.Append(i)
			_ = obj.Write([]byte("x"))
			obj.Close()
		}
		sg2.Close()

		sgw.Close()
		tw.Close()
	}()

	client, server, err := newLoopbackSessions(ctx, quietConfig(nil), quietConfig(fakeSource{tr: tr}))
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	go client.Run(ctx)
	go server.Run(ctx)

	got, err := client.SubscribeFrom(ctx, moq.Tuple{"demo"}, "video", moq.Location{Group: 2, Object: 5})
	if err != nil {
		t.Fatalf("SubscribeFrom: %v", err)
	}

	_, _, subgroups, _, err := got.Mode(ctx)
	if err != nil {
		t.Fatalf("Mode: %v", err)
	}

	var delivered []moq.Location
	for {
		sg, ok, err := subgroups.Next(ctx)
		if err != nil {
			t.Fatalf("subgroups.Next: %v", err)
		}
		if !ok {
			break
		}
		for {
			obj, ok, err := sg.Next(ctx)
			if err != nil {
				t.Fatalf("sg.Next: %v", err)
			}
			if !ok {
				break
			}
			delivered = append(delivered, moq.Location{Group: sg.Group, Object: obj.ID})
		}
	}

	if len(delivered) != 6 {
		t.Fatalf("delivered %d objects, want 6 (objects 5..10 of group 2): %v", len(delivered), delivered)
	}
	for _, loc := range delivered {
		if loc.Group != 2 || loc.Object < 5 {
			t.Fatalf("delivered out-of-filter object %+v", loc)
		}
	}
}

// TestSubscribeDropWhileWriting covers scenario 5: the publisher writes 3
// subgroups then drops the TrackWriter; the subscriber sees exactly the 3
// objects of those subgroups before its reader ends, and the server stops
// serving the subscription. The SubscribeDone code and count are not
// inspected.
func TestSubscribeDropWhileWriting(t *testing.T) {
	ctx := testContext(t)

	tr := subgroupFixture([]uint64{0, 1, 2})
	client, server, err := newLoopbackSessions(ctx, quietConfig(nil), quietConfig(fakeSource{tr: tr}))
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	go client.Run(ctx)
	go server.Run(ctx)

	got, err := client.Subscribe(ctx, moq.Tuple{"demo"}, "video")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	_, _, subgroups, _, err := got.Mode(ctx)
	if err != nil {
		t.Fatalf("Mode: %v", err)
	}

	var count int
	for {
		sg, ok, err := subgroups.Next(ctx)
		if err != nil {
			t.Fatalf("subgroups.Next: %v", err)
		}
		if !ok {
			break
		}
		for {
			_, ok, err := sg.Next(ctx)
			if err != nil {
				t.Fatalf("sg.Next: %v", err)
			}
			if !ok {
				break
			}
			count++
		}
	}
	if count != 3 {
		t.Fatalf("delivered %d objects, want 3", count)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		server.pubMu.Lock()
		n := len(server.serving)
		server.pubMu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server still serving after writer closed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestHandlePeerSubscribeUnsupportedFilter covers the filter-type
// rejection path: a Subscribe naming a filter_type this session doesn't
// recognize is rejected with SubscribeError instead of being served as
// LatestObject. DecodeSubscribe itself rejects any filter_type outside
// the four known values, so this calls handlePeerSubscribe directly to
// exercise validFilterType as defense in depth.
func TestHandlePeerSubscribeUnsupportedFilter(t *testing.T) {
	ctx := testContext(t)

	client, server, err := newLoopbackSessions(ctx, quietConfig(nil), quietConfig(nil))
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	go client.Run(ctx)
	go server.Run(ctx)

	id := client.allocID()
	reply := make(chan subscribeReply, 1)
	client.subMu.Lock()
	client.subscribes[id] = &outgoingSubscribe{reply: reply}
	client.subMu.Unlock()

	if err := server.handlePeerSubscribe(ctx, moq.Subscribe{
		ID: id, Namespace: moq.Tuple{"demo"}, TrackName: "video", FilterType: moq.FilterType(0x7f),
	}); err != nil {
		t.Fatalf("handlePeerSubscribe: %v", err)
	}

	select {
	case rep := <-reply:
		if rep.err == nil {
			t.Fatal("expected SubscribeError for unsupported filter type")
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for SubscribeError")
	}
}

// TestTrackLookupErrorPreservesCode checks that a serve.ErrNotFound from a
// TrackSource is reported to the peer as moq.ErrUnknownTrack while
// keeping the underlying numeric code.
func TestTrackLookupErrorPreservesCode(t *testing.T) {
	base := serve.NewError(serve.ErrNotFound, "no such track")
	se := trackLookupError("subscribe", base)

	if !errors.Is(se.Err, moq.ErrUnknownTrack) {
		t.Fatalf("Err = %v, want moq.ErrUnknownTrack", se.Err)
	}
	if se.Code() != base.Code() {
		t.Fatalf("Code() = %d, want %d", se.Code(), base.Code())
	}

	other := errors.New("boom")
	se2 := trackLookupError("subscribe", other)
	if !errors.Is(se2.Err, other) {
		t.Fatalf("Err = %v, want wrapped boom", se2.Err)
	}
}
