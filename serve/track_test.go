package serve

import (
	"context"
	"testing"
	"time"

	"github.com/coaxial-labs/moqtransport/moq"
)

func TestTrackModeBindingIsExclusive(t *testing.T) {
	t.Parallel()

	track := Track{Namespace: moq.Tuple{"demo"}, Name: "video"}
	w, _ := track.Produce()

	if _, err := w.UseSubgroups(); err != nil {
		t.Fatalf("first UseSubgroups: %v", err)
	}
	if _, err := w.UseStream(128); err == nil {
		t.Fatal("expected ErrMode binding a second mode")
	}
	if _, err := w.UseDatagrams(); err == nil {
		t.Fatal("expected ErrMode binding a third mode")
	}
}

func TestTrackReaderModeBlocksUntilBound(t *testing.T) {
	t.Parallel()

	track := Track{Namespace: moq.Tuple{"demo"}, Name: "video"}
	w, r := track.Produce()

	done := make(chan TrackMode, 1)
	go func() {
		mode, _, _, _, err := r.Mode(context.Background())
		if err != nil {
			t.Error(err)
			return
		}
		done <- mode
	}()

	time.Sleep(20 * time.Millisecond)
	if _, err := w.UseDatagrams(); err != nil {
		t.Fatalf("UseDatagrams: %v", err)
	}

	select {
	case mode := <-done:
		if mode != TrackModeDatagrams {
			t.Errorf("mode = %v, want TrackModeDatagrams", mode)
		}
	case <-time.After(time.Second):
		t.Fatal("Mode never unblocked after UseDatagrams")
	}
}

func TestTrackReaderModeClosedBeforeBinding(t *testing.T) {
	t.Parallel()

	track := Track{Namespace: moq.Tuple{"demo"}, Name: "video"}
	w, r := track.Produce()
	w.Close()

	_, _, _, _, err := r.Mode(context.Background())
	if err == nil {
		t.Fatal("expected an error when the track closes before any mode is bound")
	}
}

func TestTrackLatest(t *testing.T) {
	t.Parallel()

	track := Track{Namespace: moq.Tuple{"demo"}, Name: "video"}
	w, r := track.Produce()

	if _, ok := r.Latest(); ok {
		t.Error("Latest should report false before any object is produced")
	}

	w.SetLatest(moq.Location{Group: 3, Object: 1})
	loc, ok := r.Latest()
	if !ok || loc != (moq.Location{Group: 3, Object: 1}) {
		t.Errorf("Latest() = %+v, %v", loc, ok)
	}
}
