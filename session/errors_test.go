package session

import (
	"errors"
	"testing"

	"github.com/coaxial-labs/moqtransport/serve"
)

func TestNewSessionErrorPreservesServeErrorCode(t *testing.T) {
	base := serve.NewError(serve.ErrDuplicate, "already subscribed")
	se := newSessionError("subscribe", base)

	if se.Code() != base.Code() {
		t.Errorf("Code() = %d, want %d", se.Code(), base.Code())
	}
	if !errors.Is(se, base) {
		t.Error("SessionError should unwrap to the original serve.Error")
	}
}

func TestNewSessionErrorFallsBackToClosed(t *testing.T) {
	se := newSessionError("publish", errors.New("stream reset"))

	want := serve.NewError(serve.ErrClosed, "").Code()
	if se.Code() != want {
		t.Errorf("Code() = %d, want %d (ErrClosed)", se.Code(), want)
	}
}

func TestSessionErrorMessageIncludesOp(t *testing.T) {
	se := newSessionError("fetch", errors.New("boom"))
	got := se.Error()
	if got == "" {
		t.Fatal("Error() returned empty string")
	}
}
