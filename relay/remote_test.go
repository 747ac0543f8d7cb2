package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/coaxial-labs/moqtransport/moq"
	"github.com/coaxial-labs/moqtransport/serve"
	"github.com/coaxial-labs/moqtransport/session"
)

func TestOriginsResolveEmptyNamespace(t *testing.T) {
	o := NewOrigins(map[string]string{"demo": "moqt://origin:4443"}, false)

	_, err := o.Resolve(context.Background(), moq.Tuple{}, "video")
	var se *serve.Error
	if !errors.As(err, &se) || se.Kind != serve.ErrNotFound {
		t.Fatalf("err = %v, want *serve.Error{Kind: ErrNotFound}", err)
	}
}

func TestOriginsResolveUnconfiguredPrefix(t *testing.T) {
	o := NewOrigins(map[string]string{"demo": "moqt://origin:4443"}, false)

	_, err := o.Resolve(context.Background(), moq.Tuple{"other"}, "video")
	var se *serve.Error
	if !errors.As(err, &se) || se.Kind != serve.ErrNotFound {
		t.Fatalf("err = %v, want *serve.Error{Kind: ErrNotFound}", err)
	}
}

func TestOriginsResolveRetriesAfterDialFailure(t *testing.T) {
	o := NewOrigins(map[string]string{"demo": "moqt://origin:4443"}, false)

	wantErr := errors.New("dial refused")
	var calls int
	o.dial = func(ctx context.Context, url string, insecure bool, cfg session.Config) (*session.Session, error) {
		calls++
		if url != "moqt://origin:4443" {
			t.Errorf("dial url = %q, want moqt://origin:4443", url)
		}
		return nil, wantErr
	}

	if _, err := o.Resolve(context.Background(), moq.Tuple{"demo"}, "video"); err == nil {
		t.Fatal("expected Resolve to fail when dial fails")
	}
	if _, err := o.Resolve(context.Background(), moq.Tuple{"demo"}, "video"); err == nil {
		t.Fatal("expected Resolve to fail again on retry")
	}
	if calls != 2 {
		t.Errorf("dial called %d times, want 2 (failed dials are never cached)", calls)
	}
}
