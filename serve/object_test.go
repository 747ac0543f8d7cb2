package serve

import (
	"bytes"
	"context"
	"testing"

	"github.com/coaxial-labs/moqtransport/moq"
)

func TestObjectWriterReaderChunking(t *testing.T) {
	t.Parallel()

	w := newObjectWriter(1, 0, 0, moq.ObjectStatusNormal)
	r := w.reader()

	chunks := [][]byte{[]byte("abc"), []byte("def"), []byte("ghi")}
	for _, c := range chunks {
		if err := w.Write(c); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	w.Close()

	var got bytes.Buffer
	for {
		chunk, ok, err := r.Read(context.Background())
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !ok {
			break
		}
		got.Write(chunk)
	}
	if got.String() != "abcdefghi" {
		t.Errorf("got %q", got.String())
	}
}

func TestObjectReaderReadAll(t *testing.T) {
	t.Parallel()

	w := newObjectWriter(0, 0, 0, moq.ObjectStatusNormal)
	r := w.reader()

	_ = w.Write([]byte("hello "))
	_ = w.Write([]byte("world"))
	w.Close()

	got, err := r.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("got %q", got)
	}
}
