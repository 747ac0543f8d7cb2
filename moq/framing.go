package moq

import (
	"bufio"
	"fmt"
	"io"

	"github.com/quic-go/quic-go/quicvarint"
)

// ReadControlMessage reads one control-stream record: [type(varint)]
// [length(varint)] [payload]. It blocks until a full record is available;
// a record cut short after its type returns an error wrapping
// io.ErrUnexpectedEOF, so the caller can distinguish a clean session close
// (io.EOF on the very first byte) from a truncated record. A type varint
// that is itself cut short is reported as io.EOF.
func ReadControlMessage(r io.Reader) (msgType uint64, payload []byte, err error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
		r = br.(io.Reader)
	}

	msgType, err = quicvarint.Read(br)
	if err != nil {
		return 0, nil, err
	}

	length, err := quicvarint.Read(br)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, fmt.Errorf("read control message length: %w", err)
	}

	payload = make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, nil, fmt.Errorf("read control message payload: %w", err)
		}
	}

	return msgType, payload, nil
}

// WriteControlMessage writes one control-stream record as a single Write
// call. It does no locking of its own; package session's
// Session.writeControl holds a mutex around each call so records written
// by different goroutines never interleave.
func WriteControlMessage(w io.Writer, msgType uint64, payload []byte) error {
	var buf []byte
	buf = AppendVarint(buf, msgType)
	buf = AppendVarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)

	_, err := w.Write(buf)
	return err
}
