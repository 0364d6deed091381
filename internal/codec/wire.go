package codec

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrInvalidLength is returned when a wire frame's length prefix is 0 or
// exceeds MaxPacketBytes — spec.md §4.4/§6 treats this as a fatal
// transport error (reconnect).
var ErrInvalidLength = errors.New("codec: invalid wire frame length")

// WriteFrame writes payload as a length-prefixed wire frame: a 2-byte
// big-endian length followed by the payload bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed wire frame from r into buf, which
// must be at least maxLen bytes. It loops on partial reads until the
// frame is fully read or the connection fails. A length of 0 or greater
// than maxLen is a protocol violation and returns ErrInvalidLength.
func ReadFrame(r io.Reader, buf []byte, maxLen int) (n int, err error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}
	length := int(binary.BigEndian.Uint16(hdr[:]))
	if length == 0 || length > maxLen {
		return 0, ErrInvalidLength
	}
	if _, err := io.ReadFull(r, buf[:length]); err != nil {
		return 0, err
	}
	return length, nil
}
