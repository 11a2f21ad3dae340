// Package frame implements the wire format between the slider board and the host.
//
// A frame is one slider Event serialized into a fixed 3-byte record
// {id, value lo, value hi}, COBS-stuffed and terminated by a single 0x00
// byte. The terminator is the only delimiter; there is no length field.
package frame

import (
	"encoding/binary"
	"errors"
)

const (
	// RecordSize is the size of an unstuffed record: id (1) + value (2, little endian).
	RecordSize = 3
	// MaxFrameSize is the buffer size Encode requires: record size x 2 + 2.
	MaxFrameSize = RecordSize*2 + 2
	// Delimiter terminates every frame.
	Delimiter byte = 0x00
)

var (
	// ErrMalformedFrame is returned by Decode for truncated, corrupted or
	// wrongly sized frames.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrBufferTooSmall is returned by Encode when dst is shorter than MaxFrameSize.
	ErrBufferTooSmall = errors.New("frame buffer too small")
)

// Event reports a new stable value for one slider.
type Event struct {
	ID    uint8  // channel index
	Value uint16 // conditioned reading, 0..1023
}

// Encode writes ev as a delimited frame into dst and returns the frame,
// which aliases dst. It does not allocate.
func Encode(dst []byte, ev Event) ([]byte, error) {
	if len(dst) < MaxFrameSize {
		return nil, ErrBufferTooSmall
	}

	var rec [RecordSize]byte
	rec[0] = ev.ID
	binary.LittleEndian.PutUint16(rec[1:], ev.Value)

	n := cobsEncode(dst, rec[:])
	dst[n] = Delimiter

	return dst[:n+1], nil
}

// Decode parses one frame. The trailing delimiter is optional.
func Decode(b []byte) (Event, error) {
	if len(b) > 0 && b[len(b)-1] == Delimiter {
		b = b[:len(b)-1]
	}
	if len(b) == 0 || len(b) > cobsMaxLen(RecordSize) {
		return Event{}, ErrMalformedFrame
	}

	var rec [RecordSize]byte
	n, err := cobsDecode(rec[:], b)
	if err != nil {
		return Event{}, err
	}
	if n != RecordSize {
		return Event{}, ErrMalformedFrame
	}

	return Event{
		ID:    rec[0],
		Value: binary.LittleEndian.Uint16(rec[1:]),
	}, nil
}
