// Package frame implements the seven-byte envelope used to wrap every
// command sent to (or captured from) a Minolta PagePro 1[234]xxW
// printer: ESC, command byte, sequence byte, little-endian length,
// complemented command byte, payload, checksum.
package frame

import (
	"fmt"

	"github.com/schillm/min12xxw/min12xxwerr"
)

// ESC is the byte that opens every frame.
const ESC = 0x1B

// MaxPayload is one more than the largest payload length representable
// in the 16-bit length field; Encode rejects payloads of this size or
// larger.
const MaxPayload = 0x10000

// Encoder assembles frames and owns the monotonic sequence counter
// for one job. Two encoders must never share an output sink; spec
// note §5 (ported from the design notes) forbids interleaving.
type Encoder struct {
	seq byte
}

// NewEncoder returns an Encoder with its sequence counter at zero.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Seq returns the sequence byte the next frame will carry.
func (e *Encoder) Seq() byte { return e.seq }

// Encode assembles one frame: header, payload, checksum. It returns
// min12xxwerr.FormatError if the payload is too large to represent in
// the 16-bit length field.
func (e *Encoder) Encode(cmd byte, payload []byte) ([]byte, error) {
	if len(payload) >= MaxPayload {
		return nil, &min12xxwerr.FormatError{
			Reason: fmt.Sprintf("payload of %d bytes exceeds frame limit", len(payload)),
		}
	}

	length := len(payload)
	seq := e.seq
	e.seq++

	notCmd := ^cmd
	header := [6]byte{
		ESC,
		cmd,
		seq,
		byte(length & 0xFF),
		byte(length >> 8),
		notCmd,
	}

	out := make([]byte, 0, len(header)+len(payload)+1)
	out = append(out, header[:]...)
	out = append(out, payload...)

	var cksum byte
	for _, b := range header {
		cksum += b
	}
	for _, b := range payload {
		cksum += b
	}
	out = append(out, cksum)

	return out, nil
}
