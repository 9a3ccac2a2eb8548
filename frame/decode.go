package frame

import "github.com/schillm/min12xxw/min12xxwerr"

// DecodedFrame is the parsed form of one wide-length envelope.
type DecodedFrame struct {
	Cmd     byte
	Seq     byte
	Payload []byte
}

// ReadEnvelope parses a single frame written by Encoder.Encode (the
// wide, 16-bit length-field dialect) and verifies its checksum. It
// exists to exercise the round-trip property against the encoder
// directly, independent of the narrow-length capture dialect that
// package verify implements for real captured streams.
func ReadEnvelope(b []byte) (*DecodedFrame, int, error) {
	if len(b) < 6 {
		return nil, 0, &min12xxwerr.FramingError{Offset: 0, Reason: "short header"}
	}
	if b[0] != ESC {
		return nil, 0, &min12xxwerr.FramingError{Offset: 0, Reason: "expected ESC"}
	}
	cmd := b[1]
	seq := b[2]
	length := int(b[3]) | int(b[4])<<8
	if b[5] != ^cmd {
		return nil, 0, &min12xxwerr.FramingError{Offset: 5, Reason: "cmd not terminated"}
	}
	if len(b) < 6+length+1 {
		return nil, 0, &min12xxwerr.FramingError{Offset: 6, Reason: "short payload"}
	}

	payload := b[6 : 6+length]
	var cksum byte
	for _, x := range b[0:6] {
		cksum += x
	}
	for _, x := range payload {
		cksum += x
	}
	got := b[6+length]
	if got != cksum {
		return nil, 0, &min12xxwerr.ChecksumError{Offset: int64(6 + length), Got: got, Want: cksum}
	}

	return &DecodedFrame{Cmd: cmd, Seq: seq, Payload: payload}, 6 + length + 1, nil
}
