// Package verify implements the decoder/verifier (§4.6): parsing a
// captured command stream back into frames, validating checksums and
// the sequence invariant, and pretty-printing the command semantics.
//
// This is the mirror image of package frame's Encoder, but it is not
// frame's inverse: it speaks a narrower capture dialect (a one-byte
// length field followed by a mandatory zero byte, rather than the
// encoder's full 16-bit length) and it tolerates the one documented
// sequence discontinuity — a 0x51 command arriving with seq == 0 mid
// stream, which restarts the counter instead of failing.
package verify

import (
	"bufio"
	"fmt"
	"io"

	"github.com/schillm/min12xxw/min12xxwerr"
)

// Frame is one decoded command, with the byte offset of its first
// byte (the ESC) in the underlying stream, for diagnostics.
type Frame struct {
	Offset  int64
	Cmd     byte
	Seq     byte
	Payload []byte
}

// Parser holds the running byte offset and the expected next sequence
// number across repeated calls to Next, mirroring frame.Encoder's
// explicit-state generalization of the reference driver's static
// counters.
type Parser struct {
	br          *bufio.Reader
	pos         int64
	expectedSeq byte
	started     bool
}

// NewParser returns a Parser reading frames from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{br: bufio.NewReader(r)}
}

// Offset reports the number of bytes consumed so far.
func (p *Parser) Offset() int64 { return p.pos }

func (p *Parser) readByte() (byte, error) {
	b, err := p.br.ReadByte()
	if err == nil {
		p.pos++
	}
	return b, err
}

func (p *Parser) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(p.br, buf)
	p.pos += int64(read)
	return buf, err
}

// Next decodes one frame. It returns io.EOF when the stream ends
// cleanly between frames (no bytes consumed for the next one).
func (p *Parser) Next() (*Frame, error) {
	start := p.pos

	esc, err := p.readByte()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &min12xxwerr.IoError{Op: "read frame", Err: err}
	}
	if esc != 0x1B {
		return nil, &min12xxwerr.FramingError{Offset: start, Reason: "expected ESC"}
	}

	cmd, err := p.readByte()
	if err != nil {
		return nil, &min12xxwerr.IoError{Op: "read cmd byte", Err: err}
	}
	seq, err := p.readByte()
	if err != nil {
		return nil, &min12xxwerr.IoError{Op: "read seq byte", Err: err}
	}
	lenLo, err := p.readByte()
	if err != nil {
		return nil, &min12xxwerr.IoError{Op: "read length byte", Err: err}
	}

	zeroOff := p.pos
	zero, err := p.readByte()
	if err != nil {
		return nil, &min12xxwerr.IoError{Op: "read length high byte", Err: err}
	}
	if zero != 0x00 {
		return nil, &min12xxwerr.FramingError{Offset: zeroOff, Reason: "expected zero"}
	}

	cmpOff := p.pos
	cmpl, err := p.readByte()
	if err != nil {
		return nil, &min12xxwerr.IoError{Op: "read cmd complement byte", Err: err}
	}
	if cmpl != ^cmd {
		return nil, &min12xxwerr.FramingError{Offset: cmpOff, Reason: "cmd not terminated by its complement"}
	}

	payload, err := p.readN(int(lenLo))
	if err != nil {
		return nil, &min12xxwerr.IoError{Op: "read payload", Err: err}
	}

	cksumOff := p.pos
	gotCksum, err := p.readByte()
	if err != nil {
		return nil, &min12xxwerr.IoError{Op: "read checksum", Err: err}
	}

	// The checksum covers the ESC byte too, not just the five header
	// fields that follow it: the reference driver sums its whole
	// six-byte header buffer, ESC included.
	var want byte
	want += esc + cmd + seq + lenLo + zero + cmpl
	for _, b := range payload {
		want += b
	}
	if gotCksum != want {
		return nil, &min12xxwerr.ChecksumError{Offset: cksumOff, Got: gotCksum, Want: want}
	}

	if seq != p.expectedSeq {
		if seq == 0 && cmd == 0x51 {
			p.expectedSeq = 1
		} else {
			return nil, &min12xxwerr.SequenceError{Offset: start, Got: seq, Want: p.expectedSeq}
		}
	} else {
		p.expectedSeq = seq + 1
	}
	p.started = true

	return &Frame{Offset: start, Cmd: cmd, Seq: seq, Payload: payload}, nil
}

// ConsumeRasterPayload reads byteCount raw bytes following a 0x52
// frame: the compressed raster data is appended outside the envelope
// and is not checksummed, so it has to be skipped explicitly by the
// caller once the 0x52 frame itself has been decoded.
func (p *Parser) ConsumeRasterPayload(byteCount int) ([]byte, error) {
	data, err := p.readN(byteCount)
	if err != nil {
		return nil, &min12xxwerr.IoError{Op: "read raster payload", Err: err}
	}
	return data, nil
}

// resolutionDPI returns (horizontal, vertical) dpi for a start-job
// resolution code: the low byte selects the base resolution
// (300/600/1200), the high byte of 0x01 overrides the horizontal
// resolution to 1200 for the 1200x600 mode.
func resolutionDPI(res uint16) (hRes, vRes int) {
	base := [3]int{300, 600, 1200}
	low := res & 0xFF
	if int(low) < len(base) {
		vRes = base[low]
	}
	hRes = vRes
	if res>>8 == 0x01 {
		hRes = 1200
	}
	return hRes, vRes
}

// Dumper pretty-prints decoded frames, tracking the resolution state
// a 0x51 page needs in order to print its physical size (§4.6: "update
// session-global resolution state so subsequent 0x51 can compute
// physical size" — an explicit field here rather than a global).
type Dumper struct {
	w   io.Writer
	res uint16
}

// NewDumper returns a Dumper writing human-readable output to w.
func NewDumper(w io.Writer) *Dumper { return &Dumper{w: w} }

// Dump formats one frame. For 0x52 (raster data), the caller must
// still call ConsumeRasterPayload on the parser afterward: Dump only
// reports the header fields, since the payload bytes it names live
// outside the envelope.
func (d *Dumper) Dump(f *Frame) error {
	switch f.Cmd {
	case 0x50:
		if len(f.Payload) != 8 {
			return d.hexFallback(f, "malformed start-job frame")
		}
		d.res = uint16(f.Payload[0]) | uint16(f.Payload[1])<<8
		ptype := f.Payload[3]
		fmt.Fprintf(d.w, "[%d] start-job: res=%#04x ptype=%#02x\n", f.Offset, d.res, ptype)

	case 0x51:
		if len(f.Payload) != 22 {
			return d.hexFallback(f, "malformed new-page frame")
		}
		p := f.Payload
		x := uint32(p[2])<<16 | uint32(p[3])<<24 | uint32(p[4]) | uint32(p[5])<<8
		y := uint32(p[6])<<16 | uint32(p[7])<<24 | uint32(p[8]) | uint32(p[9])<<8
		tray, pformat := p[14], p[15]
		hRes, vRes := resolutionDPI(d.res)
		mmW, mmH := 0.0, 0.0
		if hRes != 0 {
			mmW = 25.4 * float64(x) / float64(hRes)
		}
		if vRes != 0 {
			mmH = 25.4 * float64(y) / float64(vRes)
		}
		fmt.Fprintf(d.w, "[%d] new-page: %dx%d px, tray=%#02x format=%#02x, %.2fx%.2f mm (%.2fx%.2f in)\n",
			f.Offset, x, y, tray, pformat, mmW, mmH, mmW/25.4, mmH/25.4)

	case 0x52:
		if len(f.Payload) != 6 {
			return d.hexFallback(f, "malformed raster-data frame")
		}
		p := f.Payload
		byteCount := uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
		lineCount := uint16(p[4]) | uint16(p[5])<<8
		fmt.Fprintf(d.w, "[%d] raster-data: %d lines, %d compressed bytes follow\n", f.Offset, lineCount, byteCount)

	default:
		return d.hexFallback(f, "")
	}
	return nil
}

func (d *Dumper) hexFallback(f *Frame, note string) error {
	if note != "" {
		fmt.Fprintf(d.w, "[%d] cmd=%#02x seq=%#02x (%s): % x\n", f.Offset, f.Cmd, f.Seq, note, f.Payload)
	} else {
		fmt.Fprintf(d.w, "[%d] cmd=%#02x seq=%#02x: % x\n", f.Offset, f.Cmd, f.Seq, f.Payload)
	}
	return nil
}
