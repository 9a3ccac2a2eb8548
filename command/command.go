// Package command builds the opcode payloads for every operation the
// printer understands (start, stop, start-job, new-page, raster-data,
// end-job, enable-registers, read-register) and wraps each one in a
// frame via the supplied encoder.
package command

import "github.com/schillm/min12xxw/frame"

// Command bytes, §4.2.
const (
	CmdStart            byte = 0x40
	CmdStop             byte = 0x41
	CmdStartJob         byte = 0x50
	CmdNewPage          byte = 0x51
	CmdRasterData       byte = 0x52
	CmdEndJob           byte = 0x55
	CmdReadRegister     byte = 0x60
	CmdEnableRegisters  byte = 0x6A
)

// largeFormat reports whether model belongs to the 13xxW/1400W family,
// which needs an extra 0x04 flag in start-job and a different
// enable-registers sub-command than the 12xxW family.
func largeFormat(model byte) bool {
	return model == 0x83 || model == 0x86
}

// Start sends the start-of-printer-commands sequence that makes the
// printer pay attention.
func Start(e *frame.Encoder, model byte) ([]byte, error) {
	return e.Encode(CmdStart, []byte{model, 0x00})
}

// Stop sends the terminate-command-sequence signal.
func Stop(e *frame.Encoder) ([]byte, error) {
	return e.Encode(CmdStop, []byte{0x00})
}

// StartJob sends the start-of-job / select-resolution-and-papertype
// sequence. res is the two-byte resolution code (low byte first in
// the printed stream, as stored); ptype is the paper type id.
func StartJob(e *frame.Encoder, res uint16, ptype byte, model byte) ([]byte, error) {
	payload := make([]byte, 8)
	payload[0] = byte(res & 0xFF)
	payload[1] = byte(res >> 8)
	payload[2] = 0
	payload[3] = ptype
	payload[4] = 0x04
	payload[5] = 0
	if largeFormat(model) {
		payload[6] = 0x04
	}
	payload[7] = 0
	return e.Encode(CmdStartJob, payload)
}

// NewPage sends the new-page sequence. x and y are the page
// dimensions in pixels after margin reduction; res is the same
// resolution code passed to StartJob (only its low byte matters
// here, selecting the 300 dpi flag); tray and pformat are catalog ids.
func NewPage(e *frame.Encoder, res uint16, x, y uint32, tray, pformat byte) ([]byte, error) {
	payload := make([]byte, 22)
	payload[1] = 0x01
	payload[2] = byte((x >> 16) & 0xFF)
	payload[3] = byte(x >> 24)
	payload[4] = byte(x & 0xFF)
	payload[5] = byte((x >> 8) & 0xFF)
	payload[6] = byte((y >> 16) & 0xFF)
	payload[7] = byte(y >> 24)
	payload[8] = byte(y & 0xFF)
	payload[9] = byte((y >> 8) & 0xFF)
	payload[10] = 0x08
	payload[12] = 0x08
	payload[14] = tray
	payload[15] = pformat
	if byte(res&0xFF) == 0 {
		// 300 dpi needs a special flag set here.
		payload[20] = 0xC0
	}
	return e.Encode(CmdNewPage, payload)
}

// RasterData builds the six-byte raster-data command header frame.
// The compressed band payload is NOT part of the returned frame: per
// §4.2 it is appended as a continuation stream outside the checksummed
// envelope, so the caller must write it immediately after this frame's
// bytes. nlines must be less than 65536.
func RasterData(e *frame.Encoder, nlines int, compressedLen int) ([]byte, error) {
	payload := make([]byte, 6)
	payload[0] = byte(compressedLen & 0xFF)
	payload[1] = byte((compressedLen >> 8) & 0xFF)
	payload[2] = byte((compressedLen >> 16) & 0xFF)
	payload[3] = byte(compressedLen >> 24)
	payload[4] = byte(nlines & 0xFF)
	payload[5] = byte((nlines >> 8) & 0xFF)
	return e.Encode(CmdRasterData, payload)
}

// EndJob sends the end-of-job sequence followed immediately by a stop
// frame, matching the reference driver's send_end_job.
func EndJob(e *frame.Encoder) ([]byte, error) {
	end, err := e.Encode(CmdEndJob, []byte{0x00})
	if err != nil {
		return nil, err
	}
	stop, err := Stop(e)
	if err != nil {
		return nil, err
	}
	return append(end, stop...), nil
}

// EnableRegisters sends the register-enabler command. Its meaning is
// not documented anywhere the reference driver's author could find;
// it is sent because the vendor's own driver sends it.
func EnableRegisters(e *frame.Encoder, model byte) ([]byte, error) {
	sub := byte(0x78)
	if largeFormat(model) {
		sub = 0x1C
	}
	return e.Encode(CmdEnableRegisters, []byte{sub, 0x00, 0x04})
}

// ReadRegister requests the contents of register reg.
func ReadRegister(e *frame.Encoder, reg byte) ([]byte, error) {
	return e.Encode(CmdReadRegister, []byte{reg, 0x00})
}
