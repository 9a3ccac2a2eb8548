// Package device implements the printer status query (§4.5): the
// register read/retry protocol and the fixed-layout status report
// assembled from four registers.
package device

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/schillm/min12xxw/command"
	"github.com/schillm/min12xxw/frame"
	"github.com/schillm/min12xxw/min12xxwerr"
)

const (
	regStatus      = 0x04
	regControllerF = 0x02
	regEngineF     = 0x81
	regPageCounter = 0x53
)

const (
	retryAttempts = 10
	retryDelay    = 100 * time.Millisecond
)

// Device talks the register query protocol over a duplex connection
// to the printer: frame-encoded commands out, raw (non-enveloped)
// register replies back. The reply wire format is the device's own
// dialect — a register byte, a one-byte length, then that many data
// bytes — distinct from the command envelope in package frame.
type Device struct {
	w   io.Writer
	r   *bufio.Reader
	enc *frame.Encoder
}

// New wraps rw (typically a devopen.Device) for the query protocol.
func New(rw io.ReadWriter) *Device {
	return &Device{w: rw, r: bufio.NewReader(rw), enc: frame.NewEncoder()}
}

func (d *Device) send(out []byte) error {
	_, err := d.w.Write(out)
	if err != nil {
		return &min12xxwerr.IoError{Op: "write device command", Err: err}
	}
	return nil
}

// ReadRegister attempts to read the reply for reg, retrying up to
// retryAttempts times with retryDelay between tries, since the
// printer's USB link echoes whatever register it feels like until it
// catches up with the request. It returns a nil slice, no error, if
// every attempt yielded a different register than requested — the
// caller decides whether that is fatal, since some registers (e.g. the
// engine firmware register on models that lack it) are optional.
func (d *Device) ReadRegister(ctx context.Context, reg byte) ([]byte, error) {
	for attempt := 0; attempt < retryAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}

		gotReg, err := d.r.ReadByte()
		if err != nil {
			return nil, &min12xxwerr.IoError{Op: "read device register byte", Err: err}
		}
		n, err := d.r.ReadByte()
		if err != nil {
			return nil, &min12xxwerr.IoError{Op: "read device length byte", Err: err}
		}
		data := make([]byte, n)
		if _, err := io.ReadFull(d.r, data); err != nil {
			return nil, &min12xxwerr.IoError{Op: "read device register data", Err: err}
		}
		if gotReg == reg {
			return data, nil
		}
	}
	return nil, nil
}

// Status is the fully decoded printer status report (§4.5): the
// layouts of each field are fixed offsets into the raw register
// replies, taken from the reference implementation since the
// protocol itself does not self-describe them.
type Status struct {
	StatusString       string
	ControllerFirmware string
	EngineFirmware     string // empty if the model does not expose register 0x81
	PageCount          uint32
}

// Query runs the full status sequence: start, enable registers, read
// each of the four status registers in turn, then stop. model selects
// the enable-registers sub-command byte (§4.2).
func Query(ctx context.Context, rw io.ReadWriter, model byte) (*Status, error) {
	d := New(rw)

	if out, err := command.Start(d.enc, model); err != nil {
		return nil, err
	} else if err := d.send(out); err != nil {
		return nil, err
	}
	if out, err := command.EnableRegisters(d.enc, model); err != nil {
		return nil, err
	} else if err := d.send(out); err != nil {
		return nil, err
	}

	st := &Status{}

	statusRaw, err := d.readOne(ctx, regStatus)
	if err != nil {
		return nil, err
	}
	if len(statusRaw) > 0 {
		// The first byte is a framing artifact the reference driver
		// discards via memmove before treating the rest as a
		// NUL-terminated string.
		st.StatusString = trimNUL(statusRaw[1:])
	}

	cfwRaw, err := d.readOne(ctx, regControllerF)
	if err != nil {
		return nil, err
	}
	if len(cfwRaw) != 14 {
		d.tryStop()
		return nil, &min12xxwerr.DeviceProtocolError{Register: regControllerF, Reason: "expected 14 bytes"}
	}
	// The four version bytes are stored reversed.
	st.ControllerFirmware = string([]byte{cfwRaw[3], cfwRaw[2], cfwRaw[1], cfwRaw[0]})

	efwRaw, err := d.readOne(ctx, regEngineF)
	if err != nil {
		return nil, err
	}
	switch len(efwRaw) {
	case 0:
		// Model does not expose this register.
	case 30:
		st.EngineFirmware = trimNUL(efwRaw[18:30])
	default:
		d.tryStop()
		return nil, &min12xxwerr.DeviceProtocolError{Register: regEngineF, Reason: "expected 0 or 30 bytes"}
	}

	pcntRaw, err := d.readOne(ctx, regPageCounter)
	if err != nil {
		return nil, err
	}
	if len(pcntRaw) != 38 {
		d.tryStop()
		return nil, &min12xxwerr.DeviceProtocolError{Register: regPageCounter, Reason: "expected 38 bytes"}
	}
	st.PageCount = uint32(pcntRaw[30]) | uint32(pcntRaw[31])<<8 | uint32(pcntRaw[32])<<16 | uint32(pcntRaw[33])<<24

	if out, err := command.Stop(d.enc); err != nil {
		return nil, err
	} else if err := d.send(out); err != nil {
		return nil, err
	}

	return st, nil
}

// tryStop sends a stop frame on a best-effort basis before a fatal
// protocol error unwinds the query, matching the reference driver's
// readerr label (do_stop(f) before fatal()) so a malformed reply
// never leaves the printer's command sequencer half-opened.
func (d *Device) tryStop() {
	if out, err := command.Stop(d.enc); err == nil {
		_ = d.send(out)
	}
}

// readOne sends the read-register command for reg and reads its reply.
func (d *Device) readOne(ctx context.Context, reg byte) ([]byte, error) {
	out, err := command.ReadRegister(d.enc, reg)
	if err != nil {
		return nil, err
	}
	if err := d.send(out); err != nil {
		return nil, err
	}
	return d.ReadRegister(ctx, reg)
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
