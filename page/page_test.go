package page_test

import (
	"bytes"
	"testing"

	"github.com/schillm/min12xxw/frame"
	"github.com/schillm/min12xxw/page"
)

func onePixelPBM() []byte {
	// P4, 1x1, single data byte (only the high bit is meaningful).
	return []byte("P4\n1 1\n\x00")
}

func TestPBMHeaderRoundsWidthUpToByte(t *testing.T) {
	r, err := page.NewReader(bytes.NewReader(onePixelPBM()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Header.Width != 8 {
		t.Errorf("Width = %d, want 8 (rounded up from 1)", r.Header.Width)
	}
	if r.Header.Height != 1 {
		t.Errorf("Height = %d, want 1", r.Header.Height)
	}
	if r.ScanlineBytes() != 1 {
		t.Errorf("ScanlineBytes = %d, want 1", r.ScanlineBytes())
	}
}

func TestPBMSkipsCommentLines(t *testing.T) {
	data := []byte("P4\n# a comment\n1 1\n\x00")
	r, err := page.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Header.Width != 8 || r.Header.Height != 1 {
		t.Fatalf("got %+v", r.Header)
	}
}

func TestPBMRejectsBadMagic(t *testing.T) {
	_, err := page.NewReader(bytes.NewReader([]byte("P1\n1 1\n0")))
	if err == nil {
		t.Fatal("expected error for non-P4 magic")
	}
}

// TestTinyPageDisablesMargins is scenario S1: a 1x1 page is far
// smaller than any margin table entry, so margins must be auto
// disabled and the page dimensions passed through unreduced.
func TestTinyPageDisablesMargins(t *testing.T) {
	var out bytes.Buffer
	cfg := page.Config{
		Model:         0x81,
		ResCode:       0x0001,
		PaperType:     0x00,
		PaperFormat:   0x1b,
		Tray:          0xff,
		MarginsEnable: true,
	}
	if err := page.RunJob(&out, bytes.NewReader(onePixelPBM()), cfg); err != nil {
		t.Fatalf("RunJob: %v", err)
	}

	buf := out.Bytes()
	var newPagePayload []byte
	for len(buf) > 0 {
		df, n, err := frame.ReadEnvelope(buf)
		if err != nil {
			t.Fatalf("ReadEnvelope: %v", err)
		}
		if df.Cmd == 0x51 {
			newPagePayload = df.Payload
			break
		}
		buf = buf[n:]
	}
	if newPagePayload == nil {
		t.Fatal("no new-page command found in output")
	}

	gotX := uint32(newPagePayload[2])<<16 | uint32(newPagePayload[3])<<24 | uint32(newPagePayload[4]) | uint32(newPagePayload[5])<<8
	gotY := uint32(newPagePayload[6])<<16 | uint32(newPagePayload[7])<<24 | uint32(newPagePayload[8]) | uint32(newPagePayload[9])<<8
	if gotX != 8 {
		t.Errorf("reduced width = %d, want 8 (margins should have been disabled)", gotX)
	}
	if gotY != 1 {
		t.Errorf("reduced height = %d, want 1 (margins should have been disabled)", gotY)
	}
}

func TestRunJobEmitsStartAndEndJob(t *testing.T) {
	var out bytes.Buffer
	cfg := page.Config{Model: 0x81, ResCode: 0x0001, PaperFormat: 0x1b, Tray: 0xff}
	if err := page.RunJob(&out, bytes.NewReader(onePixelPBM()), cfg); err != nil {
		t.Fatalf("RunJob: %v", err)
	}

	buf := out.Bytes()
	df, n, err := frame.ReadEnvelope(buf)
	if err != nil {
		t.Fatalf("ReadEnvelope first: %v", err)
	}
	if df.Cmd != 0x40 {
		t.Errorf("first command = %#02x, want Start (0x40)", df.Cmd)
	}
	buf = buf[n:]

	df, _, err = frame.ReadEnvelope(buf)
	if err != nil {
		t.Fatalf("ReadEnvelope second: %v", err)
	}
	if df.Cmd != 0x50 {
		t.Errorf("second command = %#02x, want StartJob (0x50)", df.Cmd)
	}

	full := out.Bytes()
	var lastTwo []byte
	for len(full) > 0 {
		d, n, err := frame.ReadEnvelope(full)
		if err != nil {
			t.Fatalf("ReadEnvelope: %v", err)
		}
		lastTwo = append(lastTwo, d.Cmd)
		full = full[n:]
		if d.Cmd == 0x52 {
			// The compressed band follows the 0x52 frame outside the
			// envelope; skip its byte count to reach the next frame.
			count := int(d.Payload[0]) | int(d.Payload[1])<<8 | int(d.Payload[2])<<16 | int(d.Payload[3])<<24
			full = full[count:]
		}
	}
	if len(lastTwo) < 2 || lastTwo[len(lastTwo)-2] != 0x55 || lastTwo[len(lastTwo)-1] != 0x41 {
		t.Errorf("job should end with EndJob(0x55) then Stop(0x41), got trailing commands %v", lastTwo)
	}
}

// TestLargePageKeepsMargins exercises a page comfortably larger than
// any margin table entry, at 600dpi (skip=13), so the dimension
// reduction actually applies: 16*13 = 208 pixels off each axis.
func TestLargePageKeepsMargins(t *testing.T) {
	width, height := 4800, 3600
	var pbm bytes.Buffer
	pbm.WriteString("P4\n")
	pbm.WriteString("4800 3600\n")
	pbm.Write(make([]byte, (width/8)*height))

	var out bytes.Buffer
	cfg := page.Config{
		Model:         0x81,
		ResCode:       0x0001,
		PaperFormat:   0x1b,
		Tray:          0xff,
		MarginsEnable: true,
	}
	if err := page.RunJob(&out, &pbm, cfg); err != nil {
		t.Fatalf("RunJob: %v", err)
	}

	buf := out.Bytes()
	for len(buf) > 0 {
		df, n, err := frame.ReadEnvelope(buf)
		if err != nil {
			t.Fatalf("ReadEnvelope: %v", err)
		}
		if df.Cmd == 0x51 {
			gotX := uint32(df.Payload[2])<<16 | uint32(df.Payload[3])<<24 | uint32(df.Payload[4]) | uint32(df.Payload[5])<<8
			wantX := uint32(width) - 16*13
			if gotX != wantX {
				t.Errorf("reduced width = %d, want %d", gotX, wantX)
			}
			return
		}
		buf = buf[n:]
	}
	t.Fatal("no new-page command found")
}
