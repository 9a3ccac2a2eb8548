package command_test

import (
	"testing"

	"github.com/schillm/min12xxw/command"
	"github.com/schillm/min12xxw/frame"
)

func TestStartPayload(t *testing.T) {
	enc := frame.NewEncoder()
	out, err := command.Start(enc, 0x81)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	df, _, err := frame.ReadEnvelope(out)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if df.Cmd != command.CmdStart {
		t.Errorf("Cmd = %#02x, want %#02x", df.Cmd, command.CmdStart)
	}
	want := []byte{0x81, 0x00}
	if string(df.Payload) != string(want) {
		t.Errorf("Payload = %v, want %v", df.Payload, want)
	}
}

func TestStartJobLargeFormatFlag(t *testing.T) {
	tests := []struct {
		name  string
		model byte
		want6 byte
	}{
		{name: "1200W family", model: 0x81, want6: 0},
		{name: "1300W family", model: 0x83, want6: 0x04},
		{name: "1400W", model: 0x86, want6: 0x04},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := frame.NewEncoder()
			out, err := command.StartJob(enc, 0x0001, 0x00, tt.model)
			if err != nil {
				t.Fatalf("StartJob: %v", err)
			}
			df, _, err := frame.ReadEnvelope(out)
			if err != nil {
				t.Fatalf("ReadEnvelope: %v", err)
			}
			if len(df.Payload) != 8 {
				t.Fatalf("payload len = %d, want 8", len(df.Payload))
			}
			if df.Payload[6] != tt.want6 {
				t.Errorf("payload[6] = %#02x, want %#02x", df.Payload[6], tt.want6)
			}
		})
	}
}

func TestNewPage300DpiFlag(t *testing.T) {
	tests := []struct {
		name     string
		res      uint16
		wantFlag byte
	}{
		{name: "300 dpi sets flag", res: 0x0000, wantFlag: 0xC0},
		{name: "600 dpi clears flag", res: 0x0001, wantFlag: 0x00},
		{name: "1200 dpi clears flag", res: 0x0002, wantFlag: 0x00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := frame.NewEncoder()
			out, err := command.NewPage(enc, tt.res, 2400, 3600, 0xFF, 0x04)
			if err != nil {
				t.Fatalf("NewPage: %v", err)
			}
			df, _, err := frame.ReadEnvelope(out)
			if err != nil {
				t.Fatalf("ReadEnvelope: %v", err)
			}
			if len(df.Payload) != 22 {
				t.Fatalf("payload len = %d, want 22", len(df.Payload))
			}
			if df.Payload[20] != tt.wantFlag {
				t.Errorf("payload[20] = %#02x, want %#02x", df.Payload[20], tt.wantFlag)
			}
		})
	}
}

func TestNewPageMixedByteOrder(t *testing.T) {
	enc := frame.NewEncoder()
	x := uint32(0x01020304)
	y := uint32(0x05060708)
	out, err := command.NewPage(enc, 0x0001, x, y, 0xFF, 0x04)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	df, _, err := frame.ReadEnvelope(out)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	gotX := uint32(df.Payload[2])<<16 | uint32(df.Payload[3])<<24 | uint32(df.Payload[4]) | uint32(df.Payload[5])<<8
	gotY := uint32(df.Payload[6])<<16 | uint32(df.Payload[7])<<24 | uint32(df.Payload[8]) | uint32(df.Payload[9])<<8
	if gotX != x {
		t.Errorf("x round-trip = %#08x, want %#08x", gotX, x)
	}
	if gotY != y {
		t.Errorf("y round-trip = %#08x, want %#08x", gotY, y)
	}
}

func TestEnableRegistersSubByte(t *testing.T) {
	tests := []struct {
		model byte
		want  byte
	}{
		{model: 0x81, want: 0x78},
		{model: 0x83, want: 0x1C},
		{model: 0x86, want: 0x1C},
	}
	for _, tt := range tests {
		enc := frame.NewEncoder()
		out, err := command.EnableRegisters(enc, tt.model)
		if err != nil {
			t.Fatalf("EnableRegisters: %v", err)
		}
		df, _, err := frame.ReadEnvelope(out)
		if err != nil {
			t.Fatalf("ReadEnvelope: %v", err)
		}
		if df.Payload[0] != tt.want {
			t.Errorf("model %#02x: sub byte = %#02x, want %#02x", tt.model, df.Payload[0], tt.want)
		}
	}
}

func TestEndJobEmitsStopAfter(t *testing.T) {
	enc := frame.NewEncoder()
	out, err := command.EndJob(enc)
	if err != nil {
		t.Fatalf("EndJob: %v", err)
	}

	first, n, err := frame.ReadEnvelope(out)
	if err != nil {
		t.Fatalf("ReadEnvelope first: %v", err)
	}
	if first.Cmd != command.CmdEndJob {
		t.Errorf("first Cmd = %#02x, want %#02x", first.Cmd, command.CmdEndJob)
	}

	second, _, err := frame.ReadEnvelope(out[n:])
	if err != nil {
		t.Fatalf("ReadEnvelope second: %v", err)
	}
	if second.Cmd != command.CmdStop {
		t.Errorf("second Cmd = %#02x, want %#02x", second.Cmd, command.CmdStop)
	}
}

func TestRasterDataHeader(t *testing.T) {
	enc := frame.NewEncoder()
	out, err := command.RasterData(enc, 123, 4096)
	if err != nil {
		t.Fatalf("RasterData: %v", err)
	}
	df, _, err := frame.ReadEnvelope(out)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if len(df.Payload) != 6 {
		t.Fatalf("payload len = %d, want 6", len(df.Payload))
	}
	gotLen := uint32(df.Payload[0]) | uint32(df.Payload[1])<<8 | uint32(df.Payload[2])<<16 | uint32(df.Payload[3])<<24
	gotLines := uint16(df.Payload[4]) | uint16(df.Payload[5])<<8
	if gotLen != 4096 {
		t.Errorf("len = %d, want 4096", gotLen)
	}
	if gotLines != 123 {
		t.Errorf("nlines = %d, want 123", gotLines)
	}
}
