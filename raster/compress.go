package raster

// Opcode space, §4.3:
//
//	0xFF        literal run header (count encoded by wraparound, see below)
//	0xC0..0xFE  long RLE (n > 63)
//	0x80..0xBF  short RLE (n <= 63)
//	0x41..0x7F  table-pair run
const (
	opLiteral  byte = 0xFF
	opShortRLE byte = 0x80
	opLongRLE  byte = 0xC0
	opTable    byte = 0x41
)

// maxRLERun is the largest run length the 0xC0.. / 0x80.. opcode pair
// can express: 63 long-run steps of 64 bytes each, plus a short run
// of up to 63 bytes.
const maxRLERun = 63*64 + 63

// Compressor holds the scanline dictionary across calls, matching the
// reference driver's per-scanline table lifecycle (global tbl/invtbl
// in the C source, now an explicit value instead).
type Compressor struct {
	table Table
}

// NewCompressor returns a Compressor with a fresh, empty table.
func NewCompressor() *Compressor { return &Compressor{} }

// Table returns the dictionary state left behind by the most recent
// CompressScanline call, for embedding as the band preamble.
func (c *Compressor) Table() *Table { return &c.table }

// runLength returns the length of the run of equal bytes starting at
// s[0], capped by len(s). Precondition: len(s) > 0.
func runLength(s []byte) int {
	c := s[0]
	n := 1
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

// headRun returns runLength capped additionally to at most 3 bytes of
// lookahead, matching get_len(p, MIN(p+3, end)) in the reference:
// callers only need to know whether a 3-byte run starts here, not its
// full extent.
func headRun(s []byte) int {
	if len(s) > 3 {
		s = s[:3]
	}
	return runLength(s)
}

// CompressScanline encodes one scanline, resetting the dictionary
// first (the per-scanline lifecycle of §3/§4.3). The returned slice is
// only valid until the next call.
func (c *Compressor) CompressScanline(s []byte) []byte {
	c.table.Reset()

	out := make([]byte, 0, len(s)+len(s)/4+4)
	p := 0
	for p < len(s) {
		n := runLength(s[p:])
		switch {
		case n > 2:
			p = c.emitRLE(&out, s, p, n)
		case c.table.fitsNext(s[p:], 4):
			p = c.emitTable(&out, s, p)
		default:
			p = c.emitLiteral(&out, s, p)
		}
	}
	return out
}

func (c *Compressor) emitRLE(out *[]byte, s []byte, p, n int) int {
	if n >= maxRLERun {
		// Run too long for one opcode pair: encode the first
		// maxRLERun-1 bytes here and leave the rest to the next pass
		// of CompressScanline's loop.
		n = maxRLERun - 1
	}
	b := s[p]
	for n > 63 {
		*out = append(*out, opLongRLE|byte(n>>6), b)
		adv := n &^ 0x3F
		p += adv
		n &= 0x3F
	}
	if n > 0 {
		*out = append(*out, opShortRLE|byte(n), b)
		p += n
	}
	return p
}

func (c *Compressor) emitTable(out *[]byte, s []byte, p int) int {
	opIdx := len(*out)
	*out = append(*out, opTable, 0, 0)
	(*out)[opIdx+1] = c.table.add(s[p])<<4 | c.table.add(s[p+1])
	(*out)[opIdx+2] = c.table.add(s[p+2])<<4 | c.table.add(s[p+3])
	p += 4

	for c.table.fitsNext(s[p:], 2) && (*out)[opIdx] < 0x7F {
		if headRun(s[p:]) >= 3 {
			break
		}
		(*out)[opIdx]++
		b := c.table.add(s[p])<<4 | c.table.add(s[p+1])
		*out = append(*out, b)
		p += 2
	}
	return p
}

// emitLiteral writes the escape byte 0xFF followed by raw bytes. The
// opcode byte itself is reused as the running count: since it is a
// plain byte it wraps the same way the reference driver's uint8_t
// does, so no separate counter is needed. The loop mirrors the
// reference's do-while exactly, including its off-by-one: the run
// stops at 10 literal bytes ("up to 10 bytes" in the original
// comment), not 9 — see DESIGN.md.
func (c *Compressor) emitLiteral(out *[]byte, s []byte, p int) int {
	opIdx := len(*out)
	*out = append(*out, opLiteral)

	for {
		*out = append(*out, s[p])
		p++
		(*out)[opIdx]++

		if p < len(s) {
			if headRun(s[p:]) >= 3 {
				break
			}
			if c.table.fitsNext(s[p:], 4) {
				break
			}
		}
		if !(p < len(s) && (*out)[opIdx] < 9) {
			break
		}
	}
	return p
}
