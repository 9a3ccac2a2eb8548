// Package page implements the page pipeline (§4.4): reading a PBM raster,
// partitioning it into eight scanline bands, applying the margin and
// ecomode policies, and driving the raster compressor and command
// encoder to emit one print job.
package page

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/schillm/min12xxw/min12xxwerr"
)

// Header is the parsed P4 (raw PBM) header: magic, width, height.
type Header struct {
	Width  uint32
	Height uint32
}

// Reader reads a raw PBM image scanline by scanline, rounding the
// declared width up to a multiple of 8 (the raster format packs eight
// pixels per byte, so a narrower declared width still occupies a full
// byte per row).
type Reader struct {
	br       *bufio.Reader
	Header   Header
	sclBytes uint32 // bytes per scanline, i.e. (Width+7)/8 rounded to a byte boundary
}

// NewReader parses the PBM header from r and returns a Reader
// positioned at the start of the raster data.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	magic, err := readToken(br)
	if err != nil {
		if err == io.EOF {
			// Clean end of a multi-image stream: no more pages follow.
			return nil, io.EOF
		}
		return nil, &min12xxwerr.IoError{Op: "read pbm magic", Err: err}
	}
	if magic != "P4" {
		return nil, &min12xxwerr.FormatError{Reason: fmt.Sprintf("not a raw PBM file (magic %q)", magic)}
	}

	wTok, err := readToken(br)
	if err != nil {
		return nil, &min12xxwerr.IoError{Op: "read pbm width", Err: err}
	}
	w, err := strconv.ParseUint(wTok, 10, 32)
	if err != nil {
		return nil, &min12xxwerr.FormatError{Reason: "invalid PBM width: " + wTok}
	}

	hTok, err := readToken(br)
	if err != nil {
		return nil, &min12xxwerr.IoError{Op: "read pbm height", Err: err}
	}
	h, err := strconv.ParseUint(hTok, 10, 32)
	if err != nil {
		return nil, &min12xxwerr.FormatError{Reason: "invalid PBM height: " + hTok}
	}

	// Exactly one whitespace byte separates the header from the raster
	// data; readToken has already consumed it as the token delimiter.

	width := uint32(w)
	roundedWidth := (width + 7) &^ 7

	return &Reader{
		br:       br,
		Header:   Header{Width: roundedWidth, Height: uint32(h)},
		sclBytes: roundedWidth / 8,
	}, nil
}

// ScanlineBytes returns the number of packed bytes per scanline.
func (r *Reader) ScanlineBytes() uint32 { return r.sclBytes }

// ReadScanline reads one packed scanline.
func (r *Reader) ReadScanline() ([]byte, error) {
	buf := make([]byte, r.sclBytes)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, &min12xxwerr.IoError{Op: "read pbm scanline", Err: err}
	}
	return buf, nil
}

// readToken reads whitespace-separated tokens, skipping '#' comments
// that run to end of line, per the PBM "plain or raw" header grammar.
func readToken(br *bufio.Reader) (string, error) {
	var tok []byte

	// Skip leading whitespace and comments.
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '#' {
			if err := skipLine(br); err != nil {
				return "", err
			}
			continue
		}
		if isSpace(b) {
			continue
		}
		tok = append(tok, b)
		break
	}

	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		if isSpace(b) {
			break
		}
		tok = append(tok, b)
	}
	return string(tok), nil
}

func skipLine(br *bufio.Reader) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		if b == '\n' {
			return nil
		}
	}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
