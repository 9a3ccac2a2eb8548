package page

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/schillm/min12xxw/command"
	"github.com/schillm/min12xxw/frame"
	"github.com/schillm/min12xxw/raster"
)

// marginTable maps the low byte of the resolution code to the number
// of scanline bytes (8-pixel groups) trimmed from each side of a page
// when margins are enabled: {6, 13, 25} for 300/600/1200 dpi.
var marginTable = [3]uint32{6, 13, 25}

// Config holds the per-job settings a Pipeline needs to know about:
// everything the command layer (§4.2) takes as a parameter, plus the
// two page-level policy toggles (§4.4).
type Config struct {
	Model         byte
	ResCode       uint16
	PaperType     byte
	PaperFormat   byte
	Tray          byte
	MarginsEnable bool
	EcoMode       bool
}

// Pipeline drives one print job: a StartJob/EndJob bracket around a
// sequence of pages, each split into eight scanline bands (§4.4).
//
// marginsDisabled is a latch, not a per-page flag: once a page's
// dimensions force margins off (§4.4 step 2), every later page in the
// same job is also processed with margins off, matching the reference
// driver's single static "nomargins" variable being written to rather
// than read from a constant.
type Pipeline struct {
	enc             *frame.Encoder
	comp            *raster.Compressor
	cfg             Config
	marginsDisabled bool
	warnedMargins   bool
}

// NewPipeline returns a Pipeline ready to run one job under cfg.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		enc:  frame.NewEncoder(),
		comp: raster.NewCompressor(),
		cfg:  cfg,
	}
}

// RunJob reads one or more PBM pages from r (raw PBM images
// concatenated back to back) and writes the complete command stream,
// wrapped in Start/StartJob...EndJob/Stop, to w.
func RunJob(w io.Writer, r io.Reader, cfg Config) error {
	p := NewPipeline(cfg)
	// One buffered reader for the whole stream, so bytes read ahead
	// while parsing one page are still there for the next.
	br := bufio.NewReader(r)

	if out, err := command.Start(p.enc, cfg.Model); err != nil {
		return err
	} else if _, err := w.Write(out); err != nil {
		return err
	}
	if out, err := command.StartJob(p.enc, cfg.ResCode, cfg.PaperType, cfg.Model); err != nil {
		return err
	} else if _, err := w.Write(out); err != nil {
		return err
	}

	for {
		pr, err := NewReader(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if pr.Header.Width == 0 || pr.Header.Height == 0 {
			break
		}
		if err := p.processPage(w, pr); err != nil {
			return err
		}
	}

	if out, err := command.EndJob(p.enc); err != nil {
		return err
	} else if _, err := w.Write(out); err != nil {
		return err
	}
	return nil
}

// tableSkip returns the margin skip, in scanline-byte units, for this
// page: zero when margins are disabled in config or already latched
// off by an earlier too-small page.
func (p *Pipeline) tableSkip() uint32 {
	if !p.cfg.MarginsEnable || p.marginsDisabled {
		return 0
	}
	return marginTable[p.cfg.ResCode&0xFF]
}

// processPage emits one NewPage command followed by eight RasterData
// bands, applying the margin and ecomode policies (§4.4).
func (p *Pipeline) processPage(w io.Writer, pr *Reader) error {
	skip := p.tableSkip()

	// Page-level auto-disable check (§4.4 step 2), using the reference
	// driver's dojob-scope skip (16x the per-byte table value) and its
	// exact thresholds: width <= 2*(16*skip), height arithmetic on the
	// same scaled value. See DESIGN.md for the derivation. h < scaled
	// covers the case where the reference's signed height difference
	// goes negative.
	if skip > 0 {
		scaled := 16 * skip
		h, w32 := pr.Header.Height, pr.Header.Width
		if h < scaled || (h-scaled)/8 <= scaled || w32 <= 2*scaled {
			if !p.warnedMargins {
				fmt.Fprintln(os.Stderr, "min12xxw: page too small for margins, disabling margins for the rest of the job")
				p.warnedMargins = true
			}
			p.marginsDisabled = true
			skip = 0
		}
	}

	reducedW, reducedH := pr.Header.Width, pr.Header.Height
	if skip > 0 {
		reducedW -= 16 * skip
		reducedH -= 16 * skip
	}

	out, err := command.NewPage(p.enc, p.cfg.ResCode, reducedW, reducedH, p.cfg.Tray, p.cfg.PaperFormat)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}

	for i := 0; i < int(skip*8); i++ {
		if _, err := pr.ReadScanline(); err != nil {
			return err
		}
	}

	sclBytes := pr.ScanlineBytes()
	sclPerBl := (pr.Header.Height + 7) / 8

	yc := skip * 8
	ecoLine := false
	for band := 0; band < 8; band++ {
		bufCap := int(sclPerBl) * (17 + int(sclBytes) + int(sclBytes)/10 + 1)
		bandBuf := make([]byte, 0, bufCap)

		yy := uint32(0)
		for yy < sclPerBl && yc < pr.Header.Height {
			scl, err := pr.ReadScanline()
			if err != nil {
				return err
			}
			yc++
			yy++

			// Bottom-margin rows are still read to stay in sync with
			// the input, but never compressed or emitted.
			if yc+skip*8 > pr.Header.Height {
				continue
			}

			trimmed := scl
			if skip > 0 {
				trimmed = scl[skip : sclBytes-skip]
			}
			if p.cfg.EcoMode {
				if ecoLine {
					zero(trimmed)
				}
				ecoLine = !ecoLine
			}

			comp := p.comp.CompressScanline(trimmed)
			tbl := p.comp.Table()
			bandBuf = append(bandBuf, 0x80|byte(tbl.Len()))
			bandBuf = append(bandBuf, tbl.Bytes()...)
			bandBuf = append(bandBuf, comp...)
		}

		reportedLines := yy
		if band == 7 && skip > 0 {
			reportedLines -= 8 * skip
		}

		hdr, err := command.RasterData(p.enc, int(reportedLines), len(bandBuf))
		if err != nil {
			return err
		}
		if _, err := w.Write(hdr); err != nil {
			return err
		}
		if _, err := w.Write(bandBuf); err != nil {
			return err
		}
	}
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
