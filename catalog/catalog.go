// Package catalog holds the name-to-id lookup tables used by CLI flag
// parsing: printer models, resolutions, trays, paper types and paper
// formats. Each is a small ordered list rather than a map, so the help
// text (§6) can print them back out in a stable, documented order with
// the active default starred.
package catalog

import "fmt"

// Entry pairs one accepted name with the byte/word value the protocol
// uses for it.
type Entry struct {
	Name string
	ID   uint16
}

// Models lists the accepted -m/--model names. 1200W and 1250W are the
// same protocol id; so are 1300W and 1350W.
var Models = []Entry{
	{"1200W", 0x81}, {"1250W", 0x81},
	{"1300W", 0x83}, {"1350W", 0x83},
	{"1400W", 0x86},
}

// Resolutions lists the accepted -r/--res names, including the NxN
// aliases for the three uniform resolutions.
var Resolutions = []Entry{
	{"300", 0x0000}, {"300x300", 0x0000},
	{"600", 0x0001}, {"600x600", 0x0001},
	{"1200", 0x0002}, {"1200x1200", 0x0002},
	{"1200x600", 0x0101},
}

// Trays lists the accepted -t/--tray names.
var Trays = []Entry{
	{"auto", 0xff}, {"tray1", 0x00}, {"tray2", 0x01}, {"manual", 0x80},
}

// PaperTypes lists the accepted -p/--papertype names. postcard and
// envelope share an id, matching the reference driver.
var PaperTypes = []Entry{
	{"normal", 0x00}, {"thick", 0x01}, {"transparency", 0x02},
	{"postcard", 0x03}, {"envelope", 0x03},
}

// PaperFormats lists the accepted -f/--paperformat names. custom,
// envb6, folio, jisy1, jisy2 and quadpost all share id 0x31, matching
// the reference driver's table.
var PaperFormats = []Entry{
	{"a4", 0x04}, {"b5", 0x06}, {"a5", 0x08}, {"jpost", 0x0c},
	{"corpost", 0x0d}, {"jisy6", 0x10}, {"jisy0", 0x11},
	{"chinese16k", 0x13}, {"chinese32k", 0x15}, {"legal", 0x19},
	{"glegal", 0x1a}, {"letter", 0x1b}, {"gletter", 0x1d},
	{"executive", 0x1f}, {"halfletter", 0x21}, {"envmonarch", 0x24},
	{"env10", 0x25}, {"envdl", 0x26}, {"envc5", 0x27},
	{"envc6", 0x28}, {"envb5", 0x29}, {"choukei3gou", 0x2d},
	{"choukei5gou", 0x2e}, {"custom", 0x31}, {"envb6", 0x31},
	{"folio", 0x31}, {"jisy1", 0x31}, {"jisy2", 0x31},
	{"quadpost", 0x31},
}

// Lookup resolves name against table, ignoring case. It reports
// ok=false rather than an error: per §6, an unrecognized option value
// is never fatal, and the caller is responsible for substituting the
// default and warning on stderr (see min12xxwerr.ConfigError).
func Lookup(table []Entry, name string) (id uint16, ok bool) {
	for _, e := range table {
		if equalFold(e.Name, name) {
			return e.ID, true
		}
	}
	return 0, false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Describe formats table for the help text, marking the entry whose
// id equals def with a trailing asterisk, matching the reference
// driver's printav.
func Describe(table []Entry, def uint16) string {
	s := ""
	for i, e := range table {
		if i > 0 {
			s += ", "
		}
		s += e.Name
		if e.ID == def {
			s += "*"
		}
	}
	return s
}

// ModelByBasename maps an executable basename suffix (min1200w,
// min1250w, ...) to its model id, for the alternate-invocation-name
// convention in §6. ok is false if str does not match any suffix.
func ModelByBasename(str string) (id uint16, ok bool) {
	suffixes := []struct {
		suffix string
		id     uint16
	}{
		{"min1200w", 0x81}, {"min1250w", 0x81},
		{"min1300w", 0x83}, {"min1350w", 0x83},
		{"min1400w", 0x86},
	}
	for _, s := range suffixes {
		if len(str) >= len(s.suffix) && equalFold(s.suffix, str[len(str)-len(s.suffix):]) {
			return s.id, true
		}
	}
	return 0, false
}

// FormatID is a small helper for error messages.
func FormatID(id uint16) string { return fmt.Sprintf("%#04x", id) }
