// Package raster implements the per-scanline compressor (§4.3): a
// competition between run-length encoding, a 4-bit indexed byte
// table, and a literal escape, driven by a 16-entry dictionary that
// is rebuilt every scanline.
package raster

const (
	tableCap = 16
	sentinel = 0xFF
)

// Table is the per-scanline dictionary: up to sixteen distinct bytes,
// plus an inverse index for O(1) membership tests. The zero value is
// ready to use.
type Table struct {
	entries    [tableCap]byte
	length     int
	inv        [256]byte
	everCalled bool
}

// Len returns the number of entries currently in the table.
func (t *Table) Len() int { return t.length }

// Bytes returns the table's entries in insertion order.
func (t *Table) Bytes() []byte { return t.entries[:t.length] }

// Reset clears the table for a new scanline. The first call does a
// full 256-byte clear of the inverse index; subsequent calls only
// undo the entries that were actually set, avoiding the full memset
// on the common path.
func (t *Table) Reset() {
	if !t.everCalled {
		for i := range t.inv {
			t.inv[i] = sentinel
		}
		t.everCalled = true
	} else {
		for i := 0; i < t.length; i++ {
			t.inv[t.entries[i]] = sentinel
		}
	}
	t.length = 0
}

// indexOf reports the table index of b if present, or sentinel.
func (t *Table) indexOf(b byte) byte { return t.inv[b] }

// Contains reports whether b is currently in the table and, if so,
// its index. Exported for testing the table invariant from outside
// the package.
func (t *Table) Contains(b byte) (idx byte, ok bool) {
	i := t.inv[b]
	return i, i < tableCap
}

// add returns the table index for b, inserting it if there is room.
// If the table is full and b is absent, it returns the sentinel; the
// caller must have verified feasibility via fitsNext first, so this
// path is unreachable in correct code.
func (t *Table) add(b byte) byte {
	if t.inv[b] < tableCap || t.length >= tableCap {
		return t.inv[b]
	}
	idx := byte(t.length)
	t.entries[t.length] = b
	t.inv[b] = idx
	t.length++
	return idx
}

// fitsNext reports whether the next n bytes of s are each already in
// the table, or there is room to add the ones that are not. It also
// requires strictly more than n bytes remain in s, matching the
// reference driver's next_n_in_tbl bounds check.
func (t *Table) fitsNext(s []byte, n int) bool {
	if len(s) <= n {
		return false
	}
	already := 0
	for i := 0; i < n; i++ {
		if t.inv[s[i]] < tableCap {
			already++
		}
	}
	return t.length < (17 - n + already)
}
