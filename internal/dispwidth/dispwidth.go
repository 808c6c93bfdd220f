// Package dispwidth is the single source of truth for how many terminal
// cells a string occupies. It backs column layout, cell clearing, and
// truncation (spec §4.G): a string's visual width equals the number of
// terminal cells it occupies on a conformant terminal, accounting for
// zero-width combining marks, East-Asian-wide and pictographic graphemes,
// and variation selectors.
package dispwidth

import (
	"github.com/clipperhouse/displaywidth"
	"github.com/clipperhouse/uax29/v2/graphemes"
)

// String returns the visual width of s in terminal cells.
func String(s string) int {
	return displaywidth.String(s)
}

// Truncate returns the longest prefix of s (by whole grapheme clusters)
// whose visual width does not exceed maxWidth, appending suffix (typically
// an ellipsis) if truncation occurred and the result still fits. Truncation
// never splits a grapheme cluster, so combining marks and ZWJ emoji
// sequences stay intact.
func Truncate(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}
	if String(s) <= maxWidth {
		return s
	}

	suffixWidth := String(suffix)
	if suffixWidth > maxWidth {
		suffix = ""
		suffixWidth = 0
	}
	budget := maxWidth - suffixWidth

	var out []byte
	width := 0
	seg := graphemes.FromString(s)
	for seg.Next() {
		cluster := seg.Value()
		w := String(cluster)
		if width+w > budget {
			break
		}
		out = append(out, cluster...)
		width += w
	}
	return string(out) + suffix
}

// PadRight pads s with spaces on the right until it occupies exactly width
// cells. If s is already at or beyond width, it is returned unchanged (the
// caller is responsible for truncating first).
func PadRight(s string, width int) string {
	w := String(s)
	if w >= width {
		return s
	}
	pad := width - w
	buf := make([]byte, pad)
	for i := range buf {
		buf[i] = ' '
	}
	return s + string(buf)
}

// Clip truncates s to fit width cells exactly, padding with spaces if it is
// shorter. Used by the Progressive Table Renderer to clear-then-write a
// cell without ever under- or over-shooting its column width.
func Clip(s string, width int) string {
	if String(s) > width {
		return Truncate(s, width, "")
	}
	return PadRight(s, width)
}

// Graphemes counts the number of grapheme clusters in s (distinct from
// String's cell-width sum; used by tests and diagnostics).
func Graphemes(s string) int {
	n := 0
	seg := graphemes.FromString(s)
	for seg.Next() {
		n++
	}
	return n
}
