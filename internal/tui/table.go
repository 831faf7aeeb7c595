package tui

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// columnDef describes a single column in a table.
type columnDef struct {
	Title string
	Width int // preferred width in cells
}

// minColWidth is the narrowest a column is allowed to get.
const minColWidth = 4

// columnWidths distributes available cells across cols in proportion to
// their preferred widths. The last column takes the remainder. With no room
// information the preferred widths are returned unchanged.
func columnWidths(available int, cols []columnDef) []int {
	out := make([]int, len(cols))
	total := 0
	for i, c := range cols {
		out[i] = c.Width
		total += c.Width
	}
	if available <= 0 || total == 0 {
		return out
	}
	used := 0
	for i, c := range cols {
		var w int
		if i == len(cols)-1 {
			w = available - used
		} else {
			w = available * c.Width / total
		}
		w = max(w, minColWidth)
		out[i] = w
		used += w
	}
	return out
}

// truncateName shortens s to at most maxWidth terminal cells, ending in
// "..." when there is room for it.
func truncateName(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// sanitize removes terminal escape sequences and control characters so
// untrusted text cannot restyle the console.
func sanitize(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r == '\x1b' {
			i = skipEscape(rs, i)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// skipEscape returns the index of the last rune of the escape sequence
// starting at rs[i].
func skipEscape(rs []rune, i int) int {
	if i+1 >= len(rs) {
		return i
	}
	switch rs[i+1] {
	case '[': // CSI: ends at a final byte 0x40–0x7E
		for j := i + 2; j < len(rs); j++ {
			if rs[j] >= 0x40 && rs[j] <= 0x7E {
				return j
			}
		}
		return len(rs) - 1
	case ']': // OSC: ends at BEL or ESC \
		for j := i + 2; j < len(rs); j++ {
			if rs[j] == '\x07' {
				return j
			}
			if rs[j] == '\x1b' && j+1 < len(rs) && rs[j+1] == '\\' {
				return j + 1
			}
		}
		return len(rs) - 1
	default:
		return i + 1
	}
}
