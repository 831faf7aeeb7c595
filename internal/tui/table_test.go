package tui

import (
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
)

func TestTruncateName(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWidth int
		want     string
	}{
		{"empty string", "", 10, ""},
		{"fits exactly", "hello", 5, "hello"},
		{"fits shorter", "hi", 10, "hi"},
		{"one over", "hello!", 5, "he..."},
		{"long url", "http://127.0.0.1:49213/_nodes/_all/http", 20, "http://127.0.0.1:..."},
		{"width 0", "abc", 0, ""},
		{"width 1", "abc", 1, "a"},
		{"width 2", "abc", 2, "ab"},
		{"width 3", "abcd", 3, "abc"},
		{"width 4", "abcde", 4, "a..."},
		{"unicode fits", "héllo", 5, "héllo"},
		{"unicode truncated", "héllo world", 8, "héllo..."},
		// Wide characters (CJK): each occupies 2 terminal columns.
		{"wide chars fit", "中文", 4, "中文"},
		{"wide chars truncated", "中文测试", 5, "中..."},
		{"wide chars truncated exact", "中文测试", 7, "中文..."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := truncateName(tc.s, tc.maxWidth)
			assert.Equal(t, tc.want, got)
			if tc.maxWidth > 0 {
				assert.LessOrEqual(t, runewidth.StringWidth(got), tc.maxWidth,
					"result display width must not exceed maxWidth")
			}
		})
	}
}

func TestColumnWidths_ZeroAvailable(t *testing.T) {
	defs := []columnDef{
		{Title: "A", Width: 10},
		{Title: "B", Width: 20},
	}
	got := columnWidths(0, defs)
	assert.Equal(t, []int{10, 20}, got, "zero available → preferred widths returned unchanged")
}

func TestColumnWidths_NegativeAvailable(t *testing.T) {
	got := columnWidths(-1, []columnDef{{Title: "A", Width: 15}})
	assert.Equal(t, []int{15}, got)
}

func TestColumnWidths_EmptyDefs(t *testing.T) {
	got := columnWidths(100, nil)
	assert.Equal(t, []int{}, got)
}

func TestColumnWidths_ProportionalUnequal(t *testing.T) {
	defs := []columnDef{
		{Title: "A", Width: 10},
		{Title: "B", Width: 30},
	}
	got := columnWidths(80, defs)
	assert.Equal(t, []int{20, 60}, got)
}

func TestColumnWidths_LastTakesRemainder(t *testing.T) {
	defs := []columnDef{
		{Title: "A", Width: 10},
		{Title: "B", Width: 10},
		{Title: "C", Width: 10},
	}
	got := columnWidths(100, defs)
	assert.Equal(t, []int{33, 33, 34}, got)
}

func TestColumnWidths_ClampsToMinimum(t *testing.T) {
	defs := []columnDef{
		{Title: "A", Width: 10},
		{Title: "B", Width: 10},
		{Title: "C", Width: 10},
	}
	got := columnWidths(6, defs)
	for i, w := range got {
		assert.GreaterOrEqual(t, w, minColWidth, "column %d width must be >= %d", i, minColWidth)
	}
}

func TestColumnWidths_NodeColumnsFillWidth(t *testing.T) {
	m := newNodeTable()
	got := columnWidths(120, m.columns)
	sum := 0
	for _, w := range got {
		sum += w
	}
	assert.Equal(t, 120, sum)
}
