package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/ganxiyun/es-testcluster/internal/format"
	"github.com/ganxiyun/es-testcluster/internal/model"
)

// Column indexes.
const (
	colID = iota
	colURL
	colPublish
	colStatus
	colLatency
	colSniff
	colUptime
)

// nodeTable is the selectable table of probed nodes, in boot order.
type nodeTable struct {
	columns []columnDef
	rows    []model.NodeRow
	cursor  int
	// selectedID keeps the selection on the same node across refreshes.
	selectedID string
}

func newNodeTable() nodeTable {
	return nodeTable{
		columns: []columnDef{
			{Title: "Node", Width: 10},
			{Title: "URL", Width: 24},
			{Title: "Publish Address", Width: 28},
			{Title: "Status", Width: 16},
			{Title: "Latency", Width: 10},
			{Title: "Sniff", Width: 6},
			{Title: "Uptime", Width: 8},
		},
	}
}

// SetRows replaces the table contents. The selection follows the
// previously selected node when it is still present.
func (m *nodeTable) SetRows(rows []model.NodeRow) {
	m.rows = rows
	for i, r := range rows {
		if r.ID == m.selectedID {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

// Selected returns the row under the cursor.
func (m *nodeTable) Selected() (model.NodeRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return model.NodeRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m *nodeTable) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
	m.clampCursor()
}

func (m *nodeTable) MoveDown() {
	if m.cursor < len(m.rows)-1 {
		m.cursor++
	}
	m.clampCursor()
}

func (m *nodeTable) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if r, ok := m.Selected(); ok {
		m.selectedID = r.ID
	} else {
		m.selectedID = ""
	}
}

// render draws the "Nodes" section: a title line followed by the table body.
func (m *nodeTable) render(width int, now time.Time) string {
	title := StyleDim.Render("Nodes  [↑↓: select]  [k: kill]  [s: spawn]")
	if len(m.rows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, StyleDim.Render("  (no nodes)"))
	}

	var colWidths []int
	if width > 0 {
		colWidths = columnWidths(width, m.columns)
	}

	headers := make([]string, len(m.columns))
	for i, c := range m.columns {
		headers[i] = c.Title
		if len(colWidths) == len(m.columns) {
			if pad := colWidths[i] - lipgloss.Width(c.Title); pad > 0 {
				headers[i] += strings.Repeat(" ", pad)
			}
		}
	}

	rows := m.rows
	cursor := m.cursor
	t := ltable.New().
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(colorGray)
			}
			base := lipgloss.NewStyle()
			if row == cursor {
				base = base.Background(colorSelectedBg)
			} else if row%2 == 0 {
				base = base.Background(colorAlt)
			}
			switch col {
			case colURL:
				return base.Foreground(colorBlue)
			case colStatus:
				if row >= 0 && row < len(rows) {
					return base.Foreground(statusColor(rows[row].Status))
				}
			case colLatency:
				return base.Foreground(colorCyan)
			case colSniff:
				return base.Foreground(colorPurple)
			}
			return base.Foreground(colorWhite)
		}).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(false)

	if width > 0 {
		t = t.Width(width)
	}

	for _, r := range m.rows {
		cells := make([]string, len(m.columns))
		for col := range m.columns {
			cells[col] = nodeCellValue(r, col, now)
		}
		if len(colWidths) > colURL {
			cells[colURL] = truncateName(cells[colURL], colWidths[colURL])
			cells[colPublish] = truncateName(cells[colPublish], colWidths[colPublish])
		}
		t = t.Row(cells...)
	}

	out := []string{title, t.String()}
	if r, ok := m.Selected(); ok && r.Err != "" {
		out = append(out, StyleError.Render("  "+r.ID+": ")+StyleDim.Render(sanitize(r.Err)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

// nodeCellValue formats a NodeRow field for a given column index.
func nodeCellValue(r model.NodeRow, col int, now time.Time) string {
	switch col {
	case colID:
		return sanitize(r.ID)
	case colURL:
		return sanitize(r.URL)
	case colPublish:
		return sanitize(r.PublishAddress)
	case colStatus:
		return format.FormatStatus(r.Status)
	case colLatency:
		if !r.Reachable() {
			return "---"
		}
		return format.FormatLatency(r.Latency)
	case colSniff:
		return format.FormatCount(r.SniffSize)
	case colUptime:
		return format.FormatUptime(r.BootedAt, now)
	default:
		return ""
	}
}
