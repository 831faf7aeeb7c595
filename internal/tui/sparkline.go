package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ganxiyun/es-testcluster/internal/format"
	"github.com/ganxiyun/es-testcluster/internal/model"
)

// sparkBlocks is the 8-level block character set for sparklines.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline converts a slice of float64 values into a block sparkline
// string of exactly `width` characters.
//
// Rules:
//   - Empty values → return width spaces
//   - All zeros → return all '▁' (floor level)
//   - Values longer than width → use last width values
//   - Fewer values than width → left-pad with spaces
func RenderSparkline(values []float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat(" ", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	maxVal := slices.Max(values)
	style := lipgloss.NewStyle().Foreground(color)

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(values)))
	for _, v := range values {
		var idx int
		if maxVal > 0 {
			idx = int(v / maxVal * 7)
		}
		idx = max(0, min(idx, 7))
		sb.WriteRune(sparkBlocks[idx])
	}
	return style.Render(sb.String())
}

// renderLatencyCard renders one line: the average latency sparkline over
// recent probes plus the current average and maximum.
func renderLatencyCard(app *App) string {
	if app.current == nil {
		return ""
	}
	width := app.width
	if width <= 0 {
		width = 80
	}

	label := fmt.Sprintf("Latency  avg %s  max %s  ",
		format.FormatLatency(app.summary.AvgLatency),
		format.FormatLatency(app.summary.MaxLatency))
	sparkWidth := width - lipgloss.Width(label) - 2
	if sparkWidth < 0 {
		sparkWidth = 0
	}
	spark := RenderSparkline(app.history.Values(model.SeriesAvgLatency), sparkWidth, colorCyan)
	return StyleMetricCard.Width(width).Render(label + spark)
}
