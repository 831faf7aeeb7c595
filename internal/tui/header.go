package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the top header bar.
//
// Layout:
//   left:   "Cluster <id>  N nodes" plus a partition flag
//   center: colored "● up/total UP" indicator (or "● PROBE FAILED  <error>")
//   right:  "Last: HH:MM:SS  Probe: Ns" (or "Press r to retry")
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	var left, center, right string

	if app.cluster != nil {
		left = fmt.Sprintf("Cluster %d", app.cluster.ID())
		if app.cluster.Options().ClusterPartiallySeparated {
			left += "  " + StyleYellow.Render("[partitioned]")
		}
	} else {
		left = "No cluster"
	}

	switch {
	case app.connState == stateDisconnected && app.lastError != nil:
		center = StyleError.Render("● PROBE FAILED  " + classifyError(app.lastError))
		right = StyleError.Render("Press r to retry")
	case app.current == nil:
		center = StyleStatusUnknown.Render("● PROBING")
	default:
		total := app.summary.Nodes
		up := app.summary.Reachable
		center = ReachabilityStyle(up, total).Render(fmt.Sprintf("● %d/%d UP", up, total))

		lastStr := "---"
		if !app.lastUpdated.IsZero() {
			lastStr = app.lastUpdated.Format("15:04:05")
		}
		right = StyleDim.Render(fmt.Sprintf("Last: %s  Probe: %s", lastStr, formatDuration(app.pollInterval)))
	}

	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	innerWidth := width - 2
	leftVW := lipgloss.Width(left)
	centerVW := lipgloss.Width(center)
	rightVW := lipgloss.Width(right)

	// Drop the right block, then truncate the left, when the row does not fit.
	if centerVW > innerWidth {
		center = truncateName(sanitize(center), max(innerWidth, 0))
		centerVW = lipgloss.Width(center)
	}
	if leftVW+centerVW+rightVW > innerWidth {
		right = ""
		rightVW = 0
	}
	if leftVW+centerVW > innerWidth {
		left = truncateName(sanitize(left), max(innerWidth-centerVW-1, 0))
		leftVW = lipgloss.Width(left)
	}

	spacing := innerWidth - leftVW - centerVW - rightVW
	if spacing < 0 {
		spacing = 0
	}
	leftSpacing := spacing / 2
	rightSpacing := spacing - leftSpacing

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right

	return StyleHeader.Width(width).MaxHeight(1).Render(row)
}

// formatDuration formats a probe interval as a compact string, e.g. "10s",
// "2m" or "1m30s".
func formatDuration(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	if secs%60 == 0 {
		return fmt.Sprintf("%dm", secs/60)
	}
	return fmt.Sprintf("%dm%ds", secs/60, secs%60)
}

// classifyError maps an error to a short label for the header.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "already exists"):
		return "Node already exists"
	case strings.Contains(lower, "not found"):
		return "Node not found"
	case strings.Contains(lower, "shut down"):
		return "Cluster is shut down"
	case strings.Contains(lower, "deadline exceeded"), strings.Contains(lower, "timeout"):
		return "Timeout"
	}
	if len(msg) > 40 {
		return msg[:40] + "..."
	}
	return msg
}
