package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ganxiyun/es-testcluster/internal/model"
)

// maxFindingLines caps how many findings are listed under the table.
const maxFindingLines = 5

func renderFindings(app *App) string {
	if len(app.findings) == 0 {
		return ""
	}
	lines := make([]string, 0, maxFindingLines+1)
	for i, f := range app.findings {
		if i == maxFindingLines {
			lines = append(lines, StyleDim.Render("  ..."))
			break
		}
		lines = append(lines, findingStyle(f.Severity).Render("● "+f.Title)+"  "+StyleDim.Render(sanitize(f.Detail)))
	}
	return strings.Join(lines, "\n")
}

func findingStyle(s model.FindingSeverity) lipgloss.Style {
	switch s {
	case model.SeverityCritical:
		return StyleRed
	case model.SeverityWarning:
		return StyleYellow
	default:
		return StyleGreen
	}
}
