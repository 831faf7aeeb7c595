package tui

// renderFooter renders the key binding help footer at full terminal width.
// The last action result is shown ahead of the hint.
func renderFooter(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	text := "? for help"
	if app.showHelp {
		text = helpText
	}
	if app.statusMsg != "" {
		text = sanitize(app.statusMsg) + "  ·  " + text
	}
	return StyleDim.Width(width).Render(text)
}
