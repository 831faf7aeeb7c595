package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all key bindings for the console.
type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Kill    key.Binding
	Spawn   key.Binding
	Up      key.Binding
	Down    key.Binding
	Help    key.Binding
}

// keys is the global key map.
var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "probe now"),
	),
	Kill: key.NewBinding(
		key.WithKeys("k", "delete"),
		key.WithHelp("k", "kill selected node"),
	),
	Spawn: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "spawn a node"),
	),
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
}

// helpText is the full help string displayed in the footer when help is toggled on.
const helpText = "q/ctrl+c: quit  r: probe now  k: kill selected  s: spawn  ↑/↓: select  ?: toggle help"
