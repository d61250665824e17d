package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	left      key.Binding
	right     key.Binding
	paint     key.Binding
	nextColor key.Binding
	prevColor key.Binding
	enter     key.Binding
	back      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		paint:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "paint")),
		nextColor: key.NewBinding(key.WithKeys("]", "tab"), key.WithHelp("]", "next color")),
		prevColor: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev color")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.left, k.right},
		{k.paint, k.nextColor, k.prevColor},
		{k.enter, k.back, k.quit},
	}
}
