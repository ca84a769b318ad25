package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the session monitor.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	toggle  key.Binding
	next    key.Binding
	prev    key.Binding
	jump    key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		jump:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "skip to track")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.jump},
		{k.toggle, k.next, k.prev},
		{k.refresh, k.quit},
	}
}
