package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Freeze key.Binding
	Clear  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Freeze, k.Clear, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Freeze, k.Clear}, {k.Help, k.Quit}}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Freeze: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "freeze")),
		Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
