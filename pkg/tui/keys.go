package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Key builds a binding whose help label is its first key
func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Up   key.Binding
	Down key.Binding
	Open key.Binding
	Back key.Binding
	Help key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Up:   Key("up", "k", "up"),
	Down: Key("down", "j", "down"),
	Open: Key("open", "enter"),
	Back: Key("back", "esc"),
	Help: Key("more keys", "?"),
	Quit: Key("quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Open, k.Back}, {k.Help, k.Quit}}
}

func is(msg tea.KeyMsg, k ...key.Binding) bool {
	return key.Matches(msg, k...)
}
