package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
)

// KeyMap defines the key bindings for the play screen.
type KeyMap struct {
	Left   key.Binding
	Right  key.Binding
	Fire   key.Binding
	Up     key.Binding
	Down   key.Binding
	Start  key.Binding
	Pause  key.Binding
	Easy   key.Binding
	Medium key.Binding
	Hard   key.Binding
	Save   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Fire, k.Start, k.Pause, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Fire},
		{k.Up, k.Down, k.Start, k.Pause},
		{k.Easy, k.Medium, k.Hard},
		{k.Save, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "a"),
			key.WithHelp("←/a", "rotate left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d"),
			key.WithHelp("→/d", "rotate right"),
		),
		Fire: key.NewBinding(
			key.WithKeys(" ", "f"),
			key.WithHelp("space/f", "fire"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "w"),
			key.WithHelp("↑/w", "start, pause"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "start"),
		),
		Start: key.NewBinding(
			key.WithKeys("s", "enter"),
			key.WithHelp("s/enter", "start, resume"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", "esc"),
			key.WithHelp("p/esc", "pause"),
		),
		Easy: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "easy"),
		),
		Medium: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "medium"),
		),
		Hard: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "hard"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Control translates a key to a lander control.
// ok is false for keys that are not flight or start controls.
func (k KeyMap) Control(msg tea.KeyMsg) (c core.Control, ok bool) {
	switch {
	case key.Matches(msg, k.Left):
		return core.ControlLeft, true
	case key.Matches(msg, k.Right):
		return core.ControlRight, true
	case key.Matches(msg, k.Fire):
		return core.ControlFire, true
	case key.Matches(msg, k.Up):
		return core.ControlUp, true
	case key.Matches(msg, k.Down):
		return core.ControlDown, true
	case key.Matches(msg, k.Start):
		return core.ControlStart, true
	}
	return core.ControlNone, false
}

// Difficulty translates a key to a difficulty selection.
func (k KeyMap) Difficulty(msg tea.KeyMsg) (d lander.Difficulty, ok bool) {
	switch {
	case key.Matches(msg, k.Easy):
		return lander.DifficultyEasy, true
	case key.Matches(msg, k.Medium):
		return lander.DifficultyMedium, true
	case key.Matches(msg, k.Hard):
		return lander.DifficultyHard, true
	}
	return 0, false
}
