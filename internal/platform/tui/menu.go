package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/storage"
)

// MenuAction is what a menu entry does.
type MenuAction int

const (
	MenuNewGame MenuAction = iota
	MenuResume
	MenuHistory
)

// MenuItem is one selectable line of the launcher.
type MenuItem struct {
	Action     MenuAction
	Title      string
	Difficulty lander.Difficulty // MenuNewGame
	Slot       string            // MenuResume
}

// menuKeys are the launcher bindings.
var menuKeys = struct {
	Up, Down, Select, Quit key.Binding
}{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter", " ")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
}

// MenuModel is the launcher: new game per difficulty, resume a save slot,
// or browse the history.
type MenuModel struct {
	items    []MenuItem
	cursor   int
	config   core.RuntimeConfig
	quitting bool
	selected *MenuItem
}

// NewMenuModel builds the launcher. Save slots come from store when it is
// not nil; the current difficulty is listed first.
func NewMenuModel(store *storage.Store, cfg core.RuntimeConfig, current lander.Difficulty) MenuModel {
	order := []lander.Difficulty{lander.DifficultyEasy, lander.DifficultyMedium, lander.DifficultyHard}
	items := []MenuItem{{Action: MenuNewGame, Title: "New game (" + current.String() + ")", Difficulty: current}}
	for _, d := range order {
		if d != current {
			items = append(items, MenuItem{Action: MenuNewGame, Title: "New game (" + d.String() + ")", Difficulty: d})
		}
	}

	if store != nil {
		if saves, err := store.ListSaves(); err == nil {
			for _, s := range saves {
				items = append(items, MenuItem{
					Action: MenuResume,
					Title:  fmt.Sprintf("Resume %q (%s, %d in a row)", s.Slot, s.Difficulty, s.WinsInARow),
					Slot:   s.Slot,
				})
			}
		}
		items = append(items, MenuItem{Action: MenuHistory, Title: "Landing history"})
	}

	return MenuModel{items: items, config: cfg}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, menuKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, menuKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, menuKeys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, menuKeys.Select):
			if len(m.items) > 0 {
				selected := m.items[m.cursor]
				m.selected = &selected
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
	}
	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centerText(titleStyle.Render("L U N A R   L A N D E R"), m.config.ScreenW))
	b.WriteString("\n\n")

	cursorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	for i, item := range m.items {
		line := "  " + item.Title
		if i == m.cursor {
			line = cursorStyle.Render("> " + item.Title)
		}
		b.WriteString(centerText(line, m.config.ScreenW))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText(labelStyle.Render("Up/Down: Navigate  |  Enter: Select  |  Q: Quit"), m.config.ScreenW))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the chosen item, or nil.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// centerText centers text within width, measuring printable cells only.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}

// MenuResult holds the result of running the menu.
type MenuResult struct {
	Item   *MenuItem
	Config core.RuntimeConfig
	Quit   bool
}

// RunMenu runs the launcher and returns the selection.
func RunMenu(store *storage.Store, cfg core.RuntimeConfig, current lander.Difficulty) (MenuResult, error) {
	p := tea.NewProgram(NewMenuModel(store, cfg, current), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return MenuResult{Config: cfg}, err
	}
	m, ok := finalModel.(MenuModel)
	if !ok || m.IsQuitting() || m.Selected() == nil {
		return MenuResult{Config: cfg, Quit: true}, nil
	}
	return MenuResult{Item: m.Selected(), Config: m.config}, nil
}
