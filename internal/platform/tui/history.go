package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/lunar-lander/internal/storage"
)

// History layout constants
const (
	minWidthForSidebar = 90 // Minimum width to show the stats sidebar
	sidebarWidth       = 26
	maxEpisodes        = 200
)

// HistoryKeyMap defines the key bindings for the history screen.
type HistoryKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Refresh, k.Quit}}
}

// DefaultHistoryKeyMap returns default key bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "quit"),
		),
	}
}

// HistoryModel lists recorded episodes with per-difficulty totals.
type HistoryModel struct {
	store    *storage.Store
	episodes []storage.EpisodeEntry
	stats    []storage.DifficultyStats
	loadErr  error

	table    table.Model
	help     help.Model
	keys     HistoryKeyMap
	width    int
	height   int
	quitting bool
}

// NewHistoryModel creates the history screen and loads from store.
func NewHistoryModel(store *storage.Store, width, height int) HistoryModel {
	h := help.New()
	h.Width = width
	m := HistoryModel{
		store:  store,
		keys:   DefaultHistoryKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.load()
	return m
}

func (m HistoryModel) showSidebar() bool {
	return m.width >= minWidthForSidebar
}

func (m *HistoryModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "When", Width: 12},
		{Title: "Level", Width: 6},
		{Title: "Result", Width: 10},
		{Title: "Reason", Width: 10},
		{Title: "Speed", Width: 6},
		{Title: "Fuel", Width: 6},
		{Title: "Streak", Width: 6},
	}

	height := m.height - 8
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// load reads episodes and totals. A nil store shows an empty table.
func (m *HistoryModel) load() {
	m.episodes, m.stats, m.loadErr = nil, nil, nil
	if m.store != nil {
		if m.episodes, m.loadErr = m.store.RecentEpisodes(maxEpisodes); m.loadErr == nil {
			m.stats, m.loadErr = m.store.Stats()
		}
	}
	m.updateTableRows()
}

func (m *HistoryModel) updateTableRows() {
	rows := make([]table.Row, len(m.episodes))
	for i, e := range m.episodes {
		reason := string(e.Reason)
		if reason == "" {
			reason = "-"
		}
		rows[i] = table.Row{
			e.At.Local().Format("Jan 02 15:04"),
			e.Difficulty.String(),
			string(e.Result),
			reason,
			fmt.Sprintf("%.0f", e.Speed),
			fmt.Sprintf("%.1f", e.FuelLeft),
			fmt.Sprintf("%d", e.WinsInARow),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history screen.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.load()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history screen.
func (m HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).
		Render(fmt.Sprintf("LANDING HISTORY (%d)", len(m.episodes)))
	b.WriteString(title)
	b.WriteString("\n\n")

	switch {
	case m.loadErr != nil:
		b.WriteString(warnStyle.Render("could not load history: " + m.loadErr.Error()))
	case len(m.episodes) == 0:
		b.WriteString(labelStyle.Render("No landings recorded yet."))
	default:
		border := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
		tbl := border.Render(m.table.View())
		if m.showSidebar() {
			side := border.Width(sidebarWidth).Render(m.renderStats())
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, side, "  ", tbl))
		} else {
			b.WriteString(tbl)
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(m.help.View(m.keys)))
	return b.String()
}

func (m HistoryModel) renderStats() string {
	var b strings.Builder
	b.WriteString("Totals\n")
	b.WriteString(strings.Repeat("-", sidebarWidth-4))
	for _, s := range m.stats {
		fmt.Fprintf(&b, "\n%s\n", lipgloss.NewStyle().Bold(true).Render(s.Difficulty.String()))
		fmt.Fprintf(&b, "  played %d  won %d\n", s.Episodes, s.Wins)
		fmt.Fprintf(&b, "  best streak %d\n", s.BestStreak)
		fmt.Fprintf(&b, "  avg fuel %.1f", s.AvgFuelLeft)
	}
	return b.String()
}

// RunHistory shows the history screen on the local terminal.
func RunHistory(store *storage.Store, width, height int) error {
	p := tea.NewProgram(NewHistoryModel(store, width, height), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
