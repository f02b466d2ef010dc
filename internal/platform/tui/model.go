package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/storage"
)

// DefaultSlot is the save slot used when none is given.
const DefaultSlot = "default"

// minFieldRows keeps the playfield drawable on tiny terminals.
const minFieldRows = 3

// PlayOptions configures a play screen.
type PlayOptions struct {
	Game    *lander.Game
	Runtime core.RuntimeConfig

	// Store enables ctrl+s saves. Nil disables saving.
	Store *storage.Store
	Slot  string

	// HoldWindow is how long a key stays held without a repeat.
	HoldWindow time.Duration

	// SessionID is shown in the header when set.
	SessionID string
}

// PlayModel is the Bubble Tea model for one pilot. It turns key presses into
// controls and draws snapshots; the session loop owns the clock.
type PlayModel struct {
	game      *lander.Game
	store     *storage.Store
	slot      string
	sessionID string
	config    core.RuntimeConfig

	screen *core.Screen
	keys   KeyMap
	help   help.Model
	held   *HeldKeys
	fuel   progress.Model
	speed  progress.Model

	status   string
	quitting bool
	now      func() time.Time
}

// NewPlayModel creates the play screen for opts.Game.
func NewPlayModel(opts PlayOptions) PlayModel {
	cfg := opts.Runtime
	if cfg.ScreenW <= 0 || cfg.ScreenH <= 0 {
		def := core.DefaultConfig()
		cfg.ScreenW, cfg.ScreenH = def.ScreenW, def.ScreenH
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = core.DefaultConfig().TickRate
	}
	slot := opts.Slot
	if slot == "" {
		slot = DefaultSlot
	}

	h := help.New()
	h.Width = cfg.ScreenW

	m := PlayModel{
		game:      opts.Game,
		store:     opts.Store,
		slot:      slot,
		sessionID: opts.SessionID,
		config:    cfg,
		screen:    core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		keys:      DefaultKeyMap(),
		help:      h,
		held:      NewHeldKeys(opts.HoldWindow),
		fuel:      progress.New(progress.WithGradient("#FF5F00", "#00D75F"), progress.WithoutPercentage()),
		speed:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		now:       time.Now,
	}
	m.resizeGauges()
	return m
}

// Init starts the redraw ticker.
func (m PlayModel) Init() tea.Cmd {
	return tickCmd(m.config.TickRate)
}

// Update handles messages.
func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.help.Width = msg.Width
		m.resizeGauges()
		return m, nil
	case TickMsg:
		m.releaseExpired(time.Time(msg))
		return m, tickCmd(m.config.TickRate)
	}
	return m, nil
}

func (m PlayModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Pause):
		m.game.Pause()
		m.held.Clear()
		return m, nil
	case key.Matches(msg, m.keys.Save):
		m.status = m.save()
		return m, nil
	}

	if d, ok := m.keys.Difficulty(msg); ok {
		m.game.SetDifficulty(d)
		m.status = fmt.Sprintf("difficulty %s from next start", d)
		return m, nil
	}
	if c, ok := m.keys.Control(msg); ok {
		if c.IsStart() {
			m.status = ""
		}
		m.press(c, m.now())
	}
	return m, nil
}

// press sends a key-down unless the key is already held. Rotation keys are
// exclusive: pressing one forgets the other so its expiry cannot stop the
// new rotation.
func (m PlayModel) press(c core.Control, now time.Time) {
	if c != core.ControlFire && !c.IsRotation() {
		m.game.KeyDown(c)
		return
	}
	if m.held.Held(c) {
		m.held.Press(c, now)
		return
	}
	switch c {
	case core.ControlLeft:
		m.held.Forget(core.ControlRight)
	case core.ControlRight:
		m.held.Forget(core.ControlLeft)
	}
	if m.game.KeyDown(c) {
		m.held.Press(c, now)
	}
}

func (m PlayModel) releaseExpired(now time.Time) {
	for _, c := range m.held.Expire(now) {
		m.game.KeyUp(c)
	}
}

func (m PlayModel) save() string {
	if m.store == nil {
		return "saving disabled"
	}
	if err := m.store.SaveState(m.slot, m.game.Save()); err != nil {
		return "save failed: " + err.Error()
	}
	return fmt.Sprintf("saved to %q", m.slot)
}

// resizeGauges splits the width between the two bars.
func (m *PlayModel) resizeGauges() {
	w := (m.config.ScreenW - 30) / 2
	if w < 5 {
		w = 5
	}
	m.fuel.Width = w
	m.speed.Width = w
}

// View renders header, playfield, gauges and help.
func (m PlayModel) View() string {
	if m.quitting {
		return ""
	}

	snap := m.game.Snapshot()
	header := renderHeader(snap, m.sessionID, m.status)
	gauges := renderGauges(snap, m.fuel, m.speed)
	helpView := m.help.View(m.keys)

	rows := m.config.ScreenH - lipgloss.Height(header) - lipgloss.Height(gauges) - lipgloss.Height(helpView)
	if rows < minFieldRows {
		rows = minFieldRows
	}
	m.screen.Resize(m.config.ScreenW, rows)
	lander.Render(m.screen, snap)

	return lipgloss.JoinVertical(lipgloss.Left, header, RenderScreen(m.screen), gauges, helpView)
}

// IsQuitting reports whether the pilot asked to leave.
func (m PlayModel) IsQuitting() bool {
	return m.quitting
}

// ErrNoGame is returned by RunPlay without a game.
var ErrNoGame = errors.New("tui: no game to play")

// RunPlay runs the play screen on the local terminal until the pilot quits.
func RunPlay(opts PlayOptions) error {
	if opts.Game == nil {
		return ErrNoGame
	}
	p := tea.NewProgram(NewPlayModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
