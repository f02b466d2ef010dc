package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/storage"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, store *storage.Store) (PlayModel, *lander.Game) {
	t.Helper()
	game := lander.New(config.DefaultLanderConfig(), lander.WithSeed(1), lander.WithClock(func() time.Time { return t0 }))
	m := NewPlayModel(PlayOptions{
		Game:       game,
		Runtime:    core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 30},
		Store:      store,
		HoldWindow: 150 * time.Millisecond,
	})
	m.now = func() time.Time { return t0 }
	return m, game
}

func send(m PlayModel, msg tea.Msg) (PlayModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(PlayModel), cmd
}

func TestPlayStartKey(t *testing.T) {
	m, game := newTestModel(t, nil)

	send(m, runes("s"))
	if mode := game.Snapshot().Mode; mode != lander.ModeRunning {
		t.Errorf("mode after s = %v, expected RUNNING", mode)
	}
}

func TestPlayRotationReleasesAfterWindow(t *testing.T) {
	m, game := newTestModel(t, nil)
	game.Start()

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyLeft})
	if got := game.Snapshot().Rotating; got != lander.RotateCCW {
		t.Fatalf("Rotating = %v, expected CCW", got)
	}

	m, _ = send(m, TickMsg(t0.Add(400*time.Millisecond)))
	if got := game.Snapshot().Rotating; got != lander.RotateCCW {
		t.Errorf("released too early, Rotating = %v", got)
	}

	send(m, TickMsg(t0.Add(600*time.Millisecond)))
	if got := game.Snapshot().Rotating; got != lander.RotateNone {
		t.Errorf("Rotating = %v after the window, expected none", got)
	}
}

func TestPlayOppositeRotationTakesOver(t *testing.T) {
	m, game := newTestModel(t, nil)
	game.Start()

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyLeft})
	m.now = func() time.Time { return t0.Add(100 * time.Millisecond) }
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRight})

	// LEFT's window has ended but it was forgotten, so RIGHT keeps turning
	send(m, TickMsg(t0.Add(550*time.Millisecond)))
	if got := game.Snapshot().Rotating; got != lander.RotateCW {
		t.Errorf("Rotating = %v, expected CW", got)
	}
}

func TestPlayFireIgnoredUntilRunning(t *testing.T) {
	m, game := newTestModel(t, nil)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if m.held.Held(core.ControlFire) {
		t.Fatal("FIRE held while READY")
	}

	game.Start()
	send(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !game.Snapshot().EngineFiring {
		t.Error("engine not firing after space while running")
	}
}

func TestPlayPauseKey(t *testing.T) {
	m, game := newTestModel(t, nil)
	game.Start()

	send(m, runes("p"))
	if mode := game.Snapshot().Mode; mode != lander.ModePause {
		t.Errorf("mode after p = %v, expected PAUSE", mode)
	}
}

func TestPlayDifficultyKey(t *testing.T) {
	m, game := newTestModel(t, nil)

	m, _ = send(m, runes("3"))
	if d := game.Save().Difficulty; d != lander.DifficultyHard {
		t.Errorf("difficulty = %v, expected hard", d)
	}
	if !strings.Contains(m.status, "hard") {
		t.Errorf("status = %q", m.status)
	}
}

func TestPlaySave(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "lander.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	m, game := newTestModel(t, store)
	game.Start()

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !strings.Contains(m.status, "saved") {
		t.Errorf("status = %q, expected a save confirmation", m.status)
	}
	p, err := store.LoadState(DefaultSlot)
	if err != nil {
		t.Fatalf("LoadState() failed: %v", err)
	}
	if p != game.Save() {
		t.Errorf("stored %+v, expected %+v", p, game.Save())
	}
}

func TestPlaySaveWithoutStore(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.status != "saving disabled" {
		t.Errorf("status = %q", m.status)
	}
}

func TestPlayQuit(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m, cmd := send(m, runes("q"))
	if !m.IsQuitting() {
		t.Error("IsQuitting() = false after q")
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("command did not quit")
	}
	if m.View() != "" {
		t.Error("View() should be empty once quitting")
	}
}

func TestPlayViewLayout(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m, _ = send(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	for _, want := range []string{"LUNAR LANDER", "fuel", "speed", "Press S or Up to start"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if m.screen.Width() != 100 {
		t.Errorf("playfield width = %d, expected 100", m.screen.Width())
	}
}

func TestPlayTickReschedules(t *testing.T) {
	m, _ := newTestModel(t, nil)
	if _, cmd := send(m, TickMsg(t0)); cmd == nil {
		t.Error("tick did not schedule the next tick")
	}
}
