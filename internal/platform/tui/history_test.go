package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/lunar-lander/internal/games/lander"
	"github.com/vovakirdan/lunar-lander/internal/storage"
)

func TestHistoryEmpty(t *testing.T) {
	m := NewHistoryModel(nil, 100, 30)
	if !strings.Contains(m.View(), "No landings recorded yet.") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestHistoryListsEpisodes(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "lander.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	eps := []lander.EpisodeResult{
		{Result: lander.ResultWin, Difficulty: lander.DifficultyHard, WinsInARow: 1, At: t0},
		{Result: lander.ResultLose, Reason: lander.ReasonTooFast, Difficulty: lander.DifficultyEasy, At: t0.Add(1)},
	}
	for _, ep := range eps {
		if err := store.RecordEpisode("s1", ep); err != nil {
			t.Fatalf("RecordEpisode() failed: %v", err)
		}
	}

	m := NewHistoryModel(store, 120, 30)
	view := m.View()
	for _, want := range []string{"LANDING HISTORY (2)", "too_fast", "Totals"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	// Narrow terminals drop the sidebar
	next, _ := m.Update(tea.WindowSizeMsg{Width: 70, Height: 30})
	if strings.Contains(next.(HistoryModel).View(), "Totals") {
		t.Error("sidebar shown on a narrow terminal")
	}
}

func TestHistoryQuit(t *testing.T) {
	m := NewHistoryModel(nil, 80, 24)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil || next.View() != "" {
		t.Error("esc did not quit")
	}
}
