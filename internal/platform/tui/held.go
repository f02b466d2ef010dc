package tui

import (
	"sort"
	"time"

	"github.com/vovakirdan/lunar-lander/internal/core"
)

// firstRepeat covers the terminal's delay before auto-repeat kicks in.
const firstRepeat = 500 * time.Millisecond

// HeldKeys emulates key-up events. Terminals only report presses, so a key
// counts as held while presses keep arriving and as released once none has
// arrived for the hold window.
type HeldKeys struct {
	window time.Duration
	until  map[core.Control]time.Time
}

// NewHeldKeys creates a tracker with the given hold window.
func NewHeldKeys(window time.Duration) *HeldKeys {
	if window <= 0 {
		window = 150 * time.Millisecond
	}
	return &HeldKeys{window: window, until: make(map[core.Control]time.Time)}
}

// Press records a press at now. It reports true when the key was not held
// before, i.e. the caller should send a key-down.
func (h *HeldKeys) Press(c core.Control, now time.Time) bool {
	_, held := h.until[c]
	if held {
		h.until[c] = now.Add(h.window)
		return false
	}
	h.until[c] = now.Add(max(h.window, firstRepeat))
	return true
}

// Forget drops c without reporting a release.
func (h *HeldKeys) Forget(c core.Control) {
	delete(h.until, c)
}

// Held reports whether c is currently held.
func (h *HeldKeys) Held(c core.Control) bool {
	_, ok := h.until[c]
	return ok
}

// Expire returns, in control order, every key whose window ended before
// now, and forgets them.
func (h *HeldKeys) Expire(now time.Time) []core.Control {
	var released []core.Control
	for c, until := range h.until {
		if now.After(until) {
			released = append(released, c)
			delete(h.until, c)
		}
	}
	sort.Slice(released, func(i, j int) bool { return released[i] < released[j] })
	return released
}

// Clear forgets every key.
func (h *HeldKeys) Clear() {
	clear(h.until)
}
