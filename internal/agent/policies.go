package agent

import (
	"math"
	"math/rand"

	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/protocol"
	"github.com/vovakirdan/lunar-lander/internal/registry"
)

func init() {
	registry.Register("idle", func(int64) registry.Policy { return Idle{} })
	registry.Register("random", func(seed int64) registry.Policy { return NewRandom(seed) })
	registry.Register("hover", func(int64) registry.Policy { return &Hover{} })
}

// Idle never touches the controls. Useful as a free-fall baseline.
type Idle struct{}

func (Idle) Name() string        { return "idle" }
func (Idle) Description() string { return "sends NONE every step and lets the lander fall" }
func (Idle) Reset()              {}

func (Idle) Act(protocol.Observation) protocol.StepRequest {
	return protocol.StepRequest{Action: core.ControlNone}
}

// randomActions excludes UP, DOWN and START: UP pauses a running game and
// the others only matter outside RUNNING.
var randomActions = []protocol.StepRequest{
	{Action: core.ControlNone},
	{Action: core.ControlLeft},
	{Action: core.ControlLeft, Release: true},
	{Action: core.ControlRight},
	{Action: core.ControlRight, Release: true},
	{Action: core.ControlFire},
	{Action: core.ControlFire, Release: true},
}

// Random picks uniformly among the flight controls and their releases.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a random policy. The same seed gives the same actions.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string        { return "random" }
func (r *Random) Description() string { return "uniform over rotate, fire and their releases" }

// Reset keeps the stream going; episodes differ but a run is reproducible.
func (r *Random) Reset() {}

func (r *Random) Act(protocol.Observation) protocol.StepRequest {
	return randomActions[r.rng.Intn(len(randomActions))]
}

// Hover tuning. Speeds are in canvas units per second, angles in degrees.
const (
	hoverMaxTilt     = 20.0
	hoverDeadband    = 4.0
	hoverSteerGain   = 0.4
	hoverMaxDrift    = 40.0
	hoverFlareHeight = 120.0
)

// Hover is a hand-written controller: steer over the pad, come down upright
// and keep the descent rate under the pad's speed limit.
type Hover struct {
	rotating int // -1 left, 0 none, 1 right
	firing   bool
}

func (h *Hover) Name() string        { return "hover" }
func (h *Hover) Description() string { return "heuristic pilot: upright, over the pad, slow" }

func (h *Hover) Reset() {
	h.rotating = 0
	h.firing = false
}

// Act changes at most one held key per step: rotation first, then the
// engine.
func (h *Hover) Act(obs protocol.Observation) protocol.StepRequest {
	s := obs.State
	wantRot := h.wantRotation(s)
	wantFire := h.wantFire(s)

	if wantRot != h.rotating {
		prev := h.rotating
		h.rotating = wantRot
		switch wantRot {
		case -1:
			return protocol.StepRequest{Action: core.ControlLeft}
		case 1:
			return protocol.StepRequest{Action: core.ControlRight}
		default:
			key := core.ControlLeft
			if prev == 1 {
				key = core.ControlRight
			}
			return protocol.StepRequest{Action: key, Release: true}
		}
	}

	if wantFire != h.firing {
		h.firing = wantFire
		return protocol.StepRequest{Action: core.ControlFire, Release: !wantFire}
	}
	return protocol.StepRequest{Action: core.ControlNone}
}

// targetTilt is the heading, signed in (-180, 180], that steers towards the
// pad centre. Close to the ground it is always upright.
func targetTilt(s protocol.ObservationState) float64 {
	altitude := s.Y - float64(s.LanderHeight)/2
	if altitude < hoverFlareHeight {
		return 0
	}
	padCentre := float64(s.GoalX) + float64(s.GoalWidth)/2
	wantDX := core.ClampF((padCentre-s.X)*hoverSteerGain, -hoverMaxDrift, hoverMaxDrift)
	return core.ClampF((wantDX-s.DX)*hoverSteerGain, -hoverMaxTilt, hoverMaxTilt)
}

func signedHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h > 180 {
		h -= 360
	}
	return h
}

func (h *Hover) wantRotation(s protocol.ObservationState) int {
	diff := targetTilt(s) - signedHeading(s.Heading)
	switch {
	case diff > hoverDeadband:
		return 1
	case diff < -hoverDeadband:
		return -1
	default:
		return 0
	}
}

// wantFire keeps the sink rate under half the pad's limit, with hysteresis.
func (h *Hover) wantFire(s protocol.ObservationState) bool {
	if s.Fuel <= 0 {
		return false
	}
	limit := float64(s.GoalSpeed) / 2
	if h.firing {
		return s.DY < -limit/2
	}
	return s.DY < -limit
}
