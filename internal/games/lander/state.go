package lander

import (
	"fmt"
	"math"
	"time"

	"github.com/vovakirdan/lunar-lander/internal/config"
)

// Difficulty values are part of the observation wire format.
type Difficulty int

const (
	DifficultyEasy   Difficulty = 0
	DifficultyHard   Difficulty = 1
	DifficultyMedium Difficulty = 2
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyHard:
		return "hard"
	case DifficultyMedium:
		return "medium"
	default:
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyHard || d == DifficultyMedium
}

// Preset returns the config preset for d.
func (d Difficulty) Preset() config.DifficultyPreset {
	switch d {
	case DifficultyEasy:
		return config.DifficultyEasy
	case DifficultyHard:
		return config.DifficultyHard
	default:
		return config.DifficultyMedium
	}
}

// DifficultyFromPreset converts a config preset. Unknown presets map to medium.
func DifficultyFromPreset(p config.DifficultyPreset) Difficulty {
	switch p {
	case config.DifficultyEasy:
		return DifficultyEasy
	case config.DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Mode is the game state machine position. Values match the wire format.
type Mode int

const (
	ModeLose    Mode = 1
	ModePause   Mode = 2
	ModeReady   Mode = 3
	ModeRunning Mode = 4
	ModeWin     Mode = 5
)

func (m Mode) String() string {
	switch m {
	case ModeLose:
		return "LOSE"
	case ModePause:
		return "PAUSE"
	case ModeReady:
		return "READY"
	case ModeRunning:
		return "RUNNING"
	case ModeWin:
		return "WIN"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Rotation is the held rotation direction.
type Rotation int

const (
	RotateCCW  Rotation = -1
	RotateNone Rotation = 0
	RotateCW   Rotation = 1
)

// State is the complete mutable simulation state of one lander.
// Coordinates are in canvas units with y growing upwards from the ground;
// heading is in degrees, 0 pointing up and increasing clockwise.
type State struct {
	X, Y    float64
	DX, DY  float64
	Heading float64
	Fuel    float64

	EngineFiring bool
	Rotating     Rotation
	Difficulty   Difficulty

	GoalX     int
	GoalWidth int
	GoalSpeed int
	GoalAngle int

	LanderWidth  int
	LanderHeight int

	Mode       Mode
	WinsInARow int
	LastTick   time.Time

	// Message is the reason shown for the last LOSE, empty otherwise.
	Message Reason
	// Frame counts loop ticks, including ticks where nothing moved.
	Frame        uint64
	EpisodeStart time.Time
}

// Speed returns the magnitude of the velocity vector.
func (s State) Speed() float64 {
	return math.Hypot(s.DX, s.DY)
}

// Snapshot is a consistent copy of the state plus the surface it lives on.
type Snapshot struct {
	State

	CanvasWidth  int
	CanvasHeight int
	FuelMax      float64
	SpeedMax     float64
}

// Done reports whether the episode is not currently running.
func (s Snapshot) Done() bool {
	return s.Mode != ModeRunning
}

// Reward is 1 for a won episode and 0 otherwise.
func (s Snapshot) Reward() int {
	if s.Mode == ModeWin {
		return 1
	}
	return 0
}

// PersistedState is what survives a save/resume cycle. Control inputs and
// the mode are not stored: a restored game always comes back paused.
type PersistedState struct {
	Difficulty   Difficulty
	X, Y         float64
	DX, DY       float64
	Heading      float64
	Fuel         float64
	GoalX        int
	GoalWidth    int
	GoalSpeed    int
	GoalAngle    int
	LanderWidth  int
	LanderHeight int
	WinsInARow   int
}

// Result classifies a touchdown.
type Result string

const (
	ResultWin        Result = "win"
	ResultLose       Result = "lose"
	ResultHyperspace Result = "hyperspace"
)

// Reason explains a lost landing.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonOffPad   Reason = "off_pad"
	ReasonBadAngle Reason = "bad_angle"
	ReasonTooFast  Reason = "too_fast"
)

// Text returns a player-facing description of the reason.
func (r Reason) Text() string {
	switch r {
	case ReasonOffPad:
		return "Off the landing pad"
	case ReasonBadAngle:
		return "Landed at a bad angle"
	case ReasonTooFast:
		return "Landed too fast"
	default:
		return ""
	}
}

// Outcome is what a tick produced. Landed is false for every tick that
// did not touch the ground.
type Outcome struct {
	Landed bool
	Result Result
	Reason Reason
	Speed  float64

	// Episode is filled in by Game.Tick when Landed is true.
	Episode EpisodeResult
}

// EpisodeResult summarizes one finished landing.
type EpisodeResult struct {
	Result     Result
	Reason     Reason
	Difficulty Difficulty
	WinsInARow int
	FuelLeft   float64
	Speed      float64
	Heading    float64
	Duration   time.Duration
	At         time.Time
}
