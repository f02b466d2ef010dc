// Package lander implements the lunar lander simulation: a lander falls under
// gravity, the pilot rotates it and fires the main engine, and touchdown is
// judged against a randomly placed landing pad.
//
// Game is safe for concurrent use. The simulation loop, the input handlers
// and the protocol bridge all go through the same mutex.
package lander

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/core"
)

// maxPadAttempts bounds the random pad placement before falling back to
// the farthest legal position.
const maxPadAttempts = 64

// Option configures a Game.
type Option func(*Game)

// WithClock replaces time.Now. Tests use it to drive time by hand.
func WithClock(now func() time.Time) Option {
	return func(g *Game) {
		g.now = now
	}
}

// WithSeed makes the random start positions reproducible.
func WithSeed(seed int64) Option {
	return func(g *Game) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// Game is the lander simulation behind a single lock.
type Game struct {
	mu sync.Mutex

	cfg     config.LanderConfig
	physics Physics
	state   State

	canvasW int
	canvasH int

	now func() time.Time
	rng *rand.Rand
}

// New creates a game in READY mode with the lander parked at its
// placeholder position.
func New(cfg config.LanderConfig, opts ...Option) *Game {
	g := &Game{
		cfg:     cfg,
		physics: PhysicsFromConfig(cfg),
		canvasW: cfg.Canvas.Width,
		canvasH: cfg.Canvas.Height,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		seed := cfg.Session.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		g.rng = rand.New(rand.NewSource(seed))
	}

	w, h := cfg.Lander.Width, cfg.Lander.Height
	g.state = State{
		X:            float64(w),
		Y:            float64(h * 2),
		Fuel:         cfg.Physics.FuelInit,
		Difficulty:   DifficultyFromPreset(cfg.Difficulty),
		LanderWidth:  w,
		LanderHeight: h,
		Mode:         ModeReady,
	}
	return g
}

// Start begins a new episode from any mode.
func (g *Game) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.start(g.now())
}

// Pause stops the physics. Only a running game can be paused.
func (g *Game) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Mode == ModeRunning {
		g.setMode(ModePause, ReasonNone)
	}
}

// Unpause resumes a paused game. The clock is moved up to now plus the start
// delay so the paused interval is not integrated.
func (g *Game) Unpause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unpause(g.now())
}

// SetDifficulty selects the difficulty used by the next Start.
func (g *Game) SetDifficulty(d Difficulty) {
	if !d.Valid() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Difficulty = d
}

// SetFiring turns the main engine on or off.
func (g *Game) SetFiring(firing bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.EngineFiring = firing
}

// SetCanvas changes the surface size used by the next Start.
func (g *Game) SetCanvas(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.canvasW = width
	g.canvasH = height
}

// KeyDown applies a pressed control. It reports whether the control was
// handled in the current mode.
func (g *Game) KeyDown(c core.Control) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	mode := g.state.Mode
	switch {
	case c.IsStart() && (mode == ModeReady || mode == ModeLose || mode == ModeWin):
		g.start(g.now())
		return true
	case c.IsStart() && mode == ModePause:
		g.unpause(g.now())
		return true
	case mode == ModeRunning:
		switch c {
		case core.ControlFire:
			g.state.EngineFiring = true
			return true
		case core.ControlLeft:
			g.state.Rotating = RotateCCW
			return true
		case core.ControlRight:
			g.state.Rotating = RotateCW
			return true
		case core.ControlUp:
			g.setMode(ModePause, ReasonNone)
			return true
		}
	}
	return false
}

// KeyUp applies a released control. Releases only matter while running.
func (g *Game) KeyUp(c core.Control) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Mode != ModeRunning {
		return false
	}
	switch c {
	case core.ControlFire:
		g.state.EngineFiring = false
		return true
	case core.ControlLeft, core.ControlRight:
		g.state.Rotating = RotateNone
		return true
	}
	return false
}

// Tick advances the simulation to now. The frame counter moves on every
// call; physics only runs while the game is RUNNING.
func (g *Game) Tick(now time.Time) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.Frame++
	if g.state.Mode != ModeRunning {
		return Outcome{}
	}

	out := Advance(&g.state, now, g.physics)
	if !out.Landed {
		return out
	}

	ep := EpisodeResult{
		Result:     out.Result,
		Reason:     out.Reason,
		Difficulty: g.state.Difficulty,
		FuelLeft:   g.state.Fuel,
		Speed:      out.Speed,
		Heading:    g.state.Heading,
		At:         now,
	}
	if !g.state.EpisodeStart.IsZero() && now.After(g.state.EpisodeStart) {
		ep.Duration = now.Sub(g.state.EpisodeStart)
	}

	switch out.Result {
	case ResultHyperspace:
		// Upside down and fast over the pad: counts as a win and throws the
		// lander straight back to the top.
		g.state.WinsInARow++
		g.start(now)
	case ResultWin:
		g.state.WinsInARow++
		g.setMode(ModeWin, ReasonNone)
	default:
		g.setMode(ModeLose, out.Reason)
	}

	ep.WinsInARow = g.state.WinsInARow
	out.Episode = ep
	return out
}

// Snapshot returns a consistent copy of the state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

func (g *Game) snapshot() Snapshot {
	return Snapshot{
		State:        g.state,
		CanvasWidth:  g.canvasW,
		CanvasHeight: g.canvasH,
		FuelMax:      g.cfg.Physics.FuelMax,
		SpeedMax:     g.cfg.Physics.SpeedMax,
	}
}

// Save captures the persistent part of the state.
func (g *Game) Save() PersistedState {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.state
	return PersistedState{
		Difficulty:   s.Difficulty,
		X:            s.X,
		Y:            s.Y,
		DX:           s.DX,
		DY:           s.DY,
		Heading:      s.Heading,
		Fuel:         s.Fuel,
		GoalX:        s.GoalX,
		GoalWidth:    s.GoalWidth,
		GoalSpeed:    s.GoalSpeed,
		GoalAngle:    s.GoalAngle,
		LanderWidth:  s.LanderWidth,
		LanderHeight: s.LanderHeight,
		WinsInARow:   s.WinsInARow,
	}
}

// Restore loads a saved state. The game always comes back paused with no
// controls held; the next start key resumes it.
func (g *Game) Restore(p PersistedState) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.setMode(ModePause, ReasonNone)
	g.state.Rotating = RotateNone
	g.state.EngineFiring = false

	if p.Difficulty.Valid() {
		g.state.Difficulty = p.Difficulty
	}
	g.state.X = p.X
	g.state.Y = p.Y
	g.state.DX = p.DX
	g.state.DY = p.DY
	g.state.Heading = core.WrapDegrees(p.Heading)
	g.state.Fuel = core.ClampF(p.Fuel, 0, g.cfg.Physics.FuelMax)
	g.state.LanderWidth = p.LanderWidth
	g.state.LanderHeight = p.LanderHeight
	g.state.GoalX = p.GoalX
	g.state.GoalSpeed = p.GoalSpeed
	g.state.GoalAngle = p.GoalAngle
	g.state.GoalWidth = p.GoalWidth
	g.state.WinsInARow = core.Max(p.WinsInARow, 0)
	g.state.EpisodeStart = g.now()
}

// start re-randomizes the episode for the current difficulty. Caller holds mu.
func (g *Game) start(now time.Time) {
	s := &g.state
	scale := config.ScaleForPreset(s.Difficulty.Preset())

	s.Fuel = math.Min(scale.Fuel.Float(g.cfg.Physics.FuelInit), g.cfg.Physics.FuelMax)
	s.EngineFiring = false
	s.GoalWidth = scale.GoalWidth.Int(int(float64(s.LanderWidth) * g.cfg.Goal.WidthFactor))
	s.GoalSpeed = scale.GoalSpeed.Int(g.cfg.Goal.Speed)
	s.GoalAngle = scale.GoalAngle.Int(g.cfg.Goal.Angle)
	speedInit := float64(scale.SpeedInit.Int(int(g.cfg.Physics.SpeedInit)))

	s.X = float64(g.canvasW / 2)
	s.Y = float64(g.canvasH - s.LanderHeight/2)

	s.DY = g.rng.Float64() * -speedInit
	s.DX = g.rng.Float64()*2*speedInit - speedInit
	s.Heading = 0

	s.GoalX = g.placePad(s.GoalWidth)

	s.LastTick = now.Add(g.cfg.Session.StartDelay)
	s.EpisodeStart = s.LastTick
	g.setMode(ModeRunning, ReasonNone)
}

// placePad picks a pad x that is not too close to the lander's start column.
func (g *Game) placePad(goalWidth int) int {
	span := g.canvasW - goalWidth
	if span <= 0 {
		return 0
	}
	left := g.state.X - float64(g.state.LanderWidth/2)
	minGap := float64(g.canvasH / 6)

	for i := 0; i < maxPadAttempts; i++ {
		x := int(g.rng.Float64() * float64(span))
		if math.Abs(float64(x)-left) > minGap {
			return x
		}
	}
	if left >= float64(span-1)-left {
		return 0
	}
	return span - 1
}

func (g *Game) unpause(now time.Time) {
	if g.state.Mode != ModePause {
		return
	}
	g.state.LastTick = now.Add(g.cfg.Session.StartDelay)
	g.setMode(ModeRunning, ReasonNone)
}

// setMode moves the state machine. Any mode but RUNNING drops held controls,
// and losing ends the winning streak. Caller holds mu.
func (g *Game) setMode(mode Mode, reason Reason) {
	g.state.Mode = mode
	g.state.Message = reason
	if mode == ModeRunning {
		return
	}
	g.state.Rotating = RotateNone
	g.state.EngineFiring = false
	if mode == ModeLose {
		g.state.WinsInARow = 0
	}
}
