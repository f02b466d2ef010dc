package lander

import (
	"math"
	"time"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/core"
)

// Physics holds the integrator constants.
type Physics struct {
	Gravity         float64 // px/s²
	FireAccel       float64 // px/s² while firing
	FuelBurnRate    float64 // fuel per second while firing
	RotateRate      float64 // degrees per second while rotating
	HyperspaceSpeed float64

	PadHeight     int
	BottomPadding int
}

// PhysicsFromConfig extracts the integrator constants from a config.
func PhysicsFromConfig(cfg config.LanderConfig) Physics {
	return Physics{
		Gravity:         cfg.Physics.Gravity,
		FireAccel:       cfg.Physics.FireAccel,
		FuelBurnRate:    cfg.Physics.FuelBurnRate,
		RotateRate:      cfg.Physics.RotateRate,
		HyperspaceSpeed: cfg.Physics.HyperspaceSpeed,
		PadHeight:       cfg.Goal.PadHeight,
		BottomPadding:   cfg.Goal.BottomPadding,
	}
}

// GroundLevel is the y at which a lander of the given height touches down.
func (p Physics) GroundLevel(landerHeight int) float64 {
	return float64(p.PadHeight + landerHeight/2 - p.BottomPadding)
}

// Advance integrates s from s.LastTick to now. It is a no-op while LastTick
// is in the future, which is how a fresh start gets its grace delay.
// On touchdown y is clamped to the ground and the landing is classified;
// mode transitions are left to the caller.
func Advance(s *State, now time.Time, p Physics) Outcome {
	if now.Before(s.LastTick) {
		return Outcome{}
	}
	elapsed := now.Sub(s.LastTick).Seconds()

	if s.Rotating != RotateNone {
		s.Heading = core.WrapDegrees(s.Heading + float64(s.Rotating)*p.RotateRate*elapsed)
	}

	ddx := 0.0
	ddy := -p.Gravity * elapsed

	if s.EngineFiring {
		elapsedFiring := elapsed
		fuelUsed := elapsed * p.FuelBurnRate

		// Ran dry partway through the interval: thrust only for the
		// fraction the remaining fuel covers.
		if fuelUsed > s.Fuel {
			elapsedFiring = s.Fuel / fuelUsed * elapsed
			fuelUsed = s.Fuel
			s.EngineFiring = false
		}
		s.Fuel -= fuelUsed

		accel := p.FireAccel * elapsedFiring
		rad := s.Heading * math.Pi / 180
		ddx = math.Sin(rad) * accel
		ddy += math.Cos(rad) * accel
	}

	dxOld, dyOld := s.DX, s.DY
	s.DX += ddx
	s.DY += ddy

	// Trapezoidal rule over the old and new velocity.
	s.X += elapsed * (s.DX + dxOld) / 2
	s.Y += elapsed * (s.DY + dyOld) / 2

	s.LastTick = now

	ground := p.GroundLevel(s.LanderHeight)
	if s.Y > ground {
		return Outcome{}
	}
	s.Y = ground
	return classifyLanding(s, p)
}
