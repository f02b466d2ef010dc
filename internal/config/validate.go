package config

import (
	"errors"
	"fmt"
)

// Validate reports every invalid field at once.
func (c LanderConfig) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		add("canvas must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Lander.Width <= 0 || c.Lander.Height <= 0 {
		add("lander sprite must be positive, got %dx%d", c.Lander.Width, c.Lander.Height)
	}

	p := c.Physics
	for name, v := range map[string]float64{
		"gravity":          p.Gravity,
		"fire_accel":       p.FireAccel,
		"fuel_init":        p.FuelInit,
		"fuel_burn_rate":   p.FuelBurnRate,
		"rotate_rate":      p.RotateRate,
		"hyperspace_speed": p.HyperspaceSpeed,
		"speed_init":       p.SpeedInit,
	} {
		if v < 0 {
			add("physics.%s must not be negative, got %v", name, v)
		}
	}
	if p.FuelMax <= 0 {
		add("physics.fuel_max must be positive, got %v", p.FuelMax)
	}
	if p.SpeedMax <= 0 {
		add("physics.speed_max must be positive, got %v", p.SpeedMax)
	}
	// Easy scales fuel by 3/2 and the result is clamped to the gauge, but the
	// unscaled value must already fit.
	if p.FuelInit > p.FuelMax {
		add("physics.fuel_init %v exceeds fuel_max %v", p.FuelInit, p.FuelMax)
	}

	g := c.Goal
	if g.Angle <= 0 || g.Angle >= 180 {
		add("goal.angle must be in (0, 180), got %d", g.Angle)
	}
	if g.Speed <= 0 {
		add("goal.speed must be positive, got %d", g.Speed)
	}
	if g.WidthFactor <= 0 {
		add("goal.width_factor must be positive, got %v", g.WidthFactor)
	}

	if _, err := ParseDifficulty(string(c.Difficulty)); err != nil {
		errs = append(errs, err)
	}

	if c.Canvas.Width > 0 && c.Canvas.Height > 0 && c.Lander.Width > 0 && !padPlaceable(c) {
		add("canvas %dx%d is too small to place a pad away from the lander", c.Canvas.Width, c.Canvas.Height)
	}

	if c.Session.TickRate <= 0 {
		add("session.tick_rate must be positive, got %d", c.Session.TickRate)
	}
	if c.Session.StartDelay < 0 {
		add("session.start_delay must not be negative")
	}
	if c.Bridge.RendezvousTimeout <= 0 {
		add("bridge.rendezvous_timeout must be positive")
	}
	if c.Bridge.PublishTimeout <= 0 {
		add("bridge.publish_timeout must be positive")
	}
	if c.Bridge.QueueLimit < 0 {
		add("bridge.queue_limit must not be negative, got %d", c.Bridge.QueueLimit)
	}

	switch c.Transport.Kind {
	case "", "none", "websocket", "mqtt":
	default:
		add("transport.kind must be none, websocket or mqtt, got %q", c.Transport.Kind)
	}
	if c.Transport.MQTT.QoS > 2 {
		add("transport.mqtt.qos must be 0, 1 or 2, got %d", c.Transport.MQTT.QoS)
	}
	if c.TUI.FPS <= 0 {
		add("tui.fps must be positive, got %d", c.TUI.FPS)
	}

	return errors.Join(errs...)
}

// padPlaceable reports whether some pad position satisfies the start rule
// |goalX - (x - w/2)| > canvasHeight/6 for every difficulty.
func padPlaceable(c LanderConfig) bool {
	for _, preset := range []DifficultyPreset{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		scale := ScaleForPreset(preset)
		goalWidth := scale.GoalWidth.Int(int(float64(c.Lander.Width) * c.Goal.WidthFactor))
		span := c.Canvas.Width - goalWidth
		if span <= 0 {
			return false
		}
		left := c.Canvas.Width/2 - c.Lander.Width/2
		minGap := c.Canvas.Height / 6
		// Candidates are 0..span-1; the farthest one from left decides.
		farthest := maxInt(left, span-1-left)
		if farthest <= minGap {
			return false
		}
	}
	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
