package lander

import "math"

// onPad reports whether the lander footprint lies entirely over the pad.
// Half width uses integer division like the sprite bounds do.
func onPad(s *State) bool {
	half := float64(s.LanderWidth / 2)
	return float64(s.GoalX) <= s.X-half && s.X+half <= float64(s.GoalX+s.GoalWidth)
}

// classifyLanding applies the touchdown rules in priority order.
// The first matching rule decides.
func classifyLanding(s *State, p Physics) Outcome {
	speed := s.Speed()
	out := Outcome{Landed: true, Speed: speed}
	pad := onPad(s)
	angle := float64(s.GoalAngle)

	switch {
	case pad && math.Abs(s.Heading-180) < angle && speed > p.HyperspaceSpeed:
		out.Result = ResultHyperspace
	case !pad:
		out.Result, out.Reason = ResultLose, ReasonOffPad
	case !(s.Heading <= angle || s.Heading >= 360-angle):
		out.Result, out.Reason = ResultLose, ReasonBadAngle
	case speed > float64(s.GoalSpeed):
		out.Result, out.Reason = ResultLose, ReasonTooFast
	default:
		out.Result = ResultWin
	}
	return out
}
