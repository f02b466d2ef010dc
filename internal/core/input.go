package core

import "fmt"

// Control is a lander control code. The integer values are part of the wire
// contract: STEP_REQUEST.action carries one of these.
type Control int

const (
	ControlNone  Control = iota // 0 - advance without input
	ControlUp                   // 1 - start/unpause, pause while running
	ControlDown                 // 2 - start/unpause
	ControlLeft                 // 3 - rotate counter-clockwise while held
	ControlRight                // 4 - rotate clockwise while held
	ControlFire                 // 5 - main engine while held
	ControlStart                // 6 - start/unpause

	controlCount
)

// String returns the wire name of the control.
func (c Control) String() string {
	switch c {
	case ControlNone:
		return "NONE"
	case ControlUp:
		return "UP"
	case ControlDown:
		return "DOWN"
	case ControlLeft:
		return "LEFT"
	case ControlRight:
		return "RIGHT"
	case ControlFire:
		return "FIRE"
	case ControlStart:
		return "START"
	default:
		return fmt.Sprintf("Control(%d)", int(c))
	}
}

// Valid reports whether c is one of the defined control codes.
func (c Control) Valid() bool {
	return c >= ControlNone && c < controlCount
}

// IsStart reports whether the control starts or resumes a game.
func (c Control) IsStart() bool {
	return c == ControlUp || c == ControlDown || c == ControlStart
}

// IsRotation reports whether the control rotates the lander.
func (c Control) IsRotation() bool {
	return c == ControlLeft || c == ControlRight
}

// Controls returns every defined control code in wire order.
func Controls() []Control {
	out := make([]Control, 0, int(controlCount))
	for c := ControlNone; c < controlCount; c++ {
		out = append(out, c)
	}
	return out
}
