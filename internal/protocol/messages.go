// Package protocol defines the Reset/Step wire messages exchanged with an
// external controller and their JSON encoding.
package protocol

import (
	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
)

// Message type discriminators.
const (
	TypeResetRequest        = "RESET_REQUEST"
	TypeStepRequest         = "STEP_REQUEST"
	TypeObservationResponse = "OBSERVATION_RESPONSE"
)

// Request is a message from a controller. The set of implementations is
// closed: ResetRequest and StepRequest.
type Request interface {
	request()
}

// ResetRequest asks for a fresh episode.
type ResetRequest struct{}

func (ResetRequest) request() {}

// StepRequest applies one control. Release applies the key-up instead of the
// key-down so a controller can stop firing or rotating.
type StepRequest struct {
	Action  core.Control
	Release bool
}

func (StepRequest) request() {}

// ObservationState is the lander state as seen by a controller. Field names
// on the wire keep their historical m-prefixed form.
type ObservationState struct {
	Difficulty   int     `json:"mDifficulty"`
	DX           float64 `json:"mDX"`
	DY           float64 `json:"mDY"`
	Fuel         float64 `json:"mFuel"`
	GoalAngle    int     `json:"mGoalAngle"`
	GoalSpeed    int     `json:"mGoalSpeed"`
	GoalWidth    int     `json:"mGoalWidth"`
	GoalX        int     `json:"mGoalX"`
	Heading      float64 `json:"mHeading"`
	LanderHeight int     `json:"mLanderHeight"`
	LanderWidth  int     `json:"mLanderWidth"`
	WinsInARow   int     `json:"mWinsInARow"`
	X            float64 `json:"mX"`
	Y            float64 `json:"mY"`
}

// Observation is the reply to every accepted request.
type Observation struct {
	State  ObservationState
	Done   bool
	Reward int
}

// ObservationFromSnapshot builds a fresh observation from a game snapshot.
func ObservationFromSnapshot(s lander.Snapshot) Observation {
	return Observation{
		State: ObservationState{
			Difficulty:   int(s.Difficulty),
			DX:           s.DX,
			DY:           s.DY,
			Fuel:         s.Fuel,
			GoalAngle:    s.GoalAngle,
			GoalSpeed:    s.GoalSpeed,
			GoalWidth:    s.GoalWidth,
			GoalX:        s.GoalX,
			Heading:      s.Heading,
			LanderHeight: s.LanderHeight,
			LanderWidth:  s.LanderWidth,
			WinsInARow:   s.WinsInARow,
			X:            s.X,
			Y:            s.Y,
		},
		Done:   s.Done(),
		Reward: s.Reward(),
	}
}
