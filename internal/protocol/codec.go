package protocol

import (
	"encoding/json"

	"github.com/vovakirdan/lunar-lander/internal/core"
)

type requestEnvelope struct {
	Type    string `json:"type"`
	Action  *int   `json:"action,omitempty"`
	Release bool   `json:"release,omitempty"`
}

type observationEnvelope struct {
	Type        string           `json:"type"`
	Observation ObservationState `json:"observation"`
	Done        bool             `json:"done"`
	Reward      int              `json:"reward"`
}

// Decode parses a controller request.
func Decode(data []byte) (Request, error) {
	var env requestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, malformed("%v", err)
	}

	switch env.Type {
	case TypeResetRequest:
		return ResetRequest{}, nil
	case TypeStepRequest:
		if env.Action == nil {
			return nil, malformed("step request without action")
		}
		action := core.Control(*env.Action)
		if !action.Valid() {
			return nil, malformed("action %d out of range", *env.Action)
		}
		return StepRequest{Action: action, Release: env.Release}, nil
	default:
		return nil, &UnknownTypeError{Type: env.Type}
	}
}

// EncodeObservation serializes an observation response.
func EncodeObservation(obs Observation) ([]byte, error) {
	return json.Marshal(observationEnvelope{
		Type:        TypeObservationResponse,
		Observation: obs.State,
		Done:        obs.Done,
		Reward:      obs.Reward,
	})
}

// DecodeObservation parses an observation response on the controller side.
func DecodeObservation(data []byte) (Observation, error) {
	var env observationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Observation{}, malformed("%v", err)
	}
	if env.Type != TypeObservationResponse {
		return Observation{}, &UnknownTypeError{Type: env.Type}
	}
	return Observation{State: env.Observation, Done: env.Done, Reward: env.Reward}, nil
}

// EncodeReset serializes a reset request.
func EncodeReset() ([]byte, error) {
	return json.Marshal(requestEnvelope{Type: TypeResetRequest})
}

// EncodeStep serializes a step request.
func EncodeStep(req StepRequest) ([]byte, error) {
	action := int(req.Action)
	return json.Marshal(requestEnvelope{
		Type:    TypeStepRequest,
		Action:  &action,
		Release: req.Release,
	})
}

// Encode serializes any request.
func Encode(req Request) ([]byte, error) {
	switch r := req.(type) {
	case ResetRequest:
		return EncodeReset()
	case StepRequest:
		return EncodeStep(r)
	default:
		return nil, malformed("unsupported request %T", req)
	}
}
