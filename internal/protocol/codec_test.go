package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/vovakirdan/lunar-lander/internal/config"
	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/games/lander"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Request
		wantErr error
	}{
		{"reset", `{"type":"RESET_REQUEST"}`, ResetRequest{}, nil},
		{"reset ignores extra fields", `{"type":"RESET_REQUEST","action":3}`, ResetRequest{}, nil},
		{"step fire", `{"type":"STEP_REQUEST","action":5}`, StepRequest{Action: core.ControlFire}, nil},
		{"step none", `{"type":"STEP_REQUEST","action":0}`, StepRequest{Action: core.ControlNone}, nil},
		{"step release", `{"type":"STEP_REQUEST","action":3,"release":true}`, StepRequest{Action: core.ControlLeft, Release: true}, nil},
		{"step without action", `{"type":"STEP_REQUEST"}`, nil, ErrMalformedMessage},
		{"step action out of range", `{"type":"STEP_REQUEST","action":99}`, nil, ErrMalformedMessage},
		{"step action negative", `{"type":"STEP_REQUEST","action":-1}`, nil, ErrMalformedMessage},
		{"step action not a number", `{"type":"STEP_REQUEST","action":"FIRE"}`, nil, ErrMalformedMessage},
		{"unknown type", `{"type":"LAUNCH_REQUEST"}`, nil, ErrUnknownMessageType},
		{"missing type", `{}`, nil, ErrUnknownMessageType},
		{"not json", `hello`, nil, ErrMalformedMessage},
		{"empty", ``, nil, ErrMalformedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode(%s) err = %v, want %v", tt.in, err, tt.wantErr)
				}
				if got != nil {
					t.Errorf("Decode(%s) returned %#v alongside an error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%s) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%s) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnknownTypeErrorCarriesType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"FOO"}`))
	var ute *UnknownTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("expected *UnknownTypeError, got %T", err)
	}
	if ute.Type != "FOO" {
		t.Errorf("Type = %q, want FOO", ute.Type)
	}
}

func TestEncodeObservationWireFormat(t *testing.T) {
	g := lander.New(config.DefaultLanderConfig(), lander.WithSeed(1))
	g.Start()
	obs := ObservationFromSnapshot(g.Snapshot())

	data, err := EncodeObservation(obs)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["type"]) != `"OBSERVATION_RESPONSE"` {
		t.Errorf("type = %s", raw["type"])
	}
	if string(raw["done"]) != "false" || string(raw["reward"]) != "0" {
		t.Errorf("done = %s reward = %s, expected false and 0 for a running game", raw["done"], raw["reward"])
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw["observation"], &fields); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"mDifficulty", "mDX", "mDY", "mFuel", "mGoalAngle", "mGoalSpeed", "mGoalWidth",
		"mGoalX", "mHeading", "mLanderHeight", "mLanderWidth", "mWinsInARow", "mX", "mY",
	}
	if len(fields) != len(want) {
		t.Errorf("observation has %d fields, want %d", len(fields), len(want))
	}
	for _, k := range want {
		if _, ok := fields[k]; !ok {
			t.Errorf("observation missing %s", k)
		}
	}
	if string(fields["mDifficulty"]) != "2" {
		t.Errorf("mDifficulty = %s, want 2 (medium)", fields["mDifficulty"])
	}
}

func TestObservationDoneAndReward(t *testing.T) {
	tests := []struct {
		mode   lander.Mode
		done   bool
		reward int
	}{
		{lander.ModeRunning, false, 0},
		{lander.ModeWin, true, 1},
		{lander.ModeLose, true, 0},
		{lander.ModePause, true, 0},
		{lander.ModeReady, true, 0},
	}
	for _, tt := range tests {
		snap := lander.Snapshot{State: lander.State{Mode: tt.mode}}
		obs := ObservationFromSnapshot(snap)
		if obs.Done != tt.done || obs.Reward != tt.reward {
			t.Errorf("mode %v: done=%v reward=%d, want %v and %d", tt.mode, obs.Done, obs.Reward, tt.done, tt.reward)
		}
	}
}

func TestClientSideCodec(t *testing.T) {
	data, err := Encode(StepRequest{Action: core.ControlRight, Release: true})
	if err != nil {
		t.Fatal(err)
	}
	req, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if req != (StepRequest{Action: core.ControlRight, Release: true}) {
		t.Errorf("decoded %#v", req)
	}

	data, err = Encode(ResetRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"RESET_REQUEST"}` {
		t.Errorf("reset encodes as %s", data)
	}

	obs := Observation{State: ObservationState{X: 10, Y: 20, Fuel: 30}, Done: true, Reward: 1}
	data, err = EncodeObservation(obs)
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecodeObservation(data)
	if err != nil {
		t.Fatal(err)
	}
	if back != obs {
		t.Errorf("observation round trip = %+v, want %+v", back, obs)
	}

	if _, err := DecodeObservation([]byte(`{"type":"RESET_REQUEST"}`)); !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("non-observation should be rejected, got %v", err)
	}
}
