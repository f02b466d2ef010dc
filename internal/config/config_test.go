package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	var cfg LanderConfig
	if err := yaml.Unmarshal(defaultLanderYAML, &cfg); err != nil {
		t.Fatalf("embedded defaults do not parse: %v", err)
	}
	want := DefaultLanderConfig()
	if cfg != want {
		t.Errorf("embedded defaults differ from DefaultLanderConfig:\n got %+v\nwant %+v", cfg, want)
	}
}

func TestDefaultsValidate(t *testing.T) {
	if err := DefaultLanderConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadCustomPathPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	data := "difficulty: hard\nphysics:\n  gravity: 20\nbridge:\n  rendezvous_timeout: 750ms\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Difficulty != DifficultyHard {
		t.Errorf("difficulty = %q, expected hard", cfg.Difficulty)
	}
	if cfg.Physics.Gravity != 20 {
		t.Errorf("gravity = %v, expected 20", cfg.Physics.Gravity)
	}
	if cfg.Bridge.RendezvousTimeout != 750*time.Millisecond {
		t.Errorf("rendezvous timeout = %v, expected 750ms", cfg.Bridge.RendezvousTimeout)
	}
	// Untouched fields keep defaults
	if cfg.Physics.FireAccel != 80 {
		t.Errorf("fire accel = %v, expected default 80", cfg.Physics.FireAccel)
	}
}

func TestLoadMissingCustomPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing custom config")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist, got %v", err)
	}
}

func TestLoadInvalidCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("canvas: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LANDER_WS_ADDR", ":9999")
	t.Setenv("LANDER_MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("LANDER_TICK_RATE", "30")
	t.Setenv("LANDER_DIFFICULTY", "easy")
	t.Setenv("LANDER_RENDEZVOUS_TIMEOUT", "2s")

	cfg := DefaultLanderConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Transport.Websocket.Addr != ":9999" {
		t.Errorf("ws addr = %q", cfg.Transport.Websocket.Addr)
	}
	if cfg.Transport.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("mqtt broker = %q", cfg.Transport.MQTT.Broker)
	}
	if cfg.Session.TickRate != 30 {
		t.Errorf("tick rate = %d", cfg.Session.TickRate)
	}
	if cfg.Difficulty != DifficultyEasy {
		t.Errorf("difficulty = %q", cfg.Difficulty)
	}
	if cfg.Bridge.RendezvousTimeout != 2*time.Second {
		t.Errorf("rendezvous timeout = %v", cfg.Bridge.RendezvousTimeout)
	}
	// Unset variables leave values alone
	if cfg.Transport.Websocket.Path != "/ws" {
		t.Errorf("ws path = %q, expected default", cfg.Transport.Websocket.Path)
	}
}

func TestEnvOverrideBadValue(t *testing.T) {
	t.Setenv("LANDER_TICK_RATE", "fast")
	cfg := DefaultLanderConfig()
	if err := ApplyEnv(&cfg); err == nil {
		t.Fatal("expected error for non-numeric tick rate")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := DefaultLanderConfig()
	cfg.Session.TickRate = 0
	cfg.Physics.FuelInit = 200
	cfg.Difficulty = "insane"
	cfg.Transport.Kind = "carrier-pigeon"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"tick_rate", "fuel_init", "insane", "carrier-pigeon"} {
		if !strings.Contains(msg, want) {
			t.Errorf("validation error should mention %q, got:\n%s", want, msg)
		}
	}
}

func TestValidateRejectsCrampedCanvas(t *testing.T) {
	cfg := DefaultLanderConfig()
	cfg.Canvas.Width = 220
	cfg.Canvas.Height = 2000

	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "too small") {
		t.Errorf("expected too small error, got %v", err)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    DifficultyPreset
		wantErr bool
	}{
		{"easy", DifficultyEasy, false},
		{"EASY", DifficultyEasy, false},
		{"medium", DifficultyMedium, false},
		{"normal", DifficultyMedium, false},
		{"", DifficultyMedium, false},
		{" hard ", DifficultyHard, false},
		{"nightmare", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDifficulty(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDifficulty(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestScaleForPreset(t *testing.T) {
	easy := ScaleForPreset(DifficultyEasy)
	if got := easy.GoalWidth.Int(200); got != 266 {
		t.Errorf("easy goal width = %d, expected 266", got)
	}
	if got := easy.SpeedInit.Int(30); got != 22 {
		t.Errorf("easy speed init = %d, expected 22", got)
	}
	if got := easy.Fuel.Float(60); got != 90 {
		t.Errorf("easy fuel = %v, expected 90", got)
	}

	hard := ScaleForPreset(DifficultyHard)
	if got := hard.GoalSpeed.Int(100); got != 87 {
		t.Errorf("hard goal speed = %d, expected 87", got)
	}
	if got := hard.GoalAngle.Int(25); got != 25 {
		t.Errorf("hard goal angle = %d, expected unchanged 25", got)
	}
	if got := hard.SpeedInit.Int(30); got != 40 {
		t.Errorf("hard speed init = %d, expected 40", got)
	}

	medium := ScaleForPreset(DifficultyMedium)
	if got := medium.Fuel.Float(60); got != 60 {
		t.Errorf("medium fuel = %v, expected 60", got)
	}
}
