package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/lander.yaml
var defaultLanderYAML []byte

// DefaultLanderConfig returns the default configuration.
// It mirrors defaults/lander.yaml and is used when the embedded file cannot be parsed.
func DefaultLanderConfig() LanderConfig {
	return LanderConfig{
		Canvas: CanvasConfig{Width: 480, Height: 800},
		Lander: SpriteConfig{Width: 40, Height: 48},
		Physics: PhysicsConfig{
			Gravity:         35,
			FireAccel:       80,
			FuelInit:        60,
			FuelMax:         100,
			FuelBurnRate:    10,
			RotateRate:      120,
			HyperspaceSpeed: 180,
			SpeedInit:       30,
			SpeedMax:        120,
		},
		Goal: GoalConfig{
			Angle:         25,
			BottomPadding: 17,
			PadHeight:     8,
			Speed:         100,
			WidthFactor:   5.0,
		},
		Difficulty: DifficultyMedium,
		Session: SessionConfig{
			TickRate:       60,
			StartDelay:     100 * time.Millisecond,
			RecordEpisodes: true,
		},
		Bridge: BridgeConfig{
			RendezvousTimeout: 5 * time.Second,
			PublishTimeout:    2 * time.Second,
			QueueLimit:        8,
		},
		Transport: TransportConfig{
			Kind: "websocket",
			Websocket: WebsocketConfig{
				Addr: ":8765",
				Path: "/ws",
				URL:  "ws://localhost:8765/ws",
			},
			MQTT: MQTTConfig{
				Broker:           "tcp://localhost:1883",
				ClientID:         "lunar-lander",
				RequestTopic:     "lunar/requests",
				ObservationTopic: "lunar/observations",
				QoS:              2,
				ConnectTimeout:   10 * time.Second,
			},
		},
		TUI: TUIConfig{
			FPS:        30,
			HoldWindow: 150 * time.Millisecond,
		},
		SSH: SSHConfig{
			Addr:        ":23234",
			IdleTimeout: 30 * time.Minute,
		},
	}
}
