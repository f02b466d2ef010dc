// Package config provides YAML-based configuration loading, environment
// overrides and difficulty presets for the lunar lander.
package config

import "time"

// LanderConfig contains every tunable of the simulation and its collaborators.
type LanderConfig struct {
	Canvas     CanvasConfig     `yaml:"canvas"`
	Lander     SpriteConfig     `yaml:"lander"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Goal       GoalConfig       `yaml:"goal"`
	Difficulty DifficultyPreset `yaml:"difficulty" env:"LANDER_DIFFICULTY"`
	Session    SessionConfig    `yaml:"session"`
	Bridge     BridgeConfig     `yaml:"bridge"`
	Transport  TransportConfig  `yaml:"transport"`
	Storage    StorageConfig    `yaml:"storage"`
	TUI        TUIConfig        `yaml:"tui"`
	SSH        SSHConfig        `yaml:"ssh"`
}

// CanvasConfig is the drawable surface size in world units.
type CanvasConfig struct {
	Width  int `yaml:"width" env:"LANDER_CANVAS_WIDTH"`
	Height int `yaml:"height" env:"LANDER_CANVAS_HEIGHT"`
}

// SpriteConfig holds the lander sprite extents. Landing geometry depends on
// them even though nothing is drawn at this resolution.
type SpriteConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PhysicsConfig defines the integrator constants.
type PhysicsConfig struct {
	Gravity         float64 `yaml:"gravity"`          // px/s², pulls dy down
	FireAccel       float64 `yaml:"fire_accel"`       // px/s² while the engine burns
	FuelInit        float64 `yaml:"fuel_init"`        // fuel at start, before difficulty scaling
	FuelMax         float64 `yaml:"fuel_max"`         // gauge scale
	FuelBurnRate    float64 `yaml:"fuel_burn_rate"`   // units per second
	RotateRate      float64 `yaml:"rotate_rate"`      // degrees per second
	HyperspaceSpeed float64 `yaml:"hyperspace_speed"` // inverted touchdown above this speed wins
	SpeedInit       float64 `yaml:"speed_init"`       // bound of the random initial velocity
	SpeedMax        float64 `yaml:"speed_max"`        // gauge scale
}

// GoalConfig describes the landing pad and the win thresholds.
type GoalConfig struct {
	Angle         int     `yaml:"angle"`
	BottomPadding int     `yaml:"bottom_padding"`
	PadHeight     int     `yaml:"pad_height"`
	Speed         int     `yaml:"speed"`
	WidthFactor   float64 `yaml:"width_factor"` // pad width as a multiple of lander width
}

// SessionConfig drives the simulation loop.
type SessionConfig struct {
	TickRate       int           `yaml:"tick_rate" env:"LANDER_TICK_RATE"`
	StartDelay     time.Duration `yaml:"start_delay"`
	Seed           int64         `yaml:"seed" env:"LANDER_SEED"`
	RecordEpisodes bool          `yaml:"record_episodes" env:"LANDER_RECORD_EPISODES"`
}

// BridgeConfig bounds the request/observation rendezvous.
type BridgeConfig struct {
	RendezvousTimeout time.Duration `yaml:"rendezvous_timeout" env:"LANDER_RENDEZVOUS_TIMEOUT"`
	PublishTimeout    time.Duration `yaml:"publish_timeout"`
	QueueLimit        int           `yaml:"queue_limit"`
}

// TransportConfig selects and configures the controller channel.
type TransportConfig struct {
	Kind      string          `yaml:"kind" env:"LANDER_TRANSPORT"` // none, websocket or mqtt
	Websocket WebsocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// WebsocketConfig configures both the server endpoint and the agent dialer.
type WebsocketConfig struct {
	Addr string `yaml:"addr" env:"LANDER_WS_ADDR"`
	Path string `yaml:"path"`
	URL  string `yaml:"url" env:"LANDER_WS_URL"`
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker           string        `yaml:"broker" env:"LANDER_MQTT_BROKER"`
	ClientID         string        `yaml:"client_id" env:"LANDER_MQTT_CLIENT_ID"`
	RequestTopic     string        `yaml:"request_topic"`
	ObservationTopic string        `yaml:"observation_topic"`
	QoS              byte          `yaml:"qos"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	DBPath string `yaml:"db_path" env:"LANDER_DB_PATH"`
}

// TUIConfig tunes the interactive terminal front end.
type TUIConfig struct {
	FPS        int           `yaml:"fps"`
	HoldWindow time.Duration `yaml:"hold_window"` // key treated as released after this long without a repeat
}

// SSHConfig configures the multi-user terminal server.
type SSHConfig struct {
	Addr        string        `yaml:"addr" env:"LANDER_SSH_ADDR"`
	HostKeyPath string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}
