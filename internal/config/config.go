// Package config loads the runtime configuration from an optional YAML file
// overlaid by LLMER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/SNeC-Lab-PSU/LLMER/internal/observability"
	"github.com/SNeC-Lab-PSU/LLMER/internal/prompt"
	"github.com/SNeC-Lab-PSU/LLMER/internal/protocol"
	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "LLMER_"

var (
	// ErrInvalidBackend indicates an unusable backend address or framing.
	ErrInvalidBackend = errors.New("config: invalid backend")
	// ErrInvalidLoop indicates a non-positive tick rate or capacity.
	ErrInvalidLoop = errors.New("config: invalid loop")
	// ErrInvalidScene indicates missing well-known entity names.
	ErrInvalidScene = errors.New("config: invalid scene")
	// ErrInvalidLogging indicates an unknown sink or severity.
	ErrInvalidLogging = errors.New("config: invalid logging")
)

// Config is the effective runtime configuration.
type Config struct {
	Backend       BackendConfig        `yaml:"backend" envPrefix:"BACKEND_"`
	Loop          LoopConfig           `yaml:"loop" envPrefix:"LOOP_"`
	Dispatch      DispatchConfig       `yaml:"dispatch" envPrefix:"DISPATCH_"`
	Scene         SceneConfig          `yaml:"scene" envPrefix:"SCENE_"`
	Observability observability.Config `yaml:"observability" envPrefix:"OBSERVABILITY_"`
	Logging       LoggingConfig        `yaml:"logging" envPrefix:"LOGGING_"`
}

// BackendConfig locates the language-model backend.
type BackendConfig struct {
	// Address is tcp://host:port, host:port, or a ws:// / wss:// URL.
	Address        string        `yaml:"address" env:"ADDRESS"`
	Framing        string        `yaml:"framing" env:"FRAMING"`
	MaxPayload     int           `yaml:"maxPayload" env:"MAX_PAYLOAD"`
	DialTimeout    time.Duration `yaml:"dialTimeout" env:"DIAL_TIMEOUT"`
	ReconnectDelay time.Duration `yaml:"reconnectDelay" env:"RECONNECT_DELAY"`
}

// LoopConfig tunes the tick loop and its queues.
type LoopConfig struct {
	TickRate        int `yaml:"tickRate" env:"TICK_RATE"`
	CatchupMaxTicks int `yaml:"catchupMaxTicks" env:"CATCHUP_MAX_TICKS"`
	FrameCapacity   int `yaml:"frameCapacity" env:"FRAME_CAPACITY"`
	RequestCapacity int `yaml:"requestCapacity" env:"REQUEST_CAPACITY"`
}

// DispatchConfig tunes turn composition.
type DispatchConfig struct {
	ConstructionWait time.Duration `yaml:"constructionWait" env:"CONSTRUCTION_WAIT"`
	HistorySize      int           `yaml:"historySize" env:"HISTORY_SIZE"`
}

// SceneConfig names the well-known entities and the headless scene inputs.
type SceneConfig struct {
	AgentName       string        `yaml:"agent" env:"AGENT"`
	UserName        string        `yaml:"user" env:"USER"`
	ViewpointName   string        `yaml:"viewpoint" env:"VIEWPOINT"`
	PlaceholderName string        `yaml:"placeholder" env:"PLACEHOLDER"`
	Radius          float64       `yaml:"radius" env:"RADIUS"`
	UserHeight      float64       `yaml:"userHeight" env:"USER_HEIGHT"`
	SeedFile        string        `yaml:"seed" env:"SEED"`
	SurfaceImage    string        `yaml:"surfaceImage" env:"SURFACE_IMAGE"`
	Hands           []prompt.Hand `yaml:"hands"`
}

// LoggingConfig selects event sinks.
type LoggingConfig struct {
	Sinks       []string `yaml:"sinks" env:"SINKS" envSeparator:","`
	MinSeverity string   `yaml:"minSeverity" env:"MIN_SEVERITY"`
	JSONPath    string   `yaml:"jsonPath" env:"JSON_PATH"`
	BufferSize  int      `yaml:"bufferSize" env:"BUFFER_SIZE"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			Address:        "127.0.0.1:8000",
			Framing:        string(protocol.FramingLength),
			MaxPayload:     protocol.DefaultMaxPayload,
			DialTimeout:    5 * time.Second,
			ReconnectDelay: 3 * time.Second,
		},
		Loop: LoopConfig{
			TickRate:        60,
			CatchupMaxTicks: 4,
			FrameCapacity:   256,
			RequestCapacity: 32,
		},
		Dispatch: DispatchConfig{
			ConstructionWait: 10 * time.Second,
			HistorySize:      prompt.DefaultHistorySize,
		},
		Scene: SceneConfig{
			AgentName:       "Robot",
			UserName:        "PlayerRig",
			ViewpointName:   "CenterEyeAnchor",
			PlaceholderName: "PlaneHolder",
			Radius:          prompt.DefaultRadius,
			UserHeight:      prompt.DefaultUserHeight,
			Hands: []prompt.Hand{
				{Side: "left", Root: "LeftHand", Joints: []string{"Index3", "Palm"}},
				{Side: "right", Root: "RightHand", Joints: []string{"Index3", "Palm"}},
			},
		},
		Observability: observability.Config{
			ListenAddr: observability.DefaultListenAddr,
		},
		Logging: LoggingConfig{
			Sinks:       []string{logging.SinkConsole},
			MinSeverity: logging.SeverityInfo.String(),
			BufferSize:  512,
		},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Backend.Address) == "" {
		return fmt.Errorf("%w: address is empty", ErrInvalidBackend)
	}
	if _, err := protocol.ParseFraming(c.Backend.Framing); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackend, err)
	}
	if c.Backend.DialTimeout < 0 || c.Backend.ReconnectDelay < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidBackend)
	}
	if c.Backend.MaxPayload <= 0 {
		return fmt.Errorf("%w: maxPayload must be positive, got %d", ErrInvalidBackend, c.Backend.MaxPayload)
	}
	if c.Loop.TickRate <= 0 {
		return fmt.Errorf("%w: tickRate must be positive, got %d", ErrInvalidLoop, c.Loop.TickRate)
	}
	if c.Loop.FrameCapacity <= 0 || c.Loop.RequestCapacity <= 0 {
		return fmt.Errorf("%w: capacities must be positive", ErrInvalidLoop)
	}
	if c.Dispatch.ConstructionWait <= 0 {
		return fmt.Errorf("%w: constructionWait must be positive", ErrInvalidLoop)
	}
	if strings.TrimSpace(c.Scene.AgentName) == "" {
		return fmt.Errorf("%w: agent name is empty", ErrInvalidScene)
	}
	if c.Scene.Radius <= 0 {
		return fmt.Errorf("%w: radius must be positive", ErrInvalidScene)
	}
	for _, sink := range c.Logging.Sinks {
		if !logging.KnownSink(sink) {
			return fmt.Errorf("%w: unknown sink %q", ErrInvalidLogging, sink)
		}
	}
	if _, err := logging.ParseSeverity(c.Logging.MinSeverity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLogging, err)
	}
	return nil
}

// Framing returns the parsed backend framing. It assumes Validate passed.
func (c Config) Framing() protocol.Framing {
	f, _ := protocol.ParseFraming(c.Backend.Framing)
	return f
}

// RouterConfig maps the logging section onto the event router settings.
func (c Config) RouterConfig() logging.Config {
	out := logging.DefaultConfig()
	if len(c.Logging.Sinks) > 0 {
		out.EnabledSinks = append([]string(nil), c.Logging.Sinks...)
	}
	if c.Logging.BufferSize > 0 {
		out.BufferSize = c.Logging.BufferSize
	}
	if sev, err := logging.ParseSeverity(c.Logging.MinSeverity); err == nil {
		out.MinimumSeverity = sev
	}
	out.JSON.FilePath = c.Logging.JSONPath
	return out
}

// YAML renders the configuration as a YAML document.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
