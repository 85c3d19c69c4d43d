package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/simlab/engine"
)

// ErrInvalid marks a configuration value outside its allowed range
var ErrInvalid = errors.New("invalid config")

// Config is the root of the TOML configuration file
type Config struct {
	Physics   Physics   `toml:"physics"`
	Scene     Scene     `toml:"scene"`
	Render    Render    `toml:"render"`
	Telemetry Telemetry `toml:"telemetry"`
	Audio     Audio     `toml:"audio"`
}

// Physics configures the physics manager
type Physics struct {
	Threaded      bool    `toml:"threaded"` // false steps the scene on the render loop
	TargetRate    float64 `toml:"target_rate"`
	FixedTimeStep bool    `toml:"fixed_time_step"`
	MaxDeltaTime  float64 `toml:"max_delta_time"`
	MaxSubSteps   int     `toml:"max_sub_steps"`
}

// Scene configures the bouncing-ball scene, distances in world units
type Scene struct {
	Balls       int     `toml:"balls"`
	MinRadius   float64 `toml:"min_radius"`
	MaxRadius   float64 `toml:"max_radius"`
	MaxSpeed    float64 `toml:"max_speed"`
	Restitution float64 `toml:"restitution"`
	Friction    float64 `toml:"friction"`
	Seed        int64   `toml:"seed"` // 0 seeds from the clock

	// Leader is a larger ball accelerating along its heading; radius 0 disables it
	LeaderRadius       float64 `toml:"leader_radius"`
	LeaderAcceleration float64 `toml:"leader_acceleration"`
	LeaderMaxSpeed     float64 `toml:"leader_max_speed"`
}

// Render configures the host loop
type Render struct {
	FrameRate int     `toml:"frame_rate"`
	TimeScale float64 `toml:"time_scale"` // direct mode dt multiplier
	RowScale  float64 `toml:"row_scale"`  // world units per terminal row
}

// Telemetry configures the websocket stats stream
type Telemetry struct {
	Enabled  bool          `toml:"enabled"`
	Addr     string        `toml:"addr"`
	Interval time.Duration `toml:"interval"`
}

// Audio configures the collision cue
type Audio struct {
	Enabled    bool    `toml:"enabled"`
	SampleRate int     `toml:"sample_rate"`
	Volume     float64 `toml:"volume"`    // 0..1
	MinSpeed   float64 `toml:"min_speed"` // impacts slower than this are silent
}

// Default returns a configuration that validates
func Default() Config {
	ec := engine.DefaultConfig()
	return Config{
		Physics: Physics{
			Threaded:      true,
			TargetRate:    ec.TargetRate,
			FixedTimeStep: ec.UseFixedTimeStep,
			MaxDeltaTime:  ec.MaxDeltaTime,
			MaxSubSteps:   ec.MaxSubSteps,
		},
		Scene: Scene{
			Balls:              10,
			MinRadius:          1,
			MaxRadius:          3,
			MaxSpeed:           20,
			Restitution:        1,
			Friction:           0,
			LeaderRadius:       4,
			LeaderAcceleration: 5,
			LeaderMaxSpeed:     60,
		},
		Render: Render{
			FrameRate: 60,
			TimeScale: 1,
			RowScale:  2,
		},
		Telemetry: Telemetry{
			Addr:     "127.0.0.1:8089",
			Interval: 500 * time.Millisecond,
		},
		Audio: Audio{
			Enabled:    true,
			SampleRate: 44100,
			Volume:     0.3,
			MinSpeed:   5,
		},
	}
}

// Load reads path over the defaults; unknown keys are rejected
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first out-of-range value
func (c Config) Validate() error {
	if err := c.Physics.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("%w: physics: %w", ErrInvalid, err)
	}

	s := c.Scene
	switch {
	case s.Balls < 0:
		return fmt.Errorf("%w: scene.balls must be >= 0, got %d", ErrInvalid, s.Balls)
	case !(s.MinRadius > 0) || s.MaxRadius < s.MinRadius:
		return fmt.Errorf("%w: scene radius range [%v, %v]", ErrInvalid, s.MinRadius, s.MaxRadius)
	case s.MaxSpeed < 0:
		return fmt.Errorf("%w: scene.max_speed must be >= 0, got %v", ErrInvalid, s.MaxSpeed)
	case s.Restitution < 0 || s.Restitution > 1:
		return fmt.Errorf("%w: scene.restitution must be in [0,1], got %v", ErrInvalid, s.Restitution)
	case s.Friction < 0:
		return fmt.Errorf("%w: scene.friction must be >= 0, got %v", ErrInvalid, s.Friction)
	case s.LeaderRadius < 0 || s.LeaderMaxSpeed < 0:
		return fmt.Errorf("%w: scene leader radius/max speed must be >= 0", ErrInvalid)
	}

	r := c.Render
	switch {
	case r.FrameRate < 1:
		return fmt.Errorf("%w: render.frame_rate must be >= 1, got %d", ErrInvalid, r.FrameRate)
	case !(r.TimeScale > 0):
		return fmt.Errorf("%w: render.time_scale must be > 0, got %v", ErrInvalid, r.TimeScale)
	case !(r.RowScale > 0):
		return fmt.Errorf("%w: render.row_scale must be > 0, got %v", ErrInvalid, r.RowScale)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Addr == "" {
			return fmt.Errorf("%w: telemetry.addr is empty", ErrInvalid)
		}
		if c.Telemetry.Interval <= 0 {
			return fmt.Errorf("%w: telemetry.interval must be > 0, got %v", ErrInvalid, c.Telemetry.Interval)
		}
	}

	if c.Audio.Enabled {
		if c.Audio.SampleRate <= 0 {
			return fmt.Errorf("%w: audio.sample_rate must be > 0, got %d", ErrInvalid, c.Audio.SampleRate)
		}
		if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
			return fmt.Errorf("%w: audio.volume must be in [0,1], got %v", ErrInvalid, c.Audio.Volume)
		}
	}
	return nil
}

// EngineConfig converts to the manager's timing configuration
func (p Physics) EngineConfig() engine.Config {
	return engine.Config{
		TargetRate:       p.TargetRate,
		UseFixedTimeStep: p.FixedTimeStep,
		MaxDeltaTime:     p.MaxDeltaTime,
		MaxSubSteps:      p.MaxSubSteps,
	}
}

// Write encodes c as TOML to path, used to dump a starter file
func Write(path string, c Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
