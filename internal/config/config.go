package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/sim"
)

const (
	DefaultWidth          = 800
	DefaultHeight         = 600
	DefaultSubSteps       = 8
	DefaultUpdateRate     = 60.0
	DefaultStandardRadius = 5.0
	DefaultMaxParticles   = 1500
	DefaultFrames         = 600
)

type Config struct {
	Preset     string           `yaml:"preset,omitempty"`
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	Thermostat ThermostatConfig `yaml:"thermostat"`
	Run        RunConfig        `yaml:"run"`
	Logger     LoggerConfig     `yaml:"logger"`
}

type Point struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
}

func (p Point) Vec() dynamo.Vec2 { return dynamo.V(p.X, p.Y) }

type WorldConfig struct {
	Width        float32 `yaml:"width"`
	Height       float32 `yaml:"height"`
	Boundary     string  `yaml:"boundary"`
	Buffer       float32 `yaml:"buffer"`
	CircleCenter Point   `yaml:"circle_center"`
	CircleRadius float32 `yaml:"circle_radius"`
	Restitution  float32 `yaml:"restitution"`
}

type PhysicsConfig struct {
	SubSteps          int     `yaml:"sub_steps"`
	UpdateRate        float64 `yaml:"update_rate"`
	Drag              float32 `yaml:"drag"`
	Gravity           Point   `yaml:"gravity"`
	AttractionFactor  float32 `yaml:"attraction_factor"`
	AttractionPoint   Point   `yaml:"attraction_point"`
	StandardRadius    float32 `yaml:"standard_radius"`
	CellSize          uint16  `yaml:"cell_size"`
	CollisionResponse float32 `yaml:"collision_response"`
	ValidateState     bool    `yaml:"validate_state"`
}

// SpawnConfig drives the emitter: PerFrame particles every Interval frames
// until MaxParticles exist.
type SpawnConfig struct {
	MaxParticles int     `yaml:"max_particles"`
	PerFrame     int     `yaml:"per_frame"`
	Interval     int     `yaml:"interval"`
	Origin       Point   `yaml:"origin"`
	Speed        float32 `yaml:"speed"`
	AngleDeg     float64 `yaml:"angle_deg"`
	SpreadDeg    float64 `yaml:"spread_deg"`
	SweepHz      float64 `yaml:"sweep_hz"`
	Radius       float32 `yaml:"radius"`
	RadiusJitter float32 `yaml:"radius_jitter"`
	HueStep      float64 `yaml:"hue_step"`
}

// ThermostatConfig regulates drag so the mean kinetic energy per particle
// tracks Target.
type ThermostatConfig struct {
	Enabled bool    `yaml:"enabled"`
	Target  float64 `yaml:"target"`
	Kp      float64 `yaml:"kp"`
	Ki      float64 `yaml:"ki"`
	Kd      float64 `yaml:"kd"`
	MinDrag float32 `yaml:"min_drag"`
}

type RunConfig struct {
	Frames int   `yaml:"frames"`
	Seed   int64 `yaml:"seed"`
}

type LoggerConfig struct {
	Level       string      `yaml:"level"`
	Format      string      `yaml:"format"`
	ServiceName string      `yaml:"service_name"`
	LogFile     string      `yaml:"log_file"`
	MaxSize     int         `yaml:"max_size"`
	MaxBackups  int         `yaml:"max_backups"`
	MaxAge      int         `yaml:"max_age"`
	Compress    bool        `yaml:"compress"`
	AddSource   bool        `yaml:"add_source"`
	Colors      ColorConfig `yaml:"colors"`
}

type ColorConfig struct {
	Debug string `yaml:"debug"`
	Info  string `yaml:"info"`
	Warn  string `yaml:"warn"`
	Error string `yaml:"error"`
}

func DefaultConfig() *Config {
	return &Config{
		Preset: "attract",
		World: WorldConfig{
			Width:        DefaultWidth,
			Height:       DefaultHeight,
			Boundary:     string(sim.BoundaryRect),
			Buffer:       10,
			CircleCenter: Point{X: DefaultWidth / 2, Y: DefaultHeight / 2},
			CircleRadius: 280,
		},
		Physics: PhysicsConfig{
			SubSteps:          DefaultSubSteps,
			UpdateRate:        DefaultUpdateRate,
			Drag:              0.999,
			AttractionFactor:  20,
			AttractionPoint:   Point{X: DefaultWidth / 2, Y: DefaultHeight / 2},
			StandardRadius:    DefaultStandardRadius,
			CollisionResponse: 0.75,
		},
		Spawn: SpawnConfig{
			MaxParticles: DefaultMaxParticles,
			PerFrame:     2,
			Interval:     1,
			Origin:       Point{X: 100, Y: 100},
			Speed:        300,
			AngleDeg:     20,
			SpreadDeg:    15,
			SweepHz:      0.25,
			Radius:       DefaultStandardRadius,
			HueStep:      0.5,
		},
		Thermostat: ThermostatConfig{
			Target:  20000,
			Kp:      0.02,
			Ki:      0.005,
			MinDrag: 0.95,
		},
		Run: RunConfig{
			Frames: DefaultFrames,
			Seed:   1,
		},
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "particlesim",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      7,
			Colors: ColorConfig{
				Debug: "cyan",
				Info:  "green",
				Warn:  "yellow",
				Error: "red",
			},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SimConfig converts the file layout into the core's explicit configuration.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		SubSteps:          c.Physics.SubSteps,
		UpdateRate:        c.Physics.UpdateRate,
		Drag:              c.Physics.Drag,
		Gravity:           c.Physics.Gravity.Vec(),
		AttractionFactor:  c.Physics.AttractionFactor,
		AttractionPoint:   c.Physics.AttractionPoint.Vec(),
		WorldWidth:        c.World.Width,
		WorldHeight:       c.World.Height,
		Boundary:          sim.BoundaryKind(c.World.Boundary),
		Buffer:            c.World.Buffer,
		Restitution:       c.World.Restitution,
		CircleCenter:      c.World.CircleCenter.Vec(),
		CircleRadius:      c.World.CircleRadius,
		StandardRadius:    c.Physics.StandardRadius,
		CellSize:          c.cellSize(),
		CollisionResponse: c.Physics.CollisionResponse,
		ValidateState:     c.Physics.ValidateState,
	}
}

// cellSize derives the grid cell from the largest particle the emitter can
// produce when no explicit size is configured.
func (c *Config) cellSize() uint16 {
	if c.Physics.CellSize > 0 || c.Spawn.PerFrame == 0 {
		return c.Physics.CellSize
	}
	largest := c.Spawn.Radius + c.Spawn.RadiusJitter
	if !(largest > c.Physics.StandardRadius) {
		return 0
	}
	return sim.MinCellSize(largest)
}

func (c *Config) Validate() error {
	if err := c.SimConfig().Validate(); err != nil {
		return err
	}
	s := c.Spawn
	if s.MaxParticles < 0 || s.PerFrame < 0 {
		return fmt.Errorf("spawn counts must not be negative: %w", dynamo.ErrParameterBounds)
	}
	if s.PerFrame > 0 && s.Interval < 1 {
		return fmt.Errorf("spawn interval must be at least 1, got %d: %w", s.Interval, dynamo.ErrParameterBounds)
	}
	if s.PerFrame > 0 && !(s.Radius > 0) {
		return fmt.Errorf("spawn radius must be positive, got %f: %w", s.Radius, dynamo.ErrParameterBounds)
	}
	if !(s.RadiusJitter >= 0) || (s.PerFrame > 0 && s.RadiusJitter >= s.Radius) {
		return fmt.Errorf("radius_jitter must be in [0, radius), got %f: %w", s.RadiusJitter, dynamo.ErrParameterBounds)
	}
	if s.PerFrame > 0 && c.Physics.CellSize > 0 {
		if lo := sim.MinCellSize(s.Radius + s.RadiusJitter); c.Physics.CellSize < lo {
			return fmt.Errorf("cell_size %d is below the largest spawned diameter %d: %w", c.Physics.CellSize, lo, dynamo.ErrParameterBounds)
		}
	}
	if th := c.Thermostat; th.Enabled && (!(th.Target > 0) || !(th.MinDrag > 0 && th.MinDrag <= 1)) {
		return fmt.Errorf("thermostat needs target > 0 and min_drag in (0, 1]: %w", dynamo.ErrParameterBounds)
	}
	if c.Run.Frames < 0 {
		return fmt.Errorf("frames must not be negative, got %d: %w", c.Run.Frames, dynamo.ErrParameterBounds)
	}
	return nil
}
