package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/particle"
)

// BoundaryKind selects the single active world constraint.
type BoundaryKind string

const (
	BoundaryRect   BoundaryKind = "rect"
	BoundaryCircle BoundaryKind = "circle"
)

// Config is the explicit configuration of a ParticleSystem. It replaces any
// process-wide constants; every option is read at construction or through a
// setter between frames.
type Config struct {
	SubSteps   int
	UpdateRate float64 // frames per second; frame dt = 1/UpdateRate

	Drag             float32 // slowdown ratio per sub-step, 1 disables
	Gravity          dynamo.Vec2
	AttractionFactor float32
	AttractionPoint  dynamo.Vec2

	WorldWidth  float32
	WorldHeight float32
	Boundary    BoundaryKind
	Buffer      float32
	Restitution float32

	CircleCenter dynamo.Vec2
	CircleRadius float32

	// StandardRadius is the uniform collision interaction radius and the
	// width of the border band excluded from the grid.
	StandardRadius    float32
	CellSize          uint16 // 0 derives 2*StandardRadius
	CollisionResponse float32

	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		SubSteps:          8,
		UpdateRate:        60,
		Drag:              1,
		AttractionFactor:  0,
		WorldWidth:        800,
		WorldHeight:       600,
		Boundary:          BoundaryRect,
		Buffer:            10,
		StandardRadius:    5,
		CollisionResponse: 0.75,
	}
}

// EffectiveCellSize returns the grid cell edge in world units.
func (c Config) EffectiveCellSize() uint16 {
	if c.CellSize > 0 {
		return c.CellSize
	}
	return MinCellSize(c.StandardRadius)
}

// MinCellSize is the smallest cell edge that keeps every interacting pair
// within one cell of each other, ceil(2*standardRadius).
func MinCellSize(standardRadius float32) uint16 {
	size := math.Ceil(2 * float64(standardRadius))
	if !(size >= 1) {
		return 1
	}
	if size > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(size)
}

func (c Config) Validate() error {
	if c.SubSteps < 1 {
		return fmt.Errorf("sub_steps must be at least 1, got %d: %w", c.SubSteps, dynamo.ErrParameterBounds)
	}
	if err := validateUpdateRate(c.UpdateRate); err != nil {
		return err
	}
	if err := validateDrag(c.Drag); err != nil {
		return err
	}
	if err := validateWorld(c.WorldWidth, c.WorldHeight); err != nil {
		return err
	}
	if !(c.StandardRadius > 0) || math.IsInf(float64(c.StandardRadius), 1) {
		return fmt.Errorf("standard_radius must be positive, got %f: %w", c.StandardRadius, dynamo.ErrParameterBounds)
	}
	if err := validateCellSize(c.CellSize, c.StandardRadius, true); err != nil {
		return err
	}
	if !(c.CollisionResponse > 0 && c.CollisionResponse <= 1) {
		return fmt.Errorf("collision_response must be in (0,1], got %f: %w", c.CollisionResponse, dynamo.ErrParameterBounds)
	}
	if !(c.Restitution >= 0 && c.Restitution <= 1) {
		return fmt.Errorf("restitution must be in [0,1], got %f: %w", c.Restitution, dynamo.ErrParameterBounds)
	}
	if !c.Gravity.IsFinite() || !c.AttractionPoint.IsFinite() || !isFinite32(c.AttractionFactor) {
		return fmt.Errorf("forces must be finite: %w", dynamo.ErrParameterBounds)
	}
	switch c.Boundary {
	case BoundaryRect:
		if err := validateBuffer(c.Buffer, c.WorldWidth, c.WorldHeight); err != nil {
			return err
		}
	case BoundaryCircle:
		if !(c.CircleRadius > 0) || !c.CircleCenter.IsFinite() || math.IsInf(float64(c.CircleRadius), 1) {
			return fmt.Errorf("circle radius must be positive, got %f: %w", c.CircleRadius, dynamo.ErrParameterBounds)
		}
	default:
		return fmt.Errorf("unknown boundary %q: %w", c.Boundary, dynamo.ErrParameterBounds)
	}
	return nil
}

func isFinite32(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

func validateUpdateRate(hz float64) error {
	if !(hz > 0) || math.IsInf(hz, 1) {
		return fmt.Errorf("update_rate must be positive, got %f: %w", hz, dynamo.ErrParameterBounds)
	}
	return nil
}

func validateDrag(ratio float32) error {
	if !(ratio >= 0 && ratio <= 1) {
		return fmt.Errorf("drag must be in [0,1], got %f: %w", ratio, dynamo.ErrParameterBounds)
	}
	return nil
}

func validateWorld(w, h float32) error {
	if !(w > 0 && h > 0) || !isFinite32(w) || !isFinite32(h) {
		return fmt.Errorf("world must have positive size, got %fx%f: %w", w, h, dynamo.ErrParameterBounds)
	}
	return nil
}

// validateCellSize rejects cells narrower than the interaction diameter.
// Zero means derived and is only allowed in a Config.
func validateCellSize(size uint16, standardRadius float32, allowZero bool) error {
	if size == 0 {
		if allowZero {
			return nil
		}
		return fmt.Errorf("cell_size must be positive: %w", dynamo.ErrParameterBounds)
	}
	if lo := MinCellSize(standardRadius); size < lo {
		return fmt.Errorf("cell_size %d is below the interaction diameter %d: %w", size, lo, dynamo.ErrParameterBounds)
	}
	return nil
}

func validateBuffer(buffer, w, h float32) error {
	if !(buffer >= 0 && 2*buffer < w && 2*buffer < h) {
		return fmt.Errorf("buffer %f leaves no interior in %fx%f: %w", buffer, w, h, dynamo.ErrParameterBounds)
	}
	return nil
}

// Handle identifies a particle by its position in the append-only sequence.
type Handle int

// StepStats counts the soft failures and work of one frame, summed over its
// sub-steps. None of these are errors.
type StepStats struct {
	Contacts int // pair corrections applied
	Dropped  int // grid inserts lost to full cells
	Excluded int // particles inside the border band
}

func (s *StepStats) add(o StepStats) {
	s.Contacts += o.Contacts
	s.Dropped += o.Dropped
	s.Excluded += o.Excluded
}

// Metric is observed once per frame after the system has been updated.
type Metric interface {
	Name() string
	Observe(ps []particle.Particle, dt float32, t float64)
	Value() float64
	Reset()
}

// Observer is notified after each frame, e.g. to render or record it.
type Observer interface {
	OnFrame(sys *ParticleSystem, frame int)
}

// Driver runs before each frame and may add particles or change settings.
type Driver interface {
	BeforeFrame(sys *ParticleSystem, frame int) error
}

// FrameStats is one row of per-frame run history.
type FrameStats struct {
	Frame         int     `csv:"frame" json:"frame"`
	Time          float64 `csv:"time" json:"time"`
	Particles     int     `csv:"particles" json:"particles"`
	Contacts      int     `csv:"contacts" json:"contacts"`
	Dropped       int     `csv:"dropped" json:"dropped"`
	Excluded      int     `csv:"excluded" json:"excluded"`
	KineticEnergy float64 `csv:"kinetic_energy" json:"kinetic_energy"`
}

type Result struct {
	Frames  int
	Times   []float64
	Stats   []FrameStats
	Metrics map[string]float64
}
