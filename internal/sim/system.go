package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/particlesim/internal/collision"
	"github.com/san-kum/particlesim/internal/constraint"
	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/forces"
	"github.com/san-kum/particlesim/internal/grid"
	"github.com/san-kum/particlesim/internal/particle"
)

// ParticleSystem owns the particle sequence and the spatial grid and runs
// the fixed sub-step pipeline. It is not safe for concurrent use; setters
// take effect on the next Update.
type ParticleSystem struct {
	cfg       Config
	particles []particle.Particle
	grid      *grid.Grid
	resolver  *collision.Resolver
	boundary  constraint.Boundary

	time  float64
	frame int
	stats StepStats

	logger         *zap.Logger
	overflowLogged bool
}

type Option func(*ParticleSystem)

func WithLogger(l *zap.Logger) Option {
	return func(s *ParticleSystem) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCapacity preallocates room for n particles.
func WithCapacity(n int) Option {
	return func(s *ParticleSystem) {
		s.particles = make([]particle.Particle, 0, n)
	}
}

func New(cfg Config, opts ...Option) (*ParticleSystem, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &ParticleSystem{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.grid = grid.NewForWorld(cfg.WorldWidth, cfg.WorldHeight, cfg.EffectiveCellSize())
	s.resolver = collision.NewResolver(cfg.StandardRadius, cfg.CollisionResponse)
	s.boundary = buildBoundary(cfg)

	s.logger.Debug("particle system created",
		zap.Int("sub_steps", cfg.SubSteps),
		zap.Float64("update_rate", cfg.UpdateRate),
		zap.String("boundary", string(cfg.Boundary)),
		zap.Int("grid_cols", s.grid.Cols()),
		zap.Int("grid_rows", s.grid.Rows()))
	return s, nil
}

func buildBoundary(cfg Config) constraint.Boundary {
	if cfg.Boundary == BoundaryCircle {
		return constraint.Circle{Center: cfg.CircleCenter, Radius: cfg.CircleRadius}
	}
	r := constraint.NewRect(cfg.WorldWidth, cfg.WorldHeight, cfg.Buffer)
	r.Restitution = cfg.Restitution
	return r
}

// AddParticle appends a particle at rest and returns its handle. Handles
// stay valid for the life of the system.
func (s *ParticleSystem) AddParticle(pos dynamo.Vec2, radius float32) (Handle, error) {
	if !(radius > 0) {
		return -1, fmt.Errorf("radius must be positive, got %f: %w", radius, dynamo.ErrParameterBounds)
	}
	s.particles = append(s.particles, particle.New(pos, radius))
	return Handle(len(s.particles) - 1), nil
}

func (s *ParticleSystem) lookup(h Handle) (*particle.Particle, error) {
	if h < 0 || int(h) >= len(s.particles) {
		return nil, fmt.Errorf("handle %d: %w", h, dynamo.ErrUnknownHandle)
	}
	return &s.particles[h], nil
}

// SetParticleVelocity sets the implied velocity in world units per second.
func (s *ParticleSystem) SetParticleVelocity(h Handle, v dynamo.Vec2) error {
	p, err := s.lookup(h)
	if err != nil {
		return err
	}
	p.SetVelocity(v, s.StepDt())
	return nil
}

func (s *ParticleSystem) SetParticleColor(h Handle, c dynamo.RGB8) error {
	p, err := s.lookup(h)
	if err != nil {
		return err
	}
	p.Color = c
	return nil
}

func (s *ParticleSystem) SetAttractionFactor(f float32)    { s.cfg.AttractionFactor = f }
func (s *ParticleSystem) SetAttractionPoint(p dynamo.Vec2) { s.cfg.AttractionPoint = p }
func (s *ParticleSystem) SetGravity(g dynamo.Vec2)         { s.cfg.Gravity = g }

func (s *ParticleSystem) SetDrag(ratio float32) error {
	if err := validateDrag(ratio); err != nil {
		return err
	}
	s.cfg.Drag = ratio
	return nil
}

// SetSubSteps changes the number of pipeline passes per frame. Implied
// velocities are rescaled so particles keep their speed.
func (s *ParticleSystem) SetSubSteps(n int) error {
	if n < 1 {
		return fmt.Errorf("sub_steps must be at least 1, got %d: %w", n, dynamo.ErrParameterBounds)
	}
	old := s.StepDt()
	s.cfg.SubSteps = n
	s.rescaleVelocities(old)
	return nil
}

func (s *ParticleSystem) SetUpdateRate(hz float64) error {
	if err := validateUpdateRate(hz); err != nil {
		return err
	}
	old := s.StepDt()
	s.cfg.UpdateRate = hz
	s.rescaleVelocities(old)
	return nil
}

func (s *ParticleSystem) rescaleVelocities(oldDt float32) {
	newDt := s.StepDt()
	if oldDt == newDt {
		return
	}
	for i := range s.particles {
		p := &s.particles[i]
		p.SetVelocity(p.Velocity(oldDt), newDt)
	}
}

// SetCellSize resizes the grid for the current world. Storage is reused when
// the cell count does not grow.
func (s *ParticleSystem) SetCellSize(size uint16) error {
	if err := validateCellSize(size, s.cfg.StandardRadius, false); err != nil {
		return err
	}
	s.cfg.CellSize = size
	s.resizeGrid()
	return nil
}

// SetWorldSize changes the world rectangle, the grid extent and, for a
// rectangular boundary, the constraint.
func (s *ParticleSystem) SetWorldSize(w, h float32) error {
	if err := validateWorld(w, h); err != nil {
		return err
	}
	if s.cfg.Boundary == BoundaryRect {
		if err := validateBuffer(s.cfg.Buffer, w, h); err != nil {
			return err
		}
	}
	s.cfg.WorldWidth, s.cfg.WorldHeight = w, h
	s.resizeGrid()
	s.boundary = buildBoundary(s.cfg)
	return nil
}

func (s *ParticleSystem) resizeGrid() {
	size := s.cfg.EffectiveCellSize()
	cols, rows := grid.Dimensions(s.cfg.WorldWidth, s.cfg.WorldHeight, size)
	s.grid.Resize(cols, rows, size)
	s.logger.Debug("grid resized",
		zap.Int("cols", cols),
		zap.Int("rows", rows),
		zap.Uint16("cell_size", size))
}

func (s *ParticleSystem) SetBoundaryBuffer(buffer float32) error {
	if err := validateBuffer(buffer, s.cfg.WorldWidth, s.cfg.WorldHeight); err != nil {
		return err
	}
	s.cfg.Buffer = buffer
	s.boundary = buildBoundary(s.cfg)
	return nil
}

// Update advances one frame: SubSteps passes of the pipeline with
// dt = frame dt / SubSteps each.
func (s *ParticleSystem) Update() {
	dt := s.StepDt()
	var stats StepStats
	for i := 0; i < s.cfg.SubSteps; i++ {
		stats.add(s.step(dt))
	}
	s.stats = stats
	s.time += s.FrameDt()
	s.frame++

	if stats.Dropped > 0 && !s.overflowLogged {
		s.overflowLogged = true
		s.logger.Debug("grid cell overflow, interactions dropped",
			zap.Int("frame", s.frame),
			zap.Int("dropped", stats.Dropped))
	}
}

func (s *ParticleSystem) step(dt float32) StepStats {
	var st StepStats

	s.grid.Clear()
	st.Excluded = s.rebuildGrid()
	st.Dropped = s.grid.Dropped()

	forces.ApplyAttraction(s.particles, s.cfg.AttractionPoint, s.cfg.AttractionFactor)
	forces.ApplyGravity(s.particles, s.cfg.Gravity)
	forces.ApplyDrag(s.particles, s.cfg.Drag)

	st.Contacts = s.resolver.Resolve(s.particles, s.grid)
	s.boundary.Apply(s.particles)

	for i := range s.particles {
		s.particles[i].Update(dt)
	}
	return st
}

// rebuildGrid inserts every particle outside the border band. Particles
// within StandardRadius of a world edge, or with non-finite positions, are
// left out for this sub-step.
func (s *ParticleSystem) rebuildGrid() int {
	margin := s.cfg.StandardRadius
	maxX, maxY := s.cfg.WorldWidth-margin, s.cfg.WorldHeight-margin
	excluded := 0
	for i := range s.particles {
		pos := s.particles[i].Position
		if !(pos.X > margin && pos.X < maxX && pos.Y > margin && pos.Y < maxY) {
			excluded++
			continue
		}
		s.grid.AddObject(pos.X, pos.Y, uint32(i))
	}
	return excluded
}

// Particles is the ordered read-only view for renderers.
func (s *ParticleSystem) Particles() []particle.Particle { return s.particles }

func (s *ParticleSystem) Particle(h Handle) (particle.Particle, error) {
	p, err := s.lookup(h)
	if err != nil {
		return particle.Particle{}, err
	}
	return *p, nil
}

func (s *ParticleSystem) Len() int         { return len(s.particles) }
func (s *ParticleSystem) Time() float64    { return s.time }
func (s *ParticleSystem) Frame() int       { return s.frame }
func (s *ParticleSystem) Stats() StepStats { return s.stats }
func (s *ParticleSystem) Grid() *grid.Grid { return s.grid }
func (s *ParticleSystem) Config() Config   { return s.cfg }

func (s *ParticleSystem) Boundary() constraint.Boundary { return s.boundary }

func (s *ParticleSystem) FrameDt() float64 { return 1 / s.cfg.UpdateRate }

func (s *ParticleSystem) StepDt() float32 {
	return float32(s.FrameDt() / float64(s.cfg.SubSteps))
}

// KineticEnergy returns sum(r*|v|^2/2), taking mass proportional to radius.
func (s *ParticleSystem) KineticEnergy() float64 {
	dt := s.StepDt()
	e := 0.0
	for i := range s.particles {
		v := s.particles[i].Velocity(dt)
		e += 0.5 * float64(s.particles[i].Radius) * float64(v.LengthSq())
	}
	return e
}

// CheckFinite reports the first particle whose state holds NaN or Inf.
func (s *ParticleSystem) CheckFinite() error {
	for i := range s.particles {
		if !s.particles[i].IsFinite() {
			return &dynamo.SimulationError{
				Frame:   s.frame,
				Time:    s.time,
				Handle:  i,
				Wrapped: dynamo.ErrInvalidState,
			}
		}
	}
	return nil
}
