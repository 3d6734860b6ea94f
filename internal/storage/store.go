package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/particle"
	"github.com/san-kum/particlesim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	framesFile    = "frames.csv"
	particlesFile = "particles.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Frames     int                `json:"frames"`
	SubSteps   int                `json:"sub_steps"`
	UpdateRate float64            `json:"update_rate"`
	Particles  int                `json:"particles"`
	Metrics    map[string]float64 `json:"metrics"`
	Config     *config.Config     `json:"config,omitempty"`
}

// ParticleRow is one particle of the final snapshot.
type ParticleRow struct {
	Index  int     `csv:"index"`
	X      float32 `csv:"x"`
	Y      float32 `csv:"y"`
	LastX  float32 `csv:"last_x"`
	LastY  float32 `csv:"last_y"`
	Radius float32 `csv:"radius"`
	R      uint8   `csv:"r"`
	G      uint8   `csv:"g"`
	B      uint8   `csv:"b"`
}

func ParticleRows(ps []particle.Particle) []*ParticleRow {
	rows := make([]*ParticleRow, len(ps))
	for i, p := range ps {
		rows[i] = &ParticleRow{
			Index:  i,
			X:      p.Position.X,
			Y:      p.Position.Y,
			LastX:  p.PositionLast.X,
			LastY:  p.PositionLast.Y,
			Radius: p.Radius,
			R:      p.Color.R,
			G:      p.Color.G,
			B:      p.Color.B,
		}
	}
	return rows
}

// Particle rebuilds the Verlet state, including the implied velocity.
func (r *ParticleRow) Particle() particle.Particle {
	return particle.Particle{
		Position:     dynamo.V(r.X, r.Y),
		PositionLast: dynamo.V(r.LastX, r.LastY),
		Radius:       r.Radius,
		Color:        dynamo.RGB8{R: r.R, G: r.G, B: r.B},
	}
}

func newRunID(preset string, now time.Time) string {
	if preset == "" {
		preset = "custom"
	}
	return fmt.Sprintf("%s_%d_%s", preset, now.Unix(), uuid.NewString()[:8])
}

// Save writes a run directory holding metadata, per-frame statistics and
// the final particle snapshot. It returns the run id.
func (s *Store) Save(cfg *config.Config, result *sim.Result, ps []particle.Particle) (string, error) {
	now := time.Now()
	runID := newRunID(cfg.Preset, now)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Preset:     cfg.Preset,
		Timestamp:  now,
		Seed:       cfg.Run.Seed,
		Frames:     result.Frames,
		SubSteps:   cfg.Physics.SubSteps,
		UpdateRate: cfg.Physics.UpdateRate,
		Particles:  len(ps),
		Metrics:    result.Metrics,
		Config:     cfg,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	frames := make([]*sim.FrameStats, len(result.Stats))
	for i := range result.Stats {
		frames[i] = &result.Stats[i]
	}
	if err := writeCSV(filepath.Join(runDir, framesFile), &frames); err != nil {
		return "", fmt.Errorf("write frames: %w", err)
	}

	rows := ParticleRows(ps)
	if err := writeCSV(filepath.Join(runDir, particlesFile), &rows); err != nil {
		return "", fmt.Errorf("write particles: %w", err)
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.UnmarshalFile(f, out)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]sim.FrameStats, error) {
	var rows []*sim.FrameStats
	if err := readCSV(filepath.Join(s.baseDir, runID, framesFile), &rows); err != nil {
		return nil, err
	}
	frames := make([]sim.FrameStats, len(rows))
	for i, r := range rows {
		frames[i] = *r
	}
	return frames, nil
}

func (s *Store) LoadParticles(runID string) ([]particle.Particle, error) {
	var rows []*ParticleRow
	if err := readCSV(filepath.Join(s.baseDir, runID, particlesFile), &rows); err != nil {
		return nil, err
	}
	ps := make([]particle.Particle, len(rows))
	for i, r := range rows {
		ps[i] = r.Particle()
	}
	return ps, nil
}
