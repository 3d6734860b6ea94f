package storage

import (
	"encoding/json"
	"os"

	"github.com/san-kum/particlesim/internal/sim"
)

type ExportData struct {
	Run       RunMetadata      `json:"run"`
	Frames    []sim.FrameStats `json:"frames"`
	Particles []*ParticleRow   `json:"particles"`
}

// ExportJSON writes a stored run as a single JSON document.
func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}
	ps, err := s.LoadParticles(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:       *meta,
		Frames:    frames,
		Particles: ParticleRows(ps),
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
