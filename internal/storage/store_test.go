package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/particle"
	"github.com/san-kum/particlesim/internal/sim"
)

func sampleRun() (*sim.Result, []particle.Particle) {
	result := &sim.Result{
		Frames: 2,
		Times:  []float64{1.0 / 60, 2.0 / 60},
		Stats: []sim.FrameStats{
			{Frame: 1, Time: 1.0 / 60, Particles: 2, Contacts: 3, KineticEnergy: 12.5},
			{Frame: 2, Time: 2.0 / 60, Particles: 2, Dropped: 1, Excluded: 4, KineticEnergy: 10},
		},
		Metrics: map[string]float64{"energy": 11.25},
	}
	a := particle.New(dynamo.V(100, 200), 5)
	a.PositionLast = dynamo.V(99.5, 200.25)
	a.Color = dynamo.RGB8{R: 255, G: 128, B: 0}
	b := particle.New(dynamo.V(300, 50), 3.5)
	return result, []particle.Particle{a, b}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	cfg := config.GetPreset("box")
	result, ps := sampleRun()

	runID, err := st.Save(cfg, result, ps)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "box_"), "run id %q", runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, 2, meta.Frames)
	assert.Equal(t, 2, meta.Particles)
	assert.Equal(t, 11.25, meta.Metrics["energy"])
	require.NotNil(t, meta.Config)
	assert.Equal(t, cfg.Physics.Gravity, meta.Config.Physics.Gravity)

	frames, err := st.LoadFrames(runID)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, 3, frames[0].Contacts)
	assert.Equal(t, 4, frames[1].Excluded)
	assert.InDelta(t, 10, frames[1].KineticEnergy, 1e-9)
	assert.InDelta(t, 2.0/60, frames[1].Time, 1e-9)

	loaded, err := st.LoadParticles(runID)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, ps[0], loaded[0])
	assert.Equal(t, ps[1], loaded[1])
}

func TestStoreListNewestFirst(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	result, ps := sampleRun()

	first, err := st.Save(config.GetPreset("box"), result, ps)
	require.NoError(t, err)
	second, err := st.Save(config.GetPreset("disk"), result, ps)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// a stray file and an unreadable dir are skipped
	require.NoError(t, os.WriteFile(filepath.Join(st.baseDir, "notes.txt"), nil, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(st.baseDir, "broken"), 0755))

	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.False(t, runs[0].Timestamp.Before(runs[1].Timestamp))
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreLoadUnknownRun(t *testing.T) {
	st := New(t.TempDir())

	_, err := st.Load("nope")
	assert.Error(t, err)
	_, err = st.LoadFrames("nope")
	assert.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	result, ps := sampleRun()
	runID, err := st.Save(config.DefaultConfig(), result, ps)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, st.ExportJSON(runID, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var exported ExportData
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Equal(t, runID, exported.Run.ID)
	assert.Len(t, exported.Frames, 2)
	require.Len(t, exported.Particles, 2)
	assert.Equal(t, float32(3.5), exported.Particles[1].Radius)
}
