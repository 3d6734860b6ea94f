package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "attract", cfg.Preset)
	assert.Equal(t, DefaultSubSteps, cfg.Physics.SubSteps)
	assert.Equal(t, "rect", cfg.World.Boundary)
	require.NoError(t, cfg.Validate())
}

func TestSimConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Physics.Gravity = Point{X: 1, Y: 2}
	cfg.World.Boundary = "circle"

	sc := cfg.SimConfig()

	assert.Equal(t, sim.BoundaryCircle, sc.Boundary)
	assert.Equal(t, dynamo.V(1, 2), sc.Gravity)
	assert.Equal(t, dynamo.V(400, 300), sc.AttractionPoint)
	assert.Equal(t, cfg.Physics.StandardRadius, sc.StandardRadius)
	assert.Equal(t, uint16(10), sc.EffectiveCellSize())
}

func TestSimConfigCellCoversSpawnedRadius(t *testing.T) {
	cfg := GetPreset("fountain")
	require.NotNil(t, cfg)

	sc := cfg.SimConfig()
	assert.Equal(t, uint16(14), sc.EffectiveCellSize())
	require.NoError(t, sc.Validate())

	cfg.Physics.CellSize = 20
	assert.Equal(t, uint16(20), cfg.SimConfig().EffectiveCellSize())
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("bounce")
	require.NotNil(t, cfg)
	assert.Equal(t, float32(0.8), cfg.World.Restitution)

	cfg.World.Restitution = 0
	assert.Equal(t, float32(0.8), Presets["bounce"].World.Restitution, "preset must not be mutated through a copy")
}

func TestGetPreset_NotFound(t *testing.T) {
	assert.Nil(t, GetPreset("nonexistent"))
}

func TestListPresets(t *testing.T) {
	assert.Equal(t, []string{"attract", "bounce", "box", "disk", "fountain"}, ListPresets())
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			assert.Equal(t, name, cfg.Preset)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sub steps", func(c *Config) { c.Physics.SubSteps = 0 }},
		{"bad boundary", func(c *Config) { c.World.Boundary = "triangle" }},
		{"negative spawn", func(c *Config) { c.Spawn.PerFrame = -1 }},
		{"zero interval", func(c *Config) { c.Spawn.Interval = 0 }},
		{"zero spawn radius", func(c *Config) { c.Spawn.Radius = 0 }},
		{"jitter too large", func(c *Config) { c.Spawn.RadiusJitter = c.Spawn.Radius }},
		{"negative frames", func(c *Config) { c.Run.Frames = -1 }},
		{"nan drag", func(c *Config) { c.Physics.Drag = float32(math.NaN()) }},
		{"nan update rate", func(c *Config) { c.Physics.UpdateRate = math.NaN() }},
		{"nan jitter", func(c *Config) { c.Spawn.RadiusJitter = float32(math.NaN()) }},
		{"cell below standard diameter", func(c *Config) { c.Physics.CellSize = 6 }},
		{"cell below spawned diameter", func(c *Config) { c.Spawn.RadiusJitter = 2; c.Physics.CellSize = 12 }},
		{"thermostat without target", func(c *Config) { c.Thermostat.Enabled = true; c.Thermostat.Target = 0 }},
		{"thermostat drag above one", func(c *Config) { c.Thermostat.Enabled = true; c.Thermostat.MinDrag = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), dynamo.ErrParameterBounds)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	cfg := GetPreset("fountain")
	cfg.Run.Seed = 99

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)

	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("physics:\n  sub_steps: 3\nworld:\n  boundary: circle\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Physics.SubSteps)
	assert.Equal(t, "circle", cfg.World.Boundary)
	assert.Equal(t, DefaultUpdateRate, cfg.Physics.UpdateRate)
	assert.Equal(t, float32(DefaultWidth), cfg.World.Width)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("physics: [unclosed"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}
