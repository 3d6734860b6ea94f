package export

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/particlesim/internal/constraint"
	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/particle"
	"github.com/san-kum/particlesim/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	assert.Empty(t, CanvasToSVG(nil, 4))

	c := viz.NewCanvas(2, 1)
	c.SetColor(0, 0, dynamo.RGB8{R: 255})
	c.SetColor(3, 3, dynamo.RGB8{B: 255})

	svg := CanvasToSVG(c, 4)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Equal(t, 2, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, `fill="#ff0000"`)
	assert.Contains(t, svg, `fill="#0000ff"`)
	assert.Contains(t, svg, `width="16" height="16"`)
}

func TestParticlesToSVG(t *testing.T) {
	a := particle.New(dynamo.V(10, 20), 5)
	a.Color = dynamo.RGB8{G: 255}
	b := particle.New(dynamo.V(30, 40), 2)
	bad := particle.New(dynamo.V(0, 0), 1)
	bad.Position.X = float32(math.NaN())

	svg := ParticlesToSVG([]particle.Particle{a, b, bad}, 100, 50, constraint.NewRect(100, 50, 5), 2)
	assert.Equal(t, 2, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, `cx="20.00" cy="40.00" r="10.00" fill="#00ff00"`)
	assert.Contains(t, svg, `<rect x="10.0" y="10.0" width="180.0" height="80.0"`)

	svg = ParticlesToSVG(nil, 100, 100, constraint.Circle{Center: dynamo.V(50, 50), Radius: 40}, 1)
	assert.Contains(t, svg, `<circle cx="50.0" cy="50.0" r="40.0" fill="none"`)
}

func TestSeriesToSVG(t *testing.T) {
	assert.Empty(t, SeriesToSVG([]float64{1}, 100, 50, "#fff"))

	svg := SeriesToSVG([]float64{0, 1, 2}, 100, 120, "#00ff88")
	assert.Contains(t, svg, `stroke="#00ff88"`)
	assert.Contains(t, svg, "M0.0,110.0 L50.0,60.0 L100.0,10.0")
}

func TestWriteFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFile("-", "<svg/>", &buf))
	assert.Equal(t, "<svg/>", buf.String())

	path := filepath.Join(t.TempDir(), "out.svg")
	require.NoError(t, WriteFile(path, "<svg/>", nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))
}
