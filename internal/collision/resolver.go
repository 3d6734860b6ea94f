// Package collision resolves particle overlaps by positional correction over
// the 3x3 neighbourhood of each grid cell.
package collision

import (
	"math"

	"github.com/san-kum/particlesim/internal/grid"
	"github.com/san-kum/particlesim/internal/particle"
)

// DefaultEpsilon is the squared distance below which a pair is treated as
// coincident and left for a later sub-step.
const DefaultEpsilon = 1e-4

var neighborOffsets = [9][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {0, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Resolver pushes overlapping particles apart along their connecting normal.
// No impulse is applied; repeated sub-steps relax the system toward a
// non-overlapping state.
type Resolver struct {
	// MinDistance is the uniform interaction diameter (2 x standard radius).
	// A pair interacts below max(MinDistance, r_i+r_j).
	MinDistance float32
	// Response scales each correction; 1 removes the whole overlap at once.
	Response float32
	Epsilon  float32
}

// NewResolver builds a resolver for a standard particle radius.
func NewResolver(standardRadius, response float32) *Resolver {
	return &Resolver{
		MinDistance: 2 * standardRadius,
		Response:    response,
		Epsilon:     DefaultEpsilon,
	}
}

// Resolve visits every interior cell and corrects each particle against the
// contents of its 3x3 neighbourhood. The outermost ring of cells is skipped
// as a centre so neighbour offsets never leave the grid. A pair seen from
// both cells is corrected twice. Returns the number of corrections applied.
func (r *Resolver) Resolve(ps []particle.Particle, g *grid.Grid) int {
	contacts := 0
	for cy := 1; cy < g.Rows()-1; cy++ {
		for cx := 1; cx < g.Cols()-1; cx++ {
			for _, i := range g.Cell(cx, cy).Indices() {
				for _, off := range neighborOffsets {
					for _, j := range g.Cell(cx+off[0], cy+off[1]).Indices() {
						if i == j {
							continue
						}
						if r.ResolvePair(&ps[i], &ps[j]) {
							contacts++
						}
					}
				}
			}
		}
	}
	return contacts
}

// ResolvePair separates a and b if they overlap. Each particle moves by a
// share of the overlap proportional to the other's radius, so the larger
// one is displaced less.
func (r *Resolver) ResolvePair(a, b *particle.Particle) bool {
	delta := a.Position.Sub(b.Position)
	distSq := delta.LengthSq()

	threshold := a.Radius + b.Radius
	if r.MinDistance > threshold {
		threshold = r.MinDistance
	}
	if distSq >= threshold*threshold || distSq < r.Epsilon {
		return false
	}

	dist := float32(math.Sqrt(float64(distSq)))
	normal := delta.Scale(1 / dist)
	overlap := (threshold - dist) * r.Response
	total := a.Radius + b.Radius

	a.Position = a.Position.Add(normal.Scale(overlap * b.Radius / total))
	b.Position = b.Position.Sub(normal.Scale(overlap * a.Radius / total))
	return true
}
