package collision

import (
	"math"
	"testing"

	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/grid"
	"github.com/san-kum/particlesim/internal/particle"
)

func dist(a, b particle.Particle) float32 {
	return a.Position.Sub(b.Position).Length()
}

func TestResolvePairSeparatesSymmetrically(t *testing.T) {
	r := NewResolver(20, 1)
	a := particle.New(dynamo.V(100, 100), 10)
	b := particle.New(dynamo.V(108, 100), 10)
	before := dist(a, b)

	if !r.ResolvePair(&a, &b) {
		t.Fatal("expected overlapping pair to be resolved")
	}

	if d := dist(a, b); d <= before {
		t.Errorf("expected distance to grow from %f, got %f", before, d)
	}
	da, db := 100-a.Position.X, b.Position.X-108
	if da <= 0 || math.Abs(float64(da-db)) > 1e-4 {
		t.Errorf("expected symmetric positive shift, got %f and %f", da, db)
	}
	if a.Position.Y != 100 || b.Position.Y != 100 {
		t.Errorf("expected y unchanged, got %f and %f", a.Position.Y, b.Position.Y)
	}
}

func TestResolvePairMassWeighting(t *testing.T) {
	r := NewResolver(1, 1)
	small := particle.New(dynamo.V(0, 0), 5)
	large := particle.New(dynamo.V(10, 0), 15)

	r.ResolvePair(&small, &large)

	movedSmall := float32(math.Abs(float64(small.Position.X)))
	movedLarge := large.Position.X - 10
	if movedLarge >= movedSmall {
		t.Errorf("expected larger particle to move less: small %f, large %f", movedSmall, movedLarge)
	}
	// overlap 10 split 15:5
	if math.Abs(float64(movedSmall-7.5)) > 1e-4 || math.Abs(float64(movedLarge-2.5)) > 1e-4 {
		t.Errorf("expected shifts 7.5/2.5, got %f/%f", movedSmall, movedLarge)
	}
	if d := dist(small, large); math.Abs(float64(d-20)) > 1e-4 {
		t.Errorf("expected full separation to 20, got %f", d)
	}
}

func TestResolvePairThreshold(t *testing.T) {
	tests := []struct {
		name     string
		standard float32
		rA, rB   float32
		gap      float32
		resolved bool
	}{
		{"within standard diameter", 20, 10, 10, 30, true},
		{"beyond standard diameter", 20, 10, 10, 41, false},
		{"large radii exceed standard", 5, 30, 30, 50, true},
		{"touching exactly", 10, 10, 10, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.standard, 1)
			a := particle.New(dynamo.V(0, 0), tt.rA)
			b := particle.New(dynamo.V(tt.gap, 0), tt.rB)
			if got := r.ResolvePair(&a, &b); got != tt.resolved {
				t.Errorf("expected resolved=%v, got %v", tt.resolved, got)
			}
		})
	}
}

func TestResolvePairCoincidentSkipped(t *testing.T) {
	r := NewResolver(10, 1)
	a := particle.New(dynamo.V(50, 50), 10)
	b := particle.New(dynamo.V(50, 50), 10)

	if r.ResolvePair(&a, &b) {
		t.Error("expected coincident pair to be skipped")
	}
	if !a.Position.IsFinite() || !b.Position.IsFinite() {
		t.Error("coincident pair produced non-finite positions")
	}
}

func TestResolveUsesGridNeighbourhood(t *testing.T) {
	r := NewResolver(10, 1)
	g := grid.NewForWorld(200, 200, 20)
	ps := []particle.Particle{
		particle.New(dynamo.V(95, 100), 10),
		particle.New(dynamo.V(105, 100), 10),
		particle.New(dynamo.V(170, 170), 10),
	}
	for i := range ps {
		g.AddObject(ps[i].Position.X, ps[i].Position.Y, uint32(i))
	}
	before := dist(ps[0], ps[1])
	far := ps[2]

	contacts := r.Resolve(ps, g)

	if contacts == 0 {
		t.Error("expected at least one contact")
	}
	if d := dist(ps[0], ps[1]); d <= before {
		t.Errorf("expected neighbouring pair to separate, %f -> %f", before, d)
	}
	if ps[2] != far {
		t.Errorf("expected isolated particle untouched, got %v", ps[2].Position)
	}
}

func TestResolveSkipsParticlesOutsideGrid(t *testing.T) {
	r := NewResolver(10, 1)
	g := grid.NewForWorld(200, 200, 20)
	ps := []particle.Particle{
		particle.New(dynamo.V(100, 100), 10),
		particle.New(dynamo.V(105, 100), 10),
	}
	// only the first is inserted, as if the second were excluded at the border
	g.AddObject(ps[0].Position.X, ps[0].Position.Y, 0)

	if contacts := r.Resolve(ps, g); contacts != 0 {
		t.Errorf("expected no contacts with un-gridded partner, got %d", contacts)
	}
}

func BenchmarkResolve(b *testing.B) {
	r := NewResolver(5, 0.75)
	g := grid.NewForWorld(800, 600, 10)
	ps := make([]particle.Particle, 0, 3000)
	for i := 0; i < 3000; i++ {
		ps = append(ps, particle.New(dynamo.V(float32(20+(i*37)%760), float32(20+(i*53)%560)), 5))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Clear()
		for j := range ps {
			g.AddObject(ps[j].Position.X, ps[j].Position.Y, uint32(j))
		}
		r.Resolve(ps, g)
	}
}
