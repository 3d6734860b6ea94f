package metrics

import (
	"sort"

	"github.com/san-kum/particlesim/internal/particle"
)

// Overlap reports the deepest penetration between any two particle discs,
// averaged over frames. Pairs are found with a sweep along x.
type Overlap struct {
	name    string
	order   []int
	sum     float64
	samples int
}

func NewOverlap() *Overlap {
	return &Overlap{name: "overlap"}
}

func (o *Overlap) Name() string { return o.name }

func (o *Overlap) Observe(ps []particle.Particle, dt float32, t float64) {
	o.sum += float64(MaxPenetration(ps, &o.order))
	o.samples++
}

func (o *Overlap) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return o.sum / float64(o.samples)
}

func (o *Overlap) Reset() {
	o.sum = 0
	o.samples = 0
}

// MaxPenetration returns max(r_i + r_j - |p_i - p_j|) over overlapping
// pairs, or 0. scratch is reused between calls when non-nil.
func MaxPenetration(ps []particle.Particle, scratch *[]int) float32 {
	var order []int
	if scratch != nil {
		order = (*scratch)[:0]
	}
	var maxR float32
	for i := range ps {
		order = append(order, i)
		if ps[i].Radius > maxR {
			maxR = ps[i].Radius
		}
	}
	if scratch != nil {
		*scratch = order
	}
	sort.Slice(order, func(a, b int) bool {
		return ps[order[a]].Position.X < ps[order[b]].Position.X
	})

	var deepest float32
	for a := 0; a < len(order); a++ {
		pa := &ps[order[a]]
		for b := a + 1; b < len(order); b++ {
			pb := &ps[order[b]]
			if pb.Position.X-pa.Position.X > pa.Radius+maxR {
				break
			}
			sum := pa.Radius + pb.Radius
			d := pa.Position.Sub(pb.Position)
			if distSq := d.LengthSq(); distSq < sum*sum {
				if pen := sum - d.Length(); pen > deepest {
					deepest = pen
				}
			}
		}
	}
	return deepest
}
