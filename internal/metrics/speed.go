package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/particlesim/internal/particle"
)

// SpeedSummary describes the speed distribution of one frame in world
// units per second.
type SpeedSummary struct {
	Mean   float64
	StdDev float64
	Median float64
	P95    float64
	Max    float64
}

// Speeds summarises particle speeds. buf is reused when large enough.
func Speeds(ps []particle.Particle, dt float32, buf []float64) (SpeedSummary, []float64) {
	buf = buf[:0]
	for i := range ps {
		buf = append(buf, float64(ps[i].Speed()/dt))
	}
	if len(buf) == 0 {
		return SpeedSummary{}, buf
	}
	sort.Float64s(buf)

	s := SpeedSummary{
		Median: stat.Quantile(0.5, stat.Empirical, buf, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, buf, nil),
		Max:    buf[len(buf)-1],
	}
	if len(buf) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(buf, nil)
	} else {
		s.Mean = buf[0]
	}
	return s, buf
}

// SpeedSpread reports the standard deviation of particle speed in the most
// recent frame. A settled pile tends toward zero.
type SpeedSpread struct {
	name string
	buf  []float64
	last SpeedSummary
}

func NewSpeedSpread() *SpeedSpread {
	return &SpeedSpread{name: "speed_spread"}
}

func (s *SpeedSpread) Name() string { return s.name }

func (s *SpeedSpread) Observe(ps []particle.Particle, dt float32, t float64) {
	s.last, s.buf = Speeds(ps, dt, s.buf)
}

func (s *SpeedSpread) Value() float64 { return s.last.StdDev }

func (s *SpeedSpread) Summary() SpeedSummary { return s.last }

func (s *SpeedSpread) Reset() { s.last = SpeedSummary{} }
