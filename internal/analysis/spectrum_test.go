package analysis

import (
	"math"
	"testing"
)

func sine(n int, freq, rate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 5 + math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	return out
}

func TestPowerSpectrumLength(t *testing.T) {
	if ps := PowerSpectrum([]float64{1}); ps != nil {
		t.Errorf("expected nil for a single sample, got %v", ps)
	}
	ps := PowerSpectrum(sine(128, 4, 64))
	if len(ps) != 64 {
		t.Errorf("expected 64 bins, got %d", len(ps))
	}
	if ps[0] > 1e-9 {
		t.Errorf("expected mean removed from DC bin, got %v", ps[0])
	}
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"slow", 2},
		{"fast", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peak := DominantFrequency(sine(256, tt.freq, 64), 64)
			if math.Abs(peak.Frequency-tt.freq) > 0.25 {
				t.Errorf("expected %v Hz, got %v", tt.freq, peak.Frequency)
			}
			if math.Abs(peak.Period-1/tt.freq) > 0.01 {
				t.Errorf("expected period %v, got %v", 1/tt.freq, peak.Period)
			}
		})
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	flat := make([]float64, 32)
	for i := range flat {
		flat[i] = 3
	}
	if peak := DominantFrequency(flat, 60); peak != (Peak{}) {
		t.Errorf("expected zero peak, got %+v", peak)
	}
}

func TestSettled(t *testing.T) {
	series := []float64{100, 50, 20, 10.05, 10, 9.98, 10.01}
	if !Settled(series, 4, 0.01) {
		t.Error("expected tail to be settled")
	}
	if Settled(series, 6, 0.01) {
		t.Error("expected wider window to include the transient")
	}
	if Settled(series, 10, 0.01) {
		t.Error("expected too-short series to be unsettled")
	}
}
