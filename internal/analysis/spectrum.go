package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the first half of the real FFT of
// series after removing its mean. The length of the result is len(series)/2.
func PowerSpectrum(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	centred := make([]float64, len(series))
	for i, v := range series {
		centred[i] = v - mean
	}

	spectrum := fft.FFTReal(centred)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// Peak is the strongest non-DC bin of a spectrum.
type Peak struct {
	Frequency float64
	Period    float64
	Power     float64
}

// DominantFrequency finds the strongest oscillation in series sampled at
// sampleRate Hz. A flat series returns a zero Peak.
func DominantFrequency(series []float64, sampleRate float64) Peak {
	ps := PowerSpectrum(series)
	best := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > ps[best] || best == 0 {
			best = i
		}
	}
	if best == 0 || ps[best] < 1e-9 {
		return Peak{}
	}
	freq := float64(best) * sampleRate / float64(len(series))
	return Peak{Frequency: freq, Period: 1 / freq, Power: ps[best]}
}

// Settled reports whether the last window samples of series stay within
// tol of their mean, relative to the mean's magnitude.
func Settled(series []float64, window int, tol float64) bool {
	if window <= 0 || len(series) < window {
		return false
	}
	tail := series[len(series)-window:]
	mean := 0.0
	for _, v := range tail {
		mean += v
	}
	mean /= float64(window)
	scale := math.Max(math.Abs(mean), 1)
	for _, v := range tail {
		if math.Abs(v-mean) > tol*scale {
			return false
		}
	}
	return true
}
