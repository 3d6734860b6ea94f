// Package analysis inspects recorded per-frame series of a run.
//
//   - [PowerSpectrum]: FFT magnitude of a mean-removed series
//   - [DominantFrequency]: strongest oscillation, for example of kinetic
//     energy in a bouncing pile
//   - [Settled]: whether a series has come to rest
package analysis
