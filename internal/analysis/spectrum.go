package analysis

import (
	"cmp"
	"math"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/tphakala/go-audio-recorder/internal/filter"
	"github.com/tphakala/go-audio-recorder/internal/simdops"
)

// hann returns signal multiplied by a Hann window, along with the window's
// sum and sum of squares.
func hann(signal []float64) (windowed []float64, sum, sumSq float64) {
	ops := simdops.Float64Ops()

	w := make([]float64, len(signal))
	for i := range w {
		w[i] = 1
	}
	window.Hann(w)

	windowed = make([]float64, len(signal))
	for i, v := range signal {
		windowed[i] = v * w[i]
	}
	return windowed, ops.Sum(w), ops.DotProductUnsafe(w, w)
}

// Spectrum returns the single-sided amplitude spectrum of a Hann-windowed
// signal. A full-scale sine centred on a bin reads close to its amplitude.
func Spectrum(signal []float64, sampleRate float64) (freqs, amplitude []float64) {
	n := len(signal)
	if n == 0 {
		return nil, nil
	}

	windowed, sum, _ := hann(signal)
	coeffs := fourier.NewFFT(n).Coefficients(nil, windowed)

	freqs = make([]float64, len(coeffs))
	amplitude = make([]float64, len(coeffs))
	for k, c := range coeffs {
		freqs[k] = float64(k) * sampleRate / float64(n)
		amplitude[k] = 2 * cmplx.Abs(c) / sum
	}
	return freqs, amplitude
}

// Peak is a local maximum of an amplitude spectrum.
type Peak struct {
	Frequency float64
	Amplitude float64
	LevelDB   float64
}

// Peaks returns up to n local maxima of amplitude, strongest first. DC and
// the last bin count as maxima when they exceed their single neighbour.
func Peaks(freqs, amplitude []float64, n int) []Peak {
	if n <= 0 {
		return nil
	}

	var peaks []Peak
	for k, a := range amplitude {
		if k > 0 && a <= amplitude[k-1] {
			continue
		}
		if k < len(amplitude)-1 && a < amplitude[k+1] {
			continue
		}
		peaks = append(peaks, Peak{Frequency: freqs[k], Amplitude: a, LevelDB: filter.MagnitudeDB(a)})
	}

	slices.SortStableFunc(peaks, func(a, b Peak) int { return cmp.Compare(b.Amplitude, a.Amplitude) })
	return peaks[:min(n, len(peaks))]
}

// ToneAmplitude estimates the amplitude of a sine at freq by collecting the
// energy of the Hann main lobe around it, which removes the scalloping loss
// of off-bin tones. The tone should sit a few bins away from DC and Nyquist.
func ToneAmplitude(signal []float64, sampleRate, freq float64) float64 {
	n := len(signal)
	if n == 0 {
		return 0
	}

	windowed, _, sumSq := hann(signal)
	if sumSq == 0 {
		return 0
	}
	coeffs := fourier.NewFFT(n).Coefficients(nil, windowed)

	center := int(math.Round(freq * float64(n) / sampleRate))
	lo := max(center-toneLobeBins, 0)
	hi := min(center+toneLobeBins, len(coeffs)-1)

	var energy float64
	for k := lo; k <= hi; k++ {
		a := cmplx.Abs(coeffs[k])
		energy += a * a
	}

	// Parseval: a sine of amplitude A puts N·A²·Σw²/4 into the positive lobe.
	return math.Sqrt(4 * energy / (float64(n) * sumSq))
}

// ToneLevelDB is ToneAmplitude in dB relative to full scale.
func ToneLevelDB(signal []float64, sampleRate, freq float64) float64 {
	return filter.MagnitudeDB(ToneAmplitude(signal, sampleRate, freq))
}

// AliasFrequency returns where a tone at freq lands after sampling at
// sampleRate, in [0, sampleRate/2].
func AliasFrequency(freq, sampleRate float64) float64 {
	return math.Abs(freq - sampleRate*math.Round(freq/sampleRate))
}
