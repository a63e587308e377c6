// Package filter designs and evaluates linear-phase FIR lowpass filters.
//
// The recorder runs on fixed Q31 coefficient tables. This package produces
// Kaiser-windowed reference designs of the same lengths so the tables can be
// checked and regenerated offline, and evaluates the magnitude response of
// any coefficient set.
package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-audio-recorder/internal/mathutil"
	"github.com/tphakala/simd/f64"
)

// ErrInvalidParams is returned when filter design parameters are out of range.
var ErrInvalidParams = errors.New("invalid filter parameters")

const (
	minFilterTaps = 3
	maxFilterTaps = 8191

	// Half the window length, and the 2 in 2π.
	windowNormalizationFactor = 2.0

	sincCenterTap     = 1.0
	sincPiMultiplier  = math.Pi
	sincZeroThreshold = 1e-10

	nyquistFreq = 0.5
)

// KaiserWindow generates a Kaiser window of the given length and β.
//
// Higher β lowers the sidelobes and widens the main lobe. The window is
// symmetric, w[i] = w[length-1-i], and peaks at 1.0 in the centre.
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)
	if length == 1 {
		window[0] = sincCenterTap
		return window
	}

	// w[n] = I₀(β·sqrt(1 - ((n-α)/α)²)) / I₀(β), α = (N-1)/2
	alpha := float64(length-1) / windowNormalizationFactor
	i0Beta := mathutil.BesselI0(beta)

	for n := range length {
		x := (float64(n) - alpha) / alpha
		window[n] = mathutil.BesselI0(beta*math.Sqrt(1.0-x*x)) / i0Beta
	}

	return window
}

// FilterParams holds parameters for lowpass design.
type FilterParams struct {
	// NumTaps is the filter length. Odd lengths give a centre tap.
	NumTaps int

	// CutoffFreq is normalized to the input rate, in (0, 0.5).
	CutoffFreq float64

	// Attenuation is the target stopband attenuation in dB.
	Attenuation float64

	// Gain is the DC gain of the result.
	Gain float64
}

// Validate checks the parameters and returns a wrapped ErrInvalidParams.
func (fp *FilterParams) Validate() error {
	switch {
	case fp.NumTaps < minFilterTaps:
		return fmt.Errorf("%w: %d taps (minimum %d)", ErrInvalidParams, fp.NumTaps, minFilterTaps)
	case fp.NumTaps > maxFilterTaps:
		return fmt.Errorf("%w: %d taps (maximum %d)", ErrInvalidParams, fp.NumTaps, maxFilterTaps)
	case fp.CutoffFreq <= 0 || fp.CutoffFreq >= nyquistFreq:
		return fmt.Errorf("%w: cutoff %f outside (0, 0.5)", ErrInvalidParams, fp.CutoffFreq)
	case fp.Attenuation < 0:
		return fmt.Errorf("%w: attenuation %f dB", ErrInvalidParams, fp.Attenuation)
	case fp.Gain <= 0:
		return fmt.Errorf("%w: gain %f", ErrInvalidParams, fp.Gain)
	}
	return nil
}

// DesignLowPassFilter designs a Kaiser-windowed sinc lowpass filter.
//
// β is derived from the attenuation target and the result is scaled so its
// coefficients sum to params.Gain. The impulse response is symmetric.
func DesignLowPassFilter(params FilterParams) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	beta := mathutil.KaiserBeta(params.Attenuation)
	window := KaiserWindow(params.NumTaps, beta)

	filter := make([]float64, params.NumTaps)
	center := float64(params.NumTaps-1) / windowNormalizationFactor

	for n := range params.NumTaps {
		x := float64(n) - center

		// sin(2πfc·x) / (πx), with limit 2fc at x = 0
		var sincValue float64
		if math.Abs(x) < sincZeroThreshold {
			sincValue = windowNormalizationFactor * params.CutoffFreq
		} else {
			arg := windowNormalizationFactor * sincPiMultiplier * params.CutoffFreq * x
			sincValue = math.Sin(arg) / (sincPiMultiplier * x)
		}

		filter[n] = sincValue * window[n]
	}

	if sum := f64.Sum(filter); math.Abs(sum) > sincZeroThreshold {
		f64.Scale(filter, filter, params.Gain/sum)
	}

	return filter, nil
}

// ResponseAt returns the linear magnitude of coeffs at one normalized
// frequency. Frequencies above 0.5 alias as they would after sampling.
func ResponseAt(coeffs []float64, freq float64) float64 {
	return math.Hypot(dtft(coeffs, freq))
}

// dtft computes H(e^jω) = Σ h[n]·e^(-jωn) at ω = 2π·freq.
func dtft(coeffs []float64, freq float64) (re, im float64) {
	omega := windowNormalizationFactor * sincPiMultiplier * freq
	for n, h := range coeffs {
		sin, cos := math.Sincos(omega * float64(n))
		re += h * cos
		im -= h * sin
	}
	return re, im
}

// MagnitudeDB converts linear magnitude to decibels, clipping at -200 dB.
func MagnitudeDB(magnitude float64) float64 {
	const (
		minMagnitude = 1e-10
		dbMultiplier = 20.0
	)

	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMultiplier * math.Log10(magnitude)
}
