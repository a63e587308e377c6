// Package analysis measures the fixed decimation cascades: coefficient
// gains, the equivalent single-rate filter of each cascade, its frequency
// response, and tone levels after real decimation through a filter bank.
//
// Everything here runs offline in float64 and is meant for tooling and
// tests, never for the acquisition path.
package analysis

import (
	"slices"

	"github.com/tphakala/go-audio-recorder/internal/decimate"
	"github.com/tphakala/go-audio-recorder/internal/simdops"
)

// CoefficientsToFloat converts Q31 taps to float64.
func CoefficientsToFloat(taps []int32) []float64 {
	out := make([]float64, len(taps))
	for i, c := range taps {
		out[i] = float64(c)
	}
	simdops.Float64Ops().Scale(out, out, 1.0/q31One)
	return out
}

// DCGain returns the sum of the taps as a linear gain.
func DCGain(taps []int32) float64 {
	return simdops.Float64Ops().Sum(CoefficientsToFloat(taps))
}

// Convolve returns the full linear convolution of a and b, of length
// len(a)+len(b)-1. Long kernels go through an FFTConvolver.
func Convolve(a, b []float64) []float64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	if len(b) > len(a) {
		a, b = b, a
	}

	overlap := len(b) - 1
	padded := make([]float64, len(a)+2*overlap)
	copy(padded[overlap:], a)

	reversed := slices.Clone(b)
	slices.Reverse(reversed)

	out := make([]float64, len(a)+overlap)
	if len(b) >= minKernelForFFT {
		NewFFTConvolver(reversed).Convolve(out, padded)
		return out
	}
	simdops.Float64Ops().ConvolveValid(out, padded, reversed)
	return out
}

// upsample inserts stride-1 zeros between taps.
func upsample(taps []float64, stride int) []float64 {
	if stride == 1 {
		return taps
	}
	out := make([]float64, (len(taps)-1)*stride+1)
	for i, c := range taps {
		out[i*stride] = c
	}
	return out
}

// EquivalentFilter returns the single filter at the native rate whose output,
// decimated by the cascade factor, matches the cascade. Later stages run at
// lower rates, so their taps are spread by the product of the preceding
// factors before convolving.
func EquivalentFilter(spec decimate.CascadeSpec) []float64 {
	if len(spec.Stages) == 0 {
		return nil
	}

	h := CoefficientsToFloat(spec.Stages[0].Taps)
	stride := spec.Stages[0].Factor
	for _, s := range spec.Stages[1:] {
		h = Convolve(h, upsample(CoefficientsToFloat(s.Taps), stride))
		stride *= s.Factor
	}
	return h
}

// ReferenceDecimate runs input through the cascade in floating point with the
// same windowing as the fixed-point stages: output i of a stage weights
// history and input so that tap numTaps-1 meets input sample i*factor. History
// starts at zero.
func ReferenceDecimate[F simdops.Float](spec decimate.CascadeSpec, input []F) []F {
	ops := simdops.For[F]()
	x := input
	for _, s := range spec.Stages {
		coeffs := make([]F, len(s.Taps))
		for i, c := range CoefficientsToFloat(s.Taps) {
			coeffs[i] = F(c)
		}

		state := make([]F, len(coeffs)-1+len(x))
		copy(state[len(coeffs)-1:], x)

		out := make([]F, len(x)/s.Factor)
		for i := range out {
			start := i * s.Factor
			out[i] = ops.DotProductUnsafe(state[start:start+len(coeffs)], coeffs)
		}
		x = out
	}
	return x
}
