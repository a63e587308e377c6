package filter

import (
	"fmt"
	"math"
)

// q31Scale is the value of 1.0 in Q31.
const q31Scale = 1 << 31

// DecimatorParams returns lowpass parameters for an anti-aliasing stage of
// numTaps taps ahead of a decimation by factor. The cutoff sits at the output
// Nyquist frequency, so the response there is about -6 dB.
func DecimatorParams(numTaps, factor int, attenuation, gain float64) (FilterParams, error) {
	if factor < 2 {
		return FilterParams{}, fmt.Errorf("%w: decimation factor %d", ErrInvalidParams, factor)
	}
	return FilterParams{
		NumTaps:     numTaps,
		CutoffFreq:  nyquistFreq / float64(factor),
		Attenuation: attenuation,
		Gain:        gain,
	}, nil
}

// DesignDecimator designs a Kaiser reference filter for one decimation stage.
func DesignDecimator(numTaps, factor int, attenuation, gain float64) ([]float64, error) {
	params, err := DecimatorParams(numTaps, factor, attenuation, gain)
	if err != nil {
		return nil, err
	}
	return DesignLowPassFilter(params)
}

// QuantizeQ31 rounds coefficients to Q31. Values outside [-1, 1) saturate.
func QuantizeQ31(coeffs []float64) []int32 {
	out := make([]int32, len(coeffs))
	for i, c := range coeffs {
		v := math.Round(c * q31Scale)
		switch {
		case v >= math.MaxInt32:
			out[i] = math.MaxInt32
		case v <= math.MinInt32:
			out[i] = math.MinInt32
		default:
			out[i] = int32(v)
		}
	}
	return out
}
