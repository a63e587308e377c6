// Package testutil provides reusable test helpers for the recorder packages.
package testutil

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	GainTolerance    = 1e-2
	DBTolerance      = 0.5
)

// Block geometry used throughout the tests, matching the hardware.
const (
	BlockSamples = pcm.NativeBlockSamples
	BlockBytes   = BlockSamples * bytesPer24
	RingCapacity = 16
)

const (
	bytesPer24  = 3
	fullScale24 = 1<<23 - 1
)

// RandomBlock returns n little-endian 24-bit samples of reproducible noise.
func RandomBlock(n int, seed uint64) []byte {
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	b := make([]byte, n*bytesPer24)
	for i := range b {
		b[i] = byte(rng.UintN(256))
	}
	return b
}

// SineBlock returns n little-endian 24-bit samples of a sine at freq Hz
// sampled at rate Hz. amplitude is relative to full scale; startSample lets
// consecutive blocks continue the same waveform.
func SineBlock(n int, freq, rate, amplitude float64, startSample int) []byte {
	values := SineValues(n, freq, rate, amplitude, startSample)
	b := make([]byte, n*bytesPer24)
	for i, v := range values {
		b[i*bytesPer24] = byte(v)
		b[i*bytesPer24+1] = byte(v >> 8)
		b[i*bytesPer24+2] = byte(v >> 16)
	}
	return b
}

// SineValues returns the integer 24-bit sample values used by SineBlock.
func SineValues(n int, freq, rate, amplitude float64, startSample int) []int {
	out := make([]int, n)
	for i := range out {
		t := float64(startSample+i) / rate
		out[i] = int(math.Round(amplitude * fullScale24 * math.Sin(2*math.Pi*freq*t)))
	}
	return out
}

// BigEndian converts a little-endian 24-bit block to the wire order the
// converter delivers, so it can be fed to a ring producer.
func BigEndian(le []byte) []byte {
	be := make([]byte, len(le))
	pcm.SwapEndian24(be, le)
	return be
}

// AssertSymmetric verifies that a slice is symmetric (s[i] == s[n-1-i])
// within tolerance.
func AssertSymmetric[T int32 | float64](t *testing.T, s []T, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	n := len(s)
	for i := 0; i < n/2; i++ {
		j := n - 1 - i
		if !assert.InDelta(t, float64(s[i]), float64(s[j]), tolerance,
			"slice not symmetric at i=%d: s[%d]=%v != s[%d]=%v", i, i, s[i], j, s[j]) {
			return false
		}
	}
	return true
}

// AssertCenterIsMax verifies that the center element is the largest.
func AssertCenterIsMax[T int32 | float64](t *testing.T, s []T, msgAndArgs ...any) bool {
	t.Helper()
	if len(s) == 0 {
		return assert.Fail(t, "empty slice", msgAndArgs...)
	}
	centerIdx := len(s) / 2
	centerValue := s[centerIdx]
	for i, v := range s {
		if v > centerValue {
			return assert.Fail(t, "center is not max",
				"s[%d]=%v > center s[%d]=%v", i, v, centerIdx, centerValue)
		}
	}
	return true
}

// AssertDCGain verifies that the sum of coefficients equals the expected DC gain.
func AssertDCGain(t *testing.T, coeffs []float64, expectedGain, tolerance float64) bool {
	t.Helper()
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	return assert.InDelta(t, expectedGain, sum, tolerance,
		"DC gain = %f, want %f", sum, expectedGain)
}

// AssertOddLength verifies that a slice has an odd length.
func AssertOddLength[T int32 | float64](t *testing.T, s []T, msgAndArgs ...any) bool {
	t.Helper()
	return assert.Equal(t, 1, len(s)%2, "slice length %d is not odd", len(s))
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	if value < minVal || value > maxVal {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}
