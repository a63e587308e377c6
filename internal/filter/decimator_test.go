package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-recorder/internal/testutil"
)

const (
	testDecimatorAtten = 60.0
	nyquistDBMin       = -7.5
	nyquistDBMax       = -4.5
)

func TestDecimatorParams(t *testing.T) {
	tests := []struct {
		name       string
		factor     int
		wantCutoff float64
		wantErr    bool
	}{
		{"factor_2", 2, 0.25, false},
		{"factor_3", 3, 1.0 / 6, false},
		{"factor_1", 1, 0, true},
		{"factor_0", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := DecimatorParams(33, tt.factor, testDecimatorAtten, testGainUnity)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantCutoff, params.CutoffFreq, defaultTolerance)
			assert.Equal(t, 33, params.NumTaps)
			assert.NoError(t, params.Validate())
		})
	}
}

func TestDesignDecimator(t *testing.T) {
	tests := []struct {
		name    string
		numTaps int
		factor  int
		gain    float64
	}{
		{"33_taps_by_2", 33, 2, testGainUnity},
		{"47_taps_by_3", 47, 3, testGainUnity},
		{"17_taps_by_2_headroom", 17, 2, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coeffs, err := DesignDecimator(tt.numTaps, tt.factor, testDecimatorAtten, tt.gain)
			require.NoError(t, err)

			require.Len(t, coeffs, tt.numTaps)
			testutil.AssertSymmetric(t, coeffs, defaultTolerance)
			testutil.AssertCenterIsMax(t, coeffs)
			testutil.AssertDCGain(t, coeffs, tt.gain, defaultTolerance)

			nyquist := 0.5 / float64(tt.factor)
			db := MagnitudeDB(ResponseAt(coeffs, nyquist) / tt.gain)
			testutil.AssertInRange(t, db, nyquistDBMin, nyquistDBMax)
		})
	}
}

func TestDesignDecimator_InvalidLength(t *testing.T) {
	_, err := DesignDecimator(1, 2, testDecimatorAtten, testGainUnity)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestQuantizeQ31(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int32
	}{
		{"zero", 0, 0},
		{"half", 0.5, 1 << 30},
		{"minus_half", -0.5, -1 << 30},
		{"one_lsb", 1.0 / q31Scale, 1},
		{"rounds_down", 0.4 / q31Scale, 0},
		{"rounds_up", 0.6 / q31Scale, 1},
		{"one_saturates", 1.0, math.MaxInt32},
		{"minus_one", -1.0, math.MinInt32},
		{"large_saturates", 2.0, math.MaxInt32},
		{"large_negative_saturates", -3.0, math.MinInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuantizeQ31([]float64{tt.in})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestQuantizeQ31_Design(t *testing.T) {
	coeffs, err := DesignDecimator(47, 3, testDecimatorAtten, testGainUnity)
	require.NoError(t, err)

	q := QuantizeQ31(coeffs)
	require.Len(t, q, len(coeffs))
	testutil.AssertSymmetric(t, q, 1)
	testutil.AssertCenterIsMax(t, q)

	var sum int64
	for _, c := range q {
		sum += int64(c)
	}
	assert.InDelta(t, testGainUnity, float64(sum)/q31Scale, float64(len(q))/q31Scale)
}

func BenchmarkDesignDecimator(b *testing.B) {
	for b.Loop() {
		_, _ = DesignDecimator(47, 3, testDecimatorAtten, testGainUnity)
	}
}
