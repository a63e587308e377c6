package decimate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-recorder/internal/pcm"
	"github.com/tphakala/go-audio-recorder/internal/testutil"
)

var allDepths = []pcm.BitDepth{pcm.Bits16, pcm.Bits24}

func newTestBank(t testing.TB) *Bank {
	t.Helper()
	b, err := NewBank(testutil.BlockSamples)
	require.NoError(t, err)
	return b
}

// downsample runs one block and returns a copy of the output.
func downsample(t testing.TB, b *Bank, raw []byte, depth pcm.BitDepth) []byte {
	t.Helper()
	dst := make([]byte, len(raw))
	n, err := b.Downsample(raw, dst, depth)
	require.NoError(t, err)
	return dst[:n]
}

func TestNewBank(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		wantErr bool
	}{
		{"default block", testutil.BlockSamples, false},
		{"smallest block", 48, false},
		{"zero", 0, true},
		{"negative", -48, true},
		{"not a multiple of three", 64, true},
		{"not a multiple of sixteen", 24, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBank(tt.samples)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidBlockLength)
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, pcm.NativeRate, b.Target())
			assert.Equal(t, tt.samples, b.BlockSamples())
		})
	}
}

func TestNewBankRejectsBadTables(t *testing.T) {
	t.Run("duplicate rate", func(t *testing.T) {
		spec := CascadeSpec{Rate: pcm.Rate192kHz, Stages: []StageSpec{{Taps: taps192k0, Factor: 2}}}
		_, err := newBank([]CascadeSpec{spec, spec}, 48)
		require.ErrorIs(t, err, ErrInvalidCascade)
	})

	t.Run("invalid stage", func(t *testing.T) {
		spec := CascadeSpec{Rate: pcm.Rate192kHz, Stages: []StageSpec{{Taps: taps192k0}}}
		_, err := newBank([]CascadeSpec{spec}, 48)
		require.ErrorIs(t, err, ErrInvalidCascade)
	})
}

func TestBankRates(t *testing.T) {
	b := newTestBank(t)
	assert.Equal(t, []pcm.SampleRate{
		pcm.Rate384kHz, pcm.Rate192kHz, pcm.Rate96kHz, pcm.Rate48kHz,
		pcm.Rate32kHz, pcm.Rate24kHz, pcm.Rate16kHz,
	}, b.Rates())

	assert.Nil(t, b.Cascade(pcm.NativeRate))
	require.NotNil(t, b.Cascade(pcm.Rate32kHz))
	assert.Equal(t, 12, b.Cascade(pcm.Rate32kHz).Factor())
}

func TestBankZeroValue(t *testing.T) {
	var b Bank

	require.ErrorIs(t, b.SetTarget(pcm.Rate48kHz), ErrNotInitialized)

	n, err := b.Downsample(make([]byte, 48*3), make([]byte, 48*3), pcm.Bits24)
	require.ErrorIs(t, err, ErrNotInitialized)
	assert.Zero(t, n)

	assert.Empty(t, b.Rates())
	assert.NotPanics(t, b.Reset)
}

func TestBankOutputLength(t *testing.T) {
	b := newTestBank(t)
	raw := testutil.RandomBlock(testutil.BlockSamples, 1)

	for _, rate := range b.Rates() {
		for _, depth := range allDepths {
			t.Run(fmt.Sprintf("%s/%d", rate, depth), func(t *testing.T) {
				require.NoError(t, b.SetTarget(rate))
				want := testutil.BlockSamples / rate.DecimationFactor() * depth.BytesPerSample()

				assert.Equal(t, want, b.OutputLen(testutil.BlockSamples, depth))
				out := downsample(t, b, raw, depth)
				assert.Len(t, out, want, "%s at %d bits", rate, depth)
			})
		}
	}
}

func TestBankOutputLengthKnownValues(t *testing.T) {
	want := map[pcm.SampleRate]int{
		pcm.Rate384kHz: 8256,
		pcm.Rate192kHz: 4128,
		pcm.Rate96kHz:  2064,
		pcm.Rate48kHz:  1032,
		pcm.Rate32kHz:  688,
		pcm.Rate24kHz:  516,
		pcm.Rate16kHz:  344,
	}

	b := newTestBank(t)
	for rate, samples := range want {
		require.NoError(t, b.SetTarget(rate))
		assert.Equal(t, samples*2, b.OutputLen(testutil.BlockSamples, pcm.Bits16), "%s", rate)
		assert.Equal(t, samples*3, b.OutputLen(testutil.BlockSamples, pcm.Bits24), "%s", rate)
	}
}

func TestBankNativeIdentity(t *testing.T) {
	b := newTestBank(t)
	require.NoError(t, b.SetTarget(pcm.NativeRate))

	raw := testutil.RandomBlock(testutil.BlockSamples, 7)
	assert.Equal(t, raw, downsample(t, b, raw, pcm.Bits24))
}

func TestBankNativeTruncation(t *testing.T) {
	b := newTestBank(t)
	require.NoError(t, b.SetTarget(pcm.NativeRate))

	raw := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	assert.Equal(t, []byte{0x11, 0x22, 0x44, 0x55}, downsample(t, b, raw, pcm.Bits16))
}

func TestBankSetTarget(t *testing.T) {
	b := newTestBank(t)
	require.NoError(t, b.SetTarget(pcm.Rate48kHz))

	err := b.SetTarget(44100)
	require.ErrorIs(t, err, ErrUnsupportedRate)
	assert.Equal(t, pcm.Rate48kHz, b.Target(), "failed switch keeps selection")

	require.ErrorIs(t, b.SetTarget(0), ErrUnsupportedRate)
	require.NoError(t, b.SetTarget(pcm.NativeRate))
	assert.Equal(t, pcm.NativeRate, b.Target())
}

func TestBankSwitchResetsFilterMemory(t *testing.T) {
	blocks := [][]byte{
		testutil.RandomBlock(testutil.BlockSamples, 11),
		testutil.RandomBlock(testutil.BlockSamples, 12),
		testutil.RandomBlock(testutil.BlockSamples, 13),
	}

	switched := newTestBank(t)
	require.NoError(t, switched.SetTarget(pcm.Rate192kHz))
	downsample(t, switched, blocks[0], pcm.Bits24)
	require.NoError(t, switched.SetTarget(pcm.Rate16kHz))
	downsample(t, switched, blocks[1], pcm.Bits16)
	require.NoError(t, switched.SetTarget(pcm.Rate192kHz))
	got := downsample(t, switched, blocks[2], pcm.Bits24)

	fresh := newTestBank(t)
	require.NoError(t, fresh.SetTarget(pcm.Rate192kHz))
	want := downsample(t, fresh, blocks[2], pcm.Bits24)

	assert.Equal(t, want, got)
}

func TestBankResetSameTarget(t *testing.T) {
	raw := testutil.RandomBlock(testutil.BlockSamples, 21)

	b := newTestBank(t)
	require.NoError(t, b.SetTarget(pcm.Rate32kHz))
	first := downsample(t, b, raw, pcm.Bits24)
	second := downsample(t, b, raw, pcm.Bits24)
	assert.NotEqual(t, first, second, "second block sees the first as history")

	require.NoError(t, b.SetTarget(pcm.Rate32kHz))
	assert.Equal(t, first, downsample(t, b, raw, pcm.Bits24))

	downsample(t, b, raw, pcm.Bits24)
	b.Reset()
	assert.Equal(t, first, downsample(t, b, raw, pcm.Bits24))
}

func TestBankContinuity(t *testing.T) {
	raw := testutil.RandomBlock(testutil.BlockSamples, 31)
	half := len(raw) / 2

	for _, rate := range newTestBank(t).Rates() {
		t.Run(rate.String(), func(t *testing.T) {
			whole := newTestBank(t)
			require.NoError(t, whole.SetTarget(rate))
			want := downsample(t, whole, raw, pcm.Bits24)

			split := newTestBank(t)
			require.NoError(t, split.SetTarget(rate))
			got := downsample(t, split, raw[:half], pcm.Bits24)
			got = append(got, downsample(t, split, raw[half:], pcm.Bits24)...)

			assert.Equal(t, want, got)
		})
	}
}

func TestBankUnsupportedDepth(t *testing.T) {
	raw := testutil.RandomBlock(testutil.BlockSamples, 41)

	b := newTestBank(t)
	require.NoError(t, b.SetTarget(pcm.Rate48kHz))

	dst := make([]byte, len(raw))
	n, err := b.Downsample(raw, dst, 20)
	require.ErrorIs(t, err, ErrUnsupportedBitDepth)
	assert.Zero(t, n)

	// A rejected call must not advance the filters.
	fresh := newTestBank(t)
	require.NoError(t, fresh.SetTarget(pcm.Rate48kHz))
	assert.Equal(t, downsample(t, fresh, raw, pcm.Bits24), downsample(t, b, raw, pcm.Bits24))
}

func TestBankBufferErrors(t *testing.T) {
	b := newTestBank(t)
	require.NoError(t, b.SetTarget(pcm.Rate96kHz))

	t.Run("block too large", func(t *testing.T) {
		raw := make([]byte, (testutil.BlockSamples+48)*3)
		_, err := b.Downsample(raw, make([]byte, len(raw)), pcm.Bits24)
		require.ErrorIs(t, err, ErrBlockTooLarge)
	})

	t.Run("destination too small", func(t *testing.T) {
		raw := make([]byte, testutil.BlockBytes)
		need := b.OutputLen(testutil.BlockSamples, pcm.Bits16)
		_, err := b.Downsample(raw, make([]byte, need-1), pcm.Bits16)
		require.ErrorIs(t, err, ErrBufferTooSmall)

		n, err := b.Downsample(raw, make([]byte, need), pcm.Bits16)
		require.NoError(t, err)
		assert.Equal(t, need, n)
	})
}

func TestBankDCGain(t *testing.T) {
	// 0x200000 is a quarter of 24-bit full scale.
	raw := make([]byte, testutil.BlockBytes)
	for i := 0; i < len(raw); i += 3 {
		raw[i+2] = 0x20
	}
	const level = 0.25

	for _, spec := range Specs() {
		t.Run(spec.Rate.String(), func(t *testing.T) {
			b := newTestBank(t)
			require.NoError(t, b.SetTarget(spec.Rate))

			downsample(t, b, raw, pcm.Bits24)
			out := downsample(t, b, raw, pcm.Bits24)

			samples := make([]int, len(out)/3)
			_, err := pcm.DecodeLE(samples, out, pcm.Bits24)
			require.NoError(t, err)

			want := level
			for _, s := range spec.Stages {
				want *= dcGain(s.Taps)
			}
			got := float64(samples[len(samples)-1]) / (1 << 23)
			testutil.AssertRelativeError(t, want, got, 5e-3)
		})
	}
}

func TestBankStopband(t *testing.T) {
	const amplitude = 0.5

	for _, spec := range Specs() {
		t.Run(spec.Rate.String(), func(t *testing.T) {
			b := newTestBank(t)
			require.NoError(t, b.SetTarget(spec.Rate))

			// A tone above the output Nyquist frequency must be rejected.
			freq := 0.8 * float64(spec.Rate)
			native := float64(pcm.NativeRate)
			downsample(t, b, testutil.SineBlock(testutil.BlockSamples, freq, native, amplitude, 0), pcm.Bits24)
			out := downsample(t, b,
				testutil.SineBlock(testutil.BlockSamples, freq, native, amplitude, testutil.BlockSamples), pcm.Bits24)

			samples := make([]int, len(out)/3)
			_, err := pcm.DecodeLE(samples, out, pcm.Bits24)
			require.NoError(t, err)

			peak := 0
			for _, v := range samples {
				peak = max(peak, v, -v)
			}
			assert.Less(t, float64(peak)/(1<<23), amplitude*0.01, "%s passes %.0f Hz", spec.Rate, freq)
		})
	}
}

func BenchmarkDownsample(b *testing.B) {
	raw := testutil.RandomBlock(testutil.BlockSamples, 99)

	for _, rate := range []pcm.SampleRate{pcm.Rate192kHz, pcm.Rate48kHz, pcm.Rate16kHz} {
		b.Run(rate.String(), func(b *testing.B) {
			bank := newTestBank(b)
			require.NoError(b, bank.SetTarget(rate))
			dst := make([]byte, len(raw))

			b.SetBytes(int64(len(raw)))
			b.ReportAllocs()
			for b.Loop() {
				if _, err := bank.Downsample(raw, dst, pcm.Bits24); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
