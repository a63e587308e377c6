package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-audio-recorder/internal/decimate"
	"github.com/tphakala/go-audio-recorder/internal/filter"
	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

// ErrInvalidTone is returned for tone parameters that cannot be measured.
var ErrInvalidTone = errors.New("invalid tone parameters")

// ToneMeasurement is the result of decimating a native-rate sine.
type ToneMeasurement struct {
	Rate            pcm.SampleRate
	Frequency       float64
	AliasFrequency  float64
	InputAmplitude  float64
	OutputAmplitude float64
	Gain            float64
	GainDB          float64

	// LevelDB is the output tone level relative to full scale.
	LevelDB float64

	// Output holds the decimated samples the tone was measured on, as
	// fractions of full scale.
	Output []float64
}

// MeasureTone synthesizes blocks native-rate blocks of a sine at freq and
// amplitude (fraction of full scale), decimates them to rate at 24 bits
// through a fresh filter bank, and measures the tone at its alias frequency
// in the output. The first block is discarded while the filters settle.
func MeasureTone(rate pcm.SampleRate, freq, amplitude float64, blocks int) (ToneMeasurement, error) {
	native := float64(pcm.NativeRate)
	switch {
	case blocks <= settleBlocks:
		return ToneMeasurement{}, fmt.Errorf("%w: need more than %d blocks, got %d", ErrInvalidTone, settleBlocks, blocks)
	case amplitude <= 0 || amplitude > 1:
		return ToneMeasurement{}, fmt.Errorf("%w: amplitude %v outside (0, 1]", ErrInvalidTone, amplitude)
	case freq <= 0 || freq >= native/2:
		return ToneMeasurement{}, fmt.Errorf("%w: frequency %v Hz", ErrInvalidTone, freq)
	}

	bank, err := decimate.NewBank(pcm.NativeBlockSamples)
	if err != nil {
		return ToneMeasurement{}, err
	}
	if err := bank.SetTarget(rate); err != nil {
		return ToneMeasurement{}, err
	}

	values := make([]int, pcm.NativeBlockSamples)
	be := make([]byte, pcm.NativeBlockSamples*pcm.Bits24.BytesPerSample())
	le := make([]byte, len(be))
	dst := make([]byte, len(be))
	decoded := make([]int, pcm.NativeBlockSamples)

	out := make([]float64, 0, (blocks-settleBlocks)*pcm.NativeBlockSamples/rate.DecimationFactor())
	step := 2 * math.Pi * freq / native

	for b := range blocks {
		for i := range values {
			n := b*pcm.NativeBlockSamples + i
			values[i] = int(math.Round(amplitude * fullScale24 * math.Sin(step*float64(n))))
		}
		pcm.EncodeBE24(be, values)
		pcm.SwapEndian24(le, be)

		size, err := bank.Downsample(le, dst, pcm.Bits24)
		if err != nil {
			return ToneMeasurement{}, err
		}
		count, err := pcm.DecodeLE(decoded, dst[:size], pcm.Bits24)
		if err != nil {
			return ToneMeasurement{}, err
		}
		if b < settleBlocks {
			continue
		}
		for _, v := range decoded[:count] {
			out = append(out, float64(v)/(fullScale24+1))
		}
	}

	m := ToneMeasurement{
		Rate:           rate,
		Frequency:      freq,
		AliasFrequency: AliasFrequency(freq, float64(rate)),
		InputAmplitude: amplitude,
	}
	m.OutputAmplitude = ToneAmplitude(out, float64(rate), m.AliasFrequency)
	m.LevelDB = ToneLevelDB(out, float64(rate), m.AliasFrequency)
	m.Gain = m.OutputAmplitude / amplitude
	m.GainDB = filter.MagnitudeDB(m.Gain)
	m.Output = out
	return m, nil
}
