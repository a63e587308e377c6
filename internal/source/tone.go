package source

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

// Tone synthesizes a continuous sine wave at the native rate.
type Tone struct {
	pacer

	frequency    float64
	amplitude    float64
	blockSamples int
	period       time.Duration

	pos    int64
	values []int
	block  []byte
}

// NewTone creates a sine source. amplitude is relative to 24-bit full scale.
// A zero period paces blocks in real time.
func NewTone(frequency, amplitude float64, blockSamples int, period time.Duration) (*Tone, error) {
	nyquist := float64(pcm.NativeRate) / 2
	switch {
	case frequency <= 0 || frequency >= nyquist:
		return nil, fmt.Errorf("%w: tone frequency %.1f Hz outside (0, %.0f)", ErrInvalidConfig, frequency, nyquist)
	case amplitude < 0 || amplitude > 1:
		return nil, fmt.Errorf("%w: amplitude %.3f outside [0, 1]", ErrInvalidConfig, amplitude)
	case blockSamples <= 0:
		return nil, fmt.Errorf("%w: block of %d samples", ErrInvalidConfig, blockSamples)
	case period < 0:
		return nil, fmt.Errorf("%w: negative period", ErrInvalidConfig)
	}
	if period == 0 {
		period = BlockPeriod(blockSamples)
	}

	return &Tone{
		frequency:    frequency,
		amplitude:    amplitude,
		blockSamples: blockSamples,
		period:       period,
		values:       make([]int, blockSamples),
		block:        make([]byte, blockSamples*bytesPerSample),
	}, nil
}

// Next synthesizes the following block in wire order. It must not be called
// while the source is running.
func (t *Tone) Next() []byte {
	step := 2 * math.Pi * t.frequency / float64(pcm.NativeRate)
	scale := t.amplitude * fullScale24
	for i := range t.values {
		t.values[i] = int(math.Round(scale * math.Sin(step*float64(t.pos+int64(i)))))
	}
	t.pos += int64(t.blockSamples)
	pcm.EncodeBE24(t.block, t.values)
	return t.block
}

// Start begins calling onBlock once per period until Stop or ctx is done.
func (t *Tone) Start(ctx context.Context, onBlock func(raw []byte)) error {
	return t.start(ctx, t.period, func() ([]byte, error) { return t.Next(), nil }, onBlock)
}

// Stop halts the producer and waits for it to exit. The waveform resumes
// where it left off on the next Start.
func (t *Tone) Stop() error {
	return t.stop()
}

// Period returns the interval between blocks.
func (t *Tone) Period() time.Duration {
	return t.period
}
