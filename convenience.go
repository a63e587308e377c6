package recorder

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tphakala/go-audio-recorder/internal/decimate"
	"github.com/tphakala/go-audio-recorder/internal/source"
	"github.com/tphakala/go-audio-recorder/internal/wavsink"
)

// SinkCloser is a Sink that must be closed to finish the recording.
type SinkCloser interface {
	Sink
	io.Closer
}

// NewToneSource creates a synthetic source producing a sine wave of
// frequency Hz at amplitude relative to full scale, in blocks sized for cfg.
// A zero period paces blocks in real time.
func NewToneSource(cfg *Config, frequency, amplitude float64, period time.Duration) (Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	return source.NewTone(frequency, amplitude, cfg.BlockSamples, period)
}

// NewWAVSource creates a source that replays a native-rate 24-bit mono WAV
// recording, optionally looping it.
func NewWAVSource(cfg *Config, r io.ReadSeeker, period time.Duration, loop bool) (Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	return source.NewWAVReplay(r, cfg.BlockSamples, period, loop)
}

// NewWAVSink writes recorder output for cfg as a mono PCM WAV stream. The
// header is completed on Close.
func NewWAVSink(w io.WriteSeeker, cfg *Config) (SinkCloser, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	return wavsink.New(w, cfg.TargetRate, cfg.BitDepth)
}

// BlockPeriod returns how long the hardware takes to fill a block of
// blockSamples native samples.
func BlockPeriod(blockSamples int) time.Duration {
	return source.BlockPeriod(blockSamples)
}

// BlocksForDuration returns how many blocks of blockSamples native samples
// cover d, rounding up.
func BlocksForDuration(d time.Duration, blockSamples int) int {
	if d <= 0 || blockSamples <= 0 {
		return 0
	}
	period := BlockPeriod(blockSamples)
	return int((d + period - 1) / period)
}

// Record runs a complete session: it starts src, converts blocks covering
// duration into sink and stops src again. A non-positive duration records
// until ctx is done.
func Record(ctx context.Context, cfg *Config, src Source, sink Sink, duration time.Duration) (Stats, error) {
	r, err := New(cfg, src)
	if err != nil {
		return Stats{}, err
	}
	if err := r.Start(ctx); err != nil {
		return Stats{}, err
	}

	runErr := r.Run(ctx, sink, BlocksForDuration(duration, cfg.BlockSamples))
	stopErr := r.Stop()
	if runErr != nil {
		return r.Stats(), runErr
	}
	return r.Stats(), stopErr
}

// Downsample converts a buffer of little-endian 24-bit native samples to rate
// and depth in one call, using fresh filter memory. Trailing samples that do
// not complete a decimation group are dropped.
func Downsample(raw []byte, rate SampleRate, depth BitDepth) ([]byte, error) {
	bank, err := decimate.NewBank(defaultBlockSamples)
	if err != nil {
		return nil, err
	}
	if err := bank.SetTarget(rate); err != nil {
		return nil, err
	}
	if !depth.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, depth)
	}

	chunk := defaultBlockSamples * bytesPerNativeSample
	samples := len(raw) / bytesPerNativeSample
	out := make([]byte, 0, bank.OutputLen(samples, depth))
	dst := make([]byte, chunk)
	for off := 0; off < samples*bytesPerNativeSample; off += chunk {
		end := min(off+chunk, samples*bytesPerNativeSample)
		n, err := bank.Downsample(raw[off:end], dst, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, dst[:n]...)
	}
	return out, nil
}

// DecimationFactor returns NativeRate / rate, or 0 if rate does not divide
// the native rate.
func DecimationFactor(rate SampleRate) int {
	return rate.DecimationFactor()
}
