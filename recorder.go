package recorder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/tphakala/go-audio-recorder/internal/decimate"
	"github.com/tphakala/go-audio-recorder/internal/pcm"
	"github.com/tphakala/go-audio-recorder/internal/ring"
	"github.com/tphakala/go-audio-recorder/internal/source"
)

// SampleRate is an output sample rate in Hz.
type SampleRate = pcm.SampleRate

// BitDepth is the number of bits per output sample.
type BitDepth = pcm.BitDepth

// RingStats is a snapshot of acquisition ring activity.
type RingStats = ring.Stats

// Supported output rates. Every rate is an integer division of NativeRate.
const (
	Rate384kHz = pcm.Rate384kHz
	Rate192kHz = pcm.Rate192kHz
	Rate96kHz  = pcm.Rate96kHz
	Rate48kHz  = pcm.Rate48kHz
	Rate32kHz  = pcm.Rate32kHz
	Rate24kHz  = pcm.Rate24kHz
	Rate16kHz  = pcm.Rate16kHz

	// NativeRate is the acquisition rate. Selecting it bypasses filtering.
	NativeRate = pcm.NativeRate
)

// Supported output bit depths.
const (
	Bits16 = pcm.Bits16
	Bits24 = pcm.Bits24
)

// Source stands in for the acquisition hardware. Once started it calls
// onBlock once per block period from a single goroutine, never concurrently
// with itself. raw holds one block of big-endian 24-bit native samples and is
// only valid until onBlock returns.
type Source interface {
	Start(ctx context.Context, onBlock func(raw []byte)) error
	Stop() error
}

// Sink receives each converted block. p is reused after Write returns.
type Sink interface {
	Write(p []byte) error
}

// Config holds the recording session parameters.
type Config struct {
	// TargetRate is the output sample rate.
	TargetRate SampleRate

	// BitDepth is the output sample width, 16 or 24.
	BitDepth BitDepth

	// BlockSamples is the number of native samples per hardware block. It
	// must be a multiple of every cascade's decimation factor.
	BlockSamples int

	// RingCapacity is the number of blocks buffered between producer and
	// consumer. It must be a power of two.
	RingCapacity int
}

// Common errors returned by the recorder.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid recorder configuration")

	// ErrOverrun indicates the producer overwrote blocks that were never
	// consumed.
	ErrOverrun = errors.New("acquisition ring overrun")

	// ErrAlreadyRunning is returned by Start on a running recorder.
	ErrAlreadyRunning = errors.New("recorder already running")

	// ErrUnsupportedRate is returned for rates without a filter cascade.
	ErrUnsupportedRate = decimate.ErrUnsupportedRate

	// ErrUnsupportedBitDepth is returned for bit depths other than 16 and 24.
	ErrUnsupportedBitDepth = pcm.ErrUnsupportedBitDepth
)

// DefaultConfig returns the hardware's block geometry with 48 kHz 24-bit
// output.
func DefaultConfig() Config {
	return Config{
		TargetRate:   Rate48kHz,
		BitDepth:     Bits24,
		BlockSamples: defaultBlockSamples,
		RingCapacity: defaultRingCapacity,
	}
}

// SupportedRates returns every selectable output rate, highest first.
func SupportedRates() []SampleRate {
	return []SampleRate{Rate384kHz, Rate192kHz, Rate96kHz, Rate48kHz, Rate32kHz, Rate24kHz, Rate16kHz}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(SupportedRates(), c.TargetRate) {
		return fmt.Errorf("%w: unsupported target rate %d Hz", ErrInvalidConfig, int(c.TargetRate))
	}

	if !c.BitDepth.Valid() {
		return fmt.Errorf("%w: bit depth must be %d or %d", ErrInvalidConfig, Bits16, Bits24)
	}

	multiple := decimate.BlockMultiple(decimate.Specs())
	if c.BlockSamples <= 0 || c.BlockSamples%multiple != 0 {
		return fmt.Errorf("%w: block of %d samples is not a positive multiple of %d",
			ErrInvalidConfig, c.BlockSamples, multiple)
	}

	if c.RingCapacity <= 0 || c.RingCapacity&(c.RingCapacity-1) != 0 {
		return fmt.Errorf("%w: ring capacity %d is not a power of two",
			ErrInvalidConfig, c.RingCapacity)
	}

	return nil
}

// Info describes the signal path a recorder is configured with.
type Info struct {
	// TargetRate and BitDepth are the current output format.
	TargetRate SampleRate
	BitDepth   BitDepth

	// DecimationFactor is NativeRate / TargetRate.
	DecimationFactor int

	// StageTaps lists the filter length of each cascade stage in order. It is
	// empty at the native rate.
	StageTaps []int

	// BlockPeriod is the time the hardware takes to fill one block.
	BlockPeriod time.Duration

	// InputBlockBytes and OutputBlockBytes are the sizes of one raw block and
	// of its converted output.
	InputBlockBytes  int
	OutputBlockBytes int

	// BufferedTime is how far the consumer may fall behind before overrun.
	BufferedTime time.Duration
}

// Info returns the current signal path parameters.
func (r *Recorder) Info() Info {
	target := r.bank.Target()
	info := Info{
		TargetRate:       target,
		BitDepth:         r.cfg.BitDepth,
		DecimationFactor: target.DecimationFactor(),
		BlockPeriod:      source.BlockPeriod(r.cfg.BlockSamples),
		InputBlockBytes:  r.ring.BlockLen(),
		OutputBlockBytes: r.bank.OutputLen(r.cfg.BlockSamples, r.cfg.BitDepth),
	}
	info.BufferedTime = info.BlockPeriod * time.Duration(r.ring.Capacity())

	if c := r.bank.Cascade(target); c != nil {
		for _, st := range c.Stages() {
			info.StageTaps = append(info.StageTaps, st.NumTaps())
		}
	}
	return info
}
