// Package decimate implements the multirate decimation filter bank that
// converts native-rate blocks to lower output rates.
//
// Every supported output rate has a fixed Cascade of Q31 FIR decimators built
// from the data in cascadeTable. A Bank owns one Cascade per rate, the buffer
// that holds the widened input, and a ping-pong pair of scratch buffers shared
// by all cascades. The native rate bypasses filtering entirely.
//
// A Bank is used by a single consumer goroutine and is not safe for
// concurrent use.
package decimate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

var (
	// ErrNotInitialized is returned by operations on a zero-value Bank.
	ErrNotInitialized = errors.New("filter bank not initialized")

	// ErrUnsupportedRate is returned for output rates without a cascade.
	ErrUnsupportedRate = errors.New("unsupported sample rate")

	// ErrUnsupportedBitDepth is returned for bit depths other than 16 and 24.
	ErrUnsupportedBitDepth = pcm.ErrUnsupportedBitDepth

	// ErrInvalidBlockLength is returned when the block length cannot be
	// divided evenly by every cascade.
	ErrInvalidBlockLength = errors.New("invalid block length")

	// ErrInvalidCascade is returned for malformed cascade tables.
	ErrInvalidCascade = errors.New("invalid cascade")

	// ErrBlockTooLarge is returned when a raw block exceeds the configured size.
	ErrBlockTooLarge = errors.New("block larger than configured block length")

	// ErrBufferTooSmall is returned when the destination cannot hold the output.
	ErrBufferTooSmall = errors.New("destination buffer too small")
)

// Bank converts native-rate raw blocks to a selected rate and bit depth.
type Bank struct {
	blockSamples int
	target       pcm.SampleRate
	cascades     map[pcm.SampleRate]*Cascade
	wide         []int32
	scratch      [numScratchBuffers][]int32
}

// NewBank builds every cascade in the table for blocks of blockSamples
// native samples, with zeroed filter memory. The target starts at the native
// rate.
func NewBank(blockSamples int) (*Bank, error) {
	return newBank(cascadeTable, blockSamples)
}

func newBank(specs []CascadeSpec, blockSamples int) (*Bank, error) {
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}
	if multiple := BlockMultiple(specs); blockSamples <= 0 || blockSamples%multiple != 0 {
		return nil, fmt.Errorf("%w: %d samples is not a positive multiple of %d",
			ErrInvalidBlockLength, blockSamples, multiple)
	}

	b := &Bank{
		blockSamples: blockSamples,
		target:       pcm.NativeRate,
		cascades:     make(map[pcm.SampleRate]*Cascade, len(specs)),
		wide:         make([]int32, blockSamples),
	}

	var sizes [numScratchBuffers]int
	for _, spec := range specs {
		if _, dup := b.cascades[spec.Rate]; dup {
			return nil, fmt.Errorf("%w: duplicate cascade for %s", ErrInvalidCascade, spec.Rate)
		}
		c, err := NewCascade(spec, blockSamples)
		if err != nil {
			return nil, err
		}
		b.cascades[spec.Rate] = c
		for i, n := range c.scratchSizes() {
			sizes[i] = max(sizes[i], n)
		}
	}
	for i := range b.scratch {
		b.scratch[i] = make([]int32, sizes[i])
	}

	return b, nil
}

// SetTarget selects the output rate used by later Downsample calls and clears
// the selected cascade's filter memory, so output after a switch never
// depends on what was processed before it. Unknown rates leave the current
// selection untouched.
func (b *Bank) SetTarget(rate pcm.SampleRate) error {
	if b.cascades == nil {
		return ErrNotInitialized
	}
	if rate == pcm.NativeRate {
		b.target = rate
		return nil
	}
	c, ok := b.cascades[rate]
	if !ok {
		return fmt.Errorf("%w: %d Hz", ErrUnsupportedRate, int(rate))
	}
	c.Reset()
	b.target = rate
	return nil
}

// Target returns the selected output rate.
func (b *Bank) Target() pcm.SampleRate {
	return b.target
}

// BlockSamples returns the largest block, in native samples, Downsample accepts.
func (b *Bank) BlockSamples() int {
	return b.blockSamples
}

// Rates returns every selectable output rate, highest first.
func (b *Bank) Rates() []pcm.SampleRate {
	rates := make([]pcm.SampleRate, 0, len(b.cascades)+1)
	if b.cascades == nil {
		return rates
	}
	rates = append(rates, pcm.NativeRate)
	for r := range b.cascades {
		rates = append(rates, r)
	}
	slices.SortFunc(rates, func(a, c pcm.SampleRate) int { return int(c - a) })
	return rates
}

// Cascade returns the cascade for rate, or nil for the native rate and
// unsupported rates.
func (b *Bank) Cascade(rate pcm.SampleRate) *Cascade {
	return b.cascades[rate]
}

// OutputLen returns the number of bytes Downsample produces for a block of
// samples native samples at the current target and the given depth.
func (b *Bank) OutputLen(samples int, depth pcm.BitDepth) int {
	factor := b.target.DecimationFactor()
	if factor == 0 {
		return 0
	}
	return samples / factor * depth.BytesPerSample()
}

// Downsample converts raw, a block of little-endian 24-bit native samples,
// to the current target rate at the given depth, writes the packed result to
// dst and returns its length in bytes.
//
// At the native rate no filtering happens: 24-bit output is a byte copy of
// raw and 16-bit output drops each sample's least significant byte. Otherwise
// the samples are widened to Q31, run through the target cascade and
// truncated to depth.
//
// An unsupported depth returns a zero length and ErrUnsupportedBitDepth
// without touching filter state; callers must not forward a zero-length
// result.
func (b *Bank) Downsample(raw, dst []byte, depth pcm.BitDepth) (int, error) {
	if b.cascades == nil {
		return 0, ErrNotInitialized
	}
	if !depth.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, depth)
	}

	samples := len(raw) / bytesPerNativeSample
	if samples > b.blockSamples {
		return 0, fmt.Errorf("%w: %d samples, limit %d", ErrBlockTooLarge, samples, b.blockSamples)
	}
	if need := b.OutputLen(samples, depth); len(dst) < need {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, need, len(dst))
	}

	if b.target == pcm.NativeRate {
		if depth == pcm.Bits24 {
			return copy(dst, raw[:samples*bytesPerNativeSample]), nil
		}
		return pcm.PCM24ToPCM16(dst, raw), nil
	}

	c, ok := b.cascades[b.target]
	if !ok {
		return 0, fmt.Errorf("%w: %d Hz", ErrUnsupportedRate, int(b.target))
	}

	n := pcm.Widen24(b.wide, raw)
	filtered := c.Run(b.wide[:n], b.scratch)

	return pcm.Pack(dst, filtered, depth)
}

// Reset zeroes the filter memory of every cascade.
func (b *Bank) Reset() {
	for _, c := range b.cascades {
		c.Reset()
	}
}

// Specs returns a deep copy of the built-in cascade table.
func Specs() []CascadeSpec {
	out := make([]CascadeSpec, len(cascadeTable))
	for i, c := range cascadeTable {
		stages := make([]StageSpec, len(c.Stages))
		for j, s := range c.Stages {
			stages[j] = StageSpec{Taps: slices.Clone(s.Taps), Factor: s.Factor}
		}
		out[i] = CascadeSpec{Rate: c.Rate, Stages: stages}
	}
	return out
}

// BlockMultiple returns the smallest block length, in samples, that every
// cascade in specs divides evenly.
func BlockMultiple(specs []CascadeSpec) int {
	m := 1
	for _, c := range specs {
		m = lcm(m, c.Factor())
	}
	return m
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
