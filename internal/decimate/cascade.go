package decimate

import (
	"fmt"

	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

// CascadeSpec is the ordered stage ladder that takes the native rate to Rate.
type CascadeSpec struct {
	Rate   pcm.SampleRate
	Stages []StageSpec
}

// Factor returns the cumulative decimation factor of the ladder.
func (c CascadeSpec) Factor() int {
	f := 1
	for _, s := range c.Stages {
		f *= s.Factor
	}
	return f
}

// Validate checks the stages and that their product matches the target rate.
func (c CascadeSpec) Validate() error {
	if len(c.Stages) == 0 {
		return fmt.Errorf("%w: %s cascade has no stages", ErrInvalidCascade, c.Rate)
	}
	for i, s := range c.Stages {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%s stage %d: %w", c.Rate, i, err)
		}
	}
	if want := c.Rate.DecimationFactor(); want == 0 || c.Factor() != want {
		return fmt.Errorf("%w: %s cascade decimates by %d, rate needs %d",
			ErrInvalidCascade, c.Rate, c.Factor(), want)
	}
	return nil
}

// Cascade is a chain of stages run in order, each consuming the previous
// stage's output.
type Cascade struct {
	rate   pcm.SampleRate
	factor int
	stages []*Stage
}

// NewCascade builds the stages of spec for input blocks of at most
// blockSamples samples.
func NewCascade(spec CascadeSpec, blockSamples int) (*Cascade, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if blockSamples <= 0 || blockSamples%spec.Factor() != 0 {
		return nil, fmt.Errorf("%w: %d samples is not a multiple of %d",
			ErrInvalidBlockLength, blockSamples, spec.Factor())
	}

	c := &Cascade{
		rate:   spec.Rate,
		factor: spec.Factor(),
		stages: make([]*Stage, 0, len(spec.Stages)),
	}
	in := blockSamples
	for i, ss := range spec.Stages {
		st, err := NewStage(ss, in)
		if err != nil {
			return nil, fmt.Errorf("%s stage %d: %w", spec.Rate, i, err)
		}
		c.stages = append(c.stages, st)
		in /= ss.Factor
	}
	return c, nil
}

// Run filters src through every stage, alternating between the two scratch
// buffers so no stage reads and writes the same memory. It returns the slice
// of the scratch buffer holding the final output.
func (c *Cascade) Run(src []int32, scratch [numScratchBuffers][]int32) []int32 {
	in := src
	for i, st := range c.stages {
		out := scratch[i%numScratchBuffers]
		n := st.Process(out, in)
		in = out[:n]
	}
	return in
}

// Reset zeroes every stage's delay line.
func (c *Cascade) Reset() {
	for _, st := range c.stages {
		st.Reset()
	}
}

// Rate returns the cascade's output rate.
func (c *Cascade) Rate() pcm.SampleRate {
	return c.rate
}

// Factor returns the cumulative decimation factor.
func (c *Cascade) Factor() int {
	return c.factor
}

// Stages returns the stages in processing order.
func (c *Cascade) Stages() []*Stage {
	return c.stages
}

// scratchSizes returns, for each ping-pong buffer, the largest output any
// stage of the cascade writes into it.
func (c *Cascade) scratchSizes() [numScratchBuffers]int {
	var sizes [numScratchBuffers]int
	for i, st := range c.stages {
		out := st.MaxInput() / st.Factor()
		sizes[i%numScratchBuffers] = max(sizes[i%numScratchBuffers], out)
	}
	return sizes
}
