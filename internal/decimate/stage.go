package decimate

import (
	"fmt"
	"slices"
)

// StageSpec describes one decimating FIR stage: Q31 coefficients and the
// integer factor by which the stage reduces the sample rate.
type StageSpec struct {
	Taps   []int32
	Factor int
}

// Validate checks that s can be built into a Stage.
func (s StageSpec) Validate() error {
	if len(s.Taps) == 0 {
		return fmt.Errorf("%w: stage has no taps", ErrInvalidCascade)
	}
	if s.Factor != factorHalf && s.Factor != factorThird {
		return fmt.Errorf("%w: decimation factor %d (must be %d or %d)",
			ErrInvalidCascade, s.Factor, factorHalf, factorThird)
	}
	return nil
}

// Stage is a fixed-point FIR decimator with persistent filter memory.
//
// The delay line holds numTaps-1 samples of history followed by room for one
// full input block. History survives across Process calls, so splitting a
// stream into blocks does not change the output.
type Stage struct {
	coeffs   []int32
	factor   int
	maxInput int
	state    []int32
}

// NewStage builds a stage that accepts at most maxInput samples per call.
func NewStage(spec StageSpec, maxInput int) (*Stage, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if maxInput < spec.Factor {
		return nil, fmt.Errorf("%w: stage input of %d samples is shorter than its factor %d",
			ErrInvalidBlockLength, maxInput, spec.Factor)
	}

	return &Stage{
		coeffs:   slices.Clone(spec.Taps),
		factor:   spec.Factor,
		maxInput: maxInput,
		state:    make([]int32, maxInput+len(spec.Taps)-1),
	}, nil
}

// Process filters src and writes one output sample for every Factor input
// samples into dst, returning the number of outputs. Input samples beyond the
// last complete group of Factor are discarded, as are inputs past MaxInput or
// outputs that would not fit in dst.
//
// Each output is the dot product of the coefficients with a numTaps window
// of the delay line, accumulated as 32x32 products keeping the high word,
// then shifted left by one. The window advances by Factor per output.
func (s *Stage) Process(dst, src []int32) int {
	numTaps := len(s.coeffs)
	outLen := min(len(src), s.maxInput) / s.factor
	outLen = min(outLen, len(dst))
	if outLen == 0 {
		return 0
	}
	consumed := outLen * s.factor

	copy(s.state[numTaps-1:], src[:consumed])

	for i := range outLen {
		window := s.state[i*s.factor : i*s.factor+numTaps]
		dst[i] = mulAccQ31(window, s.coeffs) << outputShift
	}

	// keep the newest numTaps-1 samples as history for the next call
	copy(s.state, s.state[consumed:consumed+numTaps-1])

	return outLen
}

// Reset zeroes the delay line.
func (s *Stage) Reset() {
	clear(s.state)
}

// Factor returns the decimation factor.
func (s *Stage) Factor() int {
	return s.factor
}

// NumTaps returns the filter length.
func (s *Stage) NumTaps() int {
	return len(s.coeffs)
}

// MaxInput returns the largest input accepted per call.
func (s *Stage) MaxInput() int {
	return s.maxInput
}

// mulAccQ31 is the reduced-precision Q31 multiply-accumulate: every product
// is added to the accumulator's high word and only the high 32 bits are kept.
// The result is half the Q31 dot product.
func mulAccQ31(x, c []int32) int32 {
	x = x[:len(c)]
	var sum int32
	for k, ck := range c {
		sum = int32((int64(sum)<<accumulatorShift + int64(x[k])*int64(ck)) >> accumulatorShift)
	}
	return sum
}
