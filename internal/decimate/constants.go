package decimate

const (
	// bytesPerNativeSample is the width of one native-rate sample in a raw block.
	bytesPerNativeSample = 3

	// Allowed per-stage decimation factors.
	factorHalf  = 2
	factorThird = 3

	// accumulatorShift moves a 32x32 product into the high word of the
	// accumulator; the final left shift by one restores Q31 scaling.
	accumulatorShift = 32
	outputShift      = 1

	// numScratchBuffers is the ping-pong pair shared by every cascade.
	numScratchBuffers = 2
)
