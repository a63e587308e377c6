package pcm

// Sample widths in bytes.
const (
	bytesPerSample16 = 2
	bytesPerSample24 = 3
)

// Bit shifts used when moving between the 24-bit wire format and Q31.
const (
	bitShift8  = 8
	bitShift16 = 16
	bitShift24 = 24
)

// Byte positions within a 3-byte sample.
const (
	lsByte  = 0
	midByte = 1
	msByte  = 2
)
