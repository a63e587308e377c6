// Package pcm converts between the packed PCM formats used by the recorder
// and the Q31 fixed-point words used internally by the decimation filters.
//
// Q31 samples are signed 32-bit integers interpreted as fractions in [-1, 1).
// A 24-bit sample is left-justified into a Q31 word with the low byte zeroed,
// and narrowing always keeps the most significant bits (truncation, no
// rounding or dither).
package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// BitDepth is the number of bits per output sample.
type BitDepth int

const (
	// Bits16 produces 2-byte little-endian samples.
	Bits16 BitDepth = 16

	// Bits24 produces 3-byte little-endian samples.
	Bits24 BitDepth = 24
)

// SampleRate is an output sample rate in Hz.
type SampleRate int

// Supported sample rates. Rate384kHz is the native acquisition rate; every
// other rate is an integer division of it.
const (
	Rate384kHz SampleRate = 384000
	Rate192kHz SampleRate = 192000
	Rate96kHz  SampleRate = 96000
	Rate48kHz  SampleRate = 48000
	Rate32kHz  SampleRate = 32000
	Rate24kHz  SampleRate = 24000
	Rate16kHz  SampleRate = 16000

	// NativeRate is the rate produced by the acquisition hardware.
	NativeRate = Rate384kHz
)

// NativeBlockSamples is the number of native samples in one hardware
// transfer. It divides evenly by every supported decimation factor.
const NativeBlockSamples = 8256

// ErrUnsupportedBitDepth is returned for bit depths other than 16 and 24.
var ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

// Valid reports whether d is a supported bit depth.
func (d BitDepth) Valid() bool {
	return d == Bits16 || d == Bits24
}

// BytesPerSample returns the packed width of one sample, or 0 for an
// unsupported depth.
func (d BitDepth) BytesPerSample() int {
	switch d {
	case Bits16:
		return bytesPerSample16
	case Bits24:
		return bytesPerSample24
	default:
		return 0
	}
}

// DecimationFactor returns NativeRate / r, or 0 if r does not divide the
// native rate.
func (r SampleRate) DecimationFactor() int {
	if r <= 0 || NativeRate%r != 0 {
		return 0
	}
	return int(NativeRate / r)
}

// String renders the rate in kHz, e.g. "48kHz".
func (r SampleRate) String() string {
	return fmt.Sprintf("%dkHz", int(r)/1000)
}

// Widen24 converts packed little-endian 24-bit samples in src to Q31 words
// in dst and returns the number of samples converted. Trailing bytes that do
// not form a whole sample are ignored.
func Widen24(dst []int32, src []byte) int {
	n := min(len(src)/bytesPerSample24, len(dst))
	for i := range n {
		b := src[i*bytesPerSample24 : i*bytesPerSample24+bytesPerSample24]
		dst[i] = int32(uint32(b[lsByte])<<bitShift8 |
			uint32(b[midByte])<<bitShift16 |
			uint32(b[msByte])<<bitShift24)
	}
	return n
}

// Q31ToPCM16 keeps the upper 16 bits of each Q31 sample and stores them
// little-endian. It returns the number of bytes written.
func Q31ToPCM16(dst []byte, src []int32) int {
	n := min(len(src), len(dst)/bytesPerSample16)
	for i := range n {
		binary.LittleEndian.PutUint16(dst[i*bytesPerSample16:], uint16(src[i]>>bitShift16))
	}
	return n * bytesPerSample16
}

// Q31ToPCM24 keeps the upper 24 bits of each Q31 sample and stores them as
// three little-endian bytes. It returns the number of bytes written.
func Q31ToPCM24(dst []byte, src []int32) int {
	n := min(len(src), len(dst)/bytesPerSample24)
	for i := range n {
		v := src[i] >> bitShift8
		o := dst[i*bytesPerSample24 : i*bytesPerSample24+bytesPerSample24]
		o[lsByte] = byte(v)
		o[midByte] = byte(v >> bitShift8)
		o[msByte] = byte(v >> bitShift16)
	}
	return n * bytesPerSample24
}

// Pack truncates src to the requested depth. dst must hold
// len(src)*depth.BytesPerSample() bytes.
func Pack(dst []byte, src []int32, depth BitDepth) (int, error) {
	switch depth {
	case Bits16:
		return Q31ToPCM16(dst, src), nil
	case Bits24:
		return Q31ToPCM24(dst, src), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, depth)
	}
}

// PCM24ToPCM16 narrows packed little-endian 24-bit samples to 16 bits by
// dropping the least significant byte of each sample. It is equivalent to
// Widen24 followed by Q31ToPCM16 without the intermediate buffer.
func PCM24ToPCM16(dst, src []byte) int {
	n := min(len(src)/bytesPerSample24, len(dst)/bytesPerSample16)
	for i := range n {
		dst[i*bytesPerSample16] = src[i*bytesPerSample24+midByte]
		dst[i*bytesPerSample16+1] = src[i*bytesPerSample24+msByte]
	}
	return n * bytesPerSample16
}

// SwapEndian24 copies 3-byte samples from src to dst, exchanging the first
// and last byte of each sample. The middle byte is unchanged. It converts the
// converter's big-endian wire order to little-endian and back.
func SwapEndian24(dst, src []byte) int {
	n := min(len(src), len(dst)) / bytesPerSample24 * bytesPerSample24
	for i := 0; i < n; i += bytesPerSample24 {
		dst[i+lsByte] = src[i+msByte]
		dst[i+midByte] = src[i+midByte]
		dst[i+msByte] = src[i+lsByte]
	}
	return n
}

// DecodeLE unpacks little-endian PCM bytes into sign-extended integers at
// their native scale. It returns the number of samples decoded.
func DecodeLE(dst []int, src []byte, depth BitDepth) (int, error) {
	bps := depth.BytesPerSample()
	if bps == 0 {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, depth)
	}
	n := min(len(src)/bps, len(dst))
	for i := range n {
		b := src[i*bps:]
		switch depth {
		case Bits16:
			dst[i] = int(int16(binary.LittleEndian.Uint16(b)))
		case Bits24:
			v := int32(uint32(b[lsByte])<<bitShift8|uint32(b[midByte])<<bitShift16|uint32(b[msByte])<<bitShift24) >> bitShift8
			dst[i] = int(v)
		}
	}
	return n, nil
}

// EncodeBE24 packs integers in the 24-bit range as big-endian 3-byte samples,
// the byte order delivered by the acquisition hardware. Values are truncated
// to 24 bits.
func EncodeBE24(dst []byte, src []int) int {
	n := min(len(src), len(dst)/bytesPerSample24)
	for i := range n {
		v := src[i]
		o := dst[i*bytesPerSample24:]
		o[0] = byte(v >> bitShift16)
		o[1] = byte(v >> bitShift8)
		o[2] = byte(v)
	}
	return n * bytesPerSample24
}
