package recorder

import "github.com/tphakala/go-audio-recorder/internal/pcm"

// Session defaults matching the acquisition hardware.
const (
	defaultBlockSamples = pcm.NativeBlockSamples
	defaultRingCapacity = 16 // blocks buffered between producer and consumer
)

// Raw block geometry.
const (
	bytesPerNativeSample = 3
)
