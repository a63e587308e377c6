// Package wavsink persists recorder output as a PCM WAV file.
package wavsink

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

const (
	// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
	wavFormatPCM = 1

	monoChannels = 1
)

var (
	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("wav sink closed")

	// ErrPartialSample is returned for writes that split a sample.
	ErrPartialSample = errors.New("write is not a whole number of samples")
)

// Writer encodes packed little-endian mono PCM blocks into a WAV stream.
// The header sizes are filled in by Close, after the last block.
type Writer struct {
	enc     *wav.Encoder
	buf     *audio.IntBuffer
	depth   pcm.BitDepth
	samples int64
	closed  bool
}

// New writes a WAV header for rate and depth to w and returns a Writer for
// the sample data.
func New(w io.WriteSeeker, rate pcm.SampleRate, depth pcm.BitDepth) (*Writer, error) {
	if !depth.Valid() {
		return nil, fmt.Errorf("%w: %d", pcm.ErrUnsupportedBitDepth, depth)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", int(rate))
	}

	format := &audio.Format{
		SampleRate:  int(rate),
		NumChannels: monoChannels,
	}
	return &Writer{
		enc: wav.NewEncoder(w, int(rate), int(depth), monoChannels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format:         format,
			SourceBitDepth: int(depth),
		},
		depth: depth,
	}, nil
}

// Write appends one packed block. p must hold whole samples at the writer's
// bit depth.
func (w *Writer) Write(p []byte) error {
	if w.closed {
		return ErrClosed
	}
	bps := w.depth.BytesPerSample()
	if len(p)%bps != 0 {
		return fmt.Errorf("%w: %d bytes at %d-bit", ErrPartialSample, len(p), w.depth)
	}

	n := len(p) / bps
	if cap(w.buf.Data) < n {
		w.buf.Data = make([]int, n)
	}
	w.buf.Data = w.buf.Data[:n]
	if _, err := pcm.DecodeLE(w.buf.Data, p, w.depth); err != nil {
		return err
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	w.samples += int64(n)
	return nil
}

// Samples returns the number of samples written so far.
func (w *Writer) Samples() int64 {
	return w.samples
}

// Close finalizes the WAV header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.enc.Close()
}
