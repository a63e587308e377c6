package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

// WAVReplay plays back a native-rate 24-bit mono WAV recording as if it were
// arriving from the converter.
type WAVReplay struct {
	pacer

	r            io.ReadSeeker
	dec          *wav.Decoder
	buf          *audio.IntBuffer
	block        []byte
	blockSamples int
	period       time.Duration
	loop         bool
	samples      int64
}

// NewWAVReplay validates the recording in r and prepares it for playback.
// With loop set the recording restarts from the beginning at end of file;
// otherwise the producer exits after the last block, which is zero padded.
// A zero period paces blocks in real time.
func NewWAVReplay(r io.ReadSeeker, blockSamples int, period time.Duration, loop bool) (*WAVReplay, error) {
	if blockSamples <= 0 {
		return nil, fmt.Errorf("%w: block of %d samples", ErrInvalidConfig, blockSamples)
	}
	if period < 0 {
		return nil, fmt.Errorf("%w: negative period", ErrInvalidConfig)
	}
	if period == 0 {
		period = BlockPeriod(blockSamples)
	}

	dec, err := openDecoder(r)
	if err != nil {
		return nil, err
	}

	format := dec.Format()
	if format.SampleRate != int(pcm.NativeRate) || format.NumChannels != nativeChannels ||
		int(dec.BitDepth) != int(pcm.Bits24) {
		return nil, fmt.Errorf("%w: got %d Hz, %d channels, %d-bit",
			ErrFormatMismatch, format.SampleRate, format.NumChannels, dec.BitDepth)
	}

	var samples int64
	if d, err := dec.Duration(); err == nil {
		samples = int64(d.Seconds()*float64(pcm.NativeRate) + 0.5)
	}

	return &WAVReplay{
		r:   r,
		dec: dec,
		buf: &audio.IntBuffer{
			Data:   make([]int, blockSamples),
			Format: format,
		},
		block:        make([]byte, blockSamples*bytesPerSample),
		blockSamples: blockSamples,
		period:       period,
		loop:         loop,
		samples:      samples,
	}, nil
}

func openDecoder(r io.ReadSeeker) (*wav.Decoder, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind input: %w", err)
	}
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", ErrFormatMismatch)
	}
	return dec, nil
}

// Next decodes the following block in wire order. It returns io.EOF once a
// non-looping recording is exhausted. It must not be called while the source
// is running.
func (w *WAVReplay) Next() ([]byte, error) {
	n, err := w.read()
	if err != nil {
		return nil, err
	}
	if n == 0 && w.loop {
		if w.dec, err = openDecoder(w.r); err != nil {
			return nil, err
		}
		if n, err = w.read(); err != nil {
			return nil, err
		}
	}
	if n == 0 {
		return nil, io.EOF
	}

	data := w.buf.Data[:w.blockSamples]
	clear(data[n:])
	pcm.EncodeBE24(w.block, data)
	return w.block, nil
}

func (w *WAVReplay) read() (int, error) {
	w.buf.Data = w.buf.Data[:cap(w.buf.Data)]
	n, err := w.dec.PCMBuffer(w.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read audio data: %w", err)
	}
	return n, nil
}

// Blocks returns how many blocks one pass over the recording yields, or 0 if
// the length is unknown.
func (w *WAVReplay) Blocks() int {
	return int((w.samples + int64(w.blockSamples) - 1) / int64(w.blockSamples))
}

// Start begins calling onBlock once per period until Stop, ctx is done or
// the recording ends.
func (w *WAVReplay) Start(ctx context.Context, onBlock func(raw []byte)) error {
	return w.start(ctx, w.period, w.Next, onBlock)
}

// Stop halts playback and waits for the producer to exit. Playback resumes
// from the current position on the next Start.
func (w *WAVReplay) Stop() error {
	return w.stop()
}

// Period returns the interval between blocks.
func (w *WAVReplay) Period() time.Duration {
	return w.period
}
