package main

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	recorder "github.com/tphakala/go-audio-recorder"
)

var errUsage = errors.New("invalid arguments")

// parseOptions validates the flags that decide what gets recorded where.
func parseOptions(rateKHz float64, bits int, src, input, output string) (*options, error) {
	rate, err := parseRate(rateKHz)
	if err != nil {
		return nil, err
	}
	depth, err := parseBits(bits)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return nil, fmt.Errorf("%w: -out is required", errUsage)
	}

	switch src {
	case sourceTone:
	case sourceWAV:
		if input == "" {
			return nil, fmt.Errorf("%w: -source wav needs -in", errUsage)
		}
	default:
		return nil, fmt.Errorf("%w: unknown source %q", errUsage, src)
	}

	return &options{
		rate:   rate,
		bits:   depth,
		source: src,
		input:  input,
		output: output,
	}, nil
}

// parseRate maps a rate in kHz onto a supported output rate.
func parseRate(kHz float64) (recorder.SampleRate, error) {
	hz := recorder.SampleRate(math.Round(kHz * kHzToHz))
	for _, r := range recorder.SupportedRates() {
		if r == hz {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %g kHz", recorder.ErrUnsupportedRate, kHz)
}

func parseBits(bits int) (recorder.BitDepth, error) {
	depth := recorder.BitDepth(bits)
	if !depth.Valid() {
		return 0, fmt.Errorf("%w: %d", recorder.ErrUnsupportedBitDepth, bits)
	}
	return depth, nil
}

// blockPeriod returns the pacing for opts.speed, or 0 for real time.
func blockPeriod(cfg *recorder.Config, speed float64) time.Duration {
	if speed <= 0 || speed == defaultSpeed {
		return 0
	}
	realTime := recorder.BlockPeriod(cfg.BlockSamples)
	return max(time.Duration(float64(realTime)/speed), time.Microsecond)
}

// newSource builds the simulated converter and a function releasing its
// resources.
func newSource(cfg *recorder.Config, opts *options) (recorder.Source, func() error, error) {
	noop := func() error { return nil }
	period := blockPeriod(cfg, opts.speed)

	switch opts.source {
	case sourceTone:
		src, err := recorder.NewToneSource(cfg, opts.toneHz, opts.amplitude, period)
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil

	case sourceWAV:
		f, err := os.Open(opts.input)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open input file: %w", err)
		}
		src, err := recorder.NewWAVSource(cfg, f, period, opts.loop)
		if err != nil {
			_ = f.Close()
			return nil, noop, fmt.Errorf("invalid input %s: %w", opts.input, err)
		}
		return src, f.Close, nil

	default:
		return nil, noop, fmt.Errorf("%w: unknown source %q", errUsage, opts.source)
	}
}

// wavOutput owns the output file and the WAV sink writing into it.
type wavOutput struct {
	file *os.File
	sink recorder.SinkCloser
}

// createWAVOutput creates path and a WAV sink for cfg.
func createWAVOutput(path string, cfg *recorder.Config) (*wavOutput, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	sink, err := recorder.NewWAVSink(f, cfg)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create WAV writer: %w", err)
	}

	return &wavOutput{file: f, sink: sink}, nil
}

// Write forwards one converted block to the sink.
func (w *wavOutput) Write(p []byte) error {
	return w.sink.Write(p)
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutput) Close() error {
	if err := w.sink.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// progressTracker logs progress in verbose mode.
type progressTracker struct {
	total        int64
	verbose      bool
	lastProgress int
}

func newProgressTracker(total int64, verbose bool) *progressTracker {
	return &progressTracker{
		total:        total,
		verbose:      verbose,
		lastProgress: -progressInterval,
	}
}

func (p *progressTracker) reportIfNeeded(current int64) {
	if !p.verbose || p.total <= 0 {
		return
	}
	progress := int(current * percentScale / p.total)
	if progress >= p.lastProgress+progressInterval {
		log.Printf("Progress: %d%% (%d/%d blocks)", progress, current, p.total)
		p.lastProgress = progress
	}
}
