// Command record-wav runs the acquisition pipeline against a simulated
// converter and writes the decimated stream to a WAV file.
//
// Usage:
//
//	record-wav -rate 48 -bits 24 -duration 5s -out tone.wav
//	record-wav -source wav -in capture384k.wav -rate 16 -bits 16 -out speech.wav
//	record-wav -rate 96 -speed 20 -v -out fast.wav    # pace blocks 20x faster than real time
//
// The tone source produces a sine at -tone Hz. The wav source replays a
// 384 kHz 24-bit mono recording and stops at its end unless -loop is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"time"

	recorder "github.com/tphakala/go-audio-recorder"
)

const (
	kHzToHz = 1000

	// CLI defaults
	defaultRateKHz   = 48.0
	defaultBits      = 24
	defaultDuration  = 5 * time.Second
	defaultToneHz    = 1000.0
	defaultAmplitude = 0.5
	defaultSpeed     = 1.0

	sourceTone = "tone"
	sourceWAV  = "wav"

	progressInterval = 10 // percent
	percentScale     = 100
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// options holds the parsed command line.
type options struct {
	rate      recorder.SampleRate
	bits      recorder.BitDepth
	duration  time.Duration
	source    string
	input     string
	output    string
	toneHz    float64
	amplitude float64
	speed     float64
	loop      bool
	verbose   bool
}

func run() error {
	rateKHz := flag.Float64("rate", defaultRateKHz, "Output sample rate in kHz (384, 192, 96, 48, 32, 24, 16)")
	bits := flag.Int("bits", defaultBits, "Output bit depth: 16 or 24")
	duration := flag.Duration("duration", defaultDuration, "Recording length (0 records until interrupted)")
	src := flag.String("source", sourceTone, "Simulated converter: tone or wav")
	input := flag.String("in", "", "384 kHz 24-bit mono WAV to replay with -source wav")
	toneHz := flag.Float64("tone", defaultToneHz, "Tone frequency in Hz for -source tone")
	amplitude := flag.Float64("amplitude", defaultAmplitude, "Tone amplitude relative to full scale")
	speed := flag.Float64("speed", defaultSpeed, "Block pacing relative to real time")
	loop := flag.Bool("loop", false, "Loop the replayed WAV")
	output := flag.String("out", "", "Output WAV path")
	verbose := flag.Bool("v", false, "Verbose output")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file (for PGO)")
	flag.Parse()

	opts, err := parseOptions(*rateKHz, *bits, *src, *input, *output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] -out output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return err
	}
	opts.duration = *duration
	opts.toneHz = *toneHz
	opts.amplitude = *amplitude
	opts.speed = *speed
	opts.loop = *loop
	opts.verbose = *verbose

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	stats, err := record(ctx, opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Recorded %s\n", filepath.Base(opts.output))
	fmt.Printf("  %d Hz -> %d Hz, %d-bit mono\n", int(recorder.NativeRate), int(opts.rate), int(opts.bits))
	fmt.Printf("  %d blocks, %d bytes, %d ring overruns\n", stats.Blocks, stats.Bytes, stats.Ring.Overruns)
	fmt.Printf("  Duration: %.2fs\n", elapsed.Seconds())

	return nil
}

// record runs one session described by opts and returns the final stats.
func record(ctx context.Context, opts *options) (stats recorder.Stats, err error) {
	cfg := recorder.DefaultConfig()
	cfg.TargetRate = opts.rate
	cfg.BitDepth = opts.bits
	if err := cfg.Validate(); err != nil {
		return recorder.Stats{}, err
	}

	src, closeSrc, err := newSource(&cfg, opts)
	if err != nil {
		return recorder.Stats{}, err
	}
	defer func() { _ = closeSrc() }()

	out, err := createWAVOutput(opts.output, &cfg)
	if err != nil {
		return recorder.Stats{}, err
	}
	// The WAV header is only complete after Close.
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
	}()

	rec, err := recorder.New(&cfg, src)
	if err != nil {
		return recorder.Stats{}, err
	}

	if opts.verbose {
		info := rec.Info()
		log.Printf("Source: %s", opts.source)
		log.Printf("Output: %s (%s, %d-bit)", opts.output, info.TargetRate, int(info.BitDepth))
		log.Printf("Decimation: %dx, stage taps %v", info.DecimationFactor, info.StageTaps)
		log.Printf("Block: %d samples every %v, ring holds %v", cfg.BlockSamples, info.BlockPeriod, info.BufferedTime)
	}

	if err := rec.Start(ctx); err != nil {
		return recorder.Stats{}, err
	}
	runErr := runWithProgress(ctx, rec, out, recorder.BlocksForDuration(opts.duration, cfg.BlockSamples), opts.verbose)
	stopErr := rec.Stop()

	if runErr != nil {
		return rec.Stats(), runErr
	}
	return rec.Stats(), stopErr
}

// runWithProgress drives rec until total blocks are written, the source runs
// dry or ctx is done. A non-positive total runs until ctx is done.
func runWithProgress(ctx context.Context, rec *recorder.Recorder, sink recorder.Sink, total int, verbose bool) error {
	if total <= 0 {
		return rec.Run(ctx, sink, 0)
	}

	progress := newProgressTracker(int64(total), verbose)
	chunk := max(total*progressInterval/percentScale, 1)

	for written := 0; written < total; {
		want := min(chunk, total-written)
		before := rec.Stats().Blocks
		if err := rec.Run(ctx, sink, want); err != nil {
			return err
		}
		got := int(rec.Stats().Blocks - before)
		written += got
		progress.reportIfNeeded(int64(written))
		if got < want {
			// source ran out of input
			return nil
		}
	}
	return nil
}
