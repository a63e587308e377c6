package recorder

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/tphakala/go-audio-recorder/internal/decimate"
	"github.com/tphakala/go-audio-recorder/internal/ring"
)

// Recorder owns the signal path of one recording: an acquisition ring fed by
// a Source and a filter bank that converts each block for a Sink.
//
// Start, Stop, Stats and ClearOverrun may be called from any goroutine.
// Step, Run, SetTarget, Reset and Info form the consumer side and must all be
// called from a single goroutine.
type Recorder struct {
	cfg  Config
	src  Source
	ring *ring.Ring
	bank *decimate.Bank
	out  []byte

	mu      sync.Mutex
	running bool

	blocks atomic.Uint64
	bytes  atomic.Uint64
}

// Stats is a snapshot of recorder activity.
type Stats struct {
	Ring      RingStats
	Available int    // blocks waiting for the consumer
	Overrun   bool   // sticky overrun flag
	Blocks    uint64 // blocks delivered to sinks
	Bytes     uint64 // bytes delivered to sinks
}

// New creates a recorder for cfg that will be fed by src. Filter memory
// starts zeroed and the ring starts empty.
func New(cfg *Config, src Source) (*Recorder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: source is nil", ErrInvalidConfig)
	}

	blockLen := cfg.BlockSamples * bytesPerNativeSample
	rg, err := ring.New(cfg.RingCapacity, blockLen)
	if err != nil {
		return nil, fmt.Errorf("failed to create ring: %w", err)
	}

	bank, err := decimate.NewBank(cfg.BlockSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter bank: %w", err)
	}
	if err := bank.SetTarget(cfg.TargetRate); err != nil {
		return nil, err
	}

	return &Recorder{
		cfg:  *cfg,
		src:  src,
		ring: rg,
		bank: bank,
		out:  make([]byte, blockLen),
	}, nil
}

// Start starts the source. From then on blocks accumulate in the ring until
// consumed by Step or Run.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRunning
	}
	if err := r.src.Start(ctx, r.ring.OnBlockReady); err != nil {
		return fmt.Errorf("failed to start source: %w", err)
	}
	r.running = true
	return nil
}

// Stop stops the source. Blocks already in the ring stay there, and ring
// cursors and filter memory are kept, so a later Start resumes where this
// session left off.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}
	r.running = false
	if err := r.src.Stop(); err != nil {
		return fmt.Errorf("failed to stop source: %w", err)
	}
	return nil
}

// Running reports whether the source has been started and not stopped.
func (r *Recorder) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Step is one poll of the driving loop: it converts every block waiting in
// the ring and writes each result to sink, oldest first. It returns the
// number of blocks written.
//
// If the overrun flag is set Step returns ErrOverrun before touching the
// ring. The flag stays set until ClearOverrun, so deciding whether to abort
// or continue with a gap is up to the caller.
func (r *Recorder) Step(sink Sink) (int, error) {
	return r.drain(sink, 0)
}

// drain processes up to limit blocks, or all available blocks if limit is
// not positive.
func (r *Recorder) drain(sink Sink, limit int) (int, error) {
	n := 0
	for limit <= 0 || n < limit {
		if r.ring.OverrunOccurred() {
			return n, ErrOverrun
		}
		raw, err := r.ring.Consume()
		if errors.Is(err, ring.ErrEmpty) {
			return n, nil
		}

		size, err := r.bank.Downsample(raw, r.out, r.cfg.BitDepth)
		if err != nil {
			return n, fmt.Errorf("failed to convert block: %w", err)
		}
		if err := sink.Write(r.out[:size]); err != nil {
			return n, fmt.Errorf("failed to write block: %w", err)
		}

		r.blocks.Add(1)
		r.bytes.Add(uint64(size))
		n++
	}
	return n, nil
}

// Run polls the ring until maxBlocks blocks have been written to sink, or
// forever if maxBlocks is not positive. It yields the processor between empty
// polls rather than blocking. Run returns ctx.Err() when ctx is done and a
// wrapped ErrOverrun if the producer overwrote unread blocks.
//
// If the source reports that it has run out of input (see Finisher), Run
// returns nil once the ring is drained.
func (r *Recorder) Run(ctx context.Context, sink Sink, maxBlocks int) error {
	written := 0
	for maxBlocks <= 0 || written < maxBlocks {
		if err := ctx.Err(); err != nil {
			return err
		}

		limit := 0
		if maxBlocks > 0 {
			limit = maxBlocks - written
		}
		n, err := r.drain(sink, limit)
		written += n
		if errors.Is(err, ErrOverrun) {
			return fmt.Errorf("%w after %d blocks", ErrOverrun, written)
		}
		if err != nil {
			return err
		}
		if n == 0 {
			if r.sourceFinished() && r.ring.Available() == 0 {
				return nil
			}
			runtime.Gosched()
		}
	}
	return nil
}

// Finisher is implemented by sources that can run out of input. Done returns
// a channel closed once the source has delivered its last block, or nil if it
// is not running.
type Finisher interface {
	Done() <-chan struct{}
}

func (r *Recorder) sourceFinished() bool {
	f, ok := r.src.(Finisher)
	if !ok {
		return false
	}
	done := f.Done()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}

// SetTarget switches the output rate for subsequent blocks. The selected
// cascade restarts from zeroed filter memory.
func (r *Recorder) SetTarget(rate SampleRate) error {
	if err := r.bank.SetTarget(rate); err != nil {
		return err
	}
	r.cfg.TargetRate = rate
	return nil
}

// Target returns the current output rate.
func (r *Recorder) Target() SampleRate {
	return r.bank.Target()
}

// ClearOverrun resets the sticky overrun flag so Step can continue after a
// reported gap.
func (r *Recorder) ClearOverrun() {
	r.ring.ClearOverrun()
}

// Reset empties the ring, zeroes all filter memory and clears counters. It
// returns ErrAlreadyRunning while the source is running.
func (r *Recorder) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRunning
	}
	r.ring.Reset()
	r.bank.Reset()
	r.blocks.Store(0)
	r.bytes.Store(0)
	return nil
}

// Stats returns a snapshot of recorder activity.
func (r *Recorder) Stats() Stats {
	return Stats{
		Ring:      r.ring.Stats(),
		Available: r.ring.Available(),
		Overrun:   r.ring.OverrunOccurred(),
		Blocks:    r.blocks.Load(),
		Bytes:     r.bytes.Load(),
	}
}

// Config returns the session configuration, including the current target.
func (r *Recorder) Config() Config {
	return r.cfg
}
