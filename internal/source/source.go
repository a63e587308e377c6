// Package source provides stand-ins for the acquisition hardware: producers
// that call a block callback once per block period from their own goroutine,
// the way the converter's transfer-complete interrupt would.
//
// Blocks are delivered in the converter's wire order (big-endian 24-bit mono
// at the native rate). The slice passed to the callback is reused for the
// next block and is only valid until the callback returns.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

var (
	// ErrAlreadyRunning is returned by Start on a running source.
	ErrAlreadyRunning = errors.New("source already running")

	// ErrInvalidConfig is returned for unusable source parameters.
	ErrInvalidConfig = errors.New("invalid source configuration")

	// ErrFormatMismatch is returned when a recording is not native-rate
	// 24-bit mono.
	ErrFormatMismatch = errors.New("input is not native-rate 24-bit mono")
)

// BlockPeriod returns how long the hardware takes to fill a block of
// blockSamples samples at the native rate.
func BlockPeriod(blockSamples int) time.Duration {
	return time.Duration(blockSamples) * time.Second / time.Duration(pcm.NativeRate)
}

// pacer runs a block generator on a ticker until stopped or until the
// generator fails.
type pacer struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (p *pacer) start(ctx context.Context, period time.Duration, next func() ([]byte, error), onBlock func([]byte)) error {
	if onBlock == nil {
		return fmt.Errorf("%w: nil block callback", ErrInvalidConfig)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done, p.err = cancel, done, nil

	go func() {
		defer close(done)
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			block, err := next()
			if err != nil {
				p.mu.Lock()
				p.err = err
				p.mu.Unlock()
				return
			}
			onBlock(block)
		}
	}()

	return nil
}

func (p *pacer) stop() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()
	<-done

	return p.Err()
}

// Done returns a channel closed when the producer goroutine exits, or nil if
// the source is not running.
func (p *pacer) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Err returns the error that ended the last run. End of input is not an error.
func (p *pacer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if errors.Is(p.err, io.EOF) {
		return nil
	}
	return p.err
}
