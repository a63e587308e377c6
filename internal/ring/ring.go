// Package ring implements the acquisition ring that sits between the
// hardware-paced producer and the polling consumer.
//
// The ring holds a fixed number of block-sized slots. The producer callback
// writes one byte-order-corrected block per hardware period and the single
// consumer claims blocks in FIFO order. The available-block counter and the
// overrun flag are the only state shared between the two contexts and are
// accessed atomically; each cursor is owned by exactly one side.
//
// When the producer gets more than Capacity blocks ahead, the oldest unread
// slot is overwritten. That loss is never silent: the sticky overrun flag is
// raised and stays set until ClearOverrun.
package ring

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

var (
	// ErrCapacityNotPowerOfTwo is returned when the slot count is not a power of two.
	ErrCapacityNotPowerOfTwo = errors.New("ring capacity must be a power of two")

	// ErrInvalidBlockLength is returned when the block length is not a positive
	// multiple of the 3-byte sample size.
	ErrInvalidBlockLength = errors.New("invalid block length")

	// ErrEmpty is returned by Consume when no block is ready.
	ErrEmpty = errors.New("no block available")
)

// Stats is a snapshot of ring activity since the last Reset.
type Stats struct {
	Produced    uint64 // blocks written by the producer
	Consumed    uint64 // blocks claimed by the consumer
	Overruns    uint64 // producer steps that left more than Capacity blocks pending
	PeakBacklog int64  // largest available count observed by the producer
}

// Ring is a single-producer, single-consumer ring of raw sample blocks.
type Ring struct {
	data     []byte
	blockLen int
	mask     uint32 // capacity - 1

	// producer only
	writePos uint32

	// consumer only
	readPos uint32

	// shared
	available atomic.Int64
	overrun   atomic.Bool

	produced    atomic.Uint64
	consumed    atomic.Uint64
	overruns    atomic.Uint64
	peakBacklog atomic.Int64
}

// New allocates a ring of capacity slots of blockLen bytes each.
func New(capacity, blockLen int) (*Ring, error) {
	if capacity < 1 || capacity&(capacity-1) != 0 || capacity > maxCapacity {
		return nil, fmt.Errorf("%w: %d", ErrCapacityNotPowerOfTwo, capacity)
	}
	if blockLen <= 0 || blockLen%bytesPerRawSample != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte samples",
			ErrInvalidBlockLength, blockLen, bytesPerRawSample)
	}

	return &Ring{
		data:     make([]byte, capacity*blockLen),
		blockLen: blockLen,
		mask:     uint32(capacity - 1),
	}, nil
}

// OnBlockReady is the producer step, called once per completed hardware
// transfer. It converts raw from the converter's big-endian wire order to
// little-endian while copying it into the next slot, then publishes the slot.
//
// It never blocks. Calls must not overlap: the hardware guarantees that the
// next transfer cannot complete before this one returns. raw must be exactly
// BlockLen bytes; anything else is a broken hardware contract and panics.
func (r *Ring) OnBlockReady(raw []byte) {
	if len(raw) != r.blockLen {
		panic(fmt.Sprintf("ring: producer block is %d bytes, want %d", len(raw), r.blockLen))
	}

	pcm.SwapEndian24(r.slot(r.writePos), raw)
	r.writePos = (r.writePos + 1) & r.mask

	r.produced.Add(1)
	n := r.available.Add(1)
	if n > int64(r.Capacity()) {
		r.overrun.Store(true)
		r.overruns.Add(1)
	}
	for {
		peak := r.peakBacklog.Load()
		if n <= peak || r.peakBacklog.CompareAndSwap(peak, n) {
			break
		}
	}
}

// Available returns the number of unread blocks. After an overrun it can
// exceed Capacity; the excess blocks have already been overwritten.
func (r *Ring) Available() int {
	return int(r.available.Load())
}

// Consume claims the oldest unread block. Only one goroutine may consume.
//
// The returned slice aliases ring storage. It is stable only while the
// backlog stays below Capacity. When the producer catches up with the slot
// the caller is still reading, it rewrites that slot concurrently and the
// block can be torn, a mix of old and new samples. That takes a backlog of
// Capacity blocks, one short of an overrun; one more block raises the flag.
// Callers that need intact data must keep the backlog below Capacity.
func (r *Ring) Consume() ([]byte, error) {
	if r.available.Load() <= 0 {
		return nil, ErrEmpty
	}

	block := r.slot(r.readPos)
	r.readPos = (r.readPos + 1) & r.mask
	r.available.Add(-1)
	r.consumed.Add(1)

	return block, nil
}

// OverrunOccurred reports whether the producer has overwritten unread data
// since the flag was last cleared.
func (r *Ring) OverrunOccurred() bool {
	return r.overrun.Load()
}

// ClearOverrun resets the sticky overrun flag. Available is unchanged.
func (r *Ring) ClearOverrun() {
	r.overrun.Store(false)
}

// Reset returns the ring to its initial state. It must only be called while
// the producer is stopped.
func (r *Ring) Reset() {
	r.writePos = 0
	r.readPos = 0
	r.available.Store(0)
	r.overrun.Store(false)
	r.produced.Store(0)
	r.consumed.Store(0)
	r.overruns.Store(0)
	r.peakBacklog.Store(0)
}

// Stats returns a snapshot of the ring counters.
func (r *Ring) Stats() Stats {
	return Stats{
		Produced:    r.produced.Load(),
		Consumed:    r.consumed.Load(),
		Overruns:    r.overruns.Load(),
		PeakBacklog: r.peakBacklog.Load(),
	}
}

// Capacity returns the number of slots.
func (r *Ring) Capacity() int {
	return int(r.mask) + 1
}

// BlockLen returns the slot size in bytes.
func (r *Ring) BlockLen() int {
	return r.blockLen
}

func (r *Ring) slot(pos uint32) []byte {
	off := int(pos) * r.blockLen
	return r.data[off : off+r.blockLen : off+r.blockLen]
}
