package ring

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCapacity     = 16
	testBlockSamples = 8256
	testBlockLen     = testBlockSamples * bytesPerRawSample
)

// rawBlock returns a block whose samples all carry the big-endian bytes
// {seq, 0x5A, ^seq}, so the slot contents identify the block.
func rawBlock(seq byte, blockLen int) []byte {
	b := make([]byte, blockLen)
	for i := 0; i < blockLen; i += bytesPerRawSample {
		b[i] = seq
		b[i+1] = 0x5A
		b[i+2] = ^seq
	}
	return b
}

func newTestRing(t *testing.T) *Ring {
	t.Helper()
	r, err := New(testCapacity, testBlockLen)
	require.NoError(t, err)
	return r
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		blockLen int
		wantErr  error
	}{
		{"valid", 16, 24, nil},
		{"capacity one", 1, 3, nil},
		{"capacity zero", 0, 24, ErrCapacityNotPowerOfTwo},
		{"capacity not power of two", 12, 24, ErrCapacityNotPowerOfTwo},
		{"negative capacity", -4, 24, ErrCapacityNotPowerOfTwo},
		{"zero block", 16, 0, ErrInvalidBlockLength},
		{"partial sample", 16, 25, ErrInvalidBlockLength},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := New(tc.capacity, tc.blockLen)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.capacity, r.Capacity())
			assert.Equal(t, tc.blockLen, r.BlockLen())
			assert.Equal(t, 0, r.Available())
			assert.False(t, r.OverrunOccurred())
		})
	}
}

func TestOnBlockReady_SwapsByteOrder(t *testing.T) {
	r, err := New(2, 6)
	require.NoError(t, err)

	r.OnBlockReady([]byte{0x11, 0x22, 0x33, 0xA1, 0xB2, 0xC3})

	block, err := r.Consume()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x33, 0x22, 0x11, 0xC3, 0xB2, 0xA1}, block)
}

func TestOnBlockReady_WrongLengthPanics(t *testing.T) {
	r := newTestRing(t)
	assert.Panics(t, func() { r.OnBlockReady(make([]byte, 3)) })
	assert.Equal(t, 0, r.Available())
}

func TestProduceConsumeScenario(t *testing.T) {
	r := newTestRing(t)

	r.OnBlockReady(rawBlock(1, testBlockLen))
	_, err := r.Consume()
	require.NoError(t, err)
	assert.Equal(t, 0, r.Available())

	r.OnBlockReady(rawBlock(2, testBlockLen))
	r.OnBlockReady(rawBlock(3, testBlockLen))
	assert.Equal(t, 2, r.Available())
	assert.False(t, r.OverrunOccurred())
}

func TestAvailable_TracksEachStep(t *testing.T) {
	r, err := New(8, 3)
	require.NoError(t, err)

	// produce/consume pattern that stays within capacity
	pattern := "ppcpppccpcpppcccpc"
	want := 0
	for i, op := range pattern {
		switch op {
		case 'p':
			r.OnBlockReady([]byte{byte(i), 0, 0})
			want++
		case 'c':
			_, err := r.Consume()
			require.NoError(t, err)
			want--
		}
		require.Equal(t, want, r.Available(), "step %d (%c)", i, op)
	}
	assert.False(t, r.OverrunOccurred())
}

func TestConsume_FIFOOrder(t *testing.T) {
	r, err := New(4, 3)
	require.NoError(t, err)

	// three laps through the slots
	for lap := range 3 {
		for i := range 4 {
			r.OnBlockReady([]byte{byte(lap*4 + i), 0, 0})
		}
		for i := range 4 {
			block, err := r.Consume()
			require.NoError(t, err)
			// stored little-endian, so the sequence byte is last
			assert.Equal(t, byte(lap*4+i), block[2])
		}
	}
}

func TestConsume_EmptyReturnsError(t *testing.T) {
	r := newTestRing(t)

	block, err := r.Consume()

	require.ErrorIs(t, err, ErrEmpty)
	assert.Nil(t, block)
	assert.Equal(t, 0, r.Available())
}

func TestOverrun_SeventeenBlocksIntoSixteen(t *testing.T) {
	r := newTestRing(t)

	for i := range testCapacity {
		r.OnBlockReady(rawBlock(byte(i), testBlockLen))
	}
	assert.False(t, r.OverrunOccurred(), "exactly full is not an overrun")

	r.OnBlockReady(rawBlock(testCapacity, testBlockLen))
	assert.True(t, r.OverrunOccurred())
	assert.Equal(t, testCapacity+1, r.Available())

	r.ClearOverrun()
	assert.False(t, r.OverrunOccurred())
	assert.Equal(t, testCapacity+1, r.Available(), "clearing must not change available")
}

func TestOverrun_OverwritesOldestSlot(t *testing.T) {
	r, err := New(2, 3)
	require.NoError(t, err)

	r.OnBlockReady([]byte{0, 0, 1})
	r.OnBlockReady([]byte{0, 0, 2})
	r.OnBlockReady([]byte{0, 0, 3}) // laps slot 0

	require.True(t, r.OverrunOccurred())
	block, err := r.Consume()
	require.NoError(t, err)
	assert.Equal(t, byte(3), block[0], "oldest slot holds the newest data after overrun")
}

func TestConsume_SliceChangesWhenProducerLaps(t *testing.T) {
	r, err := New(2, 3)
	require.NoError(t, err)

	r.OnBlockReady([]byte{0, 0, 1})
	block, err := r.Consume()
	require.NoError(t, err)
	require.Equal(t, byte(1), block[0])

	r.OnBlockReady([]byte{0, 0, 2})
	assert.Equal(t, byte(1), block[0], "a block is stable while the backlog is below capacity")

	r.OnBlockReady([]byte{0, 0, 3}) // rewrites the slot block aliases
	assert.Equal(t, byte(3), block[0])
	assert.False(t, r.OverrunOccurred(), "one consumed block frees its slot")

	r.OnBlockReady([]byte{0, 0, 4})
	assert.True(t, r.OverrunOccurred())
}

func TestOverrun_IsSticky(t *testing.T) {
	r, err := New(1, 3)
	require.NoError(t, err)

	r.OnBlockReady([]byte{0, 0, 0})
	r.OnBlockReady([]byte{0, 0, 0})
	require.True(t, r.OverrunOccurred())

	for r.Available() > 0 {
		_, err := r.Consume()
		require.NoError(t, err)
	}
	assert.True(t, r.OverrunOccurred(), "draining the backlog does not clear the flag")
}

func TestStatsAndReset(t *testing.T) {
	r, err := New(2, 3)
	require.NoError(t, err)

	for range 3 {
		r.OnBlockReady([]byte{0, 0, 0})
	}
	_, err = r.Consume()
	require.NoError(t, err)

	s := r.Stats()
	assert.Equal(t, uint64(3), s.Produced)
	assert.Equal(t, uint64(1), s.Consumed)
	assert.Equal(t, uint64(1), s.Overruns)
	assert.Equal(t, int64(3), s.PeakBacklog)

	r.Reset()

	assert.Equal(t, Stats{}, r.Stats())
	assert.Equal(t, 0, r.Available())
	assert.False(t, r.OverrunOccurred())

	r.OnBlockReady([]byte{1, 2, 3})
	block, err := r.Consume()
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 2, 1}, block)
}

// TestConcurrentProducerConsumer runs the producer on its own goroutine, as
// the hardware callback would, and checks that the consumer sees every block
// exactly once and in order.
func TestConcurrentProducerConsumer(t *testing.T) {
	const (
		capacity = 8
		blocks   = 2000
	)
	r, err := New(capacity, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range blocks {
			// Stand-in for the hardware period. Keeping one slot free means the
			// producer never rewrites the slot the consumer is still reading.
			for r.Available() >= capacity-1 {
				runtime.Gosched()
			}
			r.OnBlockReady([]byte{byte(i), byte(i >> 8), 0})
		}
	}()

	for want := 0; want < blocks; {
		block, err := r.Consume()
		if err != nil {
			runtime.Gosched()
			continue
		}
		got := int(block[2]) | int(block[1])<<8
		require.Equal(t, want&0xFFFF, got)
		want++
	}
	wg.Wait()

	assert.False(t, r.OverrunOccurred())
	assert.Equal(t, 0, r.Available())
	assert.Equal(t, uint64(blocks), r.Stats().Consumed)
}

func BenchmarkOnBlockReady(b *testing.B) {
	r, err := New(testCapacity, testBlockLen)
	require.NoError(b, err)
	raw := rawBlock(7, testBlockLen)

	b.SetBytes(testBlockLen)
	b.ResetTimer()
	for b.Loop() {
		r.OnBlockReady(raw)
		_, _ = r.Consume()
	}
}
