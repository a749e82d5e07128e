package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tracker/internal/ir"
)

func TestClock_NewClock(t *testing.T) {
	c := NewClock()
	assert.Zero(t, c.Count(ir.Left))
	assert.Zero(t, c.Count(ir.Right))
	assert.Equal(t, int64(1), c.Next(ir.Right), "new clock should start at 0")
}

func TestClock_NextSharesSequenceAcrossSides(t *testing.T) {
	c := NewClock()

	assert.Equal(t, int64(1), c.Next(ir.Left))
	assert.Equal(t, int64(2), c.Next(ir.Right))
	assert.Equal(t, int64(3), c.Next(ir.Left))

	assert.Equal(t, int64(2), c.Count(ir.Left))
	assert.Equal(t, int64(1), c.Count(ir.Right))
}

func TestClock_ThreadSafe(t *testing.T) {
	c := NewClock()
	const goroutines = 50
	const callsPerGoroutine = 100

	var wg sync.WaitGroup
	seqs := make(chan int64, goroutines*callsPerGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		side := ir.Side(i % 2)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				seqs <- c.Next(side)
			}
		}()
	}

	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool)
	for seq := range seqs {
		assert.False(t, seen[seq], "seq %d generated twice", seq)
		seen[seq] = true
	}

	assert.Len(t, seen, goroutines*callsPerGoroutine)
	assert.Equal(t, int64(goroutines*callsPerGoroutine/2), c.Count(ir.Left))
	assert.Equal(t, int64(goroutines*callsPerGoroutine/2), c.Count(ir.Right))
}
