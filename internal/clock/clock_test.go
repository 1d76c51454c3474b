package clock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_StartsAtZero(t *testing.T) {
	c := New()
	assert.Equal(t, uint64(0), c.Tick())
	assert.Equal(t, uint64(1), c.Tick())
}

func TestClock_StrictlyMonotonicUnderConcurrency(t *testing.T) {
	c := New()
	const goroutines = 50
	const perGoroutine = 200

	seen := make(chan uint64, goroutines*perGoroutine)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				seen <- c.Tick()
			}
		}()
	}
	wg.Wait()
	close(seen)

	values := make(map[uint64]bool, goroutines*perGoroutine)
	for v := range seen {
		require.False(t, values[v], "tick value %d issued twice", v)
		values[v] = true
	}
	assert.Len(t, values, goroutines*perGoroutine)
}
