package teid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocator_NeverReturnsZero(t *testing.T) {
	a := New()
	for i := 0; i < 100; i++ {
		assert.NotZero(t, a.Allocate())
	}
}

func TestAllocator_Monotone(t *testing.T) {
	a := New()
	var last uint32
	for i := 0; i < 1000; i++ {
		v := a.Allocate()
		assert.Greater(t, v, last)
		last = v
	}
}

func TestAllocator_ConcurrentAllocationsAreUnique(t *testing.T) {
	a := New()
	const n = 500
	results := make(chan uint32, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- a.Allocate()
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint32]bool, n)
	for v := range results {
		assert.False(t, seen[v], "duplicate TEID allocated: %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}

func TestPair_S11AndS1UAreIndependent(t *testing.T) {
	p := NewPair()
	assert.Equal(t, uint32(1), p.S11.Allocate())
	assert.Equal(t, uint32(1), p.S1U.Allocate())
	assert.Equal(t, uint32(2), p.S11.Allocate())
}
