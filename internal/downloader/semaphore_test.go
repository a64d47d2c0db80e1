package downloader

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSemaphoreLimitsConcurrency(t *testing.T) {
	const capacity = 3
	const numWorkers = 20
	sem := NewSemaphore(capacity)

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem.Acquire()
			defer sem.Release()
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			current.Add(-1)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(capacity))
	assert.Equal(t, int32(0), current.Load())
}

func TestSemaphoreUnlimited(t *testing.T) {
	sem := NewSemaphore(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem.Acquire()
			defer sem.Release()
		}()
	}
	wg.Wait()
}

func TestSemaphoreResize(t *testing.T) {
	sem := NewSemaphore(1)
	sem.Acquire()

	released := make(chan struct{})
	go func() {
		sem.Acquire()
		close(released)
		sem.Release()
	}()

	// Growing the capacity lets the pending Acquire proceed.
	sem.Resize(2)
	<-released
	sem.Release()
}
