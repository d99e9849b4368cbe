package lockarena

import (
	"sync"
	"testing"
)

func TestArenaSerializesSameLoad(t *testing.T) {
	arena := New()

	const goroutines = 50
	counter := 0

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			unlock := arena.Lock("L001")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != goroutines {
		t.Errorf("counter = %d, want %d", counter, goroutines)
	}
}

func TestArenaIndependentLoads(t *testing.T) {
	arena := New()

	unlockA := arena.Lock("L001")
	defer unlockA()

	// A second load must not block on the first one's lock.
	done := make(chan struct{})
	go func() {
		unlockB := arena.Lock("L002")
		unlockB()
		close(done)
	}()

	<-done
}
