// Package lockarena serializes operations that touch the same load.
//
// Negotiation starts, offer submissions, expirations, bookings and the idle
// sweep all funnel through one arena, so every status transition for a given
// load happens inside an exclusive critical section. Locks are created on
// first use and kept for the life of the process; the load universe is small
// and bounded by the catalog.
package lockarena

import "sync"

type Arena struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *Arena {
	return &Arena{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the exclusive lock for the given load and returns the unlock
// function. Never hold the lock across network I/O.
func (a *Arena) Lock(loadID string) func() {
	a.mu.Lock()
	lock, ok := a.locks[loadID]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[loadID] = lock
	}
	a.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
