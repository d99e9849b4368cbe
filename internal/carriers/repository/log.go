package repository

import (
	"sync"

	"freightline/pkg/model"
)

// VerificationLog keeps the most recent verification per canonical MC number.
// Negotiation and booking consult it for the "previously verified eligible"
// precondition. Entries live only for the life of the process; verification
// is re-run per call and never persisted unless a booking results.
type VerificationLog interface {
	Record(carrier *model.Carrier)
	Latest(mcNumber string) (*model.Carrier, bool)
}

type memoryVerificationLog struct {
	mu      sync.RWMutex
	entries map[string]model.Carrier
}

func NewVerificationLog() VerificationLog {
	return &memoryVerificationLog{entries: make(map[string]model.Carrier)}
}

func (l *memoryVerificationLog) Record(carrier *model.Carrier) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[carrier.MCNumber] = *carrier
}

func (l *memoryVerificationLog) Latest(mcNumber string) (*model.Carrier, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.entries[mcNumber]
	if !ok {
		return nil, false
	}
	return &c, true
}
