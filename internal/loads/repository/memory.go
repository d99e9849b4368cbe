package repository

import (
	"context"
	"sync"

	loaderrors "freightline/internal/loads/errors"
	"freightline/pkg/model"
)

type memoryLoadStore struct {
	mu    sync.RWMutex
	loads map[string]*model.Load
}

// NewMemoryLoadStore builds an in-memory store. Callers receive copies, so
// the only way to mutate a stored load is through UpdateStatus.
func NewMemoryLoadStore(seed []model.Load) LoadStore {
	loads := make(map[string]*model.Load, len(seed))
	for i := range seed {
		l := seed[i]
		loads[l.ID] = &l
	}
	return &memoryLoadStore{loads: loads}
}

func (s *memoryLoadStore) Get(_ context.Context, id string) (*model.Load, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.loads[id]
	if !ok {
		return nil, loaderrors.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *memoryLoadStore) List(_ context.Context) ([]*model.Load, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Load, 0, len(s.loads))
	for _, l := range s.loads {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memoryLoadStore) UpdateStatus(_ context.Context, id string, from, to model.LoadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.loads[id]
	if !ok {
		return loaderrors.ErrNotFound
	}
	if l.Status != from {
		return loaderrors.ErrStatusConflict
	}
	l.Status = to
	return nil
}

func (s *memoryLoadStore) CountByStatus(_ context.Context) (map[model.LoadStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.LoadStatus]int64)
	for _, l := range s.loads {
		counts[l.Status]++
	}
	return counts, nil
}
