package repository

import (
	"context"
	"sort"
	"sync"

	bookingerrors "freightline/internal/bookings/errors"
	"freightline/pkg/model"
)

type memoryBookingStore struct {
	mu     sync.RWMutex
	byID   map[string]*model.BookingRecord
	byLoad map[string]string
}

func NewMemoryBookingStore() BookingStore {
	return &memoryBookingStore{
		byID:   make(map[string]*model.BookingRecord),
		byLoad: make(map[string]string),
	}
}

func (s *memoryBookingStore) Create(_ context.Context, booking *model.BookingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byLoad[booking.LoadID]; exists {
		return bookingerrors.ErrAlreadyBooked
	}

	record := *booking
	s.byID[record.ID] = &record
	s.byLoad[record.LoadID] = record.ID
	return nil
}

func (s *memoryBookingStore) Get(_ context.Context, id string) (*model.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.byID[id]
	if !ok {
		return nil, bookingerrors.ErrNotFound
	}
	record := *booking
	return &record, nil
}

func (s *memoryBookingStore) FindByLoad(_ context.Context, loadID string) (*model.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byLoad[loadID]
	if !ok {
		return nil, bookingerrors.ErrNotFound
	}
	record := *s.byID[id]
	return &record, nil
}

func (s *memoryBookingStore) List(_ context.Context) ([]*model.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*model.BookingRecord, 0, len(s.byID))
	for _, booking := range s.byID {
		record := *booking
		records = append(records, &record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].BookedAt.Before(records[j].BookedAt)
	})
	return records, nil
}

func (s *memoryBookingStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}
