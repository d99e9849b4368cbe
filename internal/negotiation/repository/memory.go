package repository

import (
	"context"
	"sync"
	"time"

	negotiationerrors "freightline/internal/negotiation/errors"
	"freightline/pkg/model"
)

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.NegotiationSession
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]*model.NegotiationSession)}
}

func (s *memorySessionStore) Create(_ context.Context, session *model.NegotiationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sessions {
		if existing.LoadID == session.LoadID && !existing.Terminal() {
			return negotiationerrors.ErrOpenSessionExists
		}
	}

	cp := cloneSession(session)
	s.sessions[session.ID] = cp
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, id string) (*model.NegotiationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, negotiationerrors.ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *memorySessionStore) Update(_ context.Context, session *model.NegotiationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return negotiationerrors.ErrNotFound
	}
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *memorySessionStore) FindCurrentByLoad(_ context.Context, loadID string) (*model.NegotiationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if session.LoadID != loadID {
			continue
		}
		if session.Status == model.SessionOpen || session.Status == model.SessionAccepted {
			return cloneSession(session), nil
		}
	}
	return nil, negotiationerrors.ErrNotFound
}

func (s *memorySessionStore) ListIdleOpen(_ context.Context, cutoff time.Time) ([]*model.NegotiationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var idle []*model.NegotiationSession
	for _, session := range s.sessions {
		if session.Status == model.SessionOpen && session.UpdatedAt.Before(cutoff) {
			idle = append(idle, cloneSession(session))
		}
	}
	return idle, nil
}

func (s *memorySessionStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.sessions)), nil
}

func cloneSession(session *model.NegotiationSession) *model.NegotiationSession {
	cp := *session
	cp.Offers = append([]model.Offer(nil), session.Offers...)
	return &cp
}
