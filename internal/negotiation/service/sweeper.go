package service

import (
	"context"
	"sync"
	"time"

	"freightline/internal/negotiation/repository"
	"freightline/pkg/logger"
)

// Sweeper expires open sessions that have sat idle past the configured TTL.
// It runs on a fixed tick and delegates each expiry to the engine so the
// load release and session transition stay paired.
type Sweeper struct {
	engine   EngineService
	sessions repository.SessionStore
	idleTTL  time.Duration
	interval time.Duration
	log      *logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(engine EngineService, sessions repository.SessionStore, idleTTL, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		engine:   engine,
		sessions: sessions,
		idleTTL:  idleTTL,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		log:      log,
	}
}

func (s *Sweeper) Start() {
	go s.run()
}

// Stop signals the sweep loop and waits for the in-flight pass to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep(context.Background())
		}
	}
}

// Sweep expires every open session idle past the TTL. Exported so tests and
// the admin surface can trigger a pass without waiting on the ticker.
func (s *Sweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.idleTTL)
	idle, err := s.sessions.ListIdleOpen(ctx, cutoff)
	if err != nil {
		s.log.Error("Idle session sweep failed", "error", err)
		return
	}

	for _, session := range idle {
		if err := s.engine.Expire(ctx, session.ID); err != nil {
			s.log.Error("Failed to expire idle session", "session_id", session.ID, "error", err)
			continue
		}
	}

	if len(idle) > 0 {
		s.log.Info("Expired idle negotiation sessions", "count", len(idle))
	}
}
