package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"freightline/internal/analytics"
	carrierrepo "freightline/internal/carriers/repository"
	"freightline/internal/loads/lockarena"
	loadservice "freightline/internal/loads/service"
	negotiationerrors "freightline/internal/negotiation/errors"
	"freightline/internal/negotiation/policy"
	"freightline/internal/negotiation/repository"
	apperrors "freightline/pkg/errors"
	"freightline/pkg/logger"
	"freightline/pkg/model"
	"freightline/pkg/sanitizer"
)

// OfferResult is the engine's answer to one submitted offer. Exactly one of
// Accepted, CounterOffer > 0, or a terminal Rejected session applies.
type OfferResult struct {
	Session      *model.NegotiationSession `json:"session"`
	Accepted     bool                      `json:"accepted"`
	AgreedRate   int                       `json:"agreed_rate,omitempty"`
	CounterOffer int                       `json:"counter_offer,omitempty"`
}

// EngineService runs the bounded-round negotiation state machine. Every
// transition pairs a session update with its load status change inside the
// same per-load critical section, so the two move together or not at all.
type EngineService interface {
	Start(ctx context.Context, loadID, rawMC string) (*model.NegotiationSession, error)
	SubmitOffer(ctx context.Context, sessionID string, counterOffer, round int) (*OfferResult, error)
	Expire(ctx context.Context, sessionID string) error
	Get(ctx context.Context, sessionID string) (*model.NegotiationSession, error)
	CountSessions(ctx context.Context) (int64, error)
}

type engineService struct {
	catalog  loadservice.CatalogService
	sessions repository.SessionStore
	verified carrierrepo.VerificationLog
	arena    *lockarena.Arena
	policy   policy.RatePolicy
	recorder analytics.Recorder
	log      *logger.Logger
}

func NewEngineService(
	catalog loadservice.CatalogService,
	sessions repository.SessionStore,
	verified carrierrepo.VerificationLog,
	arena *lockarena.Arena,
	ratePolicy policy.RatePolicy,
	recorder analytics.Recorder,
	log *logger.Logger,
) EngineService {
	return &engineService{
		catalog:  catalog,
		sessions: sessions,
		verified: verified,
		arena:    arena,
		policy:   ratePolicy,
		recorder: recorder,
		log:      log,
	}
}

func (s *engineService) Start(ctx context.Context, loadID, rawMC string) (*model.NegotiationSession, error) {
	if loadID == "" {
		return nil, apperrors.InvalidInput("load_id is required")
	}
	mcNumber := sanitizer.NormalizeMCNumber(rawMC)
	if mcNumber == "" {
		return nil, apperrors.InvalidInput("mc_number could not be normalized to a plausible MC number")
	}
	if err := s.requireEligible(mcNumber); err != nil {
		return nil, err
	}

	unlock := s.arena.Lock(loadID)
	defer unlock()

	load, err := s.catalog.GetDetails(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if load.Status != model.LoadAvailable {
		return nil, apperrors.Conflict(fmt.Sprintf("load %s is not available for negotiation", loadID))
	}

	if err := s.catalog.SetStatus(ctx, loadID, model.LoadAvailable, model.LoadNegotiating); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &model.NegotiationSession{
		ID:        uuid.New().String(),
		LoadID:    loadID,
		MCNumber:  mcNumber,
		Round:     0,
		Status:    model.SessionOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		// Release the load; the pair must move together or not at all.
		s.revertLoad(ctx, loadID)
		if errors.Is(err, negotiationerrors.ErrOpenSessionExists) {
			return nil, apperrors.Conflict(fmt.Sprintf("load %s already has an active negotiation", loadID))
		}
		return nil, apperrors.Internal("Failed to create negotiation session", err)
	}

	s.log.Info("Negotiation started",
		"session_id", session.ID,
		"load_id", loadID,
		"mc_number", mcNumber,
		"listed_rate", load.ListedRate,
	)
	return session, nil
}

func (s *engineService) SubmitOffer(ctx context.Context, sessionID string, counterOffer, round int) (*OfferResult, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session_id is required")
	}
	if counterOffer <= 0 {
		return nil, apperrors.InvalidInput("counter_offer must be a positive integer rate")
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Runs after the deferred unlock below; the outcome publish may block on
	// the broker and must never happen under the load lock.
	var failed *model.NegotiationSession
	defer func() {
		if failed != nil {
			s.recordFailure(ctx, failed)
		}
	}()

	unlock := s.arena.Lock(session.LoadID)
	defer unlock()

	// Re-read under the lock; a racing offer or the sweeper may have moved it.
	session, err = s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, apperrors.Conflict(fmt.Sprintf("negotiation session is already %s", session.Status))
	}

	if round > model.MaxRounds {
		if err := s.terminate(ctx, session, model.SessionRejected); err != nil {
			return nil, err
		}
		failed = session
		return nil, apperrors.RoundExceeded(model.MaxRounds)
	}
	if round != session.Round+1 {
		if err := s.terminate(ctx, session, model.SessionRejected); err != nil {
			return nil, err
		}
		failed = session
		return nil, apperrors.RoundMismatch(session.Round+1, round)
	}

	load, err := s.catalog.GetDetails(ctx, session.LoadID)
	if err != nil {
		return nil, err
	}

	decision := s.policy.Evaluate(load.ListedRate, counterOffer, round)
	now := time.Now()
	offer := model.Offer{Round: round, CarrierOffer: counterOffer, At: now}
	session.Round = round
	session.UpdatedAt = now

	switch decision.Action {
	case policy.Accept:
		session.Status = model.SessionAccepted
		session.AgreedRate = counterOffer
		session.Offers = append(session.Offers, offer)
		// The load stays negotiating until booked.
		if err := s.sessions.Update(ctx, session); err != nil {
			return nil, apperrors.Internal("Failed to update negotiation session", err)
		}
		s.log.Info("Offer accepted",
			"session_id", session.ID,
			"load_id", session.LoadID,
			"round", round,
			"agreed_rate", counterOffer,
		)
		return &OfferResult{Session: session, Accepted: true, AgreedRate: counterOffer}, nil

	case policy.Counter:
		offer.CounterOffer = decision.CounterOffer
		session.Offers = append(session.Offers, offer)
		if err := s.sessions.Update(ctx, session); err != nil {
			return nil, apperrors.Internal("Failed to update negotiation session", err)
		}
		s.log.Info("Counter-offer returned",
			"session_id", session.ID,
			"load_id", session.LoadID,
			"round", round,
			"carrier_offer", counterOffer,
			"counter_offer", decision.CounterOffer,
		)
		return &OfferResult{Session: session, CounterOffer: decision.CounterOffer}, nil

	default:
		session.Offers = append(session.Offers, offer)
		if err := s.terminate(ctx, session, model.SessionRejected); err != nil {
			return nil, err
		}
		failed = session
		s.log.Info("Negotiation rejected after final round",
			"session_id", session.ID,
			"load_id", session.LoadID,
			"carrier_offer", counterOffer,
		)
		return &OfferResult{Session: session}, nil
	}
}

func (s *engineService) Expire(ctx context.Context, sessionID string) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}

	// Runs after the deferred unlock below, never under the load lock.
	var failed *model.NegotiationSession
	defer func() {
		if failed != nil {
			s.recordFailure(ctx, failed)
		}
	}()

	unlock := s.arena.Lock(session.LoadID)
	defer unlock()

	session, err = s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Terminal() {
		// Idempotent on already-terminal sessions.
		return nil
	}

	session.UpdatedAt = time.Now()
	if err := s.terminate(ctx, session, model.SessionExpired); err != nil {
		return err
	}
	failed = session

	s.log.Info("Negotiation expired", "session_id", session.ID, "load_id", session.LoadID)
	return nil
}

func (s *engineService) Get(ctx context.Context, sessionID string) (*model.NegotiationSession, error) {
	return s.getSession(ctx, sessionID)
}

func (s *engineService) CountSessions(ctx context.Context) (int64, error) {
	count, err := s.sessions.Count(ctx)
	if err != nil {
		return 0, apperrors.Internal("Failed to count sessions", err)
	}
	return count, nil
}

// terminate moves an Open session to a terminal status and releases its load
// back to available. Callers must hold the load's arena lock and emit the
// failure outcome themselves once the lock is released.
func (s *engineService) terminate(ctx context.Context, session *model.NegotiationSession, status model.SessionStatus) error {
	if err := s.catalog.SetStatus(ctx, session.LoadID, model.LoadNegotiating, model.LoadAvailable); err != nil {
		return err
	}

	session.Status = status
	if err := s.sessions.Update(ctx, session); err != nil {
		// Re-acquire the load so the pair stays consistent.
		if revertErr := s.catalog.SetStatus(ctx, session.LoadID, model.LoadAvailable, model.LoadNegotiating); revertErr != nil {
			s.log.Error("Failed to revert load after session update failure",
				"session_id", session.ID,
				"load_id", session.LoadID,
				"error", revertErr,
			)
		}
		return apperrors.Internal("Failed to update negotiation session", err)
	}

	return nil
}

func (s *engineService) requireEligible(mcNumber string) error {
	carrier, ok := s.verified.Latest(mcNumber)
	if !ok {
		return apperrors.Conflict(fmt.Sprintf("carrier %s has not been verified", mcNumber))
	}
	if carrier.Eligibility != model.Eligible {
		return apperrors.Conflict(fmt.Sprintf("carrier %s is not eligible to operate", mcNumber))
	}
	return nil
}

func (s *engineService) getSession(ctx context.Context, sessionID string) (*model.NegotiationSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, negotiationerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Negotiation session", sessionID)
		}
		return nil, apperrors.Internal("Failed to retrieve negotiation session", err)
	}
	return session, nil
}

func (s *engineService) revertLoad(ctx context.Context, loadID string) {
	if err := s.catalog.SetStatus(ctx, loadID, model.LoadNegotiating, model.LoadAvailable); err != nil {
		s.log.Error("Failed to release load after session create failure", "load_id", loadID, "error", err)
	}
}

func (s *engineService) recordFailure(ctx context.Context, session *model.NegotiationSession) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, &model.CallOutcome{
		Transcript:     fmt.Sprintf("negotiation for load %s ended %s after round %d", session.LoadID, session.Status, session.Round),
		Classification: model.OutcomeNegotiationFailed,
		Sentiment:      model.SentimentNegative,
		ExtractedData: map[string]string{
			"load_id":   session.LoadID,
			"mc_number": session.MCNumber,
		},
		Timestamp: time.Now(),
	})
}
