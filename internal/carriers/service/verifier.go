package service

import (
	"context"
	"time"

	"freightline/internal/analytics"
	"freightline/internal/carriers/registry"
	"freightline/internal/carriers/repository"
	apperrors "freightline/pkg/errors"
	"freightline/pkg/logger"
	"freightline/pkg/model"
	"freightline/pkg/sanitizer"
)

// VerifierService resolves a carrier's operating eligibility. External
// registry answers win when available; the local seed dataset covers registry
// outages. Verification never mutates load or session state.
type VerifierService interface {
	Verify(ctx context.Context, rawMC string, useExternal bool) (*model.Carrier, error)
}

type verifierService struct {
	client   registry.Client
	cache    repository.VerificationCache
	verified repository.VerificationLog
	recorder analytics.Recorder
	log      *logger.Logger
}

func NewVerifierService(
	client registry.Client,
	cache repository.VerificationCache,
	verified repository.VerificationLog,
	recorder analytics.Recorder,
	log *logger.Logger,
) VerifierService {
	return &verifierService{
		client:   client,
		cache:    cache,
		verified: verified,
		recorder: recorder,
		log:      log,
	}
}

func (s *verifierService) Verify(ctx context.Context, rawMC string, useExternal bool) (*model.Carrier, error) {
	mcNumber := sanitizer.NormalizeMCNumber(rawMC)
	if mcNumber == "" {
		return nil, apperrors.InvalidInput("mc_number could not be normalized to a plausible MC number")
	}

	if useExternal && s.client != nil {
		if carrier := s.lookupExternal(ctx, mcNumber); carrier != nil {
			return s.conclude(ctx, carrier)
		}
	}

	seed, ok := fallbackDataset[mcNumber]
	if !ok {
		s.recordFailure(ctx, mcNumber, "carrier not found in registry or fallback dataset")
		return nil, apperrors.NotFoundWithID("Carrier", mcNumber)
	}

	carrier := carrierFromResult(&seed, model.SourceFallback)
	return s.conclude(ctx, carrier)
}

// lookupExternal returns nil on any soft failure; the caller falls back to
// the seed dataset. The registry call carries its own bounded timeout and no
// lock is held across it.
func (s *verifierService) lookupExternal(ctx context.Context, mcNumber string) *model.Carrier {
	if s.cache != nil {
		if carrier, ok := s.cache.Get(ctx, mcNumber); ok {
			s.log.Debug("Verification served from cache", "mc_number", mcNumber)
			return carrier
		}
	}

	result, err := s.client.Lookup(ctx, mcNumber)
	if err != nil {
		s.log.Warn("Carrier registry unavailable, using fallback dataset",
			"mc_number", mcNumber,
			"error", err,
		)
		return nil
	}
	if result.Status == registry.StatusNotFound {
		// Unknown to the registry; the seed dataset gets the last word.
		return nil
	}

	carrier := carrierFromResult(result, model.SourceExternal)
	if s.cache != nil {
		s.cache.Put(ctx, carrier)
	}
	return carrier
}

func (s *verifierService) conclude(ctx context.Context, carrier *model.Carrier) (*model.Carrier, error) {
	carrier.VerifiedAt = time.Now()
	s.verified.Record(carrier)

	if carrier.Eligibility != model.Eligible {
		s.recordFailure(ctx, carrier.MCNumber, "carrier is not eligible to operate")
	}

	s.log.Info("Carrier verification completed",
		"mc_number", carrier.MCNumber,
		"eligibility", carrier.Eligibility,
		"source", carrier.Source,
	)
	return carrier, nil
}

func (s *verifierService) recordFailure(ctx context.Context, mcNumber, reason string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, &model.CallOutcome{
		Transcript:     reason,
		Classification: model.OutcomeVerificationFailed,
		Sentiment:      model.SentimentNeutral,
		ExtractedData:  map[string]string{"mc_number": mcNumber},
		Timestamp:      time.Now(),
	})
}

func carrierFromResult(r *registry.Result, source model.VerificationSource) *model.Carrier {
	return &model.Carrier{
		MCNumber:       r.MCNumber,
		CompanyName:    r.CompanyName,
		Eligibility:    eligibilityFromStatus(r.Status),
		Source:         source,
		SafetyRating:   r.SafetyRating,
		InsuranceValid: r.InsuranceValid,
	}
}

func eligibilityFromStatus(status string) model.Eligibility {
	switch status {
	case registry.StatusActive:
		return model.Eligible
	case registry.StatusOutOfService:
		return model.OutOfService
	default:
		return model.NotFound
	}
}
