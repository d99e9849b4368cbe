package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	loaderrors "freightline/internal/loads/errors"
	"freightline/internal/loads/repository"
	"freightline/internal/loads/validator"
	apperrors "freightline/pkg/errors"
	"freightline/pkg/logger"
	"freightline/pkg/model"
	"freightline/pkg/sanitizer"
)

// CatalogService answers load searches and detail lookups. SetStatus is the
// only mutator and is reserved for the negotiation engine and the booking
// manager; handlers never call it directly.
type CatalogService interface {
	Search(ctx context.Context, criteria *model.SearchCriteria) ([]*model.Load, error)
	GetDetails(ctx context.Context, loadID string) (*model.Load, error)
	SetStatus(ctx context.Context, loadID string, from, to model.LoadStatus) error
	CountByStatus(ctx context.Context) (map[model.LoadStatus]int64, error)
}

type catalogService struct {
	store     repository.LoadStore
	validator *validator.CriteriaValidator
	log       *logger.Logger
}

func NewCatalogService(store repository.LoadStore, v *validator.CriteriaValidator, log *logger.Logger) CatalogService {
	return &catalogService{store: store, validator: v, log: log}
}

func (s *catalogService) Search(ctx context.Context, criteria *model.SearchCriteria) ([]*model.Load, error) {
	if criteria == nil {
		criteria = &model.SearchCriteria{}
	}
	if err := s.validator.Validate(criteria); err != nil {
		return nil, apperrors.Validation("Invalid search criteria", map[string]any{"error": err.Error()})
	}

	loads, err := s.store.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list loads", err)
	}

	matched := make([]*model.Load, 0, len(loads))
	for _, load := range loads {
		if load.Status != model.LoadAvailable {
			continue
		}
		if matches(load, criteria) {
			matched = append(matched, load)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ListedRate != matched[j].ListedRate {
			return matched[i].ListedRate < matched[j].ListedRate
		}
		return matched[i].ID < matched[j].ID
	})

	s.log.Debug("Load search completed", "matched", len(matched), "criteria", criteria)
	return matched, nil
}

func (s *catalogService) GetDetails(ctx context.Context, loadID string) (*model.Load, error) {
	if loadID == "" {
		return nil, apperrors.InvalidInput("Load ID cannot be empty")
	}

	load, err := s.store.Get(ctx, loadID)
	if err != nil {
		if errors.Is(err, loaderrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Load", loadID)
		}
		return nil, apperrors.Internal("Failed to retrieve load", err)
	}
	return load, nil
}

func (s *catalogService) SetStatus(ctx context.Context, loadID string, from, to model.LoadStatus) error {
	if !model.AllowedTransition(from, to) {
		return apperrors.Conflict(fmt.Sprintf("load status transition %s -> %s is not allowed", from, to))
	}

	err := s.store.UpdateStatus(ctx, loadID, from, to)
	switch {
	case err == nil:
		s.log.Info("Load status changed", "load_id", loadID, "from", from, "to", to)
		return nil
	case errors.Is(err, loaderrors.ErrNotFound):
		return apperrors.NotFoundWithID("Load", loadID)
	case errors.Is(err, loaderrors.ErrStatusConflict):
		return apperrors.Conflict("load status changed concurrently")
	default:
		return apperrors.Internal("Failed to update load status", err)
	}
}

func (s *catalogService) CountByStatus(ctx context.Context) (map[model.LoadStatus]int64, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to count loads", err)
	}
	return counts, nil
}

func matches(load *model.Load, c *model.SearchCriteria) bool {
	if c.EquipmentType != "" && load.EquipmentType != c.EquipmentType {
		return false
	}
	if c.Origin != "" && !strings.Contains(sanitizer.NormalizePlace(load.Origin), sanitizer.NormalizePlace(c.Origin)) {
		return false
	}
	if c.Destination != "" && !strings.Contains(sanitizer.NormalizePlace(load.Destination), sanitizer.NormalizePlace(c.Destination)) {
		return false
	}
	if c.MinRate > 0 && load.ListedRate < c.MinRate {
		return false
	}
	if c.MaxRate > 0 && load.ListedRate > c.MaxRate {
		return false
	}
	if c.MaxMiles > 0 && load.Miles > c.MaxMiles {
		return false
	}
	if c.Commodity != "" && !strings.Contains(strings.ToLower(load.Commodity), strings.ToLower(c.Commodity)) {
		return false
	}
	return true
}
