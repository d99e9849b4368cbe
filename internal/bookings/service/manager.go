package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"freightline/internal/analytics"
	bookingerrors "freightline/internal/bookings/errors"
	"freightline/internal/bookings/repository"
	carrierrepo "freightline/internal/carriers/repository"
	"freightline/internal/loads/lockarena"
	loadservice "freightline/internal/loads/service"
	negotiationerrors "freightline/internal/negotiation/errors"
	negotiationrepo "freightline/internal/negotiation/repository"
	apperrors "freightline/pkg/errors"
	"freightline/pkg/logger"
	"freightline/pkg/model"
	"freightline/pkg/sanitizer"
)

// ManagerService finalizes loads as booked. A load books either off an
// accepted negotiation at the agreed rate, or directly at the unmodified
// listed rate when no negotiation exists.
type ManagerService interface {
	Book(ctx context.Context, loadID, rawMC string, agreedRate int) (*model.BookingRecord, error)
	Get(ctx context.Context, bookingID string) (*model.BookingRecord, error)
	List(ctx context.Context) ([]*model.BookingRecord, error)
	CountBookings(ctx context.Context) (int64, error)
}

type managerService struct {
	catalog  loadservice.CatalogService
	bookings repository.BookingStore
	sessions negotiationrepo.SessionStore
	verified carrierrepo.VerificationLog
	arena    *lockarena.Arena
	recorder analytics.Recorder
	log      *logger.Logger
}

func NewManagerService(
	catalog loadservice.CatalogService,
	bookings repository.BookingStore,
	sessions negotiationrepo.SessionStore,
	verified carrierrepo.VerificationLog,
	arena *lockarena.Arena,
	recorder analytics.Recorder,
	log *logger.Logger,
) ManagerService {
	return &managerService{
		catalog:  catalog,
		bookings: bookings,
		sessions: sessions,
		verified: verified,
		arena:    arena,
		recorder: recorder,
		log:      log,
	}
}

func (s *managerService) Book(ctx context.Context, loadID, rawMC string, agreedRate int) (*model.BookingRecord, error) {
	if loadID == "" {
		return nil, apperrors.InvalidInput("load_id is required")
	}
	if agreedRate <= 0 {
		return nil, apperrors.InvalidInput("agreed_rate must be a positive integer rate")
	}
	mcNumber := sanitizer.NormalizeMCNumber(rawMC)
	if mcNumber == "" {
		return nil, apperrors.InvalidInput("mc_number could not be normalized to a plausible MC number")
	}

	carrier, ok := s.verified.Latest(mcNumber)
	if !ok {
		return nil, apperrors.Conflict(fmt.Sprintf("carrier %s has not been verified", mcNumber))
	}
	if carrier.Eligibility != model.Eligible {
		return nil, apperrors.Conflict(fmt.Sprintf("carrier %s is not eligible to operate", mcNumber))
	}

	// Runs after the deferred unlock below; the outcome publish may block on
	// the broker and must never happen under the load lock.
	var booked *model.BookingRecord
	defer func() {
		if booked != nil {
			s.recordBooking(ctx, booked, carrier)
		}
	}()

	unlock := s.arena.Lock(loadID)
	defer unlock()

	if existing, err := s.bookings.FindByLoad(ctx, loadID); err == nil {
		if existing.MCNumber == mcNumber && existing.AgreedRate == agreedRate {
			// Identical repeat of a completed booking.
			return existing, nil
		}
		return nil, apperrors.Conflict(fmt.Sprintf("load %s is already booked", loadID))
	} else if !errors.Is(err, bookingerrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to look up existing booking", err)
	}

	load, err := s.catalog.GetDetails(ctx, loadID)
	if err != nil {
		return nil, err
	}

	from, err := s.authorize(ctx, load, mcNumber, agreedRate)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.SetStatus(ctx, loadID, from, model.LoadBooked); err != nil {
		return nil, err
	}

	booking := &model.BookingRecord{
		ID:         uuid.New().String(),
		LoadID:     loadID,
		MCNumber:   mcNumber,
		AgreedRate: agreedRate,
		BookedAt:   time.Now(),
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		// The pair must move together; put the load back where it was.
		if revertErr := s.catalog.SetStatus(ctx, loadID, model.LoadBooked, from); revertErr != nil {
			s.log.Error("Failed to revert load after booking write failure",
				"load_id", loadID,
				"error", revertErr,
			)
		}
		if errors.Is(err, bookingerrors.ErrAlreadyBooked) {
			return nil, apperrors.Conflict(fmt.Sprintf("load %s is already booked", loadID))
		}
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	booked = booking
	s.log.Info("Load booked",
		"booking_id", booking.ID,
		"load_id", loadID,
		"mc_number", mcNumber,
		"agreed_rate", agreedRate,
	)
	return booking, nil
}

// authorize checks the rate against either the accepted negotiation or the
// listed rate, and returns the load status the booking transitions from.
func (s *managerService) authorize(ctx context.Context, load *model.Load, mcNumber string, agreedRate int) (model.LoadStatus, error) {
	session, err := s.sessions.FindCurrentByLoad(ctx, load.ID)
	switch {
	case err == nil:
		if session.Status != model.SessionAccepted {
			return "", apperrors.Conflict(fmt.Sprintf("load %s has a negotiation in progress", load.ID))
		}
		if session.MCNumber != mcNumber {
			return "", apperrors.Conflict(fmt.Sprintf("load %s was negotiated by a different carrier", load.ID))
		}
		if session.AgreedRate != agreedRate {
			return "", apperrors.Conflict(fmt.Sprintf("agreed_rate %d does not match the negotiated rate", agreedRate))
		}
		return model.LoadNegotiating, nil

	case errors.Is(err, negotiationerrors.ErrNotFound):
		// Direct booking takes the listed rate as-is.
		if load.Status != model.LoadAvailable {
			return "", apperrors.Conflict(fmt.Sprintf("load %s is not available for direct booking", load.ID))
		}
		if agreedRate != load.ListedRate {
			return "", apperrors.Conflict(fmt.Sprintf("direct booking requires the listed rate of %d", load.ListedRate))
		}
		return model.LoadAvailable, nil

	default:
		return "", apperrors.Internal("Failed to look up negotiation for load", err)
	}
}

func (s *managerService) Get(ctx context.Context, bookingID string) (*model.BookingRecord, error) {
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *managerService) List(ctx context.Context) ([]*model.BookingRecord, error) {
	bookings, err := s.bookings.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list bookings", err)
	}
	return bookings, nil
}

func (s *managerService) CountBookings(ctx context.Context) (int64, error) {
	count, err := s.bookings.Count(ctx)
	if err != nil {
		return 0, apperrors.Internal("Failed to count bookings", err)
	}
	return count, nil
}

func (s *managerService) recordBooking(ctx context.Context, booking *model.BookingRecord, carrier *model.Carrier) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, &model.CallOutcome{
		Transcript:     fmt.Sprintf("load %s booked by %s at %d", booking.LoadID, carrier.CompanyName, booking.AgreedRate),
		Classification: model.OutcomeBooked,
		Sentiment:      model.SentimentPositive,
		ExtractedData: map[string]string{
			"load_id":     booking.LoadID,
			"mc_number":   booking.MCNumber,
			"agreed_rate": fmt.Sprintf("%d", booking.AgreedRate),
			"booking_id":  booking.ID,
		},
		Timestamp: booking.BookedAt,
	})
}
