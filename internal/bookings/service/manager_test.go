package service

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingrepo "freightline/internal/bookings/repository"
	carrierrepo "freightline/internal/carriers/repository"
	"freightline/internal/loads/lockarena"
	loadrepo "freightline/internal/loads/repository"
	loadservice "freightline/internal/loads/service"
	loadvalidator "freightline/internal/loads/validator"
	"freightline/internal/negotiation/policy"
	negotiationrepo "freightline/internal/negotiation/repository"
	negotiationservice "freightline/internal/negotiation/service"
	apperrors "freightline/pkg/errors"
	"freightline/pkg/logger"
	"freightline/pkg/model"
)

type captureRecorder struct {
	mu       sync.Mutex
	outcomes []*model.CallOutcome
}

func (r *captureRecorder) Record(_ context.Context, outcome *model.CallOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *captureRecorder) last() *model.CallOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outcomes) == 0 {
		return nil
	}
	return r.outcomes[len(r.outcomes)-1]
}

type managerFixture struct {
	manager  ManagerService
	engine   negotiationservice.EngineService
	catalog  loadservice.CatalogService
	bookings bookingrepo.BookingStore
	recorder *captureRecorder
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	log := logger.New(logger.Config{Level: logger.ERROR, Service: "test"})
	pickup := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	loads := []model.Load{
		{
			ID:            "L001",
			Origin:        "Dallas, TX",
			Destination:   "Houston, TX",
			PickupAt:      pickup,
			DeliveryAt:    pickup.Add(8 * time.Hour),
			EquipmentType: "Flatbed",
			ListedRate:    1500,
			Status:        model.LoadAvailable,
		},
		{
			ID:            "L003",
			Origin:        "Chicago, IL",
			Destination:   "Detroit, MI",
			PickupAt:      pickup,
			DeliveryAt:    pickup.Add(6 * time.Hour),
			EquipmentType: "Dry Van",
			ListedRate:    800,
			Status:        model.LoadAvailable,
		},
	}

	store := loadrepo.NewMemoryLoadStore(loads)
	catalog := loadservice.NewCatalogService(store, loadvalidator.NewCriteriaValidator(), log)
	sessions := negotiationrepo.NewMemorySessionStore()
	bookings := bookingrepo.NewMemoryBookingStore()
	verified := carrierrepo.NewVerificationLog()
	arena := lockarena.New()
	recorder := &captureRecorder{}

	verified.Record(&model.Carrier{
		MCNumber:    "MC123456",
		CompanyName: "Swift Transportation",
		Eligibility: model.Eligible,
		VerifiedAt:  time.Now(),
	})
	verified.Record(&model.Carrier{
		MCNumber:    "MC789012",
		CompanyName: "Schneider National",
		Eligibility: model.Eligible,
		VerifiedAt:  time.Now(),
	})
	verified.Record(&model.Carrier{
		MCNumber:    "MC345678",
		CompanyName: "J.B. Hunt Transport",
		Eligibility: model.OutOfService,
		VerifiedAt:  time.Now(),
	})

	engine := negotiationservice.NewEngineService(
		catalog, sessions, verified, arena,
		policy.New(0.05, 0.05, model.MaxRounds),
		recorder, log,
	)
	manager := NewManagerService(catalog, bookings, sessions, verified, arena, recorder, log)
	return &managerFixture{
		manager:  manager,
		engine:   engine,
		catalog:  catalog,
		bookings: bookings,
		recorder: recorder,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

// acceptNegotiation drives L003 to an accepted session at 820.
func acceptNegotiation(t *testing.T, fx *managerFixture, mcNumber string) {
	t.Helper()
	ctx := context.Background()
	session, err := fx.engine.Start(ctx, "L003", mcNumber)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	result, err := fx.engine.SubmitOffer(ctx, session.ID, 820, 1)
	if err != nil {
		t.Fatalf("SubmitOffer: %v", err)
	}
	if !result.Accepted {
		t.Fatal("expected offer to be accepted")
	}
}

func TestDirectBookingAtListedRate(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()

	booking, err := fx.manager.Book(ctx, "L001", "123456", 1500)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if booking.MCNumber != "MC123456" {
		t.Errorf("expected normalized MC number, got %s", booking.MCNumber)
	}
	if booking.AgreedRate != 1500 {
		t.Errorf("expected agreed rate 1500, got %d", booking.AgreedRate)
	}

	load, _ := fx.catalog.GetDetails(ctx, "L001")
	if load.Status != model.LoadBooked {
		t.Errorf("expected booked load, got %s", load.Status)
	}

	outcome := fx.recorder.last()
	if outcome == nil || outcome.Classification != model.OutcomeBooked {
		t.Errorf("expected a successful_booking outcome, got %+v", outcome)
	}
}

func TestDirectBookingRejectsModifiedRate(t *testing.T) {
	fx := newManagerFixture(t)
	_, err := fx.manager.Book(context.Background(), "L001", "MC123456", 1400)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestBookingAfterAcceptedNegotiation(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()
	acceptNegotiation(t, fx, "MC123456")

	booking, err := fx.manager.Book(ctx, "L003", "MC123456", 820)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if booking.AgreedRate != 820 {
		t.Errorf("expected negotiated rate 820, got %d", booking.AgreedRate)
	}

	load, _ := fx.catalog.GetDetails(ctx, "L003")
	if load.Status != model.LoadBooked {
		t.Errorf("expected booked load, got %s", load.Status)
	}
}

func TestBookingRejectsRateOtherThanNegotiated(t *testing.T) {
	fx := newManagerFixture(t)
	acceptNegotiation(t, fx, "MC123456")

	_, err := fx.manager.Book(context.Background(), "L003", "MC123456", 800)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestBookingRejectsDifferentCarrierThanNegotiated(t *testing.T) {
	fx := newManagerFixture(t)
	acceptNegotiation(t, fx, "MC123456")

	_, err := fx.manager.Book(context.Background(), "L003", "MC789012", 820)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestBookingConflictsOnOpenNegotiation(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()

	if _, err := fx.engine.Start(ctx, "L003", "MC123456"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err := fx.manager.Book(ctx, "L003", "MC123456", 800)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestBookingIsIdempotent(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()

	first, err := fx.manager.Book(ctx, "L001", "MC123456", 1500)
	if err != nil {
		t.Fatalf("first Book: %v", err)
	}
	second, err := fx.manager.Book(ctx, "L001", "MC123456", 1500)
	if err != nil {
		t.Fatalf("repeat Book: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected the same booking record, got %s and %s", first.ID, second.ID)
	}

	count, err := fx.bookings.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single booking record, got %d", count)
	}
}

func TestRepeatBookingWithDifferentTermsConflicts(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()

	if _, err := fx.manager.Book(ctx, "L001", "MC123456", 1500); err != nil {
		t.Fatalf("Book: %v", err)
	}

	_, err := fx.manager.Book(ctx, "L001", "MC789012", 1500)
	assertCode(t, err, apperrors.CodeConflict)

	_, err = fx.manager.Book(ctx, "L001", "MC123456", 1400)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestConcurrentIdenticalBookingsProduceOneRecord(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	ids := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			booking, err := fx.manager.Book(ctx, "L001", "MC123456", 1500)
			if booking != nil {
				ids[i] = booking.ID
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("expected identical responses, got %s and %s", ids[0], ids[i])
		}
	}

	count, _ := fx.bookings.Count(ctx)
	if count != 1 {
		t.Fatalf("expected a single booking record, got %d", count)
	}
}

func TestBookingEligibilityPreconditions(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()

	_, err := fx.manager.Book(ctx, "L001", "MC999999", 1500)
	assertCode(t, err, apperrors.CodeConflict)

	_, err = fx.manager.Book(ctx, "L001", "MC345678", 1500)
	assertCode(t, err, apperrors.CodeConflict)
}

// blockingRecorder simulates a stalled analytics broker: Record signals entry
// and then parks until released.
type blockingRecorder struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingRecorder() *blockingRecorder {
	return &blockingRecorder{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (r *blockingRecorder) Record(context.Context, *model.CallOutcome) {
	r.entered <- struct{}{}
	<-r.release
}

func TestBookingOutcomePublishDoesNotHoldLoadLock(t *testing.T) {
	log := logger.New(logger.Config{Level: logger.ERROR, Service: "test"})
	pickup := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	store := loadrepo.NewMemoryLoadStore([]model.Load{{
		ID:            "L001",
		Origin:        "Dallas, TX",
		Destination:   "Houston, TX",
		PickupAt:      pickup,
		DeliveryAt:    pickup.Add(8 * time.Hour),
		EquipmentType: "Flatbed",
		ListedRate:    1500,
		Status:        model.LoadAvailable,
	}})
	catalog := loadservice.NewCatalogService(store, loadvalidator.NewCriteriaValidator(), log)
	verified := carrierrepo.NewVerificationLog()
	verified.Record(&model.Carrier{
		MCNumber:    "MC123456",
		CompanyName: "Swift Transportation",
		Eligibility: model.Eligible,
		VerifiedAt:  time.Now(),
	})
	recorder := newBlockingRecorder()
	manager := NewManagerService(
		catalog, bookingrepo.NewMemoryBookingStore(), negotiationrepo.NewMemorySessionStore(),
		verified, lockarena.New(), recorder, log,
	)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := manager.Book(ctx, "L001", "MC123456", 1500)
		firstDone <- err
	}()
	<-recorder.entered

	// The booking is committed and the lock released before the publish, so
	// an identical repeat must return the record while the broker is stuck.
	repeatDone := make(chan error, 1)
	go func() {
		_, err := manager.Book(ctx, "L001", "MC123456", 1500)
		repeatDone <- err
	}()

	select {
	case err := <-repeatDone:
		if err != nil {
			t.Fatalf("repeat Book: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("repeat Book blocked behind the outcome publish")
	}

	close(recorder.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first Book: %v", err)
	}
}

func TestBookingValidation(t *testing.T) {
	fx := newManagerFixture(t)
	ctx := context.Background()

	if _, err := fx.manager.Book(ctx, "", "MC123456", 1500); err == nil {
		t.Error("expected error for empty load id")
	}
	if _, err := fx.manager.Book(ctx, "L001", "not an mc", 1500); err == nil {
		t.Error("expected error for garbage MC number")
	}
	if _, err := fx.manager.Book(ctx, "L001", "MC123456", 0); err == nil {
		t.Error("expected error for non-positive rate")
	}

	_, err := fx.manager.Book(ctx, "L999", "MC123456", 1500)
	assertCode(t, err, apperrors.CodeNotFound)
}
