package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"freightline/internal/analytics"
	carrierrepo "freightline/internal/carriers/repository"
	"freightline/internal/loads/lockarena"
	loadrepo "freightline/internal/loads/repository"
	loadservice "freightline/internal/loads/service"
	loadvalidator "freightline/internal/loads/validator"
	"freightline/internal/negotiation/policy"
	"freightline/internal/negotiation/repository"
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

func (r *captureRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

type engineFixture struct {
	engine   EngineService
	catalog  loadservice.CatalogService
	sessions repository.SessionStore
	verified carrierrepo.VerificationLog
	recorder *captureRecorder
}

func newEngineFixture(t *testing.T, loads []model.Load) *engineFixture {
	t.Helper()

	log := logger.New(logger.Config{Level: logger.ERROR, Service: "test"})
	store := loadrepo.NewMemoryLoadStore(loads)
	catalog := loadservice.NewCatalogService(store, loadvalidator.NewCriteriaValidator(), log)
	sessions := repository.NewMemorySessionStore()
	verified := carrierrepo.NewVerificationLog()
	recorder := &captureRecorder{}

	verified.Record(&model.Carrier{
		MCNumber:    "MC123456",
		CompanyName: "Swift Transportation",
		Eligibility: model.Eligible,
		VerifiedAt:  time.Now(),
	})
	verified.Record(&model.Carrier{
		MCNumber:    "MC345678",
		CompanyName: "J.B. Hunt Transport",
		Eligibility: model.OutOfService,
		VerifiedAt:  time.Now(),
	})

	engine := NewEngineService(
		catalog,
		sessions,
		verified,
		lockarena.New(),
		policy.New(0.05, 0.05, model.MaxRounds),
		recorder,
		log,
	)
	return &engineFixture{
		engine:   engine,
		catalog:  catalog,
		sessions: sessions,
		verified: verified,
		recorder: recorder,
	}
}

func testLoads() []model.Load {
	pickup := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	return []model.Load{
		{
			ID:            "L001",
			Origin:        "Dallas, TX",
			Destination:   "Houston, TX",
			PickupAt:      pickup,
			DeliveryAt:    pickup.Add(8 * time.Hour),
			EquipmentType: "Flatbed",
			ListedRate:    1500,
			Miles:         240,
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
			Miles:         280,
			Status:        model.LoadAvailable,
		},
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

func TestStartMovesLoadToNegotiating(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	session, err := fx.engine.Start(ctx, "L001", "123456")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.Round != 0 {
		t.Errorf("expected fresh session at round 0, got %d", session.Round)
	}
	if session.Status != model.SessionOpen {
		t.Errorf("expected open session, got %s", session.Status)
	}
	if session.MCNumber != "MC123456" {
		t.Errorf("expected normalized MC number, got %s", session.MCNumber)
	}

	load, err := fx.catalog.GetDetails(ctx, "L001")
	if err != nil {
		t.Fatalf("GetDetails: %v", err)
	}
	if load.Status != model.LoadNegotiating {
		t.Errorf("expected load negotiating, got %s", load.Status)
	}
}

func TestStartRejectsUnverifiedAndIneligibleCarriers(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	if _, err := fx.engine.Start(ctx, "L001", "MC999999"); err == nil {
		t.Fatal("expected error for unverified carrier")
	} else {
		assertCode(t, err, apperrors.CodeConflict)
	}

	if _, err := fx.engine.Start(ctx, "L001", "MC345678"); err == nil {
		t.Fatal("expected error for out-of-service carrier")
	} else {
		assertCode(t, err, apperrors.CodeConflict)
	}

	load, _ := fx.catalog.GetDetails(ctx, "L001")
	if load.Status != model.LoadAvailable {
		t.Errorf("load must stay available after rejected starts, got %s", load.Status)
	}
}

func TestStartConflictsOnActiveNegotiation(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	if _, err := fx.engine.Start(ctx, "L001", "MC123456"); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	_, err := fx.engine.Start(ctx, "L001", "MC123456")
	assertCode(t, err, apperrors.CodeConflict)
}

func TestStartUnknownLoad(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	_, err := fx.engine.Start(context.Background(), "L999", "MC123456")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestConcurrentStartsAdmitExactlyOne(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.engine.Start(ctx, "L001", "MC123456")
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assertCode(t, err, apperrors.CodeConflict)
	}
	if won != 1 {
		t.Fatalf("expected exactly one winner, got %d", won)
	}

	count, err := fx.sessions.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single session, got %d", count)
	}
}

func TestSubmitOfferWithinToleranceAccepts(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	session, err := fx.engine.Start(ctx, "L003", "MC123456")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Listed 800; 820 is inside the 5% band on round 1.
	result, err := fx.engine.SubmitOffer(ctx, session.ID, 820, 1)
	if err != nil {
		t.Fatalf("SubmitOffer: %v", err)
	}
	if !result.Accepted {
		t.Fatal("expected offer to be accepted")
	}
	if result.AgreedRate != 820 {
		t.Errorf("expected agreed rate 820, got %d", result.AgreedRate)
	}
	if result.Session.Status != model.SessionAccepted {
		t.Errorf("expected accepted session, got %s", result.Session.Status)
	}

	load, _ := fx.catalog.GetDetails(ctx, "L003")
	if load.Status != model.LoadNegotiating {
		t.Errorf("accepted but unbooked load must stay negotiating, got %s", load.Status)
	}
}

func TestSubmitOfferOutsideToleranceCounters(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	session, err := fx.engine.Start(ctx, "L003", "MC123456")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	result, err := fx.engine.SubmitOffer(ctx, session.ID, 2000, 1)
	if err != nil {
		t.Fatalf("SubmitOffer: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected a counter, not acceptance")
	}
	if result.CounterOffer != 840 {
		t.Errorf("expected counter of 840 on round 1, got %d", result.CounterOffer)
	}
	if result.Session.Status != model.SessionOpen {
		t.Errorf("countered session must stay open, got %s", result.Session.Status)
	}
	if result.Session.Round != 1 {
		t.Errorf("expected session at round 1, got %d", result.Session.Round)
	}
}

func TestSubmitOfferFinalRoundRejects(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	session, err := fx.engine.Start(ctx, "L003", "MC123456")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	for round := 1; round <= 2; round++ {
		if _, err := fx.engine.SubmitOffer(ctx, session.ID, 2000, round); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
	}
	result, err := fx.engine.SubmitOffer(ctx, session.ID, 2000, 3)
	if err != nil {
		t.Fatalf("round 3: %v", err)
	}
	if result.Accepted || result.CounterOffer != 0 {
		t.Fatal("expected a terminal rejection on the final round")
	}
	if result.Session.Status != model.SessionRejected {
		t.Errorf("expected rejected session, got %s", result.Session.Status)
	}

	load, _ := fx.catalog.GetDetails(ctx, "L003")
	if load.Status != model.LoadAvailable {
		t.Errorf("rejected negotiation must release the load, got %s", load.Status)
	}
	if fx.recorder.count() != 1 {
		t.Errorf("expected one negotiation_failed outcome, got %d", fx.recorder.count())
	}
}

func TestSubmitOfferRoundMismatchTerminates(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	session, err := fx.engine.Start(ctx, "L003", "MC123456")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = fx.engine.SubmitOffer(ctx, session.ID, 2000, 2)
	assertCode(t, err, apperrors.CodeRoundMismatch)

	got, err := fx.engine.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Terminal() {
		t.Errorf("round protocol violation must terminate the session, got %s", got.Status)
	}
	load, _ := fx.catalog.GetDetails(ctx, "L003")
	if load.Status != model.LoadAvailable {
		t.Errorf("terminated negotiation must release the load, got %s", load.Status)
	}
}

func TestSubmitOfferBeyondMaxRounds(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	session, err := fx.engine.Start(ctx, "L003", "MC123456")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = fx.engine.SubmitOffer(ctx, session.ID, 810, 4)
	assertCode(t, err, apperrors.CodeRoundExceeded)

	got, _ := fx.engine.Get(ctx, session.ID)
	if !got.Terminal() {
		t.Errorf("exceeding the round cap must terminate the session, got %s", got.Status)
	}
}

func TestSubmitOfferOnTerminalSessionConflicts(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	session, err := fx.engine.Start(ctx, "L003", "MC123456")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := fx.engine.SubmitOffer(ctx, session.ID, 820, 1); err != nil {
		t.Fatalf("SubmitOffer: %v", err)
	}

	_, err = fx.engine.SubmitOffer(ctx, session.ID, 800, 2)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestSubmitOfferValidation(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	if _, err := fx.engine.SubmitOffer(ctx, "", 800, 1); err == nil {
		t.Error("expected error for empty session id")
	}
	if _, err := fx.engine.SubmitOffer(ctx, "nope", 0, 1); err == nil {
		t.Error("expected error for non-positive offer")
	}
	_, err := fx.engine.SubmitOffer(ctx, "nope", 800, 1)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestExpireReleasesLoadAndIsIdempotent(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()

	session, err := fx.engine.Start(ctx, "L001", "MC123456")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := fx.engine.Expire(ctx, session.ID); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	got, _ := fx.engine.Get(ctx, session.ID)
	if got.Status != model.SessionExpired {
		t.Errorf("expected expired session, got %s", got.Status)
	}
	load, _ := fx.catalog.GetDetails(ctx, "L001")
	if load.Status != model.LoadAvailable {
		t.Errorf("expired negotiation must release the load, got %s", load.Status)
	}
	if fx.recorder.count() != 1 {
		t.Errorf("expected one negotiation_failed outcome, got %d", fx.recorder.count())
	}

	// Second expiry is a no-op.
	if err := fx.engine.Expire(ctx, session.ID); err != nil {
		t.Fatalf("second Expire: %v", err)
	}
	if fx.recorder.count() != 1 {
		t.Errorf("idempotent expiry must not emit again, got %d outcomes", fx.recorder.count())
	}
}

func TestSweeperExpiresOnlyIdleSessions(t *testing.T) {
	fx := newEngineFixture(t, testLoads())
	ctx := context.Background()
	log := logger.New(logger.Config{Level: logger.ERROR, Service: "test"})

	stale, err := fx.engine.Start(ctx, "L001", "MC123456")
	if err != nil {
		t.Fatalf("Start stale: %v", err)
	}
	fresh, err := fx.engine.Start(ctx, "L003", "MC123456")
	if err != nil {
		t.Fatalf("Start fresh: %v", err)
	}

	// Backdate the first session past the idle TTL.
	stale.UpdatedAt = time.Now().Add(-time.Hour)
	if err := fx.sessions.Update(ctx, stale); err != nil {
		t.Fatalf("Update: %v", err)
	}

	sweeper := NewSweeper(fx.engine, fx.sessions, 10*time.Minute, time.Minute, log)
	sweeper.Sweep(ctx)

	gotStale, _ := fx.engine.Get(ctx, stale.ID)
	if gotStale.Status != model.SessionExpired {
		t.Errorf("expected stale session expired, got %s", gotStale.Status)
	}
	gotFresh, _ := fx.engine.Get(ctx, fresh.ID)
	if gotFresh.Status != model.SessionOpen {
		t.Errorf("expected fresh session untouched, got %s", gotFresh.Status)
	}
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

func TestOutcomePublishDoesNotHoldLoadLock(t *testing.T) {
	log := logger.New(logger.Config{Level: logger.ERROR, Service: "test"})
	store := loadrepo.NewMemoryLoadStore(testLoads())
	catalog := loadservice.NewCatalogService(store, loadvalidator.NewCriteriaValidator(), log)
	sessions := repository.NewMemorySessionStore()
	verified := carrierrepo.NewVerificationLog()
	verified.Record(&model.Carrier{
		MCNumber:    "MC123456",
		CompanyName: "Swift Transportation",
		Eligibility: model.Eligible,
		VerifiedAt:  time.Now(),
	})
	recorder := newBlockingRecorder()
	engine := NewEngineService(
		catalog, sessions, verified, lockarena.New(),
		policy.New(0.05, 0.05, model.MaxRounds),
		recorder, log,
	)
	ctx := context.Background()

	session, err := engine.Start(ctx, "L001", "MC123456")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	expireDone := make(chan error, 1)
	go func() { expireDone <- engine.Expire(ctx, session.ID) }()
	<-recorder.entered

	// The load was released before the publish began, so a new negotiation
	// must proceed while the recorder is still stuck on the broker.
	startDone := make(chan error, 1)
	go func() {
		_, err := engine.Start(ctx, "L001", "MC123456")
		startDone <- err
	}()

	select {
	case err := <-startDone:
		if err != nil {
			t.Fatalf("Start after expiry: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start blocked behind the outcome publish")
	}

	close(recorder.release)
	if err := <-expireDone; err != nil {
		t.Fatalf("Expire: %v", err)
	}
}

var _ analytics.Recorder = (*captureRecorder)(nil)
var _ analytics.Recorder = (*blockingRecorder)(nil)
