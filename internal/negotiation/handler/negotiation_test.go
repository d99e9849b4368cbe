package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"

	"freightline/internal/negotiation/service"
	apperrors "freightline/pkg/errors"
	"freightline/pkg/logger"
	"freightline/pkg/model"
)

type mockEngineService struct {
	startFunc       func(ctx context.Context, loadID, mcNumber string) (*model.NegotiationSession, error)
	submitOfferFunc func(ctx context.Context, sessionID string, counterOffer, round int) (*service.OfferResult, error)
	expireFunc      func(ctx context.Context, sessionID string) error
}

func (m *mockEngineService) Start(ctx context.Context, loadID, mcNumber string) (*model.NegotiationSession, error) {
	if m.startFunc != nil {
		return m.startFunc(ctx, loadID, mcNumber)
	}
	return &model.NegotiationSession{}, nil
}

func (m *mockEngineService) SubmitOffer(ctx context.Context, sessionID string, counterOffer, round int) (*service.OfferResult, error) {
	if m.submitOfferFunc != nil {
		return m.submitOfferFunc(ctx, sessionID, counterOffer, round)
	}
	return &service.OfferResult{}, nil
}

func (m *mockEngineService) Expire(ctx context.Context, sessionID string) error {
	if m.expireFunc != nil {
		return m.expireFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockEngineService) Get(context.Context, string) (*model.NegotiationSession, error) {
	return &model.NegotiationSession{}, nil
}

func (m *mockEngineService) CountSessions(context.Context) (int64, error) {
	return 0, nil
}

func newTestRouter(engine service.EngineService) *httprouter.Router {
	log := logger.New(logger.Config{Level: logger.ERROR, Service: "test"})
	router := httprouter.New()
	NewNegotiationHandler(engine, log).RegisterRoutes(router)
	return router
}

func TestStartReturnsCreatedSession(t *testing.T) {
	var gotLoadID, gotMC string
	engine := &mockEngineService{
		startFunc: func(_ context.Context, loadID, mcNumber string) (*model.NegotiationSession, error) {
			gotLoadID, gotMC = loadID, mcNumber
			return &model.NegotiationSession{ID: "sess-1", LoadID: loadID, Status: model.SessionOpen}, nil
		},
	}
	router := newTestRouter(engine)

	body := bytes.NewBufferString(`{"load_id":"L001","mc_number":"MC-123456"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/negotiations", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotLoadID != "L001" || gotMC != "MC-123456" {
		t.Errorf("unexpected arguments: load_id=%s mc_number=%s", gotLoadID, gotMC)
	}
}

func TestStartRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&mockEngineService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/negotiations", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitOfferMapsProtocolErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"round mismatch", apperrors.RoundMismatch(2, 1), http.StatusConflict, apperrors.CodeRoundMismatch},
		{"round exceeded", apperrors.RoundExceeded(model.MaxRounds), http.StatusConflict, apperrors.CodeRoundExceeded},
		{"terminal session", apperrors.Conflict("negotiation session is already accepted"), http.StatusConflict, apperrors.CodeConflict},
		{"unknown session", apperrors.NotFoundWithID("Negotiation session", "nope"), http.StatusNotFound, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mockEngineService{
				submitOfferFunc: func(context.Context, string, int, int) (*service.OfferResult, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(engine)

			body := bytes.NewBufferString(`{"counter_offer":900,"round":1}`)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/negotiations/sess-1/offers", body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			var resp struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestSubmitOfferPassesRoundThrough(t *testing.T) {
	var gotOffer, gotRound int
	engine := &mockEngineService{
		submitOfferFunc: func(_ context.Context, _ string, counterOffer, round int) (*service.OfferResult, error) {
			gotOffer, gotRound = counterOffer, round
			return &service.OfferResult{CounterOffer: 840}, nil
		},
	}
	router := newTestRouter(engine)

	body := bytes.NewBufferString(`{"counter_offer":2000,"round":1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/negotiations/sess-1/offers", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotOffer != 2000 || gotRound != 1 {
		t.Errorf("unexpected arguments: counter_offer=%d round=%d", gotOffer, gotRound)
	}
}

func TestExpireReturnsNoContent(t *testing.T) {
	router := newTestRouter(&mockEngineService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/negotiations/sess-1/expire", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
