package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"freightline/internal/negotiation/service"
	httputil "freightline/pkg/http"
	"freightline/pkg/logger"
)

type StartRequest struct {
	LoadID   string `json:"load_id"`
	MCNumber string `json:"mc_number"`
}

// OfferRequest carries a carrier's counter-offer. Rounds are 1-based on the
// wire: the first offer after starting a negotiation is round 1.
type OfferRequest struct {
	CounterOffer int `json:"counter_offer"`
	Round        int `json:"round"`
}

type NegotiationHandler struct {
	engine service.EngineService
	log    *logger.Logger
}

func NewNegotiationHandler(engine service.EngineService, log *logger.Logger) *NegotiationHandler {
	return &NegotiationHandler{engine: engine, log: log}
}

func (h *NegotiationHandler) Start(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	session, err := h.engine.Start(r.Context(), req.LoadID, req.MCNumber)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, session)
}

func (h *NegotiationHandler) SubmitOffer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req OfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	result, err := h.engine.SubmitOffer(r.Context(), ps.ByName("id"), req.CounterOffer, req.Round)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, result)
}

func (h *NegotiationHandler) Expire(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.engine.Expire(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *NegotiationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, err := h.engine.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, session)
}

func (h *NegotiationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/negotiations", h.Start)
	router.GET("/api/v1/negotiations/:id", h.GetByID)
	router.POST("/api/v1/negotiations/:id/offers", h.SubmitOffer)
	router.POST("/api/v1/negotiations/:id/expire", h.Expire)
}
