package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"freightline/internal/carriers/service"
	httputil "freightline/pkg/http"
	"freightline/pkg/logger"
)

type VerifyRequest struct {
	MCNumber    string `json:"mc_number"`
	UseExternal *bool  `json:"use_external,omitempty"`
}

type CarrierHandler struct {
	verifier service.VerifierService
	log      *logger.Logger
}

func NewCarrierHandler(verifier service.VerifierService, log *logger.Logger) *CarrierHandler {
	return &CarrierHandler{verifier: verifier, log: log}
}

func (h *CarrierHandler) Verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	// The external registry is consulted unless the caller opts out.
	useExternal := true
	if req.UseExternal != nil {
		useExternal = *req.UseExternal
	}

	carrier, err := h.verifier.Verify(r.Context(), req.MCNumber, useExternal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, carrier)
}

func (h *CarrierHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/carriers/verify", h.Verify)
}
