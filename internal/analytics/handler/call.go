package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"

	"freightline/internal/analytics"
	apperrors "freightline/pkg/errors"
	httputil "freightline/pkg/http"
	"freightline/pkg/logger"
	"freightline/pkg/model"
)

// CallHandler accepts terminal call outcomes from the voice layer and hands
// them to the recorder. Delivery downstream is best-effort, so a valid
// payload is always acknowledged.
type CallHandler struct {
	recorder analytics.Recorder
	validate *validator.Validate
	log      *logger.Logger
}

func NewCallHandler(recorder analytics.Recorder, log *logger.Logger) *CallHandler {
	return &CallHandler{
		recorder: recorder,
		validate: validator.New(),
		log:      log,
	}
}

func (h *CallHandler) Record(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var outcome model.CallOutcome
	if err := json.NewDecoder(r.Body).Decode(&outcome); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.validate.Struct(&outcome); err != nil {
		details := make(map[string]any)
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				details[fe.Field()] = fe.Tag()
			}
		}
		httputil.WriteError(w, apperrors.Validation("Invalid call outcome", details))
		return
	}

	h.recorder.Record(r.Context(), &outcome)
	httputil.WriteJSON(w, http.StatusAccepted, httputil.SuccessResponse{Data: outcome})
}

func (h *CallHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/calls", h.Record)
}
