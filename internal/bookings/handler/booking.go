package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"freightline/internal/bookings/service"
	httputil "freightline/pkg/http"
	"freightline/pkg/logger"
)

type BookRequest struct {
	LoadID     string `json:"load_id"`
	MCNumber   string `json:"mc_number"`
	AgreedRate int    `json:"agreed_rate"`
}

type BookingHandler struct {
	manager service.ManagerService
	log     *logger.Logger
}

func NewBookingHandler(manager service.ManagerService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{manager: manager, log: log}
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	booking, err := h.manager.Book(r.Context(), req.LoadID, req.MCNumber, req.AgreedRate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, booking)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.manager.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.manager.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, bookings)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Book)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/:id", h.GetByID)
}
