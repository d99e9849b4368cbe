package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	bookingservice "freightline/internal/bookings/service"
	loadservice "freightline/internal/loads/service"
	negotiationservice "freightline/internal/negotiation/service"
	httputil "freightline/pkg/http"
	"freightline/pkg/logger"
	"freightline/pkg/model"
)

type StatsResponse struct {
	LoadsByStatus map[model.LoadStatus]int64 `json:"loads_by_status"`
	Negotiations  int64                      `json:"negotiations"`
	Bookings      int64                      `json:"bookings"`
}

type StatsHandler struct {
	catalog loadservice.CatalogService
	engine  negotiationservice.EngineService
	manager bookingservice.ManagerService
	log     *logger.Logger
}

func NewStatsHandler(
	catalog loadservice.CatalogService,
	engine negotiationservice.EngineService,
	manager bookingservice.ManagerService,
	log *logger.Logger,
) *StatsHandler {
	return &StatsHandler{catalog: catalog, engine: engine, manager: manager, log: log}
}

func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	loads, err := h.catalog.CountByStatus(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	negotiations, err := h.engine.CountSessions(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	bookings, err := h.manager.CountBookings(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, StatsResponse{
		LoadsByStatus: loads,
		Negotiations:  negotiations,
		Bookings:      bookings,
	})
}

func (h *StatsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/stats", h.Stats)
}
