package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"freightline/internal/loads/service"
	httputil "freightline/pkg/http"
	"freightline/pkg/logger"
	"freightline/pkg/model"
)

type LoadHandler struct {
	catalog service.CatalogService
	log     *logger.Logger
}

func NewLoadHandler(catalog service.CatalogService, log *logger.Logger) *LoadHandler {
	return &LoadHandler{catalog: catalog, log: log}
}

func (h *LoadHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var criteria model.SearchCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	loads, err := h.catalog.Search(r.Context(), &criteria)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, loads)
}

func (h *LoadHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	load, err := h.catalog.GetDetails(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, load)
}

func (h *LoadHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/loads/search", h.Search)
	router.GET("/api/v1/loads/:id", h.GetByID)
}
