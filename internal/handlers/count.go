package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/newsroom-api/server/internal/services"
)

// CountHandler exposes the site visit counter.
type CountHandler struct {
	visits *services.VisitService
}

func NewCountHandler(visits *services.VisitService) *CountHandler {
	return &CountHandler{visits: visits}
}

func CountRouter(r chi.Router, visits *services.VisitService) {
	handler := NewCountHandler(visits)

	r.Get("/visit-count", handler.GetCount)
	r.Post("/update-visit-count", handler.IncrementCount)
}

func (h *CountHandler) GetCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.visits.Get(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: count})
}

func (h *CountHandler) IncrementCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.visits.Increment(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: count})
}

type CountResponse struct {
	Count int64 `json:"count"`
}
