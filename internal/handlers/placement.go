package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/services"
)

type PlacementHandler struct {
	service *services.PlacementService
}

func NewPlacementHandler(service *services.PlacementService) *PlacementHandler {
	return &PlacementHandler{service: service}
}

// CreatePlacement handles POST /api/placement — the hire callback from the
// application aggregate. Reviewer-gated: hires are confirmed by staff.
func (h *PlacementHandler) CreatePlacement(w http.ResponseWriter, r *http.Request) {
	if _, err := requireReviewer(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	var params services.HireParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	placement, err := h.service.CreateFromHire(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, placement)
}

// CollectCommission handles POST /api/placement/{placementID}/collect.
func (h *PlacementHandler) CollectCommission(w http.ResponseWriter, r *http.Request) {
	reviewerID, err := requireReviewer(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	placement, warnings, err := h.service.MarkCollected(r.Context(), mux.Vars(r)["placementID"], reviewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"placement": placement, "warnings": warnings})
}

// FailCommission handles POST /api/placement/{placementID}/fail.
func (h *PlacementHandler) FailCommission(w http.ResponseWriter, r *http.Request) {
	reviewerID, err := requireReviewer(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	placement, warnings, err := h.service.MarkFailed(r.Context(), mux.Vars(r)["placementID"], reviewerID, req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"placement": placement, "warnings": warnings})
}

// GetPlacement handles GET /api/placement/{placementID}.
func (h *PlacementHandler) GetPlacement(w http.ResponseWriter, r *http.Request) {
	if _, err := requireReviewer(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	placement, err := h.service.Get(r.Context(), mux.Vars(r)["placementID"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, placement)
}

// GetPlacements handles GET /api/placements?status=.
func (h *PlacementHandler) GetPlacements(w http.ResponseWriter, r *http.Request) {
	if _, err := requireReviewer(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	status := models.CommissionStatus(r.URL.Query().Get("status"))
	placements, err := h.service.ListByStatus(r.Context(), status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, placements)
}

// GetOverduePlacements handles GET /api/placements/overdue — pending
// commissions past their due date, the collection chase list.
func (h *PlacementHandler) GetOverduePlacements(w http.ResponseWriter, r *http.Request) {
	if _, err := requireReviewer(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	placements, err := h.service.ListOverdue(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, placements)
}
