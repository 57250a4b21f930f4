package handlers

import (
	"net/http"

	"github.com/rozgarhub/rozgarhub-gobackend/internal/services"
)

// AdminHandler exposes the settings document read-only plus the manual
// reconcile re-drive for operators chasing a partial failure.
type AdminHandler struct {
	settings  *services.SettingsService
	reconcile *services.ReconcileService
}

func NewAdminHandler(settings *services.SettingsService, reconcile *services.ReconcileService) *AdminHandler {
	return &AdminHandler{settings: settings, reconcile: reconcile}
}

// GetSettings handles GET /api/settings. Public: clients need the fee
// amounts and toggles to render submission forms.
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Reconcile handles POST /api/admin/reconcile — an operator re-driving
// approved-but-unpatched payments without waiting for the background sweep.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if _, err := requireReviewer(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	repaired, err := h.reconcile.Sweep(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"repaired": repaired})
}
