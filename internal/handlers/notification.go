package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/services"
)

// NotificationHandler serves the notifications the fan-out appends. Creation
// is never exposed over HTTP; only the review/placement flows write here.
type NotificationHandler struct {
	store services.NotificationStore
}

func NewNotificationHandler(store services.NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// GetNotifications handles GET /api/userid/{userID}/notifications.
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)

	userID := mux.Vars(r)["userID"]
	if sub != userID && role != models.RoleReviewer {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "cannot view notifications for another user"})
		return
	}

	notifications, err := h.store.ListByRecipient(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

// MarkRead handles PATCH /api/notification/{notificationID}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if _, err := claimsFromRequest(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.MarkRead(r.Context(), mux.Vars(r)["notificationID"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
