package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/services"
)

type ReviewHandler struct {
	service *services.ReviewService
}

func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// SubmitPayment handles POST /api/payment — a payer filing proof of an
// offline transfer.
func (h *ReviewHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	payerID, _ := claims["sub"].(string)

	var req struct {
		Amount             int64                `json:"amount"`
		Kind               models.PaymentKind   `json:"kind"`
		Method             models.PaymentMethod `json:"method"`
		ProofRef           string               `json:"proof_ref"`
		LinkedConnectionID string               `json:"linked_connection_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	payment := &models.Payment{
		PayerID:            payerID,
		Amount:             req.Amount,
		Kind:               req.Kind,
		Method:             req.Method,
		ProofRef:           req.ProofRef,
		LinkedConnectionID: req.LinkedConnectionID,
	}
	id, err := h.service.Submit(r.Context(), payment)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ApprovePayment handles POST /api/payment/{paymentID}/approve.
func (h *ReviewHandler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	reviewerID, err := requireReviewer(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	var req struct {
		ExternalTransactionRef string `json:"external_transaction_ref"`
	}
	// Body is optional; the external reference is a reconciliation aid.
	_ = json.NewDecoder(r.Body).Decode(&req)

	paymentID := mux.Vars(r)["paymentID"]
	result, err := h.service.Approve(r.Context(), paymentID, reviewerID, req.ExternalTransactionRef)
	if err != nil {
		var partial *services.PartialFailureError
		if errors.As(err, &partial) {
			// The approval committed; report it with the steps that still
			// need a re-drive so the operator sees a warning, not a failure.
			result.Warnings = append(result.Warnings, partial.Steps...)
			writeJSON(w, http.StatusOK, result)
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RejectPayment handles POST /api/payment/{paymentID}/reject.
func (h *ReviewHandler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	reviewerID, err := requireReviewer(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	paymentID := mux.Vars(r)["paymentID"]
	result, err := h.service.Reject(r.Context(), paymentID, reviewerID, req.Reason)
	if err != nil {
		var partial *services.PartialFailureError
		if errors.As(err, &partial) {
			result.Warnings = append(result.Warnings, partial.Steps...)
			writeJSON(w, http.StatusOK, result)
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetPayment handles GET /api/payment/{paymentID}.
func (h *ReviewHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	if _, err := claimsFromRequest(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	payment, err := h.service.Get(r.Context(), mux.Vars(r)["paymentID"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// GetPayments handles GET /api/payments — the reviewer queue, filterable by
// status and creation date range.
func (h *ReviewHandler) GetPayments(w http.ResponseWriter, r *http.Request) {
	if _, err := requireReviewer(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	filter, err := paymentFilterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	payments, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// GetPaymentsByUserID handles GET /api/userid/{userID}/payments. Payers may
// only view their own history; reviewers may view anyone's.
func (h *ReviewHandler) GetPaymentsByUserID(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)

	userID := mux.Vars(r)["userID"]
	if sub != userID && role != models.RoleReviewer {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "cannot view payments for another user"})
		return
	}

	filter, err := paymentFilterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	filter.PayerID = userID

	payments, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func paymentFilterFromQuery(r *http.Request) (services.PaymentFilter, error) {
	var filter services.PaymentFilter

	switch status := models.PaymentStatus(r.URL.Query().Get("status")); status {
	case "", models.PaymentPending, models.PaymentApproved, models.PaymentRejected:
		filter.Status = status
	default:
		return filter, errors.New("invalid status filter, must be pending, approved or rejected")
	}

	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	if startDate != "" && endDate != "" {
		start, err := time.Parse(time.RFC3339, startDate)
		if err != nil {
			return filter, errors.New("invalid start_date, must be RFC3339")
		}
		end, err := time.Parse(time.RFC3339, endDate)
		if err != nil {
			return filter, errors.New("invalid end_date, must be RFC3339")
		}
		filter.From = &start
		filter.To = &end
	}
	return filter, nil
}
