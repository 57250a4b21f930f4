package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/services"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// CreateAccount handles POST /api/user.
func (h *UserHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var account models.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	// Role is never client-assignable on open registration.
	account.Role = models.RoleUser

	id, err := h.service.CreateAccount(r.Context(), &account)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Login handles POST /api/login and returns a signed token with the role
// claim reviewer endpoints check.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	account, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}

	token, err := issueToken(account)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to sign token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"token": token, "account": account})
}

// GetAccounts handles GET /api/users. Reviewer-gated: the queue UI shows
// payer profiles next to pending payments.
func (h *UserHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	if _, err := requireReviewer(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	accounts, err := h.service.AccountList(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GetAccount handles GET /api/user/{userID}.
func (h *UserHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)

	userID := mux.Vars(r)["userID"]
	if userID == "" {
		userID = sub
	}
	if sub != userID && role != models.RoleReviewer {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "cannot view another account"})
		return
	}

	account, err := h.service.GetAccount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	account.HPassword = ""
	writeJSON(w, http.StatusOK, account)
}
