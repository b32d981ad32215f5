// ==============================================================================
// OTP TOKEN HANDLER - internal/handler/token.go
// ==============================================================================

package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"onboarding/internal/token"
	"onboarding/internal/wizard"
	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"
)

// TokenHandler manages the email verification gate.
type TokenHandler struct {
	store  *wizard.Store
	tokens *token.Service
	logger logger.Logger
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(store *wizard.Store, tokens *token.Service, log logger.Logger) *TokenHandler {
	return &TokenHandler{
		store:  store,
		tokens: tokens,
		logger: log,
	}
}

// respondJSON sends a JSON response
func (h *TokenHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", map[string]interface{}{
			"error":   err.Error(),
			"status":  status,
			"handler": "token",
		})
		http.Error(w, `{"error":"response encoding failed"}`, http.StatusInternalServerError)
	}
}

// respondError sends a standardized error response
func (h *TokenHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *TokenHandler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid session id")
		return nil, false
	}

	sess, err := h.store.Get(id)
	if err != nil {
		status := http.StatusNotFound
		message := "Session not found"
		if err == apperrors.ErrSessionExpired {
			status = http.StatusGone
			message = "Session expired"
		}
		h.respondError(w, status, message)
		return nil, false
	}

	sess.Touch()
	return sess, true
}

// RequestCode issues a fresh verification code and emails it. Requesting
// again replaces the previous code.
// POST /wizard/sessions/{id}/token
func (h *TokenHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" || !strings.Contains(body.Email, "@") {
		h.respondError(w, http.StatusBadRequest, "A valid email is required")
		return
	}

	if err := h.tokens.Request(r.Context(), sess, body.Email); err != nil {
		h.logger.Error("Verification code request failed", map[string]interface{}{
			"session": sess.ID.String(),
			"error":   err.Error(),
		})
		h.respondError(w, http.StatusBadGateway, "Failed to send verification code")
		return
	}

	h.respondJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// ValidateCode checks a submitted code and unlocks the session on success.
// POST /wizard/sessions/{id}/token/validate
func (h *TokenHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.tokens.Verify(sess, strings.TrimSpace(body.Code)); err != nil {
		switch {
		case stderrors.Is(err, apperrors.ErrTokenNotIssued):
			h.respondError(w, http.StatusConflict, "No verification code was requested")
		case stderrors.Is(err, apperrors.ErrTokenExpired):
			h.respondError(w, http.StatusGone, "Verification code expired")
		case stderrors.Is(err, apperrors.ErrTokenMismatch):
			h.respondJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error":    "Incorrect verification code",
				"verified": false,
			})
		default:
			h.respondError(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"verified": true})
}
