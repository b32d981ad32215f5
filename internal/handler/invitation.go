// ==============================================================================
// INVITATION HANDLER - internal/handler/invitation.go
// ==============================================================================
// Endpoints for the intake side: employee lookup, invitation creation, and
// validation of the signed entry link an invited supplier follows.
// ==============================================================================

package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"onboarding/internal/gateway"
	"onboarding/internal/invitation"
	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"
)

// InvitationHandler manages invitation endpoints.
type InvitationHandler struct {
	service *invitation.Service
	links   *invitation.LinkBuilder
	orders  *gateway.OrderClient
	logger  logger.Logger
}

// NewInvitationHandler creates an InvitationHandler.
func NewInvitationHandler(service *invitation.Service, links *invitation.LinkBuilder, orders *gateway.OrderClient, log logger.Logger) *InvitationHandler {
	return &InvitationHandler{
		service: service,
		links:   links,
		orders:  orders,
		logger:  log,
	}
}

// respondJSON sends a JSON response
func (h *InvitationHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", map[string]interface{}{
			"error":   err.Error(),
			"status":  status,
			"handler": "invitation",
		})
		http.Error(w, `{"error":"response encoding failed"}`, http.StatusInternalServerError)
	}
}

// respondError sends a standardized error response
func (h *InvitationHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// SearchEmployee looks up the requesting employee by document number.
// GET /employees?documentNumber=...
func (h *InvitationHandler) SearchEmployee(w http.ResponseWriter, r *http.Request) {
	documentNumber := strings.TrimSpace(r.URL.Query().Get("documentNumber"))
	if documentNumber == "" {
		h.respondError(w, http.StatusBadRequest, "documentNumber query parameter is required")
		return
	}

	emp, err := h.service.Search(r.Context(), documentNumber)
	if err != nil {
		switch {
		case stderrors.Is(err, apperrors.ErrEmployeeNotFound):
			h.respondError(w, http.StatusNotFound, "Employee not found")
		case stderrors.Is(err, apperrors.ErrInvalidDocumentNumber):
			h.respondError(w, http.StatusBadRequest, "Invalid document number")
		default:
			h.logger.Error("Employee lookup failed", map[string]interface{}{
				"document_number": documentNumber,
				"error":           err.Error(),
			})
			h.respondError(w, http.StatusBadGateway, "Employee directory unavailable")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, emp)
}

// CreateInvitation creates the service order and returns the shareable link.
// POST /invitations
func (h *InvitationHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req invitation.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.CreateInvitation(r.Context(), &req)
	if err != nil {
		var orderErr *gateway.OrderError
		var valErr *invitation.ValidationError
		switch {
		case stderrors.As(err, &orderErr):
			h.respondJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":   orderErr.Error(),
				"message": orderErr.Message,
			})
		case stderrors.As(err, &valErr):
			h.respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":  "Validation failed",
				"fields": valErr.Fields,
			})
		default:
			h.logger.Error("Invitation creation failed", map[string]interface{}{
				"error": err.Error(),
			})
			h.respondError(w, http.StatusBadGateway, "Failed to create invitation")
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, result)
}

// ValidateEntry verifies a signed invitation link and checks the order is
// still open before the invited supplier may enter the wizard.
// GET /invited/validate?token=...&oc=...&os=...&country=...
func (h *InvitationHandler) ValidateEntry(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tokenString := q.Get("token")
	if tokenString == "" {
		h.respondError(w, http.StatusBadRequest, "token query parameter is required")
		return
	}

	claims, err := h.links.Parse(tokenString)
	if err != nil {
		status := http.StatusUnauthorized
		message := "Invalid invitation link"
		if stderrors.Is(err, apperrors.ErrLinkExpired) {
			status = http.StatusGone
			message = "Invitation link expired"
		}
		h.respondError(w, status, message)
		return
	}

	if err := h.orders.ValidateOpen(r.Context(), claims.OC, claims.OS, claims.SN); err != nil {
		if stderrors.Is(err, apperrors.ErrOrderRejected) {
			var orderErr *gateway.OrderError
			stderrors.As(err, &orderErr)
			h.respondJSON(w, http.StatusGone, map[string]interface{}{
				"valid":   false,
				"message": orderErr.Message,
			})
			return
		}
		h.logger.Error("Order validation failed", map[string]interface{}{
			"oc":    claims.OC,
			"error": err.Error(),
		})
		h.respondError(w, http.StatusBadGateway, "Order validation unavailable")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"oc":      claims.OC,
		"os":      claims.OS,
		"country": claims.SN,
		"params": map[string]string{
			"sn": claims.SN,
			"oc": claims.OC,
			"os": claims.OS,
		},
	})
}
