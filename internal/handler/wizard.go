// ==============================================================================
// WIZARD HANDLER - internal/handler/wizard.go
// ==============================================================================
// Session lifecycle and navigation endpoints for the supplier registration
// wizard. The canonical wizard state travels as URL-style params; every
// navigation response returns the params the client should reflect.
// ==============================================================================

package handler

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"onboarding/internal/catalog"
	"onboarding/internal/domain"
	"onboarding/internal/forms"
	"onboarding/internal/wizard"
	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"
)

// WizardHandler manages wizard session endpoints.
type WizardHandler struct {
	store   *wizard.Store
	service *wizard.Service
	logger  logger.Logger
}

// NewWizardHandler creates a WizardHandler.
func NewWizardHandler(store *wizard.Store, service *wizard.Service, log logger.Logger) *WizardHandler {
	return &WizardHandler{
		store:   store,
		service: service,
		logger:  log,
	}
}

// respondJSON sends a JSON response
func (h *WizardHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", map[string]interface{}{
			"error":   err.Error(),
			"status":  status,
			"handler": "wizard",
		})
		http.Error(w, `{"error":"response encoding failed"}`, http.StatusInternalServerError)
	}
}

// respondError sends a standardized error response
func (h *WizardHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// session resolves the {id} path variable to a live session, writing the
// error response itself when the lookup fails.
func (h *WizardHandler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
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

// ==============================================================================
// VIEW PROJECTION
// ==============================================================================

type fieldView struct {
	Value   string   `json:"value"`
	Touched bool     `json:"touched"`
	Errors  []string `json:"errors,omitempty"`
}

type documentView struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	FileName string   `json:"fileName,omitempty"`
	Status   string   `json:"status,omitempty"`
	Touched  bool     `json:"touched"`
	Errors   []string `json:"errors,omitempty"`
}

type sessionView struct {
	ID             string               `json:"id"`
	Step           int                  `json:"step"`
	Country        string               `json:"country"`
	Mode           string               `json:"mode"`
	Params         url.Values           `json:"params"`
	Notice         string               `json:"notice,omitempty"`
	Verified       bool                 `json:"verified"`
	Countries      []countryView        `json:"countries"`
	Documents      []documentView       `json:"documents"`
	DocumentsValid bool                 `json:"documentsValid"`
	DocumentsError string               `json:"documentsError,omitempty"`
	Business       map[string]fieldView `json:"business"`
	BusinessValid  bool                 `json:"businessValid"`
	Lookup         map[string]fieldView `json:"lookup"`
}

type countryView struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Flag string `json:"flag"`
}

func groupFields(g *forms.Group) map[string]fieldView {
	out := make(map[string]fieldView, g.Len())
	for _, key := range g.Keys() {
		c := g.Control(key)
		out[key] = fieldView{
			Value:   c.String(),
			Touched: c.Touched(),
			Errors:  c.Errors(),
		}
	}
	return out
}

func buildSessionView(sess *wizard.Session) *sessionView {
	state := sess.State()

	slots := catalog.Resolve(state.Country)
	titles := make(map[string]string, len(slots))
	for _, slot := range slots {
		titles[slot.Key] = slot.Title
	}

	countries := catalog.Countries()
	countryViews := make([]countryView, 0, len(countries))
	for _, c := range countries {
		countryViews = append(countryViews, countryView{Name: c.Name, Code: c.Code, Flag: c.Flag})
	}

	view := &sessionView{
		ID:        sess.ID.String(),
		Step:      state.Step,
		Country:   state.Country,
		Mode:      string(state.Mode),
		Params:    sess.Params(),
		Notice:    sess.Notice(),
		Verified:  sess.Verified(),
		Countries: countryViews,
	}

	// Form snapshots are taken under the session lock so a concurrent
	// extraction completion or upload never tears a view.
	sess.WithForms(func(lookup, docs, business *forms.Group) {
		docViews := make([]documentView, 0, docs.Len())
		for _, key := range docs.Keys() {
			c := docs.Control(key)
			dv := documentView{
				Key:     key,
				Title:   titles[key],
				Touched: c.Touched(),
				Errors:  c.Errors(),
			}
			switch doc := c.Value().(type) {
			case *forms.FileValue:
				dv.FileName = doc.Name
			case *domain.UploadedDocument:
				dv.FileName = doc.FileName
				dv.Status = string(doc.Status)
			}
			docViews = append(docViews, dv)
		}

		view.Documents = docViews
		view.DocumentsValid = docs.Valid()
		view.DocumentsError = docs.GroupError()
		view.Business = groupFields(business)
		view.BusinessValid = business.Valid()
		view.Lookup = groupFields(lookup)
	})

	return view
}

type navigationView struct {
	Params  url.Values `json:"params"`
	Replace bool       `json:"replace"`
}

func (h *WizardHandler) respondNavigation(w http.ResponseWriter, sess *wizard.Session, nav *wizard.Navigation) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"navigation": navigationView{Params: nav.Params, Replace: nav.Replace},
		"session":    buildSessionView(sess),
	})
}

// ==============================================================================
// SESSION LIFECYCLE
// ==============================================================================

// CreateSession starts a wizard session.
// POST /wizard/sessions
func (h *WizardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Params map[string]string `json:"params"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	params := url.Values{}
	for k, v := range body.Params {
		params.Set(k, v)
	}

	sess := h.store.Create(params)

	h.logger.Info("Wizard session created", map[string]interface{}{
		"session": sess.ID.String(),
		"country": sess.State().Country,
		"mode":    string(sess.State().Mode),
	})

	h.respondJSON(w, http.StatusCreated, buildSessionView(sess))
}

// GetSession returns the current wizard state.
// GET /wizard/sessions/{id}
func (h *WizardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, buildSessionView(sess))
}

// DeleteSession ends a wizard session and cancels its background work.
// DELETE /wizard/sessions/{id}
func (h *WizardHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	h.store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// ==============================================================================
// NAVIGATION
// ==============================================================================

// GoToStep moves the wizard to a target step.
// POST /wizard/sessions/{id}/step
func (h *WizardHandler) GoToStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Step int `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	nav, err := h.service.GoToStep(sess, body.Step)
	if err != nil {
		if err == apperrors.ErrStepNotAllowed {
			h.respondJSON(w, http.StatusConflict, map[string]interface{}{
				"error":   "Documents are required before continuing",
				"session": buildSessionView(sess),
			})
			return
		}
		h.respondError(w, http.StatusBadRequest, "Invalid step")
		return
	}

	h.respondNavigation(w, sess, nav)
}

// ChangeCountry selects a country and rebuilds the document checklist.
// POST /wizard/sessions/{id}/country
func (h *WizardHandler) ChangeCountry(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Country string `json:"country"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Country == "" {
		h.respondError(w, http.StatusBadRequest, "country is required")
		return
	}

	nav, err := h.service.OnCountryChange(sess, body.Country)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondNavigation(w, sess, nav)
}

// PrevStep steps the wizard back, resetting it entirely from the first step.
// POST /wizard/sessions/{id}/prev
func (h *WizardHandler) PrevStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	nav, err := h.service.PrevStep(sess)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondNavigation(w, sess, nav)
}

// ==============================================================================
// FORM DATA
// ==============================================================================

// PatchBusiness updates business-data fields.
// PATCH /wizard/sessions/{id}/business
func (h *WizardHandler) PatchBusiness(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess.PatchBusiness(values)
	h.respondJSON(w, http.StatusOK, buildSessionView(sess))
}

// PatchLookup updates employee-intake fields. The document number passes
// through the digits-only input filter before landing in the control.
// PATCH /wizard/sessions/{id}/lookup
func (h *WizardHandler) PatchLookup(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess.PatchLookup(values)
	h.respondJSON(w, http.StatusOK, buildSessionView(sess))
}

// Submit sends the assembled registration and resets the wizard on success.
// POST /wizard/sessions/{id}/submit
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	nav, err := h.service.SubmitForm(r.Context(), sess)
	if err != nil {
		switch err {
		case apperrors.ErrFormInvalid:
			h.respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":   "Form validation failed",
				"session": buildSessionView(sess),
			})
		default:
			h.logger.Error("Registration submission failed", map[string]interface{}{
				"session": sess.ID.String(),
				"error":   err.Error(),
			})
			h.respondError(w, http.StatusBadGateway, "Failed to submit registration")
		}
		return
	}

	h.respondNavigation(w, sess, nav)
}
