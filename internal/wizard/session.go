// ==============================================================================
// WIZARD SESSION - internal/wizard/session.go
// ==============================================================================
package wizard

import (
	"context"
	"net/url"
	"sync"
	"time"

	"onboarding/internal/catalog"
	"onboarding/internal/domain"
	"onboarding/internal/forms"

	"github.com/google/uuid"
)

// Session holds one visitor's transient wizard state. Everything in it is
// discarded when the session expires or is closed; nothing is persisted.
type Session struct {
	ID uuid.UUID

	mu     sync.Mutex
	params url.Values

	lookup    *forms.Group
	documents *forms.Group
	business  *forms.Group

	employee   *domain.Employee
	invitation *domain.InvitationResponse

	otpHash     []byte
	otpExpires  time.Time
	otpVerified bool

	notice string

	createdAt time.Time
	lastSeen  time.Time

	cancels map[string]context.CancelFunc
	closed  bool
}

// NewSession builds a session from the entry navigation parameters.
func NewSession(params url.Values) *Session {
	s := &Session{
		ID:        uuid.New(),
		lookup:    forms.BuildLookupForm(),
		business:  forms.BuildBusinessForm(),
		createdAt: time.Now(),
		lastSeen:  time.Now(),
		cancels:   make(map[string]context.CancelFunc),
	}
	s.applyParams(cloneParams(params))
	return s
}

// applyParams installs a new parameter set and reconciles derived state.
// Callers must hold no lock; the method locks internally.
func (s *Session) applyParams(params url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyParamsLocked(params)
}

func (s *Session) applyParamsLocked(params url.Values) {
	prev := ParseState(s.params)
	s.params = params
	next := ParseState(params)

	// The document sub-form always matches the active country's slots.
	// Rebuild only when the country or mode actually changed so files
	// survive step navigation within one country.
	if s.documents == nil || prev.Country != next.Country || prev.Mode != next.Mode {
		s.documents = buildDocuments(next)
	}
	s.lastSeen = time.Now()
}

func buildDocuments(state domain.WizardState) *forms.Group {
	if state.Mode == domain.ModeManual {
		// Manual registration bypasses document upload entirely.
		return forms.NewGroup()
	}
	return forms.BuildDocumentForm(catalog.Resolve(state.Country))
}

// State projects the current parameters. Always derived, never stored.
func (s *Session) State() domain.WizardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ParseState(s.params)
}

// Params returns a copy of the current navigation parameters.
func (s *Session) Params() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneParams(s.params)
}

// WithForms runs fn with the session lock held. The sub-form groups are not
// safe for concurrent use on their own; every read or write that can race
// with the extraction poller or another request goes through here. fn must
// not call other locking Session methods.
func (s *Session) WithForms(fn func(lookup, documents, business *forms.Group)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.lookup, s.documents, s.business)
}

// Lookup returns the employee intake sub-form. Single-goroutine use only;
// concurrent access goes through WithForms.
func (s *Session) Lookup() *forms.Group { return s.lookup }

// Documents returns the active document sub-form. Single-goroutine use
// only; concurrent access goes through WithForms.
func (s *Session) Documents() *forms.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documents
}

// Business returns the business-data sub-form. Single-goroutine use only;
// concurrent access goes through WithForms.
func (s *Session) Business() *forms.Group { return s.business }

// Employee returns the looked-up requester, if any.
func (s *Session) Employee() *domain.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.employee
}

// SetEmployee records the looked-up requester.
func (s *Session) SetEmployee(e *domain.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employee = e
}

// Invitation returns the created order identifiers, if any.
func (s *Session) Invitation() *domain.InvitationResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invitation
}

// SetInvitation records the created order identifiers.
func (s *Session) SetInvitation(inv *domain.InvitationResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invitation = inv
}

// Notice returns and clears the pending transient user notice.
func (s *Session) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = ""
	return n
}

func (s *Session) setNotice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = msg
}

// PatchBusiness writes extracted values into the business-data sub-form.
// Absent values are written as empty strings, never skipped.
func (s *Session) PatchBusiness(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for key, value := range values {
		if c := s.business.Control(key); c != nil {
			c.SetValue(value)
		}
	}
	s.business.Revalidate()
}

// PatchLookup writes intake fields into the lookup sub-form. The document
// number passes through the digits-only input filter first, mirroring the
// live filter of the intake field.
func (s *Session) PatchLookup(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for key, value := range values {
		if key == "documentNumber" {
			value = forms.DigitsOnly(value)
		}
		s.lookup.SetValue(key, value)
	}
}

// SetOTP stores the hash and expiry of an issued verification code.
func (s *Session) SetOTP(hash []byte, expires time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otpHash = hash
	s.otpExpires = expires
	s.otpVerified = false
}

// OTP returns the stored code hash and expiry.
func (s *Session) OTP() ([]byte, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otpHash, s.otpExpires
}

// MarkVerified flags the session as OTP-verified.
func (s *Session) MarkVerified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otpVerified = true
}

// Verified reports whether the OTP gate has been passed.
func (s *Session) Verified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otpVerified
}

// RegisterCancel records a cancel function for background work tied to this
// session, keyed so a resubmission replaces (and cancels) the previous one.
func (s *Session) RegisterCancel(key string, cancel context.CancelFunc) {
	s.mu.Lock()
	prev := s.cancels[key]
	closed := s.closed
	if !closed {
		s.cancels[key] = cancel
	}
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	if closed {
		cancel()
	}
}

// Close cancels all outstanding background work. Any poll scheduled at the
// time of teardown never mutates this session again.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	cancels := s.cancels
	s.cancels = make(map[string]context.CancelFunc)
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Closed reports whether the session was torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Touch refreshes the activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

// LastSeen returns the last activity timestamp.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
