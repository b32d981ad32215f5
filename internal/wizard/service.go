// ==============================================================================
// WIZARD STATE MACHINE - internal/wizard/service.go
// ==============================================================================
// Transitions over a session. Every transition that moves the wizard
// produces a new navigation parameter set; state is only ever recomputed
// from parameters.
//
// Step numbering: assisted mode 1=documents, 2=business data, 3=review.
// Manual mode skips documents: 1=business data, 2=review.
// ==============================================================================

package wizard

import (
	"context"
	"net/url"
	"strconv"

	"onboarding/internal/domain"
	"onboarding/internal/forms"
	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"
)

const documentsStep = 1

// Saver receives the assembled payload of a successful final submit.
type Saver interface {
	Save(ctx context.Context, payload *domain.SubmissionPayload) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(ctx context.Context, payload *domain.SubmissionPayload) error

// Save implements Saver.
func (f SaverFunc) Save(ctx context.Context, payload *domain.SubmissionPayload) error {
	return f(ctx, payload)
}

// Service drives wizard transitions.
type Service struct {
	saver  Saver
	logger logger.Logger
}

// NewService creates the wizard service.
func NewService(saver Saver, log logger.Logger) *Service {
	return &Service{saver: saver, logger: log}
}

// GoToStep moves to a target step. Leaving the documents step requires the
// document sub-form to pass its group validator; refusal marks all controls
// touched and leaves state untouched.
func (svc *Service) GoToStep(s *Session, target int) (*Navigation, error) {
	if target < 1 {
		return nil, apperrors.ErrInvalidStep
	}

	state := s.State()
	if state.Mode == domain.ModeAssisted && state.Step == documentsStep && target > documentsStep {
		allowed := true
		s.WithForms(func(_, docs, _ *forms.Group) {
			if !docs.Valid() {
				docs.MarkAllTouched()
				allowed = false
			}
		})
		if !allowed {
			return nil, apperrors.ErrStepNotAllowed
		}
	}

	params := s.Params()
	params.Set(paramStep, strconv.Itoa(target))
	s.applyParams(params)

	return &Navigation{Params: s.Params()}, nil
}

// OnCountryChange rebuilds the document sub-form for the new country. All
// previously entered files are discarded, and navigation history is
// replaced so "back" does not cycle through abandoned selections.
func (svc *Service) OnCountryChange(s *Session, country string) (*Navigation, error) {
	params := s.Params()
	params.Set(paramStep, "1")
	params.Set(paramCountry, country)
	params.Del(paramSN) // the canonical parameter supersedes the legacy code

	s.mu.Lock()
	s.applyParamsLocked(params)
	// A re-selection of the same country still discards entered files.
	s.documents = buildDocuments(ParseState(params))
	s.mu.Unlock()

	svc.logger.Debug("country changed", map[string]interface{}{
		"session": s.ID.String(),
		"country": country,
	})

	return &Navigation{Params: s.Params(), Replace: true}, nil
}

// PrevStep decrements the step. From the first step it returns to the
// initial parameter-less URL and fully resets country, mode and documents.
// Going backward never validates anything.
func (svc *Service) PrevStep(s *Session) (*Navigation, error) {
	state := s.State()
	if state.Step <= 1 {
		s.applyParams(url.Values{})
		return &Navigation{Params: url.Values{}}, nil
	}

	params := s.Params()
	params.Set(paramStep, strconv.Itoa(state.Step-1))
	s.applyParams(params)

	return &Navigation{Params: s.Params()}, nil
}

// SubmitForm performs the terminal action: both sub-forms must be valid,
// otherwise every control is marked touched and a transient notice is
// raised with no state change. On success the final payload is assembled,
// saved, and the wizard navigates back to the start screen.
func (svc *Service) SubmitForm(ctx context.Context, s *Session) (*Navigation, error) {
	state := s.State()

	var payload *domain.SubmissionPayload
	s.WithForms(func(_, docs, business *forms.Group) {
		if !docs.Valid() || !business.Valid() {
			docs.MarkAllTouched()
			business.MarkAllTouched()
			return
		}

		documents := make(map[string]domain.UploadedDocument)
		for key, value := range docs.Values() {
			if doc, ok := value.(*domain.UploadedDocument); ok && doc != nil {
				snapshot := *doc
				snapshot.Status = domain.DocumentSubmitted
				documents[key] = snapshot
			}
		}

		payload = &domain.SubmissionPayload{
			Country:   state.Country,
			Mode:      state.Mode,
			Documents: documents,
			BusinessData: domain.BusinessData{
				BusinessName: business.Control("businessName").String(),
				NIT:          business.Control("nit").String(),
				LegalRepName: business.Control("legalRepName").String(),
				RiskOption:   business.Control("riskOption").String(),
				RiskWhich:    business.Control("riskWhich").String(),
			},
		}
	})
	if payload == nil {
		s.setNotice("Por favor completa todos los campos requeridos.")
		return nil, apperrors.ErrFormInvalid
	}

	s.setNotice("Guardando...")
	if err := svc.saver.Save(ctx, payload); err != nil {
		svc.logger.Error("final submission failed", map[string]interface{}{
			"session": s.ID.String(),
			"error":   err.Error(),
		})
		s.setNotice("No se pudo guardar el registro. Intenta de nuevo.")
		return nil, apperrors.Wrap(err, "submit form")
	}

	svc.logger.Info("registration submitted", map[string]interface{}{
		"session":   s.ID.String(),
		"country":   payload.Country,
		"mode":      string(payload.Mode),
		"documents": len(payload.Documents),
	})

	// Back to the start screen.
	s.applyParams(url.Values{})
	s.setNotice("Registro enviado.")
	return &Navigation{Params: url.Values{}}, nil
}

// AttachDocument places an uploaded file into a slot of the active document
// sub-form and re-runs the group validator.
func (svc *Service) AttachDocument(s *Session, key, fileName string, data []byte) error {
	err := apperrors.ErrUnknownSlot
	s.WithForms(func(_, docs, _ *forms.Group) {
		if docs.Control(key) == nil {
			return
		}
		docs.SetValue(key, &domain.UploadedDocument{
			Key:      key,
			FileName: fileName,
			Data:     data,
			Status:   domain.DocumentPending,
		})
		err = nil
	})
	return err
}

// RemoveDocument clears a slot and re-runs the group validator.
func (svc *Service) RemoveDocument(s *Session, key string) error {
	err := apperrors.ErrUnknownSlot
	s.WithForms(func(_, docs, _ *forms.Group) {
		if docs.Control(key) == nil {
			return
		}
		docs.SetValue(key, nil)
		err = nil
	})
	return err
}
