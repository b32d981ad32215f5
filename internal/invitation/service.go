// ==============================================================================
// INVITATION SERVICE - internal/invitation/service.go
// ==============================================================================
// Intake side of the wizard: look up the requesting employee, create the
// supplier-registration service order, and derive the shareable link the
// invited supplier receives.
// ==============================================================================

package invitation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"onboarding/internal/catalog"
	"onboarding/internal/domain"
	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"
	"onboarding/pkg/validator"
)

// EmployeeSearcher is the remote employee directory.
type EmployeeSearcher interface {
	Search(ctx context.Context, documentNumber string) (*domain.EmployeesResponse, error)
}

// OrderCreator is the remote order-management API.
type OrderCreator interface {
	CreateOrder(ctx context.Context, inv *domain.InvitationRequest) (*domain.InvitationResponse, error)
}

// InviteRequest is the validated intake form payload.
type InviteRequest struct {
	DocumentNumber string `json:"documentNumber" validate:"required,document_number"`
	Email          string `json:"email" validate:"required,email"`
	Name           string `json:"name" validate:"required"`
	Management     string `json:"management" validate:"required"`
	Position       string `json:"position" validate:"required"`
	Area           string `json:"area"`
	Observations   string `json:"observations"`
	Country        string `json:"country" validate:"required"`
	ProviderType   string `json:"providerType" validate:"required"`
	Classification string `json:"classification"`
}

// ValidationError carries per-field intake validation messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invitation validation failed on %d field(s)", len(e.Fields))
}

// InviteResult pairs the created order with the shareable link.
type InviteResult struct {
	Invitation *domain.InvitationResponse `json:"invitation"`
	Link       string                     `json:"link"`
}

// Service implements the invitation flow.
type Service struct {
	employees EmployeeSearcher
	orders    OrderCreator
	links     *LinkBuilder
	validator *validator.Validator
	logger    logger.Logger
	now       func() time.Time
}

// NewService creates the invitation service.
func NewService(employees EmployeeSearcher, orders OrderCreator, links *LinkBuilder, val *validator.Validator, log logger.Logger) *Service {
	return &Service{
		employees: employees,
		orders:    orders,
		links:     links,
		validator: val,
		logger:    log,
		now:       time.Now,
	}
}

// Search looks up the requesting employee by document number and returns
// the first match.
func (s *Service) Search(ctx context.Context, documentNumber string) (*domain.Employee, error) {
	documentNumber = strings.TrimSpace(documentNumber)
	if documentNumber == "" {
		return nil, apperrors.ErrInvalidDocumentNumber
	}

	res, err := s.employees.Search(ctx, documentNumber)
	if err != nil {
		return nil, apperrors.Wrap(err, "employee search")
	}
	if len(res.Users) == 0 {
		return nil, apperrors.ErrEmployeeNotFound
	}

	emp := res.Users[0]
	return &emp, nil
}

// CreateInvitation validates the intake form, creates the service order,
// and derives the invitation link from the resulting identifiers.
func (s *Service) CreateInvitation(ctx context.Context, req *InviteRequest) (*InviteResult, error) {
	if fields := s.validator.ValidateStructured(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	// Free-text fields travel into the order payload and eventually into
	// rendered documents, so they are escaped on the way in.
	req.Name = validator.Sanitize(req.Name)
	req.Management = validator.Sanitize(req.Management)
	req.Position = validator.Sanitize(req.Position)
	req.Area = validator.Sanitize(req.Area)
	req.Observations = validator.Sanitize(req.Observations)
	req.Classification = validator.Sanitize(req.Classification)

	payload := &domain.InvitationRequest{
		CommercialOperationType: "SR",
		Observations:            req.Email,
		DataFields:              s.buildDataFields(req),
	}

	resp, err := s.orders.CreateOrder(ctx, payload)
	if err != nil {
		s.logger.Error("invitation creation failed", map[string]interface{}{
			"document_number": req.DocumentNumber,
			"error":           err.Error(),
		})
		return nil, err
	}

	code := strings.ToLower(catalog.CodeForCountry(req.Country))
	link, err := s.links.Build(resp.NumServiceOrder, resp.OrderServerID, code)
	if err != nil {
		return nil, apperrors.Wrap(err, "build invitation link")
	}

	s.logger.Info("invitation created", map[string]interface{}{
		"order":   resp.NumServiceOrder,
		"country": req.Country,
	})

	return &InviteResult{Invitation: resp, Link: link}, nil
}

// buildDataFields assembles the labelled fields the order API expects.
func (s *Service) buildDataFields(req *InviteRequest) []domain.DataField {
	return []domain.DataField{
		{LabelIDField: "requestedBy", ValueField: req.Name},
		{LabelIDField: "managementWhichItBelongs", ValueField: req.Management},
		{LabelIDField: "ApplicantPosition", ValueField: req.Position},
		{LabelIDField: "supplierType", ValueField: req.ProviderType},
		{LabelIDField: "supplierClassification", ValueField: req.Classification},
		{LabelIDField: "date", ValueField: s.formattedDate()},
		{LabelIDField: "isCounterpartySelect", ValueField: "No"},
		{LabelIDField: "supplierLocation", ValueField: req.Country},
	}
}

func (s *Service) formattedDate() string {
	d := s.now()
	return fmt.Sprintf("%02d/%02d/%04d", d.Day(), int(d.Month()), d.Year())
}
