// ==============================================================================
// DOMAIN MODELS - internal/domain/models.go
// ==============================================================================
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ==============================================================================
// EMPLOYEE LOOKUP
// ==============================================================================

// Employee is the record returned by the remote employee directory.
type Employee struct {
	DocumentNumber string `json:"documentNumber"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Position       string `json:"position"`
	Area           string `json:"area"`
	Management     string `json:"management"`
}

// EmployeesResponse is the remote lookup envelope.
type EmployeesResponse struct {
	TotalRecords int        `json:"totalRecords"`
	Users        []Employee `json:"users"`
}

// ==============================================================================
// COUNTRY CATALOG
// ==============================================================================

// DocumentSlot is one required upload for a given country. Key is unique
// within a country's slot list; order is display order only.
type DocumentSlot struct {
	Title string `json:"title"`
	Key   string `json:"key"`
}

// Country pairs a catalog name with its ISO-like code as used by the legacy
// `sn` query parameter.
type Country struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Flag string `json:"flag"`
}

// ==============================================================================
// WIZARD
// ==============================================================================

// WizardMode selects the assisted (catalog-driven uploads) or manual
// (no-document) registration path.
type WizardMode string

const (
	ModeAssisted WizardMode = "assisted"
	ModeManual   WizardMode = "manual"
)

// WizardState is derived entirely from navigation query parameters. It is
// never stored independently of them.
type WizardState struct {
	Step    int        `json:"step"`
	Country string     `json:"country"`
	Mode    WizardMode `json:"mode"`
}

// DocumentStatus tracks one uploaded document through submission.
type DocumentStatus string

const (
	DocumentPending   DocumentStatus = "pending"
	DocumentSubmitted DocumentStatus = "submitted"
)

// UploadedDocument is owned by the wizard for the duration of one step and
// discarded on step reset or country change.
type UploadedDocument struct {
	Key      string         `json:"key"`
	FileName string         `json:"file_name"`
	Data     []byte         `json:"-"`
	Status   DocumentStatus `json:"status"`
}

// BusinessData is the final form payload, populated manually or by
// extraction-field mapping.
type BusinessData struct {
	BusinessName string `json:"businessName"`
	NIT          string `json:"nit"`
	LegalRepName string `json:"legalRepName"`
	RiskOption   string `json:"riskOption"`
	RiskWhich    string `json:"riskWhich"`
}

// SubmissionPayload is assembled once on a successful final submit.
type SubmissionPayload struct {
	Country      string                      `json:"country"`
	Mode         WizardMode                  `json:"mode"`
	Documents    map[string]UploadedDocument `json:"documents"`
	BusinessData BusinessData                `json:"businessData"`
}

// ==============================================================================
// EXTRACTION JOBS
// ==============================================================================

// JobStatus enumerates the extraction job lifecycle. Completed and Failed
// are terminal; NotFound is the transient "job not visible yet" state.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobNotFound   JobStatus = "not_found"
)

// Terminal reports whether no further polling should occur.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ExtractedField is one field/value pair from a result page.
type ExtractedField struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ExtractionJob is created by submitting a document and mutated only by poll
// responses.
type ExtractionJob struct {
	ID              uuid.UUID        `json:"id"`
	JobID           string           `json:"jobId"`
	DocumentKey     string           `json:"document_key"`
	Status          JobStatus        `json:"status"`
	Progress        int              `json:"progress"`
	ExtractedFields []ExtractedField `json:"extractedFields,omitempty"`
	Error           string           `json:"error,omitempty"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	FinishedAt      *time.Time       `json:"finished_at,omitempty"`
}

// ==============================================================================
// INVITATIONS
// ==============================================================================

// DataField is one labelled value in the order-creation payload.
type DataField struct {
	LabelIDField string `json:"labelIdField"`
	ValueField   string `json:"valueField"`
}

// InvitationRequest is the createCompleteOrder payload. The operation type
// is always "SR" and observations carries the supplier email.
type InvitationRequest struct {
	CommercialOperationType string      `json:"commercialOperationType"`
	Observations            string      `json:"observations"`
	DataFields              []DataField `json:"dataFields"`
}

// InvitationResponse identifies the created service order.
type InvitationResponse struct {
	NumServiceOrder string `json:"numServiceOrder"`
	OrderServerID   string `json:"orderServerId"`
}

// LocalizedMessage is the bilingual error body the order API returns when a
// service order is not open.
type LocalizedMessage struct {
	Es string `json:"es"`
	En string `json:"en"`
}
