// ==============================================================================
// EXTRACTION POLLER - internal/extraction/poller.go
// ==============================================================================
// Drives a single document through remote PDF field extraction: one submit,
// then a self-rescheduling status poll with at most one in-flight request
// per job. Transient statuses (pending, in progress, processing, and the
// not-yet-visible not_found) reschedule after a fixed delay; completed and
// failed are terminal. The retry loop is indefinite by default, matching
// the observed service behavior, but the policy is injectable so tests and
// deployments can bound attempts or total wait.
// ==============================================================================

package extraction

import (
	"context"
	"strings"
	"time"

	"onboarding/internal/domain"
	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"

	"github.com/google/uuid"
)

// SubmitRequest carries one document into the remote extraction service.
type SubmitRequest struct {
	FileName string
	Data     []byte
	DocType  string
}

// StatusResponse is the poll envelope returned by the status endpoint.
type StatusResponse struct {
	Status   string  `json:"status"`
	Progress int     `json:"progress"`
	Message  string  `json:"message,omitempty"`
	Result   *Result `json:"result,omitempty"`
}

// Result holds per-page extraction output.
type Result struct {
	ResultsByPage []Page `json:"resultsByPage"`
}

// Page is one page's extracted field list.
type Page struct {
	Fields []domain.ExtractedField `json:"fields"`
}

// Client is the remote extraction gateway.
type Client interface {
	Submit(ctx context.Context, req SubmitRequest) (string, error)
	Status(ctx context.Context, jobID string) (*StatusResponse, error)
}

// Policy bounds the poll loop. Zero MaxAttempts and MaxElapsed mean the
// loop retries until the job finishes or the context is cancelled.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
	MaxElapsed  time.Duration
}

// DefaultPolicy polls every few seconds without an attempt bound.
func DefaultPolicy() Policy {
	return Policy{Interval: 4 * time.Second}
}

// Hooks receive job updates. Nil hooks are skipped. Hooks are only invoked
// while the polling context is alive, never after cancellation.
type Hooks struct {
	OnProgress func(job domain.ExtractionJob)
	OnComplete func(job domain.ExtractionJob, patch map[string]string)
	OnFailure  func(job domain.ExtractionJob)
}

// Poller submits documents and awaits their extraction results.
type Poller struct {
	client Client
	policy Policy
	logger logger.Logger
}

// New creates a poller.
func New(client Client, policy Policy, log logger.Logger) *Poller {
	if policy.Interval <= 0 {
		policy.Interval = DefaultPolicy().Interval
	}
	return &Poller{client: client, policy: policy, logger: log}
}

// Submit uploads the document and returns the tracking job. Transport
// failures surface immediately; the submission itself is never retried.
func (p *Poller) Submit(ctx context.Context, key string, req SubmitRequest) (*domain.ExtractionJob, error) {
	jobID, err := p.client.Submit(ctx, req)
	if err != nil {
		p.logger.Error("document submission failed", map[string]interface{}{
			"document": key,
			"error":    err.Error(),
		})
		return nil, apperrors.Wrap(apperrors.ErrSubmissionFailed, err.Error())
	}

	job := &domain.ExtractionJob{
		ID:          uuid.New(),
		JobID:       jobID,
		DocumentKey: key,
		Status:      domain.JobPending,
		SubmittedAt: time.Now(),
	}
	p.logger.Info("extraction job submitted", map[string]interface{}{
		"document": key,
		"job_id":   jobID,
	})
	return job, nil
}

// Run polls until the job is terminal, the context is cancelled, or the
// policy budget runs out. It blocks; callers start it on its own goroutine.
// Cancellation is checked before every job mutation, so a poll outstanding
// at teardown never mutates state afterwards.
func (p *Poller) Run(ctx context.Context, job *domain.ExtractionJob, hooks Hooks) {
	attempts := 0
	started := time.Now()
	timer := time.NewTimer(p.policy.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		resp, err := p.client.Status(ctx, job.JobID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			p.fail(job, hooks, err.Error())
			return
		}

		switch classify(resp.Status) {
		case domain.JobCompleted:
			p.complete(job, hooks, resp)
			return

		case domain.JobFailed:
			message := resp.Message
			if message == "" {
				message = "extraction failed"
			}
			p.fail(job, hooks, message)
			return

		default:
			job.Status = classify(resp.Status)
			job.Progress = clampProgress(resp.Progress)
			if hooks.OnProgress != nil {
				hooks.OnProgress(*job)
			}

			attempts++
			if p.budgetSpent(attempts, started) {
				p.fail(job, hooks, apperrors.ErrPollBudgetSpent.Error())
				return
			}
			timer.Reset(p.policy.Interval)
		}
	}
}

func (p *Poller) complete(job *domain.ExtractionJob, hooks Hooks, resp *StatusResponse) {
	now := time.Now()
	job.Status = domain.JobCompleted
	job.Progress = 100
	job.FinishedAt = &now

	var fields []domain.ExtractedField
	if resp.Result != nil && len(resp.Result.ResultsByPage) > 0 {
		fields = resp.Result.ResultsByPage[0].Fields
	}
	job.ExtractedFields = fields

	patch := MapFields(fields)
	p.logger.Info("extraction completed", map[string]interface{}{
		"document": job.DocumentKey,
		"job_id":   job.JobID,
		"fields":   len(fields),
	})

	if hooks.OnComplete != nil {
		hooks.OnComplete(*job, patch)
	}
}

func (p *Poller) fail(job *domain.ExtractionJob, hooks Hooks, message string) {
	now := time.Now()
	job.Status = domain.JobFailed
	job.Error = message
	job.FinishedAt = &now

	p.logger.Error("extraction failed", map[string]interface{}{
		"document": job.DocumentKey,
		"job_id":   job.JobID,
		"error":    message,
	})

	if hooks.OnFailure != nil {
		hooks.OnFailure(*job)
	}
}

func (p *Poller) budgetSpent(attempts int, started time.Time) bool {
	if p.policy.MaxAttempts > 0 && attempts >= p.policy.MaxAttempts {
		return true
	}
	if p.policy.MaxElapsed > 0 && time.Since(started) >= p.policy.MaxElapsed {
		return true
	}
	return false
}

// classify folds the remote service's inconsistent status casing into the
// job lifecycle. Unknown statuses are treated as still running.
func classify(status string) domain.JobStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "success", "succeeded", "done":
		return domain.JobCompleted
	case "failed", "error":
		return domain.JobFailed
	case "not_found", "notfound":
		return domain.JobNotFound
	case "pending", "queued":
		return domain.JobPending
	default:
		return domain.JobInProgress
	}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
