package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"onboarding/internal/domain"
	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptClient replays a fixed sequence of status responses.
type scriptClient struct {
	submitID  string
	submitErr error
	responses []*StatusResponse
	statusErr error
	calls     int
	onStatus  func(call int)
}

func (c *scriptClient) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if c.submitErr != nil {
		return "", c.submitErr
	}
	return c.submitID, nil
}

func (c *scriptClient) Status(ctx context.Context, jobID string) (*StatusResponse, error) {
	c.calls++
	if c.onStatus != nil {
		c.onStatus(c.calls)
	}
	if c.statusErr != nil {
		return nil, c.statusErr
	}
	idx := c.calls - 1
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return c.responses[idx], nil
}

func fastPolicy() Policy {
	return Policy{Interval: time.Millisecond}
}

func newJob() *domain.ExtractionJob {
	return &domain.ExtractionJob{JobID: "job-1", DocumentKey: "rut", Status: domain.JobPending}
}

func TestSubmitCreatesJob(t *testing.T) {
	p := New(&scriptClient{submitID: "job-42"}, fastPolicy(), logger.NewNop())

	job, err := p.Submit(context.Background(), "rut", SubmitRequest{FileName: "rut.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "job-42", job.JobID)
	assert.Equal(t, "rut", job.DocumentKey)
	assert.Equal(t, domain.JobPending, job.Status)
}

func TestSubmitTransportFailure(t *testing.T) {
	p := New(&scriptClient{submitErr: errors.New("connection refused")}, fastPolicy(), logger.NewNop())

	job, err := p.Submit(context.Background(), "rut", SubmitRequest{})
	assert.Nil(t, job)
	assert.ErrorIs(t, err, apperrors.ErrSubmissionFailed)
}

func TestRunCompletesAfterThirdPoll(t *testing.T) {
	client := &scriptClient{responses: []*StatusResponse{
		{Status: "in_progress", Progress: 20},
		{Status: "in_progress", Progress: 60},
		{Status: "Completed", Result: &Result{ResultsByPage: []Page{{
			Fields: []domain.ExtractedField{
				{Field: "NIT", Value: "900123456"},
				{Field: "Razón social", Value: "ACME SAS"},
			},
		}}}},
	}}
	p := New(client, fastPolicy(), logger.NewNop())

	var progress []int
	var patch map[string]string
	var final domain.ExtractionJob
	job := newJob()

	p.Run(context.Background(), job, Hooks{
		OnProgress: func(j domain.ExtractionJob) { progress = append(progress, j.Progress) },
		OnComplete: func(j domain.ExtractionJob, m map[string]string) {
			final = j
			patch = m
		},
	})

	assert.Equal(t, 3, client.calls, "terminal after exactly the third poll")
	assert.Equal(t, []int{20, 60}, progress)
	assert.Equal(t, "900123456", patch["nit"])
	assert.Equal(t, "ACME SAS", patch["businessName"])
	assert.Equal(t, domain.JobCompleted, final.Status)
	assert.Equal(t, 100, final.Progress)
	assert.True(t, job.Status.Terminal())
	require.NotNil(t, job.FinishedAt)
}

func TestRunCancelledBetweenPolls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &scriptClient{
		responses: []*StatusResponse{{Status: "in_progress", Progress: 10}},
		onStatus: func(call int) {
			if call == 1 {
				cancel()
			}
		},
	}
	p := New(client, fastPolicy(), logger.NewNop())

	mutated := false
	job := newJob()
	p.Run(ctx, job, Hooks{
		OnProgress: func(domain.ExtractionJob) { mutated = true },
		OnComplete: func(domain.ExtractionJob, map[string]string) { mutated = true },
		OnFailure:  func(domain.ExtractionJob) { mutated = true },
	})

	assert.Equal(t, 1, client.calls, "no second poll after disposal")
	assert.False(t, mutated, "no state mutation after disposal")
	assert.Equal(t, domain.JobPending, job.Status)
}

func TestRunNotFoundKeepsPolling(t *testing.T) {
	client := &scriptClient{responses: []*StatusResponse{
		{Status: "not_found"},
		{Status: "NOT_FOUND"},
		{Status: "processing", Progress: 50},
		{Status: "success"},
	}}
	p := New(client, fastPolicy(), logger.NewNop())

	job := newJob()
	p.Run(context.Background(), job, Hooks{})

	assert.Equal(t, 4, client.calls)
	assert.Equal(t, domain.JobCompleted, job.Status)
}

func TestRunFailureIsTerminal(t *testing.T) {
	client := &scriptClient{responses: []*StatusResponse{
		{Status: "in_progress", Progress: 30},
		{Status: "FAILED", Message: "unreadable document"},
	}}
	p := New(client, fastPolicy(), logger.NewNop())

	var failed *domain.ExtractionJob
	job := newJob()
	p.Run(context.Background(), job, Hooks{
		OnFailure: func(j domain.ExtractionJob) { failed = &j },
	})

	assert.Equal(t, 2, client.calls, "no automatic resubmission")
	require.NotNil(t, failed)
	assert.Equal(t, domain.JobFailed, failed.Status)
	assert.Equal(t, "unreadable document", failed.Error)
}

func TestRunStatusTransportErrorFails(t *testing.T) {
	client := &scriptClient{statusErr: errors.New("network down")}
	p := New(client, fastPolicy(), logger.NewNop())

	job := newJob()
	p.Run(context.Background(), job, Hooks{})

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, domain.JobFailed, job.Status)
}

func TestRunMaxAttemptsBoundsTheLoop(t *testing.T) {
	client := &scriptClient{responses: []*StatusResponse{{Status: "pending"}}}
	p := New(client, Policy{Interval: time.Millisecond, MaxAttempts: 3}, logger.NewNop())

	job := newJob()
	p.Run(context.Background(), job, Hooks{})

	assert.Equal(t, 3, client.calls)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Equal(t, apperrors.ErrPollBudgetSpent.Error(), job.Error)
}

func TestRunProgressDefaultsToZero(t *testing.T) {
	client := &scriptClient{responses: []*StatusResponse{
		{Status: "in_progress"},
		{Status: "completed"},
	}}
	p := New(client, fastPolicy(), logger.NewNop())

	var progress []int
	job := newJob()
	p.Run(context.Background(), job, Hooks{
		OnProgress: func(j domain.ExtractionJob) { progress = append(progress, j.Progress) },
	})

	assert.Equal(t, []int{0}, progress)
}
