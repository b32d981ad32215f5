package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"onboarding/internal/extraction"
)

// ExtractionClient implements extraction.Client against the remote PDF
// field-extraction service.
type ExtractionClient struct {
	submitURL string
	statusURL string
	token     string
	dpi       int
	pages     int
	client    *http.Client
}

// NewExtractionClient creates an extraction API client.
func NewExtractionClient(submitURL, statusURL, token string, dpi, pages int, timeout time.Duration) *ExtractionClient {
	return &ExtractionClient{
		submitURL: submitURL,
		statusURL: statusURL,
		token:     token,
		dpi:       dpi,
		pages:     pages,
		client:    &http.Client{Timeout: timeout},
	}
}

// Submit uploads a document as multipart form data: the file, its docType,
// and the render options as a JSON string.
func (c *ExtractionClient) Submit(ctx context.Context, req extraction.SubmitRequest) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", req.FileName)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return "", fmt.Errorf("failed to write file part: %w", err)
	}

	if err := w.WriteField("docType", req.DocType); err != nil {
		return "", fmt.Errorf("failed to write docType: %w", err)
	}

	render, err := json.Marshal(map[string]int{"dpi": c.dpi, "pages": c.pages})
	if err != nil {
		return "", fmt.Errorf("failed to encode render options: %w", err)
	}
	if err := w.WriteField("render", string(render)); err != nil {
		return "", fmt.Errorf("failed to write render options: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.submitURL, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("extraction submit failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}

	var out struct {
		JobID string `json:"jobId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	if out.JobID == "" {
		return "", fmt.Errorf("extraction service returned no job id")
	}
	return out.JobID, nil
}

// Status fetches one poll of a job's extraction state.
func (c *ExtractionClient) Status(ctx context.Context, jobID string) (*extraction.StatusResponse, error) {
	u := fmt.Sprintf("%s?jobId=%s", c.statusURL, url.QueryEscape(jobID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction status failed: %w", err)
	}
	defer resp.Body.Close()

	// A 404 is the transient "job not visible yet" state, not an error.
	if resp.StatusCode == http.StatusNotFound {
		return &extraction.StatusResponse{Status: "not_found"}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("extraction status returned %d", resp.StatusCode)
	}

	var out extraction.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	return &out, nil
}
