package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"onboarding/internal/domain"
)

// RegistrationClient delivers a completed registration to the remote
// order-management service.
type RegistrationClient struct {
	submitURL string
	token     string
	client    *http.Client
}

// NewRegistrationClient creates a registration client. An empty submitURL
// disables remote delivery.
func NewRegistrationClient(submitURL, token string, timeout time.Duration) *RegistrationClient {
	return &RegistrationClient{
		submitURL: submitURL,
		token:     token,
		client:    &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a registration endpoint is configured.
func (c *RegistrationClient) Enabled() bool { return c.submitURL != "" }

// Save posts the assembled registration. Document payloads travel inline
// as the remote service expects.
func (c *RegistrationClient) Save(ctx context.Context, payload *domain.SubmissionPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.submitURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("registration submission failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remote struct {
			Message domain.LocalizedMessage `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&remote); decodeErr == nil {
			if msg := remote.Message.Es; msg != "" {
				return fmt.Errorf("registration rejected: %s", msg)
			}
		}
		return fmt.Errorf("registration service returned status %d", resp.StatusCode)
	}
	return nil
}
