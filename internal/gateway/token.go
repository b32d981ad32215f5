package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TokenClient asks the remote token service to email a verification code.
type TokenClient struct {
	sendURL string
	client  *http.Client
}

// NewTokenClient creates a token email client. An empty sendURL disables it.
func NewTokenClient(sendURL string, timeout time.Duration) *TokenClient {
	return &TokenClient{
		sendURL: sendURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a token endpoint is configured.
func (c *TokenClient) Enabled() bool { return c.sendURL != "" }

// Send requests a token email for the given address.
func (c *TokenClient) Send(ctx context.Context, email string) error {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sendURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("token email failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("token service returned status %d", resp.StatusCode)
	}
	return nil
}
