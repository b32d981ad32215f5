// Package gateway holds the HTTP clients for the remote services the wizard
// orchestrates: employee directory, order management, token email, and PDF
// extraction. None of these services are implemented here.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"onboarding/internal/domain"
)

// EmployeeClient queries the remote employee directory.
type EmployeeClient struct {
	baseURL string
	client  *http.Client
}

// NewEmployeeClient creates an employee directory client.
func NewEmployeeClient(baseURL string, timeout time.Duration) *EmployeeClient {
	return &EmployeeClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Search looks up employees by document number.
func (c *EmployeeClient) Search(ctx context.Context, documentNumber string) (*domain.EmployeesResponse, error) {
	u := fmt.Sprintf("%s?documentNumber=%s", c.baseURL, url.QueryEscape(documentNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("employee lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("employee lookup returned status %d", resp.StatusCode)
	}

	var out domain.EmployeesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode employee response: %w", err)
	}
	return &out, nil
}
