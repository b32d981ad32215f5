package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"onboarding/internal/domain"
	apperrors "onboarding/pkg/errors"
)

// OrderError carries the bilingual rejection body the order API returns.
type OrderError struct {
	StatusCode int
	Message    domain.LocalizedMessage
}

// Unwrap lets callers classify any remote rejection with errors.Is without
// inspecting the localized message.
func (e *OrderError) Unwrap() error { return apperrors.ErrOrderRejected }

func (e *OrderError) Error() string {
	if e.Message.Es != "" {
		return e.Message.Es
	}
	if e.Message.En != "" {
		return e.Message.En
	}
	return fmt.Sprintf("order service returned status %d", e.StatusCode)
}

// OrderClient talks to the remote order-management API.
type OrderClient struct {
	createURL   string
	validateURL string
	token       string
	client      *http.Client
	// noRedirect never follows redirects: a redirect-class status from
	// validateOpenSO is the "proceed" signal, not a location to fetch.
	noRedirect *http.Client
}

// NewOrderClient creates an order API client. createURL is the full
// createCompleteOrder/SR endpoint; validateURL the validateOpenSO endpoint.
func NewOrderClient(createURL, validateURL, token string, timeout time.Duration) *OrderClient {
	return &OrderClient{
		createURL:   createURL,
		validateURL: validateURL,
		token:       token,
		client:      &http.Client{Timeout: timeout},
		noRedirect: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// CreateOrder creates the supplier-registration service order. Remote
// rejections surface the backend-supplied message.
func (c *OrderClient) CreateOrder(ctx context.Context, inv *domain.InvitationRequest) (*domain.InvitationResponse, error) {
	body, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.createURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order creation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remote struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&remote)
		if remote.Message == "" {
			remote.Message = fmt.Sprintf("order service returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%s", remote.Message)
	}

	var out domain.InvitationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	return &out, nil
}

// ValidateOpen checks that a service order is still open. A redirect-class
// response means proceed; anything else carries a localized error body.
func (c *OrderClient) ValidateOpen(ctx context.Context, oc, os, sn string) error {
	q := url.Values{}
	q.Set("oc", oc)
	q.Set("os", os)
	q.Set("sn", sn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.validateURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.noRedirect.Do(req)
	if err != nil {
		return fmt.Errorf("order validation failed: %w", err)
	}
	defer resp.Body.Close()

	// 3xx signals an open order.
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return nil
	}

	orderErr := &OrderError{StatusCode: resp.StatusCode}
	_ = json.NewDecoder(resp.Body).Decode(&orderErr.Message)
	return orderErr
}
