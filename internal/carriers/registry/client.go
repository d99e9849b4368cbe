package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Authority statuses reported by the external carrier registry.
const (
	StatusActive       = "active"
	StatusOutOfService = "out-of-service"
	StatusNotFound     = "not-found"
)

// Result is the registry's answer for one canonical MC number.
type Result struct {
	MCNumber       string `json:"mc_number"`
	CompanyName    string `json:"company_name"`
	Status         string `json:"status"`
	SafetyRating   string `json:"safety_rating"`
	InsuranceValid bool   `json:"insurance_valid"`
}

// Client resolves operating-authority status from the external registry.
// Implementations must honor the context deadline; a slow registry is a soft
// failure for callers, never a hard one.
type Client interface {
	Lookup(ctx context.Context, mcNumber string) (*Result, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewHTTPClient builds a registry client with a bounded per-lookup timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) Client {
	return &httpClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (c *httpClient) Lookup(ctx context.Context, mcNumber string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.baseURL + "/carriers/" + url.PathEscape(mcNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry lookup failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &Result{MCNumber: mcNumber, Status: StatusNotFound}, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", err)
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}
	if result.MCNumber == "" {
		result.MCNumber = mcNumber
	}

	return &result, nil
}
