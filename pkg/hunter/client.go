// Package hunter provides a client for the Hunter.io email finder API.
package hunter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Hunter.io operations.
type Client interface {
	// FindEmail returns the most likely address for a person, or nil when
	// Hunter has no candidate.
	FindEmail(ctx context.Context, q EmailQuery) (*EmailResult, error)
}

// EmailQuery identifies the person. Domain is preferred; Company is used when
// the domain is unknown.
type EmailQuery struct {
	FirstName string
	LastName  string
	FullName  string
	Domain    string
	Company   string
}

// EmailResult is the email-finder payload.
type EmailResult struct {
	Email     string   `json:"email"`
	Score     int      `json:"score"`
	Domain    string   `json:"domain"`
	Position  string   `json:"position"`
	Company   string   `json:"company"`
	LinkedIn  string   `json:"linkedin_url"`
	Phone     string   `json:"phone_number"`
	Sources   []Source `json:"sources"`
	Verified  bool     `json:"-"`
	RawStatus string   `json:"-"`
}

// Source is a public page where the address was seen.
type Source struct {
	Domain string `json:"domain"`
	URI    string `json:"uri"`
}

type emailFinderResponse struct {
	Data struct {
		EmailResult
		Verification struct {
			Status string `json:"status"`
		} `json:"verification"`
	} `json:"data"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hunter: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the Hunter client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Hunter.io client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.hunter.io",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) FindEmail(ctx context.Context, q EmailQuery) (*EmailResult, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if q.Domain != "" {
		params.Set("domain", q.Domain)
	} else if q.Company != "" {
		params.Set("company", q.Company)
	} else {
		return nil, eris.New("hunter: domain or company required")
	}
	if q.FirstName != "" && q.LastName != "" {
		params.Set("first_name", q.FirstName)
		params.Set("last_name", q.LastName)
	} else {
		params.Set("full_name", q.FullName)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/email-finder?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out emailFinderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "hunter: unmarshal response")
	}
	if out.Data.Email == "" {
		return nil, nil
	}
	result := out.Data.EmailResult
	result.RawStatus = out.Data.Verification.Status
	result.Verified = result.RawStatus == "valid"
	return &result, nil
}
