// Package apollo provides a client for the Apollo.io people and organization
// search API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Apollo.io operations.
type Client interface {
	// SearchPeople returns the best matching person, or nil when none match.
	SearchPeople(ctx context.Context, q PeopleQuery) (*Person, error)
	// SearchOrganizations returns the best matching organization, or nil.
	SearchOrganizations(ctx context.Context, name string) (*Organization, error)
}

// PeopleQuery identifies a person to look up.
type PeopleQuery struct {
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
	Page             int    `json:"page"`
	PerPage          int    `json:"per_page"`
}

// Person is a matched Apollo contact.
type Person struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	LinkedInURL  string        `json:"linkedin_url"`
	Email        string        `json:"email"`
	EmailStatus  string        `json:"email_status"`
	City         string        `json:"city"`
	State        string        `json:"state"`
	Country      string        `json:"country"`
	PhoneNumbers []PhoneNumber `json:"phone_numbers"`
	Organization *Organization `json:"organization"`
}

// PhoneNumber is one of a person's numbers.
type PhoneNumber struct {
	RawNumber       string `json:"raw_number"`
	SanitizedNumber string `json:"sanitized_number"`
	Type            string `json:"type"`
}

// Number returns the raw number, falling back to the sanitized form.
func (p PhoneNumber) Number() string {
	if p.RawNumber != "" {
		return p.RawNumber
	}
	return p.SanitizedNumber
}

// Organization is an Apollo company record.
type Organization struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	WebsiteURL            string `json:"website_url"`
	PrimaryDomain         string `json:"primary_domain"`
	LinkedInURL           string `json:"linkedin_url"`
	City                  string `json:"city"`
	State                 string `json:"state"`
	Country               string `json:"country"`
	Industry              string `json:"industry"`
	LatestFundingStage    string `json:"latest_funding_stage"`
	EstimatedNumEmployees int    `json:"estimated_num_employees"`
}

type peopleResponse struct {
	People   []Person `json:"people"`
	Contacts []Person `json:"contacts"`
}

type organizationsResponse struct {
	Organizations []Organization `json:"organizations"`
	Accounts      []Organization `json:"accounts"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apollo: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the Apollo client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRetryBackoff sets the initial backoff between retries.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *httpClient) { c.backoff = d }
}

type httpClient struct {
	apiKey  string
	baseURL string
	backoff time.Duration
	http    *http.Client
}

// NewClient creates a new Apollo.io client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.apollo.io",
		backoff: time.Second,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode reports server-side failures worth retrying. 429 is
// not retried here; the caller falls through to another provider.
func retryableStatusCode(code int) bool {
	return code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

func (c *httpClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "apollo: marshal request")
	}

	const maxAttempts = 2
	backoff := c.backoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return eris.Wrap(err, "apollo: create request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("X-Api-Key", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = eris.Wrap(err, "apollo: request failed")
		} else {
			data, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				return eris.Wrap(readErr, "apollo: read response body")
			}
			switch {
			case resp.StatusCode == http.StatusOK:
				return eris.Wrap(json.Unmarshal(data, out), "apollo: unmarshal response")
			case retryableStatusCode(resp.StatusCode) && attempt < maxAttempts:
				lastErr = &APIError{StatusCode: resp.StatusCode, Body: string(data)}
			default:
				return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
			}
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return lastErr
}

func (c *httpClient) SearchPeople(ctx context.Context, q PeopleQuery) (*Person, error) {
	q.Page, q.PerPage = 1, 1

	var resp peopleResponse
	if err := c.post(ctx, "/v1/mixed_people/search", q, &resp); err != nil {
		return nil, err
	}
	people := append(resp.People, resp.Contacts...)
	if len(people) == 0 {
		return nil, nil
	}
	return &people[0], nil
}

func (c *httpClient) SearchOrganizations(ctx context.Context, name string) (*Organization, error) {
	payload := map[string]any{
		"q_organization_name": name,
		"page":                1,
		"per_page":            1,
	}

	var resp organizationsResponse
	if err := c.post(ctx, "/v1/organizations/search", payload, &resp); err != nil {
		return nil, err
	}
	orgs := append(resp.Organizations, resp.Accounts...)
	if len(orgs) == 0 {
		return nil, nil
	}
	return &orgs[0], nil
}
