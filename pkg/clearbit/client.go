// Package clearbit provides a client for the Clearbit company enrichment API.
package clearbit

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

// Client defines the Clearbit operations.
type Client interface {
	// FindCompany looks a company up by domain or name. It returns nil when
	// Clearbit has no record.
	FindCompany(ctx context.Context, q CompanyQuery) (*Company, error)
}

// CompanyQuery identifies a company. Domain wins when both are set.
type CompanyQuery struct {
	Domain string
	Name   string
}

// Company is the subset of the Clearbit company record used for enrichment.
type Company struct {
	Name     string   `json:"name"`
	Domain   string   `json:"domain"`
	Geo      Geo      `json:"geo"`
	Category Category `json:"category"`
	Metrics  Metrics  `json:"metrics"`
	Tags     []string `json:"tags"`
	LinkedIn struct {
		Handle string `json:"handle"`
	} `json:"linkedin"`
}

// Geo is the company's headquarters location.
type Geo struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Category classifies the company.
type Category struct {
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// Metrics holds size and funding figures.
type Metrics struct {
	Employees     int   `json:"employees"`
	Raised        int64 `json:"raised"`
	AnnualRevenue int64 `json:"annualRevenue"`
}

// APIError is returned for non-2xx responses other than 404.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clearbit: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the Clearbit client.
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

// NewClient creates a new Clearbit client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://company.clearbit.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) FindCompany(ctx context.Context, q CompanyQuery) (*Company, error) {
	params := url.Values{}
	switch {
	case q.Domain != "":
		params.Set("domain", q.Domain)
	case q.Name != "":
		params.Set("name", q.Name)
	default:
		return nil, eris.New("clearbit: domain or name required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/companies/find?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: read response body")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out Company
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "clearbit: unmarshal response")
	}
	return &out, nil
}
