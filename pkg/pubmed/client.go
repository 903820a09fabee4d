// Package pubmed provides a client for the NCBI E-utilities PubMed API.
package pubmed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public E-utilities endpoint.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// fetchBatchSize caps ids per efetch request to keep URLs short.
const fetchBatchSize = 200

// Client defines the PubMed operations.
type Client interface {
	// Search returns PMIDs matching the query, newest first.
	Search(ctx context.Context, params SearchParams) ([]string, error)
	// Fetch returns parsed article records for the given PMIDs.
	Fetch(ctx context.Context, ids []string) ([]Article, error)
}

// SearchParams describes an esearch query.
type SearchParams struct {
	// Keyword is matched against title and abstract.
	Keyword    string
	MinDate    time.Time
	MaxDate    time.Time
	MaxResults int
}

// Term renders the esearch term string.
func (p SearchParams) Term() string {
	term := fmt.Sprintf("%s[Title/Abstract]", p.Keyword)
	if !p.MinDate.IsZero() && !p.MaxDate.IsZero() {
		term += fmt.Sprintf(" AND %s:%s[PDAT]", p.MinDate.Format("2006/01/02"), p.MaxDate.Format("2006/01/02"))
	}
	return term
}

type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Option configures the PubMed client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithAPIKey sets an NCBI API key, which raises the allowed request rate.
func WithAPIKey(key string) Option {
	return func(c *httpClient) { c.apiKey = key }
}

// WithEmail sets the contact email NCBI asks clients to send.
func WithEmail(email string) Option {
	return func(c *httpClient) { c.email = email }
}

// WithTool sets the tool name sent with each request.
func WithTool(tool string) Option {
	return func(c *httpClient) { c.tool = tool }
}

// WithRateLimit sets the maximum requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetryBackoff sets the initial backoff between retries.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *httpClient) { c.backoff = d }
}

type httpClient struct {
	baseURL string
	apiKey  string
	email   string
	tool    string
	backoff time.Duration
	limiter *rate.Limiter
	http    *http.Client
}

// NewClient creates a PubMed client limited to 3 requests per second, the
// NCBI allowance without an API key.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		tool:    "prospect-cli",
		backoff: time.Second,
		limiter: rate.NewLimiter(rate.Limit(3), 1),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes a GET with exponential backoff on transient failures.
func (c *httpClient) retryDo(ctx context.Context, reqURL string) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := c.backoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, eris.Wrap(err, "pubmed: rate limiter")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, 0, eris.Wrap(err, "pubmed: create request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				return nil, resp.StatusCode, eris.Wrap(readErr, "pubmed: read response body")
			}
			if !retryableStatusCode(resp.StatusCode) || attempt == maxAttempts {
				return body, resp.StatusCode, nil
			}
			lastErr = eris.Errorf("pubmed: status %d: %s", resp.StatusCode, string(body))
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, 0, lastErr
}

func (c *httpClient) query(values url.Values) url.Values {
	values.Set("db", "pubmed")
	if c.apiKey != "" {
		values.Set("api_key", c.apiKey)
	}
	if c.email != "" {
		values.Set("email", c.email)
	}
	if c.tool != "" {
		values.Set("tool", c.tool)
	}
	return values
}

func (c *httpClient) Search(ctx context.Context, params SearchParams) ([]string, error) {
	if strings.TrimSpace(params.Keyword) == "" {
		return nil, eris.New("pubmed: empty keyword")
	}
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	values := c.query(url.Values{})
	values.Set("term", params.Term())
	values.Set("retmax", strconv.Itoa(maxResults))
	values.Set("retmode", "json")
	values.Set("sort", "pub_date")

	body, status, err := c.retryDo(ctx, c.baseURL+"/esearch.fcgi?"+values.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "pubmed: search request failed")
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("pubmed: search unexpected status %d: %s", status, string(body))
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "pubmed: unmarshal search response")
	}
	return resp.Result.IDList, nil
}

func (c *httpClient) Fetch(ctx context.Context, ids []string) ([]Article, error) {
	var out []Article
	for start := 0; start < len(ids); start += fetchBatchSize {
		end := min(start+fetchBatchSize, len(ids))

		values := c.query(url.Values{})
		values.Set("id", strings.Join(ids[start:end], ","))
		values.Set("retmode", "xml")

		body, status, err := c.retryDo(ctx, c.baseURL+"/efetch.fcgi?"+values.Encode())
		if err != nil {
			return nil, eris.Wrap(err, "pubmed: fetch request failed")
		}
		if status != http.StatusOK {
			return nil, eris.Errorf("pubmed: fetch unexpected status %d: %s", status, string(body))
		}

		articles, err := DecodeArticles(ctx, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		out = append(out, articles...)
	}
	return out, nil
}
