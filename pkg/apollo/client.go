// Package apollo provides a client for the Apollo.io people search API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client searches people at an organization.
type Client interface {
	SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error)
}

// PeopleSearchRequest is the mixed people search body.
type PeopleSearchRequest struct {
	Seniorities         []string `json:"person_seniorities,omitempty"`
	OrganizationDomains string   `json:"q_organization_domains"`
	Page                int      `json:"page,omitempty"`
	PerPage             int      `json:"per_page,omitempty"`
}

// PeopleSearchResponse lists matching people.
type PeopleSearchResponse struct {
	People     []Person   `json:"people"`
	Pagination Pagination `json:"pagination"`
}

// Person is one Apollo person record.
type Person struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	LinkedInURL string `json:"linkedin_url"`
}

// Pagination describes the result window.
type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalEntries int `json:"total_entries"`
}

// Option configures the Apollo client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Apollo client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.apollo.io",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SearchPeople(ctx context.Context, sr PeopleSearchRequest) (*PeopleSearchResponse, error) {
	if c.apiKey == "" {
		return nil, eris.New("apollo: api key not configured")
	}

	payload, err := json.Marshal(sr)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/mixed_people/search", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "apollo: create request")
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("apollo: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result PeopleSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "apollo: unmarshal response")
	}
	return &result, nil
}
