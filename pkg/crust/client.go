// Package crust provides a client for the Crustdata person search API.
package crust

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client searches people by current employer.
type Client interface {
	SearchPeople(ctx context.Context, domain string, page int) (*PersonSearchResponse, error)
}

// PersonSearchResponse is the person screener payload.
type PersonSearchResponse struct {
	Profiles []Profile `json:"profiles"`
}

// Profile is one person record.
type Profile struct {
	Name                             string     `json:"name"`
	DefaultPositionTitle             string     `json:"default_position_title"`
	DefaultPositionCompanyLinkedInID LinkedInID `json:"default_position_company_linkedin_id"`
	FlagshipProfileURL               string     `json:"flagship_profile_url"`
	LinkedInProfileURL               string     `json:"linkedin_profile_url"`
	Employer                         []Employer `json:"employer"`
}

// ProfileURL prefers the public flagship URL over the internal one.
func (p Profile) ProfileURL() string {
	if p.FlagshipProfileURL != "" {
		return p.FlagshipProfileURL
	}
	return p.LinkedInProfileURL
}

// CurrentPositions returns employer entries without an end date.
func (p Profile) CurrentPositions() []Employer {
	var out []Employer
	for _, e := range p.Employer {
		if e.EndDate == "" {
			out = append(out, e)
		}
	}
	return out
}

// Employer is one position in a profile's history.
type Employer struct {
	Title             string     `json:"title"`
	CompanyName       string     `json:"company_name"`
	CompanyLinkedInID LinkedInID `json:"company_linkedin_id"`
	StartDate         string     `json:"start_date"`
	EndDate           string     `json:"end_date"`
}

// LinkedInID is a company id that the API sends as a string or a number.
type LinkedInID string

// UnmarshalJSON accepts strings, numbers and null.
func (id *LinkedInID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*id = ""
	case strings.HasPrefix(s, `"`):
		unq, err := strconv.Unquote(s)
		if err != nil {
			return eris.Wrap(err, "crust: decode linkedin id")
		}
		*id = LinkedInID(unq)
	default:
		*id = LinkedInID(s)
	}
	return nil
}

// Option configures the Crust client.
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

// NewClient creates a Crust client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.crustdata.com",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type filter struct {
	FilterType string   `json:"filter_type"`
	Type       string   `json:"type"`
	Value      []string `json:"value"`
}

type searchBody struct {
	Filters []filter `json:"filters"`
	Page    int      `json:"page"`
}

func (c *httpClient) SearchPeople(ctx context.Context, domain string, page int) (*PersonSearchResponse, error) {
	if c.apiKey == "" {
		return nil, eris.New("crust: api key not configured")
	}
	if page < 1 {
		page = 1
	}

	payload, err := json.Marshal(searchBody{
		Filters: []filter{{FilterType: "CURRENT_COMPANY", Type: "in", Value: []string{domain}}},
		Page:    page,
	})
	if err != nil {
		return nil, eris.Wrap(err, "crust: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/screener/person/search", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "crust: create request")
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "crust: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "crust: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("crust: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result PersonSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "crust: unmarshal response")
	}
	return &result, nil
}
