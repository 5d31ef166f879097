// Package nvd implements the vulnerability lookup against the NVD 2.0
// REST API (https://services.nvd.nist.gov/rest/json/cves/2.0).
package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

const (
	DefaultBaseURL        = "https://services.nvd.nist.gov/rest/json/cves/2.0"
	defaultResultsPerPage = 20
	defaultTimeout        = 15 * time.Second

	noDescription = "No description available"
)

// Client is an HTTP client for the NVD CVE API. It implements
// ports.VulnerabilityLookup.
type Client struct {
	baseURL        string
	apiKey         string
	resultsPerPage int
	httpClient     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithAPIKey sets the NVD API key. Keyed clients get a higher upstream
// rate limit; pacing between requests is still the caller's job.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithResultsPerPage caps the page size requested from the API.
func WithResultsPerPage(n int) Option {
	return func(c *Client) { c.resultsPerPage = n }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an NVD API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		resultsPerPage: defaultResultsPerPage,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries the API with a keyword and returns the matches in the
// order the API ranked them.
func (c *Client) Search(ctx context.Context, keyword string) ([]domain.Vulnerability, error) {
	q := url.Values{}
	q.Set("keywordSearch", keyword)
	q.Set("resultsPerPage", strconv.Itoa(c.resultsPerPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("apiKey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nvd request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nvd returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode nvd response: %w", err)
	}

	vulns := make([]domain.Vulnerability, 0, len(payload.Vulnerabilities))
	for _, entry := range payload.Vulnerabilities {
		if entry.CVE.ID == "" {
			continue
		}
		vulns = append(vulns, domain.Vulnerability{
			ID:          entry.CVE.ID,
			Description: entry.CVE.englishDescription(),
			CVSSScore:   entry.CVE.baseScore(),
			Published:   entry.CVE.publishedTime(),
		})
	}

	return vulns, nil
}

// API wire types, reduced to the fields we consume.

type apiResponse struct {
	TotalResults    int       `json:"totalResults"`
	Vulnerabilities []apiVuln `json:"vulnerabilities"`
}

type apiVuln struct {
	CVE apiCVE `json:"cve"`
}

type apiCVE struct {
	ID           string `json:"id"`
	Published    string `json:"published"`
	Descriptions []struct {
		Lang  string `json:"lang"`
		Value string `json:"value"`
	} `json:"descriptions"`
	Metrics struct {
		CVSSMetricV31 []cvssMetric `json:"cvssMetricV31"`
		CVSSMetricV30 []cvssMetric `json:"cvssMetricV30"`
		CVSSMetricV2  []cvssMetric `json:"cvssMetricV2"`
	} `json:"metrics"`
}

type cvssMetric struct {
	CVSSData struct {
		BaseScore float64 `json:"baseScore"`
	} `json:"cvssData"`
}

func (c apiCVE) englishDescription() string {
	for _, d := range c.Descriptions {
		if d.Lang == "en" && d.Value != "" {
			return d.Value
		}
	}
	return noDescription
}

// baseScore picks the newest available CVSS metric: v3.1, then v3.0,
// then v2. Nil when the entry carries no metric at all.
func (c apiCVE) baseScore() *float64 {
	for _, metrics := range [][]cvssMetric{
		c.Metrics.CVSSMetricV31,
		c.Metrics.CVSSMetricV30,
		c.Metrics.CVSSMetricV2,
	} {
		if len(metrics) > 0 {
			score := metrics[0].CVSSData.BaseScore
			return &score
		}
	}
	return nil
}

func (c apiCVE) publishedTime() time.Time {
	if c.Published == "" {
		return time.Time{}
	}
	// NVD timestamps carry millisecond precision without a zone.
	for _, layout := range []string{"2006-01-02T15:04:05.000", time.RFC3339} {
		if t, err := time.Parse(layout, c.Published); err == nil {
			return t
		}
	}
	return time.Time{}
}
