// Package scanner talks to the external scan engine over HTTP. The engine
// runs the actual port and service probes; this adapter only submits the
// normalized target and converts the reported results into findings.
package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

const defaultTimeout = 30 * time.Minute

// Client implements ports.ScanEngine against an HTTP scan engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a scan engine client. Scans can run for a long time;
// the request timeout covers the whole engine run.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type scanRequest struct {
	Target  string `json:"target"`
	Profile string `json:"profile"`
}

type scanResponse struct {
	Findings []engineFinding `json:"findings"`
	Error    string          `json:"error,omitempty"`
}

type engineFinding struct {
	Host       string            `json:"host"`
	Port       int               `json:"port"`
	State      string            `json:"state"`
	Service    string            `json:"service"`
	Version    string            `json:"version"`
	Confidence string            `json:"confidence,omitempty"`
	Banner     string            `json:"banner,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	TLSInfo    string            `json:"tls_info,omitempty"`
}

// Run submits the normalized target and blocks until the engine reports
// its results. Findings with an out-of-range port are dropped rather than
// failing the whole scan.
func (c *Client) Run(ctx context.Context, target, profile string) ([]domain.Finding, error) {
	body, err := json.Marshal(scanRequest{Target: target, Profile: profile})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scan request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scan", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scan engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scan engine returned status %d: %s", resp.StatusCode, string(msg))
	}

	var payload scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode scan results: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("scan engine: %s", payload.Error)
	}

	findings := make([]domain.Finding, 0, len(payload.Findings))
	for _, f := range payload.Findings {
		if f.Port < 1 || f.Port > 65535 {
			continue
		}
		findings = append(findings, domain.Finding{
			Host:           f.Host,
			Port:           f.Port,
			State:          domain.NormalizePortState(f.State),
			ServiceName:    f.Service,
			ServiceVersion: f.Version,
			Confidence:     f.Confidence,
			RawBanner:      f.Banner,
			Headers:        f.Headers,
			TLSInfo:        f.TLSInfo,
		})
	}

	return findings, nil
}
