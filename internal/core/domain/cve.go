package domain

import "time"

// MatchConfidence reflects the quality of the service/version to CVE match.
type MatchConfidence string

const (
	ConfidenceHigh   MatchConfidence = "high"
	ConfidenceMedium MatchConfidence = "medium"
	ConfidenceLow    MatchConfidence = "low"
)

// CVERecord is a deduplicated vulnerability reference, keyed by its CVE
// identifier. Records are shared across all scans and users; enrichment
// upserts them, everything else reads.
type CVERecord struct {
	ID          string          `json:"cve_id"` // e.g., "CVE-2021-41773"
	Title       string          `json:"title"`
	Description string          `json:"description"`
	CVSSScore   *float64        `json:"cvss_score"` // 0.0-10.0, nil when the source has no metric
	Confidence  MatchConfidence `json:"confidence"`

	PublishedDate time.Time `json:"published_date,omitempty"`
	LastModified  time.Time `json:"last_modified,omitempty"`
}

// Vulnerability is one entry returned by the external vulnerability lookup,
// already reduced to the fields the enrichment workflow consumes. The
// lookup adapter is responsible for schema selection (English description,
// CVSS v3.1 over v3.0 over v2) and rejects malformed upstream entries.
type Vulnerability struct {
	ID          string
	Description string
	CVSSScore   *float64
	Published   time.Time
}
