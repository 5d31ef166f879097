package domain

import "time"

// ScanStatus tracks the lifecycle of a scan execution.
type ScanStatus string

const (
	ScanStatusPending   ScanStatus = "pending"
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// Scan represents one scan request against a normalized target.
type Scan struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Target     string     `json:"target"`     // normalized form sent to the engine
	RawTarget  string     `json:"raw_target"` // what the user typed
	TargetType TargetType `json:"target_type"`
	Profile    string     `json:"profile"`
	Status     ScanStatus `json:"status"`

	// CVEEnriched is the idempotence gate for the enrichment workflow.
	// Once true, enrichment must not run again for this scan.
	CVEEnriched bool `json:"cve_enriched"`

	FindingsCount int        `json:"findings_count"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}
