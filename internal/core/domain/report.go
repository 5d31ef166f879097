package domain

import (
	"errors"
	"time"
)

// ReportStatus is the review pipeline state of a generated report.
type ReportStatus string

const (
	ReportPendingReview ReportStatus = "pending_review"
	ReportApproved      ReportStatus = "approved"
	ReportRejected      ReportStatus = "rejected"
)

// Review workflow errors. Transitions attempted outside pending_review and
// rejections without feedback are hard preconditions, not advisory checks.
var (
	ErrReportNotPending    = errors.New("report is not pending review")
	ErrReviewNotesRequired = errors.New("rejection requires non-empty review notes")
	ErrConsultantRequired  = errors.New("report generation requires an assigned consultant")
	ErrScanNotEnriched     = errors.New("scan has not completed enrichment")
	ErrReportNotFound      = errors.New("report not found")
)

// Report is one AI-generated remediation report awaiting human review.
// At most one report per scan is visible to the client; rejected reports
// are superseded by a regenerated pending_review draft.
type Report struct {
	ID           string       `json:"id"`
	ScanID       string       `json:"scan_id"`
	Status       ReportStatus `json:"status"`
	Summary      string       `json:"summary"`
	PDFURL       string       `json:"pdf_url,omitempty"`
	ConsultantID string       `json:"consultant_id,omitempty"`
	ReviewNotes  string       `json:"review_notes,omitempty"`

	RiskScore float64 `json:"risk_score"`
	RiskLevel string  `json:"risk_level"`

	CreatedAt  time.Time  `json:"created_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// IsPending reports whether review transitions are allowed.
func (r Report) IsPending() bool {
	return r.Status == ReportPendingReview
}

// BulkGenerateResult collects per-scan outcomes of a bulk report generation
// run. One failing scan never aborts the batch.
type BulkGenerateResult struct {
	Succeeded []string          `json:"succeeded"` // scan IDs
	Failed    map[string]string `json:"failed"`    // scan ID -> error message
}
