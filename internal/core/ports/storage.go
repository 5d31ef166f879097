package ports

import (
	"context"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

// ScanRepository defines persistence for scans.
type ScanRepository interface {
	SaveScan(ctx context.Context, scan domain.Scan) error
	GetScan(ctx context.Context, id string) (*domain.Scan, error)
	ListScans(ctx context.Context, userID string, limit int) ([]domain.Scan, error)
	UpdateScanStatus(ctx context.Context, id string, status domain.ScanStatus, errMsg string) error

	// MarkEnriched sets the cve_enriched idempotence gate. Best-effort from
	// the caller's perspective: enrichment work is not rolled back if it fails.
	MarkEnriched(ctx context.Context, id string) error
}

// FindingRepository defines persistence for scan findings.
type FindingRepository interface {
	SaveFindings(ctx context.Context, findings []domain.Finding) error
	ListByScan(ctx context.Context, scanID string) ([]domain.Finding, error)

	// AttachCVE sets the finding's cve_id only if it is still unset,
	// enforcing the enrich-at-most-once invariant at the store.
	AttachCVE(ctx context.Context, findingID, cveID string) error
}

// ReportRepository defines persistence for review-workflow reports.
type ReportRepository interface {
	SaveReport(ctx context.Context, report domain.Report) error
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	UpdateReport(ctx context.Context, report domain.Report) error
	ListByScan(ctx context.Context, scanID string) ([]domain.Report, error)
	ListByStatus(ctx context.Context, status domain.ReportStatus, limit int) ([]domain.Report, error)
}
