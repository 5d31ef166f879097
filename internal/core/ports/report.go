package ports

import (
	"context"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

// NarrativeGenerator produces the remediation narrative for a report.
// For regeneration after a rejection, feedback carries the reviewer's notes.
type NarrativeGenerator interface {
	Generate(ctx context.Context, scan domain.Scan, findings []domain.Finding, cves []domain.CVERecord, feedback string) (string, error)
}

// ReportExporter renders a report into a downloadable document.
type ReportExporter interface {
	Export(report domain.Report, scan domain.Scan, findings []domain.Finding, cves []domain.CVERecord) ([]byte, error)
}
