package ports

import (
	"context"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

// VulnerabilityLookup is the external vulnerability search collaborator.
// Results come back pre-sorted by the collaborator, most relevant first.
type VulnerabilityLookup interface {
	Search(ctx context.Context, keyword string) ([]domain.Vulnerability, error)
}

// CVERepository is the deduplicated CVE record store, keyed by CVE ID.
type CVERepository interface {
	UpsertCVE(ctx context.Context, cve domain.CVERecord) error
	GetByID(ctx context.Context, cveID string) (*domain.CVERecord, error)
	GetByIDs(ctx context.Context, cveIDs []string) ([]domain.CVERecord, error)
	GetTotalCount(ctx context.Context) (int, error)
	Close() error
}
