package ports

import (
	"context"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

// ScanEngine is the external process that performs the actual network
// probing. It receives the normalized target (never the raw user input)
// and returns typed findings without scan/finding identity assigned.
type ScanEngine interface {
	Run(ctx context.Context, target, profile string) ([]domain.Finding, error)
}
