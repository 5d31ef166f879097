// Package enrichment attaches CVE records to scan findings, at most once
// per scan and at most one CVE per finding.
package enrichment

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/telemetry"
)

// Config holds the tunables of the enrichment pass. Injected at construction
// so tests can substitute alternate skip lists and thresholds.
type Config struct {
	// SkipServices are generic protocol labels that cannot be matched to a
	// specific vulnerability with any confidence. Findings carrying them are
	// never submitted to the lookup.
	SkipServices []string

	// RequestDelay is the fixed pause between lookups for consecutive
	// findings. It is a rate-limiting device; lookups are deliberately
	// sequential (see also BulkGenerate in the review service).
	RequestDelay time.Duration
}

// DefaultConfig mirrors the production skip list and NVD-friendly pacing.
func DefaultConfig() Config {
	return Config{
		SkipServices: []string{
			"http", "https", "http-proxy", "https-alt", "http-alt",
			"ssl/http", "ssl/https", "upnp", "tcpwrapped",
		},
		RequestDelay: 1500 * time.Millisecond,
	}
}

// protocolPrefix strips wrappers like "ssl/" from engine service names
// before the product token is taken.
var protocolPrefix = regexp.MustCompile(`^[a-z0-9]+/`)

// Service runs the CVE enrichment workflow for completed scans.
type Service struct {
	scans    ports.ScanRepository
	findings ports.FindingRepository
	cves     ports.CVERepository
	lookup   ports.VulnerabilityLookup

	cfg  Config
	skip map[string]struct{}
}

// NewService creates an enrichment service with the given configuration.
func NewService(scans ports.ScanRepository, findings ports.FindingRepository, cves ports.CVERepository, lookup ports.VulnerabilityLookup, cfg Config) *Service {
	skip := make(map[string]struct{}, len(cfg.SkipServices))
	for _, s := range cfg.SkipServices {
		skip[strings.ToLower(s)] = struct{}{}
	}

	return &Service{
		scans:    scans,
		findings: findings,
		cves:     cves,
		lookup:   lookup,
		cfg:      cfg,
		skip:     skip,
	}
}

// EnrichScan matches each eligible finding of the scan to at most one CVE.
// Re-running for an already-enriched scan is a successful no-op. Individual
// lookup failures are logged and skipped; they never abort the scan-level
// pass. Findings are processed sequentially with a fixed delay between
// lookups to respect upstream rate limits.
func (s *Service) EnrichScan(ctx context.Context, scanID string) error {
	scan, err := s.scans.GetScan(ctx, scanID)
	if err != nil {
		return err
	}

	if scan.CVEEnriched {
		log.Printf("[ENRICH] Scan %s already enriched, skipping", scanID)
		return nil
	}

	findings, err := s.findings.ListByScan(ctx, scanID)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		log.Printf("[ENRICH] Scan %s has no findings", scanID)
		return nil
	}

	queried := false
	for _, finding := range findings {
		if !s.eligible(finding) {
			telemetry.EnrichmentSkipped.WithLabelValues(skipReason(finding)).Inc()
			continue
		}

		// Pace consecutive external lookups.
		if queried {
			if err := sleepCtx(ctx, s.cfg.RequestDelay); err != nil {
				return err
			}
		}
		queried = true

		if err := s.enrichFinding(ctx, finding); err != nil {
			log.Printf("[ENRICH] Finding %s (%s:%d): %v", finding.ID, finding.Host, finding.Port, err)
			telemetry.EnrichmentLookups.WithLabelValues("error").Inc()
			continue
		}
	}

	// Best-effort: enrichment work above is not rolled back on failure here.
	// A future invocation may redundantly re-run; per-finding updates and
	// CVE upserts are idempotent, so that is wasted lookups, not corruption.
	if err := s.scans.MarkEnriched(ctx, scanID); err != nil {
		log.Printf("[ENRICH] Failed to mark scan %s enriched: %v", scanID, err)
	}

	return nil
}

// eligible filters out findings that would only produce false positives:
// generic protocol labels and versionless services.
func (s *Service) eligible(f domain.Finding) bool {
	if f.CVEID != "" {
		return false
	}
	if _, generic := s.skip[strings.ToLower(f.ServiceName)]; generic {
		return false
	}
	return f.HasVersion()
}

func skipReason(f domain.Finding) string {
	switch {
	case f.CVEID != "":
		return "already_enriched"
	case !f.HasVersion():
		return "no_version"
	}
	return "generic_service"
}

// enrichFinding tries the candidate queries most specific first and attaches
// the top result of the first query that matches anything.
func (s *Service) enrichFinding(ctx context.Context, finding domain.Finding) error {
	queries := s.candidateQueries(finding)

	for i, query := range queries {
		vulns, err := s.lookup.Search(ctx, query)
		if err != nil {
			return err
		}
		telemetry.EnrichmentLookups.WithLabelValues("ok").Inc()
		if len(vulns) == 0 {
			continue
		}

		// Results are pre-sorted by the lookup; take the top one.
		vuln := vulns[0]
		record := domain.CVERecord{
			ID:            vuln.ID,
			Title:         strings.TrimSpace(finding.ServiceName + " " + finding.ServiceVersion),
			Description:   vuln.Description,
			CVSSScore:     vuln.CVSSScore,
			Confidence:    confidenceForQuery(i),
			PublishedDate: vuln.Published,
		}

		if err := s.cves.UpsertCVE(ctx, record); err != nil {
			return err
		}
		if err := s.findings.AttachCVE(ctx, finding.ID, vuln.ID); err != nil {
			return err
		}

		telemetry.CVEMatches.Inc()
		log.Printf("[ENRICH] %s:%d %s -> %s", finding.Host, finding.Port, finding.ServiceName, vuln.ID)
		return nil
	}

	return nil
}

// candidateQueries builds the ordered lookup ladder: the extracted product
// token plus version first, then the raw service name plus version.
func (s *Service) candidateQueries(f domain.Finding) []string {
	product := productName(f.ServiceName)

	queries := []string{product + " " + f.ServiceVersion}
	if fallback := f.ServiceName + " " + f.ServiceVersion; fallback != queries[0] {
		queries = append(queries, fallback)
	}
	return queries
}

// productName strips a protocol wrapper prefix and keeps the first
// whitespace-delimited token.
func productName(serviceName string) string {
	name := protocolPrefix.ReplaceAllString(strings.ToLower(serviceName), "")
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}

// confidenceForQuery grades the match by how specific the successful query
// was: the product+version ladder rung is high confidence, the raw service
// name fallback medium.
func confidenceForQuery(index int) domain.MatchConfidence {
	switch index {
	case 0:
		return domain.ConfidenceHigh
	case 1:
		return domain.ConfidenceMedium
	}
	return domain.ConfidenceLow
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
