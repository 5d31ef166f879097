// Package scans orchestrates scan execution: target validation, dispatch to
// the external scan engine, finding persistence, and the enrichment kickoff.
package scans

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/targets"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/telemetry"
)

// Enricher is the follow-up step run after a completed scan.
type Enricher interface {
	EnrichScan(ctx context.Context, scanID string) error
}

// Request is a validated scan submission.
type Request struct {
	Target    string `json:"target"`
	Profile   string `json:"profile"`
	Confirmed bool   `json:"confirmed"`
}

// ErrConfirmationRequired is returned when a large target was submitted
// without the extra acknowledgment.
type ErrConfirmationRequired struct {
	Hosts int
}

func (e *ErrConfirmationRequired) Error() string {
	return fmt.Sprintf("Large scan (%d hosts) requires confirmation", e.Hosts)
}

// ErrInvalidTarget carries the normalizer's blocking message.
type ErrInvalidTarget struct {
	Reason string
}

func (e *ErrInvalidTarget) Error() string { return e.Reason }

// Service coordinates the scan lifecycle.
type Service struct {
	scans       ports.ScanRepository
	findings    ports.FindingRepository
	engine      ports.ScanEngine
	enricher    Enricher
	audit       ports.AuditService
	broadcaster ports.EventBroadcaster

	confirmThreshold int
	autoEnrich       bool
}

// NewService creates a scan orchestration service. broadcaster and audit
// may be nil; enrichment runs after completion when enricher is non-nil
// and autoEnrich is set.
func NewService(
	scans ports.ScanRepository,
	findings ports.FindingRepository,
	engine ports.ScanEngine,
	enricher Enricher,
	audit ports.AuditService,
	broadcaster ports.EventBroadcaster,
	confirmThreshold int,
	autoEnrich bool,
) *Service {
	if confirmThreshold <= 0 {
		confirmThreshold = targets.DefaultConfirmThreshold
	}
	return &Service{
		scans:            scans,
		findings:         findings,
		engine:           engine,
		enricher:         enricher,
		audit:            audit,
		broadcaster:      broadcaster,
		confirmThreshold: confirmThreshold,
		autoEnrich:       autoEnrich,
	}
}

// ValidateTarget exposes the normalizer plus the confirmation check as one
// descriptor for the scan form.
func (s *Service) ValidateTarget(input string) (domain.TargetSpec, bool) {
	spec := targets.Normalize(input)
	return spec, targets.RequiresConfirmation(spec, s.confirmThreshold)
}

// StartScan validates the target, persists the scan, and runs it to
// completion. The engine receives the normalized target, never the raw
// input. Execution is synchronous; callers wanting fire-and-forget wrap it
// in a goroutine.
func (s *Service) StartScan(ctx context.Context, userID string, req Request) (*domain.Scan, error) {
	spec := targets.Normalize(req.Target)
	if !spec.Valid {
		return nil, &ErrInvalidTarget{Reason: spec.Error}
	}

	if targets.RequiresConfirmation(spec, s.confirmThreshold) && !req.Confirmed {
		return nil, &ErrConfirmationRequired{Hosts: *spec.HostsCount}
	}

	profile := req.Profile
	if profile == "" {
		profile = "basic"
	}

	now := time.Now().UTC()
	scan := domain.Scan{
		ID:         uuid.New().String(),
		UserID:     userID,
		Target:     spec.Normalized,
		RawTarget:  spec.Original,
		TargetType: spec.Type,
		Profile:    profile,
		Status:     domain.ScanStatusRunning,
		CreatedAt:  now,
		StartedAt:  &now,
	}

	if err := s.scans.SaveScan(ctx, scan); err != nil {
		return nil, fmt.Errorf("failed to persist scan: %w", err)
	}

	telemetry.ScansStarted.WithLabelValues(string(spec.Type)).Inc()
	s.auditLog(ctx, domain.ActionScan, scan.ID, "target "+spec.Normalized)
	s.broadcast("scan_started", scan)

	if err := s.execute(ctx, &scan); err != nil {
		return &scan, err
	}

	return &scan, nil
}

// GetScan returns one scan.
func (s *Service) GetScan(ctx context.Context, id string) (*domain.Scan, error) {
	return s.scans.GetScan(ctx, id)
}

// ListScans returns the scan history for a user.
func (s *Service) ListScans(ctx context.Context, userID string, limit int) ([]domain.Scan, error) {
	return s.scans.ListScans(ctx, userID, limit)
}

// ListFindings returns the findings of a scan.
func (s *Service) ListFindings(ctx context.Context, scanID string) ([]domain.Finding, error) {
	return s.findings.ListByScan(ctx, scanID)
}

func (s *Service) execute(ctx context.Context, scan *domain.Scan) error {
	results, err := s.engine.Run(ctx, scan.Target, scan.Profile)
	if err != nil {
		scan.Status = domain.ScanStatusFailed
		scan.Error = err.Error()
		if uerr := s.scans.UpdateScanStatus(ctx, scan.ID, domain.ScanStatusFailed, err.Error()); uerr != nil {
			log.Printf("[SCAN] failed to record scan failure: %v", uerr)
		}
		telemetry.ScansCompleted.WithLabelValues(string(domain.ScanStatusFailed)).Inc()
		s.broadcast("scan_failed", scan)
		return fmt.Errorf("scan engine: %w", err)
	}

	for i := range results {
		results[i].ID = uuid.New().String()
		results[i].ScanID = scan.ID
		results[i].CreatedAt = time.Now().UTC()
	}

	if len(results) > 0 {
		if err := s.findings.SaveFindings(ctx, results); err != nil {
			return fmt.Errorf("failed to persist findings: %w", err)
		}
	}

	scan.Status = domain.ScanStatusCompleted
	scan.FindingsCount = len(results)
	if err := s.scans.UpdateScanStatus(ctx, scan.ID, domain.ScanStatusCompleted, ""); err != nil {
		log.Printf("[SCAN] failed to record scan completion: %v", err)
	}

	telemetry.ScansCompleted.WithLabelValues(string(domain.ScanStatusCompleted)).Inc()
	s.broadcast("scan_completed", scan)

	if s.autoEnrich && s.enricher != nil {
		if err := s.enricher.EnrichScan(ctx, scan.ID); err != nil {
			// Enrichment failure is soft: the scan itself succeeded.
			log.Printf("[SCAN] enrichment for %s incomplete: %v", scan.ID, err)
		}
		s.broadcast("scan_enriched", scan.ID)
	}

	return nil
}

func (s *Service) broadcast(event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(event, payload)
	}
}

func (s *Service) auditLog(ctx context.Context, action domain.AuditAction, target, details string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, action, target, details); err != nil {
		log.Printf("[SCAN] audit log failed: %v", err)
	}
}
