// Package review drives AI-generated reports through the human review gate:
// pending_review -> approved, or pending_review -> rejected -> new draft.
package review

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/reporting"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/telemetry"
)

// Service owns report generation and the review state machine.
type Service struct {
	scans     ports.ScanRepository
	findings  ports.FindingRepository
	cves      ports.CVERepository
	reports   ports.ReportRepository
	generator ports.NarrativeGenerator
	audit     ports.AuditService
	riskCalc  *reporting.RiskCalculator
}

// NewService creates a review workflow service.
func NewService(
	scans ports.ScanRepository,
	findings ports.FindingRepository,
	cves ports.CVERepository,
	reports ports.ReportRepository,
	generator ports.NarrativeGenerator,
	audit ports.AuditService,
) *Service {
	return &Service{
		scans:     scans,
		findings:  findings,
		cves:      cves,
		reports:   reports,
		generator: generator,
		audit:     audit,
		riskCalc:  reporting.NewRiskCalculator(),
	}
}

// Generate creates a pending_review report for the scan. A consultant must
// be assigned at generation time; reports without a reviewer cannot enter
// the queue.
func (s *Service) Generate(ctx context.Context, scanID, consultantID string) (*domain.Report, error) {
	return s.generate(ctx, scanID, consultantID, "")
}

// Approve transitions pending_review -> approved. Terminal: the report
// becomes visible to the owning client.
func (s *Service) Approve(ctx context.Context, reportID string) (*domain.Report, error) {
	report, err := s.pendingReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	report.Status = domain.ReportApproved
	report.ReviewedAt = &now

	if err := s.reports.UpdateReport(ctx, *report); err != nil {
		return nil, fmt.Errorf("failed to approve report: %w", err)
	}

	telemetry.ReportTransitions.WithLabelValues(string(domain.ReportApproved)).Inc()
	s.auditLog(ctx, domain.ActionReportApprove, report.ID, "report approved")
	return report, nil
}

// Reject transitions pending_review -> rejected and immediately regenerates
// a fresh pending_review draft seeded with the reviewer's notes. Rejection
// without feedback is refused.
func (s *Service) Reject(ctx context.Context, reportID, notes string) (*domain.Report, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, domain.ErrReviewNotesRequired
	}

	report, err := s.pendingReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	report.Status = domain.ReportRejected
	report.ReviewNotes = notes
	report.ReviewedAt = &now

	if err := s.reports.UpdateReport(ctx, *report); err != nil {
		return nil, fmt.Errorf("failed to reject report: %w", err)
	}

	telemetry.ReportTransitions.WithLabelValues(string(domain.ReportRejected)).Inc()
	s.auditLog(ctx, domain.ActionReportReject, report.ID, notes)

	// Rejection is never terminal: a new draft enters the queue without
	// manual re-invocation, carrying the feedback into regeneration.
	draft, err := s.generate(ctx, report.ScanID, report.ConsultantID, notes)
	if err != nil {
		return nil, fmt.Errorf("rejected, but regeneration failed: %w", err)
	}

	return draft, nil
}

// BulkGenerate invokes per-scan generation sequentially, collecting
// individual outcomes instead of failing the batch on one error.
func (s *Service) BulkGenerate(ctx context.Context, scanIDs []string, consultantID string) domain.BulkGenerateResult {
	result := domain.BulkGenerateResult{Failed: map[string]string{}}

	for _, scanID := range scanIDs {
		if _, err := s.Generate(ctx, scanID, consultantID); err != nil {
			result.Failed[scanID] = err.Error()
			continue
		}
		result.Succeeded = append(result.Succeeded, scanID)
	}

	return result
}

// GetReport returns a single report.
func (s *Service) GetReport(ctx context.Context, reportID string) (*domain.Report, error) {
	report, err := s.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, domain.ErrReportNotFound
	}
	return report, nil
}

// RecordPDF stores the download location of a rendered report.
func (s *Service) RecordPDF(ctx context.Context, reportID, url string) error {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return err
	}
	if report.PDFURL == url {
		return nil
	}

	report.PDFURL = url
	return s.reports.UpdateReport(ctx, *report)
}

// ListQueue returns reports awaiting review.
func (s *Service) ListQueue(ctx context.Context, limit int) ([]domain.Report, error) {
	return s.reports.ListByStatus(ctx, domain.ReportPendingReview, limit)
}

// ListByScan returns all report versions for a scan, newest first.
func (s *Service) ListByScan(ctx context.Context, scanID string) ([]domain.Report, error) {
	return s.reports.ListByScan(ctx, scanID)
}

func (s *Service) generate(ctx context.Context, scanID, consultantID, feedback string) (*domain.Report, error) {
	if strings.TrimSpace(consultantID) == "" {
		return nil, domain.ErrConsultantRequired
	}

	scan, err := s.scans.GetScan(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if !scan.CVEEnriched {
		return nil, domain.ErrScanNotEnriched
	}

	findings, err := s.findings.ListByScan(ctx, scanID)
	if err != nil {
		return nil, err
	}

	cves, err := s.cveRecords(ctx, findings)
	if err != nil {
		return nil, err
	}

	summary, err := s.generator.Generate(ctx, *scan, findings, cves, feedback)
	if err != nil {
		return nil, fmt.Errorf("narrative generation failed: %w", err)
	}

	riskScore := s.riskCalc.ScanRiskScore(cves)
	report := domain.Report{
		ID:           uuid.New().String(),
		ScanID:       scanID,
		Status:       domain.ReportPendingReview,
		Summary:      summary,
		ConsultantID: consultantID,
		RiskScore:    riskScore,
		RiskLevel:    s.riskCalc.RiskLevel(riskScore),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.reports.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	telemetry.ReportTransitions.WithLabelValues(string(domain.ReportPendingReview)).Inc()
	s.auditLog(ctx, domain.ActionReportGenerate, report.ID, "scan "+scanID)
	return &report, nil
}

// pendingReport loads a report and enforces the single transition
// precondition of the state machine.
func (s *Service) pendingReport(ctx context.Context, reportID string) (*domain.Report, error) {
	report, err := s.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, domain.ErrReportNotFound
	}
	if !report.IsPending() {
		return nil, domain.ErrReportNotPending
	}
	return report, nil
}

func (s *Service) cveRecords(ctx context.Context, findings []domain.Finding) ([]domain.CVERecord, error) {
	var ids []string
	seen := map[string]struct{}{}
	for _, f := range findings {
		if f.CVEID == "" {
			continue
		}
		if _, dup := seen[f.CVEID]; dup {
			continue
		}
		seen[f.CVEID] = struct{}{}
		ids = append(ids, f.CVEID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.cves.GetByIDs(ctx, ids)
}

func (s *Service) auditLog(ctx context.Context, action domain.AuditAction, target, details string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, action, target, details); err != nil {
		log.Printf("[REVIEW] audit log failed: %v", err)
	}
}
