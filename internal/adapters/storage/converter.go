package storage

import (
	"encoding/json"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

func scanToModel(s domain.Scan) ScanModel {
	return ScanModel{
		ID:            s.ID,
		UserID:        s.UserID,
		Target:        s.Target,
		RawTarget:     s.RawTarget,
		TargetType:    string(s.TargetType),
		Profile:       s.Profile,
		Status:        string(s.Status),
		CVEEnriched:   s.CVEEnriched,
		FindingsCount: s.FindingsCount,
		Error:         s.Error,
		CreatedAt:     s.CreatedAt,
		StartedAt:     s.StartedAt,
		CompletedAt:   s.CompletedAt,
	}
}

func scanToDomain(m ScanModel) domain.Scan {
	return domain.Scan{
		ID:            m.ID,
		UserID:        m.UserID,
		Target:        m.Target,
		RawTarget:     m.RawTarget,
		TargetType:    domain.TargetType(m.TargetType),
		Profile:       m.Profile,
		Status:        domain.ScanStatus(m.Status),
		CVEEnriched:   m.CVEEnriched,
		FindingsCount: m.FindingsCount,
		Error:         m.Error,
		CreatedAt:     m.CreatedAt,
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
	}
}

func findingToModel(f domain.Finding) FindingModel {
	model := FindingModel{
		ID:             f.ID,
		ScanID:         f.ScanID,
		Host:           f.Host,
		Port:           f.Port,
		State:          string(f.State),
		ServiceName:    f.ServiceName,
		ServiceVersion: f.ServiceVersion,
		CVEID:          f.CVEID,
		Confidence:     f.Confidence,
		RawBanner:      f.RawBanner,
		TLSInfo:        f.TLSInfo,
		CreatedAt:      f.CreatedAt,
	}

	if len(f.Headers) > 0 {
		if data, err := json.Marshal(f.Headers); err == nil {
			model.Headers = string(data)
		}
	}

	return model
}

func findingToDomain(m FindingModel) domain.Finding {
	f := domain.Finding{
		ID:             m.ID,
		ScanID:         m.ScanID,
		Host:           m.Host,
		Port:           m.Port,
		State:          domain.PortState(m.State),
		ServiceName:    m.ServiceName,
		ServiceVersion: m.ServiceVersion,
		CVEID:          m.CVEID,
		Confidence:     m.Confidence,
		RawBanner:      m.RawBanner,
		TLSInfo:        m.TLSInfo,
		CreatedAt:      m.CreatedAt,
	}

	if m.Headers != "" {
		_ = json.Unmarshal([]byte(m.Headers), &f.Headers)
	}

	return f
}

func reportToModel(r domain.Report) ReportModel {
	return ReportModel{
		ID:           r.ID,
		ScanID:       r.ScanID,
		Status:       string(r.Status),
		Summary:      r.Summary,
		PDFURL:       r.PDFURL,
		ConsultantID: r.ConsultantID,
		ReviewNotes:  r.ReviewNotes,
		RiskScore:    r.RiskScore,
		RiskLevel:    r.RiskLevel,
		CreatedAt:    r.CreatedAt,
		ReviewedAt:   r.ReviewedAt,
	}
}

func reportToDomain(m ReportModel) domain.Report {
	return domain.Report{
		ID:           m.ID,
		ScanID:       m.ScanID,
		Status:       domain.ReportStatus(m.Status),
		Summary:      m.Summary,
		PDFURL:       m.PDFURL,
		ConsultantID: m.ConsultantID,
		ReviewNotes:  m.ReviewNotes,
		RiskScore:    m.RiskScore,
		RiskLevel:    m.RiskLevel,
		CreatedAt:    m.CreatedAt,
		ReviewedAt:   m.ReviewedAt,
	}
}

func reportsToDomain(models []ReportModel) []domain.Report {
	reports := make([]domain.Report, len(models))
	for i, m := range models {
		reports[i] = reportToDomain(m)
	}
	return reports
}
