package review

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

type memScans struct {
	scans map[string]*domain.Scan
}

func (m *memScans) SaveScan(ctx context.Context, s domain.Scan) error { m.scans[s.ID] = &s; return nil }
func (m *memScans) GetScan(ctx context.Context, id string) (*domain.Scan, error) {
	s, ok := m.scans[id]
	if !ok {
		return nil, fmt.Errorf("scan %s not found", id)
	}
	c := *s
	return &c, nil
}
func (m *memScans) ListScans(ctx context.Context, userID string, limit int) ([]domain.Scan, error) {
	return nil, nil
}
func (m *memScans) UpdateScanStatus(ctx context.Context, id string, st domain.ScanStatus, msg string) error {
	return nil
}
func (m *memScans) MarkEnriched(ctx context.Context, id string) error { return nil }

type memFindings struct {
	findings []domain.Finding
}

func (m *memFindings) SaveFindings(ctx context.Context, fs []domain.Finding) error { return nil }
func (m *memFindings) ListByScan(ctx context.Context, scanID string) ([]domain.Finding, error) {
	var out []domain.Finding
	for _, f := range m.findings {
		if f.ScanID == scanID {
			out = append(out, f)
		}
	}
	return out, nil
}
func (m *memFindings) AttachCVE(ctx context.Context, findingID, cveID string) error { return nil }

type memCVEs struct {
	records map[string]domain.CVERecord
}

func (m *memCVEs) UpsertCVE(ctx context.Context, cve domain.CVERecord) error {
	m.records[cve.ID] = cve
	return nil
}
func (m *memCVEs) GetByID(ctx context.Context, id string) (*domain.CVERecord, error) {
	if r, ok := m.records[id]; ok {
		return &r, nil
	}
	return nil, nil
}
func (m *memCVEs) GetByIDs(ctx context.Context, ids []string) ([]domain.CVERecord, error) {
	var out []domain.CVERecord
	for _, id := range ids {
		if r, ok := m.records[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}
func (m *memCVEs) GetTotalCount(ctx context.Context) (int, error) { return len(m.records), nil }
func (m *memCVEs) Close() error                                   { return nil }

type memReports struct {
	reports map[string]*domain.Report
	order   []string
}

func (m *memReports) SaveReport(ctx context.Context, r domain.Report) error {
	m.reports[r.ID] = &r
	m.order = append(m.order, r.ID)
	return nil
}
func (m *memReports) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, nil
	}
	c := *r
	return &c, nil
}
func (m *memReports) UpdateReport(ctx context.Context, r domain.Report) error {
	m.reports[r.ID] = &r
	return nil
}
func (m *memReports) ListByScan(ctx context.Context, scanID string) ([]domain.Report, error) {
	var out []domain.Report
	for i := len(m.order) - 1; i >= 0; i-- {
		if r := m.reports[m.order[i]]; r.ScanID == scanID {
			out = append(out, *r)
		}
	}
	return out, nil
}
func (m *memReports) ListByStatus(ctx context.Context, status domain.ReportStatus, limit int) ([]domain.Report, error) {
	var out []domain.Report
	for _, id := range m.order {
		if r := m.reports[id]; r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

// mockGenerator records the feedback passed into each generation call.
type mockGenerator struct {
	calls    int
	feedback []string
	err      error
}

func (g *mockGenerator) Generate(ctx context.Context, scan domain.Scan, findings []domain.Finding, cves []domain.CVERecord, feedback string) (string, error) {
	g.calls++
	g.feedback = append(g.feedback, feedback)
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("Remediation report for %s (draft %d)", scan.ID, g.calls), nil
}

func score(v float64) *float64 { return &v }

func newHarness() (*Service, *memReports, *mockGenerator, *memCVEs) {
	scans := &memScans{scans: map[string]*domain.Scan{
		"scan-1": {ID: "scan-1", Status: domain.ScanStatusCompleted, CVEEnriched: true},
		"scan-2": {ID: "scan-2", Status: domain.ScanStatusCompleted, CVEEnriched: true},
	}}
	findings := &memFindings{findings: []domain.Finding{
		{ID: "f1", ScanID: "scan-1", ServiceName: "vsftpd", ServiceVersion: "2.3.4", CVEID: "CVE-2011-2523"},
		{ID: "f2", ScanID: "scan-1", ServiceName: "nginx", ServiceVersion: "1.18.0"},
	}}
	cves := &memCVEs{records: map[string]domain.CVERecord{
		"CVE-2011-2523": {ID: "CVE-2011-2523", Description: "vsftpd backdoor", CVSSScore: score(9.8)},
	}}
	reports := &memReports{reports: map[string]*domain.Report{}}
	gen := &mockGenerator{}

	svc := NewService(scans, findings, cves, reports, gen, nil)
	return svc, reports, gen, cves
}

func TestGenerateRequiresConsultant(t *testing.T) {
	svc, _, gen, _ := newHarness()

	_, err := svc.Generate(context.Background(), "scan-1", "")
	assert.ErrorIs(t, err, domain.ErrConsultantRequired)
	assert.Zero(t, gen.calls)

	_, err = svc.Generate(context.Background(), "scan-1", "   ")
	assert.ErrorIs(t, err, domain.ErrConsultantRequired)
}

func TestGenerateCreatesPendingReport(t *testing.T) {
	svc, reports, _, _ := newHarness()

	report, err := svc.Generate(context.Background(), "scan-1", "consultant-1")
	require.NoError(t, err)

	assert.Equal(t, domain.ReportPendingReview, report.Status)
	assert.Equal(t, "consultant-1", report.ConsultantID)
	assert.Equal(t, 9.8, report.RiskScore)
	assert.Equal(t, "Critical", report.RiskLevel)
	assert.NotEmpty(t, report.Summary)

	queue, err := svc.ListQueue(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, queue, 1)
	assert.Len(t, reports.reports, 1)
}

func TestApprove(t *testing.T) {
	svc, _, _, _ := newHarness()

	report, err := svc.Generate(context.Background(), "scan-1", "consultant-1")
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportApproved, approved.Status)
	assert.NotNil(t, approved.ReviewedAt)

	// Approved is terminal: no further transitions.
	_, err = svc.Approve(context.Background(), report.ID)
	assert.ErrorIs(t, err, domain.ErrReportNotPending)
	_, err = svc.Reject(context.Background(), report.ID, "too late")
	assert.ErrorIs(t, err, domain.ErrReportNotPending)
}

func TestRejectRequiresNotes(t *testing.T) {
	svc, _, gen, _ := newHarness()

	report, err := svc.Generate(context.Background(), "scan-1", "consultant-1")
	require.NoError(t, err)
	callsAfterGenerate := gen.calls

	_, err = svc.Reject(context.Background(), report.ID, "")
	assert.ErrorIs(t, err, domain.ErrReviewNotesRequired)
	_, err = svc.Reject(context.Background(), report.ID, "  \t ")
	assert.ErrorIs(t, err, domain.ErrReviewNotesRequired)

	// Refused rejections never trigger regeneration.
	assert.Equal(t, callsAfterGenerate, gen.calls)
}

func TestRejectRegeneratesDraft(t *testing.T) {
	svc, _, gen, _ := newHarness()

	report, err := svc.Generate(context.Background(), "scan-1", "consultant-1")
	require.NoError(t, err)

	draft, err := svc.Reject(context.Background(), report.ID, "needs more detail")
	require.NoError(t, err)

	// The rejected report keeps its notes, a fresh draft enters the queue.
	rejected, err := svc.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportRejected, rejected.Status)
	assert.Equal(t, "needs more detail", rejected.ReviewNotes)

	assert.NotEqual(t, report.ID, draft.ID)
	assert.Equal(t, domain.ReportPendingReview, draft.Status)
	assert.Equal(t, "scan-1", draft.ScanID)
	assert.Equal(t, "consultant-1", draft.ConsultantID)

	// Regeneration consumed the reviewer feedback.
	assert.Equal(t, []string{"", "needs more detail"}, gen.feedback)

	// Exactly one pending report for the scan.
	queue, err := svc.ListQueue(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, queue, 1)
	assert.Equal(t, draft.ID, queue[0].ID)
}

func TestRejectUnknownReport(t *testing.T) {
	svc, _, _, _ := newHarness()

	_, err := svc.Reject(context.Background(), "missing", "notes")
	assert.ErrorIs(t, err, domain.ErrReportNotFound)
}

func TestBulkGeneratePartialFailure(t *testing.T) {
	svc, _, _, _ := newHarness()

	result := svc.BulkGenerate(context.Background(), []string{"scan-1", "missing", "scan-2"}, "consultant-1")

	assert.Equal(t, []string{"scan-1", "scan-2"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed["missing"], "not found")
}

func TestGenerateGeneratorFailure(t *testing.T) {
	svc, reports, gen, _ := newHarness()
	gen.err = errors.New("model unavailable")

	_, err := svc.Generate(context.Background(), "scan-1", "consultant-1")
	require.Error(t, err)
	assert.Empty(t, reports.reports)
}

func TestRecordPDF(t *testing.T) {
	svc, reports, _, _ := newHarness()

	report, err := svc.Generate(context.Background(), "scan-1", "consultant-1")
	require.NoError(t, err)

	url := "/api/reports/" + report.ID + "/pdf"
	require.NoError(t, svc.RecordPDF(context.Background(), report.ID, url))
	assert.Equal(t, url, reports.reports[report.ID].PDFURL)

	err = svc.RecordPDF(context.Background(), "missing", url)
	assert.ErrorIs(t, err, domain.ErrReportNotFound)
}

func TestGenerateRequiresEnrichedScan(t *testing.T) {
	svc, reports, _, _ := newHarness()

	scans := svc.scans.(*memScans)
	scans.scans["scan-raw"] = &domain.Scan{ID: "scan-raw", Status: domain.ScanStatusCompleted}

	_, err := svc.Generate(context.Background(), "scan-raw", "consultant-1")
	assert.ErrorIs(t, err, domain.ErrScanNotEnriched)
	assert.Empty(t, reports.reports)
}
