package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

// In-memory collaborators

type memScans struct {
	scans map[string]*domain.Scan
}

func (m *memScans) SaveScan(ctx context.Context, s domain.Scan) error { m.scans[s.ID] = &s; return nil }
func (m *memScans) GetScan(ctx context.Context, id string) (*domain.Scan, error) {
	s, ok := m.scans[id]
	if !ok {
		return nil, errors.New("scan not found")
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
func (m *memScans) MarkEnriched(ctx context.Context, id string) error {
	m.scans[id].CVEEnriched = true
	return nil
}

type memFindings struct {
	findings []domain.Finding
}

func (m *memFindings) SaveFindings(ctx context.Context, fs []domain.Finding) error {
	m.findings = append(m.findings, fs...)
	return nil
}
func (m *memFindings) ListByScan(ctx context.Context, scanID string) ([]domain.Finding, error) {
	var out []domain.Finding
	for _, f := range m.findings {
		if f.ScanID == scanID {
			out = append(out, f)
		}
	}
	return out, nil
}
func (m *memFindings) AttachCVE(ctx context.Context, findingID, cveID string) error {
	for i := range m.findings {
		if m.findings[i].ID == findingID && m.findings[i].CVEID == "" {
			m.findings[i].CVEID = cveID
		}
	}
	return nil
}

type memCVEs struct {
	records map[string]domain.CVERecord
	upserts int
}

func (m *memCVEs) UpsertCVE(ctx context.Context, cve domain.CVERecord) error {
	m.records[cve.ID] = cve
	m.upserts++
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

type mockLookup struct {
	queries []string
	results map[string][]domain.Vulnerability
	err     error
	errOn   string // query that should fail
}

func (m *mockLookup) Search(ctx context.Context, keyword string) ([]domain.Vulnerability, error) {
	m.queries = append(m.queries, keyword)
	if m.err != nil && (m.errOn == "" || m.errOn == keyword) {
		return nil, m.err
	}
	return m.results[keyword], nil
}

func score(v float64) *float64 { return &v }

func newHarness(findings ...domain.Finding) (*Service, *memScans, *memFindings, *memCVEs, *mockLookup) {
	scans := &memScans{scans: map[string]*domain.Scan{
		"scan-1": {ID: "scan-1", Status: domain.ScanStatusCompleted},
	}}
	fs := &memFindings{findings: findings}
	cves := &memCVEs{records: map[string]domain.CVERecord{}}
	lookup := &mockLookup{results: map[string][]domain.Vulnerability{}}

	cfg := DefaultConfig()
	cfg.RequestDelay = 0 // no pacing in tests
	svc := NewService(scans, fs, cves, lookup, cfg)
	return svc, scans, fs, cves, lookup
}

func TestEnrichScanMatchesEligibleFinding(t *testing.T) {
	svc, scans, fs, cves, lookup := newHarness(domain.Finding{
		ID: "f1", ScanID: "scan-1", Host: "10.0.0.5", Port: 22,
		State: domain.PortOpen, ServiceName: "OpenSSH", ServiceVersion: "8.2p1",
	})
	lookup.results["openssh 8.2p1"] = []domain.Vulnerability{
		{ID: "CVE-2020-15778", Description: "scp command injection", CVSSScore: score(7.8)},
		{ID: "CVE-2020-14145", Description: "observable discrepancy", CVSSScore: score(5.9)},
	}

	require.NoError(t, svc.EnrichScan(context.Background(), "scan-1"))

	// First (pre-sorted) result wins.
	assert.Equal(t, "CVE-2020-15778", fs.findings[0].CVEID)
	record, _ := cves.GetByID(context.Background(), "CVE-2020-15778")
	require.NotNil(t, record)
	assert.Equal(t, domain.ConfidenceHigh, record.Confidence)
	assert.Equal(t, 7.8, *record.CVSSScore)

	// Product query matched, so the raw-name fallback was never sent.
	assert.Equal(t, []string{"openssh 8.2p1"}, lookup.queries)

	// Gate is set after the pass.
	assert.True(t, scans.scans["scan-1"].CVEEnriched)
}

func TestEnrichScanIdempotence(t *testing.T) {
	svc, _, _, _, lookup := newHarness(domain.Finding{
		ID: "f1", ScanID: "scan-1", ServiceName: "nginx", ServiceVersion: "1.18.0",
	})
	lookup.results["nginx 1.18.0"] = []domain.Vulnerability{{ID: "CVE-2021-23017", Description: "resolver off-by-one"}}

	require.NoError(t, svc.EnrichScan(context.Background(), "scan-1"))
	firstCalls := len(lookup.queries)
	assert.Equal(t, 1, firstCalls)

	// Second run must be a no-op: no further external lookups.
	require.NoError(t, svc.EnrichScan(context.Background(), "scan-1"))
	assert.Equal(t, firstCalls, len(lookup.queries))
}

func TestEnrichScanEligibilityFilter(t *testing.T) {
	svc, _, fs, _, lookup := newHarness(
		domain.Finding{ID: "f1", ScanID: "scan-1", ServiceName: "http", ServiceVersion: "2.4.49"},
		domain.Finding{ID: "f2", ScanID: "scan-1", ServiceName: "mysql", ServiceVersion: "unknown"},
		domain.Finding{ID: "f3", ScanID: "scan-1", ServiceName: "postgresql", ServiceVersion: ""},
		domain.Finding{ID: "f4", ScanID: "scan-1", ServiceName: "vsftpd", ServiceVersion: "2.3.4", CVEID: "CVE-2011-2523"},
	)

	require.NoError(t, svc.EnrichScan(context.Background(), "scan-1"))

	// Generic label, versionless, and already-enriched findings are never
	// submitted to the lookup collaborator.
	assert.Empty(t, lookup.queries)
	assert.Empty(t, fs.findings[0].CVEID)
	assert.Empty(t, fs.findings[1].CVEID)
	assert.Empty(t, fs.findings[2].CVEID)
	assert.Equal(t, "CVE-2011-2523", fs.findings[3].CVEID)
}

func TestEnrichScanQueryLadder(t *testing.T) {
	svc, _, fs, cves, lookup := newHarness(domain.Finding{
		ID: "f1", ScanID: "scan-1", ServiceName: "ssl/apache httpd", ServiceVersion: "2.4.49",
	})
	// Product query misses, raw service name hits.
	lookup.results["ssl/apache httpd 2.4.49"] = []domain.Vulnerability{
		{ID: "CVE-2021-41773", Description: "path traversal", CVSSScore: score(7.5)},
	}

	require.NoError(t, svc.EnrichScan(context.Background(), "scan-1"))

	assert.Equal(t, []string{"apache 2.4.49", "ssl/apache httpd 2.4.49"}, lookup.queries)
	assert.Equal(t, "CVE-2021-41773", fs.findings[0].CVEID)

	record, _ := cves.GetByID(context.Background(), "CVE-2021-41773")
	require.NotNil(t, record)
	assert.Equal(t, domain.ConfidenceMedium, record.Confidence)
}

func TestEnrichScanPartialFailure(t *testing.T) {
	svc, scans, fs, _, lookup := newHarness(
		domain.Finding{ID: "f1", ScanID: "scan-1", ServiceName: "proftpd", ServiceVersion: "1.3.5"},
		domain.Finding{ID: "f2", ScanID: "scan-1", ServiceName: "nginx", ServiceVersion: "1.18.0"},
	)
	lookup.err = errors.New("upstream timeout")
	lookup.errOn = "proftpd 1.3.5"
	lookup.results["nginx 1.18.0"] = []domain.Vulnerability{{ID: "CVE-2021-23017", Description: "resolver off-by-one"}}

	// One finding's lookup failure must not abort the scan-level pass.
	require.NoError(t, svc.EnrichScan(context.Background(), "scan-1"))

	assert.Empty(t, fs.findings[0].CVEID)
	assert.Equal(t, "CVE-2021-23017", fs.findings[1].CVEID)
	assert.True(t, scans.scans["scan-1"].CVEEnriched)
}

func TestEnrichScanNoFindings(t *testing.T) {
	svc, scans, _, _, lookup := newHarness()

	require.NoError(t, svc.EnrichScan(context.Background(), "scan-1"))

	assert.Empty(t, lookup.queries)
	// Nothing to enrich leaves the gate open for a future pass after re-scan.
	assert.False(t, scans.scans["scan-1"].CVEEnriched)
}

func TestEnrichScanNoMatchLeavesFindingUntouched(t *testing.T) {
	svc, _, fs, cves, lookup := newHarness(domain.Finding{
		ID: "f1", ScanID: "scan-1", ServiceName: "Customd", ServiceVersion: "0.1",
	})
	require.NoError(t, svc.EnrichScan(context.Background(), "scan-1"))

	// Both ladder rungs were tried before giving up.
	assert.Len(t, lookup.queries, 2)
	assert.Empty(t, fs.findings[0].CVEID)
	assert.Zero(t, cves.upserts)
}

func TestProductName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"OpenSSH", "openssh"},
		{"ssl/http", "http"},
		{"Apache httpd", "apache"},
		{"ssl/apache httpd", "apache"},
		{"mysql", "mysql"},
	}
	for _, tt := range tests {
		if got := productName(tt.in); got != tt.want {
			t.Errorf("productName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
