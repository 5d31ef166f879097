package reporting

import (
	"testing"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

func score(v float64) *float64 { return &v }

func TestScanRiskScore(t *testing.T) {
	rc := NewRiskCalculator()

	tests := []struct {
		name     string
		cves     []domain.CVERecord
		expected float64
	}{
		{
			name:     "No CVEs",
			cves:     []domain.CVERecord{},
			expected: 0.0,
		},
		{
			name: "Single scored CVE",
			cves: []domain.CVERecord{
				{ID: "CVE-1", CVSSScore: score(7.5)},
			},
			expected: 7.5,
		},
		{
			name: "Worst finding wins over the rest",
			cves: []domain.CVERecord{
				{ID: "CVE-1", CVSSScore: score(3.1)},
				{ID: "CVE-2", CVSSScore: score(9.8)},
				{ID: "CVE-3", CVSSScore: score(5.0)},
			},
			expected: 9.8,
		},
		{
			name: "Unscored records contribute nothing",
			cves: []domain.CVERecord{
				{ID: "CVE-1"},
				{ID: "CVE-2", CVSSScore: score(4.3)},
			},
			expected: 4.3,
		},
		{
			name: "All unscored",
			cves: []domain.CVERecord{
				{ID: "CVE-1"},
				{ID: "CVE-2"},
			},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rc.ScanRiskScore(tt.cves); got != tt.expected {
				t.Errorf("ScanRiskScore() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRiskLevel(t *testing.T) {
	rc := NewRiskCalculator()

	tests := []struct {
		score float64
		want  string
	}{
		{0.0, "None"},
		{0.1, "Low"},
		{3.9, "Low"},
		{4.0, "Medium"},
		{6.9, "Medium"},
		{7.0, "High"},
		{8.9, "High"},
		{9.0, "Critical"},
		{10.0, "Critical"},
	}

	for _, tt := range tests {
		if got := rc.RiskLevel(tt.score); got != tt.want {
			t.Errorf("RiskLevel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestSeverityBreakdown(t *testing.T) {
	rc := NewRiskCalculator()

	cves := []domain.CVERecord{
		{ID: "CVE-1", CVSSScore: score(9.8)},
		{ID: "CVE-2", CVSSScore: score(7.5)},
		{ID: "CVE-3", CVSSScore: score(7.2)},
		{ID: "CVE-4", CVSSScore: score(2.0)},
		{ID: "CVE-5"},
	}

	got := rc.SeverityBreakdown(cves)

	want := map[string]int{"Critical": 1, "High": 2, "Low": 1, "Unscored": 1}
	for level, count := range want {
		if got[level] != count {
			t.Errorf("SeverityBreakdown()[%q] = %d, want %d", level, got[level], count)
		}
	}
}
