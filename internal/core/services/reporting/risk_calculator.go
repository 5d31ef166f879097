package reporting

import (
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

// RiskCalculator derives a scan-level risk score from enriched CVE records.
type RiskCalculator struct{}

// NewRiskCalculator creates a new risk calculator instance
func NewRiskCalculator() *RiskCalculator {
	return &RiskCalculator{}
}

// ScanRiskScore returns the overall risk score (0-10) for a scan: the
// maximum CVSS base score across its enriched CVE records. A single
// critical service defines the exposure of the whole scan, so the worst
// finding wins over any averaging. Records without a score contribute
// nothing.
func (rc *RiskCalculator) ScanRiskScore(cves []domain.CVERecord) float64 {
	var max float64
	for _, cve := range cves {
		if cve.CVSSScore == nil {
			continue
		}
		if *cve.CVSSScore > max {
			max = *cve.CVSSScore
		}
	}
	return max
}

// RiskLevel converts a numeric score to a human-readable level using the
// standard CVSS v3 severity bands.
func (rc *RiskCalculator) RiskLevel(score float64) string {
	switch {
	case score >= 9.0:
		return "Critical"
	case score >= 7.0:
		return "High"
	case score >= 4.0:
		return "Medium"
	case score > 0:
		return "Low"
	}
	return "None"
}

// SeverityBreakdown counts enriched CVE records per severity band.
func (rc *RiskCalculator) SeverityBreakdown(cves []domain.CVERecord) map[string]int {
	breakdown := make(map[string]int)
	for _, cve := range cves {
		if cve.CVSSScore == nil {
			breakdown["Unscored"]++
			continue
		}
		breakdown[rc.RiskLevel(*cve.CVSSScore)]++
	}
	return breakdown
}
