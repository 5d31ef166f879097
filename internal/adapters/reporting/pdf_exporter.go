// Package reporting renders approved remediation reports into client-facing
// documents.
package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
)

// PDFExporter renders reports to PDF.
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export generates a PDF document for a report.
func (e *PDFExporter) Export(report domain.Report, scan domain.Scan, findings []domain.Finding, cves []domain.CVERecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, report, scan)
	e.addRiskScore(pdf, report)
	e.addStatistics(pdf, findings, cves)
	e.addFindingsTable(pdf, findings)
	e.addSummary(pdf, report)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report domain.Report, scan domain.Scan) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 15, "Vulnerability Assessment Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 14)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 8, fmt.Sprintf("Target: %s", scan.Target), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", report.CreatedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	if scan.CompletedAt != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Scan completed: %s", scan.CompletedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
}

func (e *PDFExporter) addRiskScore(pdf *gofpdf.Fpdf, report domain.Report) {
	r, g, b := e.riskColor(report.RiskScore)

	pdf.SetFillColor(r, g, b)
	pdf.Rect(20, pdf.GetY(), 170, 30, "F")

	y := pdf.GetY()

	pdf.SetFont("Arial", "B", 36)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(25, y+5)
	pdf.CellFormat(80, 20, fmt.Sprintf("%.1f/10", report.RiskScore), "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 18)
	pdf.SetXY(110, y+8)
	pdf.CellFormat(80, 14, fmt.Sprintf("%s Risk", report.RiskLevel), "", 0, "L", false, 0, "")

	pdf.SetY(y + 35)
	pdf.Ln(5)
}

// riskColor maps the score to the same bands the risk calculator uses.
func (e *PDFExporter) riskColor(score float64) (r, g, b int) {
	switch {
	case score >= 9.0:
		return 220, 53, 69 // Red (Critical)
	case score >= 7.0:
		return 255, 149, 0 // Orange (High)
	case score >= 4.0:
		return 255, 204, 0 // Yellow (Medium)
	default:
		return 52, 199, 89 // Green (Low)
	}
}

func (e *PDFExporter) addStatistics(pdf *gofpdf.Fpdf, findings []domain.Finding, cves []domain.CVERecord) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Security Overview", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	var critical, high, medium, low, unscored int
	for _, cve := range cves {
		switch {
		case cve.CVSSScore == nil:
			unscored++
		case *cve.CVSSScore >= 9.0:
			critical++
		case *cve.CVSSScore >= 7.0:
			high++
		case *cve.CVSSScore >= 4.0:
			medium++
		default:
			low++
		}
	}

	stats := []struct {
		label string
		value int
		color []int
	}{
		{"Open Services", len(findings), []int{0, 102, 204}},
		{"Known Vulnerabilities", len(cves), []int{0, 102, 204}},
		{"Critical", critical, []int{220, 53, 69}},
		{"High", high, []int{255, 149, 0}},
		{"Medium", medium, []int{255, 204, 0}},
		{"Low", low, []int{52, 199, 89}},
	}
	if unscored > 0 {
		stats = append(stats, struct {
			label string
			value int
			color []int
		}{"Unscored", unscored, []int{150, 150, 150}})
	}

	// Two columns
	colWidth := 85.0
	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}

		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(stat.color[0], stat.color[1], stat.color[2])
		pdf.CellFormat(colWidth-50, 7, fmt.Sprintf("%d", stat.value), "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}

	pdf.Ln(10)
}

func (e *PDFExporter) addFindingsTable(pdf *gofpdf.Fpdf, findings []domain.Finding) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Findings", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(findings) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No open services identified", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)

	pdf.CellFormat(40, 8, "Host", "1", 0, "L", true, 0, "")
	pdf.CellFormat(18, 8, "Port", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "Service", "1", 0, "L", true, 0, "")
	pdf.CellFormat(32, 8, "Version", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "CVE", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, f := range findings {
		if pdf.GetY() > 260 {
			pdf.AddPage()
		}

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(40, 7, f.Host, "1", 0, "L", false, 0, "")
		pdf.CellFormat(18, 7, fmt.Sprintf("%d", f.Port), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, f.ServiceName, "1", 0, "L", false, 0, "")

		version := f.ServiceVersion
		if version == "" {
			version = "-"
		}
		pdf.CellFormat(32, 7, version, "1", 0, "L", false, 0, "")

		if f.CVEID != "" {
			pdf.SetTextColor(220, 53, 69)
			pdf.CellFormat(40, 7, f.CVEID, "1", 1, "L", false, 0, "")
		} else {
			pdf.SetTextColor(150, 150, 150)
			pdf.CellFormat(40, 7, "-", "1", 1, "L", false, 0, "")
		}
	}

	pdf.Ln(8)
}

func (e *PDFExporter) addSummary(pdf *gofpdf.Fpdf, report domain.Report) {
	if report.Summary == "" {
		return
	}

	if pdf.GetY() > 230 {
		pdf.AddPage()
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Remediation Summary", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.MultiCell(0, 5, report.Summary, "", "L", false)
	pdf.Ln(5)
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report domain.Report) {
	pdf.SetY(-20)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	id := report.ID
	if len(id) > 8 {
		id = id[:8]
	}

	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by Sightline | Report ID: %s", id), "", 1, "C", false, 0, "")
}

// Ensure interface compliance
var _ ports.ReportExporter = (*PDFExporter)(nil)
