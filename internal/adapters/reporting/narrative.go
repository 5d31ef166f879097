package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
)

// TemplateNarrativeGenerator builds the report summary from the enriched
// findings with a fixed structure. It backs the NarrativeGenerator port
// when no external generation service is configured, and its output goes
// through the same human review pipeline either way.
type TemplateNarrativeGenerator struct{}

// NewTemplateNarrativeGenerator creates a template-based generator.
func NewTemplateNarrativeGenerator() *TemplateNarrativeGenerator {
	return &TemplateNarrativeGenerator{}
}

// Generate produces the remediation narrative. Reviewer feedback from a
// rejected draft is echoed into a revision section so the next reviewer
// can see what was addressed.
func (g *TemplateNarrativeGenerator) Generate(ctx context.Context, scan domain.Scan, findings []domain.Finding, cves []domain.CVERecord, feedback string) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Assessment of %s identified %d exposed service(s).\n\n", scan.Target, len(findings))

	if len(cves) == 0 {
		b.WriteString("No known vulnerabilities were matched against the discovered services. ")
		b.WriteString("Review the exposed services below and close any that are not required.\n")
	} else {
		fmt.Fprintf(&b, "%d known vulnerabilit%s matched:\n\n", len(cves), plural(len(cves), "y was", "ies were"))

		sorted := make([]domain.CVERecord, len(cves))
		copy(sorted, cves)
		sort.SliceStable(sorted, func(i, j int) bool {
			return scoreOf(sorted[i]) > scoreOf(sorted[j])
		})

		for _, cve := range sorted {
			if cve.CVSSScore != nil {
				fmt.Fprintf(&b, "- %s (CVSS %.1f, %s confidence): %s\n", cve.ID, *cve.CVSSScore, cve.Confidence, firstSentence(cve.Description))
			} else {
				fmt.Fprintf(&b, "- %s (unscored, %s confidence): %s\n", cve.ID, cve.Confidence, firstSentence(cve.Description))
			}
		}
		b.WriteString("\nPrioritize remediation in the order listed. Patch affected services to their latest stable releases and re-scan to confirm.\n")
	}

	if unversioned := countUnversioned(findings); unversioned > 0 {
		fmt.Fprintf(&b, "\n%d service(s) could not be version-identified and were excluded from vulnerability matching; verify them manually.\n", unversioned)
	}

	if feedback != "" {
		fmt.Fprintf(&b, "\nRevision notes addressed in this draft:\n%s\n", feedback)
	}

	return b.String(), nil
}

func scoreOf(cve domain.CVERecord) float64 {
	if cve.CVSSScore == nil {
		return -1
	}
	return *cve.CVSSScore
}

func firstSentence(s string) string {
	if idx := strings.Index(s, ". "); idx > 0 {
		return s[:idx+1]
	}
	return s
}

func countUnversioned(findings []domain.Finding) int {
	n := 0
	for _, f := range findings {
		if !f.HasVersion() {
			n++
		}
	}
	return n
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}

// Ensure interface compliance
var _ ports.NarrativeGenerator = (*TemplateNarrativeGenerator)(nil)
