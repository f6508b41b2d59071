package output

import (
	"io"
	"strings"

	"github.com/dshills/verdict/internal/codectx"
	"github.com/dshills/verdict/internal/finding"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	s := report.Summary

	ew.printf("## Verdict Triage\n\n")
	ew.printf("| | Count |\n")
	ew.printf("|---|---|\n")
	ew.printf("| Scanner findings | %d |\n", s.Total)
	ew.printf("| AI analyzed | %d |\n", s.Analyzed)
	ew.printf("| Filtered as false positives | %d |\n", s.Filtered)
	ew.printf("| **Kept** | **%d** |\n\n", s.Kept)

	if len(report.Findings) == 0 {
		ew.println("No issues found. :white_check_mark:")
		return ew.err
	}

	grouped := make(map[finding.Severity][]*finding.Finding)
	for _, f := range report.Findings {
		grouped[f.Severity] = append(grouped[f.Severity], f)
	}
	for _, sev := range finding.Severities() {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}

		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n", mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(findings))
		for _, f := range findings {
			loc := f.Location
			ew.printf("### %s\n\n", f.RuleID)
			ew.printf("**`%s:%d`** | %s", loc.FilePath, loc.StartLine, f.Category)
			if f.CWE != "" {
				ew.printf(" | %s", f.CWE)
			}
			ew.printf("\n\n%s\n\n", f.Message)

			if v := f.Verdict; v != nil {
				ew.printf("**AI verdict:** %s, confidence %.0f%%\n\n", verdictLabel(v), v.Confidence*100)
				if v.Reasoning != "" {
					ew.printf("> %s\n\n", strings.ReplaceAll(v.Reasoning, "\n", "\n> "))
				}
			}

			if f.Remediation != "" {
				ew.printf("**Remediation** (%s):\n\n", f.RemediationSourceOrDefault())
				if looksLikeCode(f.Remediation) && !strings.Contains(f.Remediation, "```") {
					ew.printf("```%s\n%s\n```\n\n", codectx.Language(loc.FilePath), f.Remediation)
				} else {
					ew.printf("%s\n\n", f.Remediation)
				}
			}
			ew.printf("---\n\n")
		}
		ew.printf("</details>\n\n")
	}

	ew.printf("*Run %s completed in %dms (LLM: %dms)*\n", report.RunID, report.Timing.TotalMs, report.Timing.LLMMs)
	return ew.err
}

func verdictLabel(v *finding.Verdict) string {
	if v.IsFalsePositive {
		return "likely false positive"
	}
	return "true positive"
}

func mdSeverityIcon(s finding.Severity) string {
	switch s {
	case finding.SeverityCritical:
		return ":red_circle:"
	case finding.SeverityHigh:
		return ":orange_circle:"
	case finding.SeverityMedium:
		return ":yellow_circle:"
	case finding.SeverityLow:
		return ":large_blue_circle:"
	default:
		return ":white_circle:"
	}
}

func looksLikeCode(s string) bool {
	codeIndicators := []string{
		"def ", "class ", "import ", "from ", "return ",
		"func ", "const ", "{", "}", "=>", "->", ":=", "==", "()",
	}
	for _, indicator := range codeIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}
