package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dshills/verdict/internal/finding"
)

// TextWriter outputs a human-readable report grouped by file.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}

	ew.printf("Verdict triage: %s\n", report.Input)
	if report.AIEnabled {
		ew.printf("Provider: %s\n", report.Provider)
	} else {
		ew.println("AI filtering disabled, showing scanner findings")
	}
	ew.println(strings.Repeat("=", 72))

	if len(report.Findings) == 0 {
		ew.println("\nNo issues found.")
	} else {
		byFile := groupByFile(report.Findings)
		paths := make([]string, 0, len(byFile))
		for p := range byFile {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		ew.printf("Found %d issue(s) in %d file(s)\n", len(report.Findings), len(paths))
		for _, p := range paths {
			ew.printf("\n%s\n%s\n", p, strings.Repeat("-", 72))
			for _, f := range byFile[p] {
				writeFinding(ew, f)
			}
		}
	}

	ew.printf("\n%s\n", strings.Repeat("=", 72))
	for _, line := range report.Summary.Lines() {
		ew.println(line)
	}
	if report.Canceled {
		ew.println("Run was canceled before all findings were analyzed.")
	}
	ew.printf("Completed in %dms (LLM: %dms)\n", report.Timing.TotalMs, report.Timing.LLMMs)
	return ew.err
}

func writeFinding(ew *errWriter, f *finding.Finding) {
	ew.printf("  %s [%s] %s\n", severityIcon(f.Severity), strings.ToUpper(string(f.Severity)), f.RuleID)
	ew.printf("    Line %d:%d - %s\n", f.Location.StartLine, f.Location.StartColumn, f.Message)
	if s := strings.TrimSpace(f.Location.Snippet); s != "" {
		lines := strings.Split(s, "\n")
		for _, line := range lines[:min(3, len(lines))] {
			ew.printf("      %s\n", line)
		}
	}
	if v := f.Verdict; v != nil {
		label := "true positive"
		if v.IsFalsePositive {
			label = "likely false positive"
		}
		ew.printf("    AI: %s (confidence %.0f%%)\n", label, v.Confidence*100)
		for _, line := range wrapText(v.Reasoning, 66) {
			ew.printf("      %s\n", line)
		}
		if v.SuggestedSeverity != nil && *v.SuggestedSeverity != f.Severity {
			ew.printf("    Suggested severity: %s\n", *v.SuggestedSeverity)
		}
	}
	if f.Remediation != "" {
		ew.printf("    Remediation (%s):\n", f.RemediationSourceOrDefault())
		for _, para := range strings.Split(strings.TrimSpace(f.Remediation), "\n") {
			for _, line := range wrapText(para, 66) {
				ew.printf("      %s\n", line)
			}
		}
	}
	ew.println("")
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

// groupByFile groups findings by path, each group ordered by line.
func groupByFile(findings []*finding.Finding) map[string][]*finding.Finding {
	m := make(map[string][]*finding.Finding)
	for _, f := range findings {
		m[f.Location.FilePath] = append(m[f.Location.FilePath], f)
	}
	for _, group := range m {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Location.StartLine < group[j].Location.StartLine
		})
	}
	return m
}

func severityIcon(s finding.Severity) string {
	switch s {
	case finding.SeverityCritical:
		return "[!!!]"
	case finding.SeverityHigh:
		return "[!!]"
	case finding.SeverityMedium:
		return "[!]"
	case finding.SeverityLow:
		return "[-]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
