package triage

import (
	"fmt"

	"github.com/dshills/verdict/internal/finding"
)

// Summary holds the counters reported after a run.
type Summary struct {
	Total    int `json:"total"`
	Analyzed int `json:"analyzed"`
	Filtered int `json:"filtered"`
	Enhanced int `json:"enhanced"`
	Kept     int `json:"kept"`
	// SemgrepOnly counts kept findings that carry no verdict.
	SemgrepOnly int                      `json:"semgrep_only"`
	CacheHits   int                      `json:"cache_hits"`
	Errors      int                      `json:"errors"`
	Canceled    int                      `json:"canceled,omitempty"`
	BySeverity  map[finding.Severity]int `json:"by_severity"`
}

// Summarize counts verdicts over all findings and severities over the kept
// ones.
func Summarize(all, kept []*finding.Finding) Summary {
	s := Summary{
		Total:      len(all),
		Kept:       len(kept),
		BySeverity: make(map[finding.Severity]int),
	}
	for _, f := range all {
		if f.Verdict != nil {
			s.Analyzed++
		}
		if f.Filtered {
			s.Filtered++
		}
		if f.Source == finding.SourceAIEnhanced {
			s.Enhanced++
		}
	}
	for _, f := range kept {
		if f.Verdict == nil {
			s.SemgrepOnly++
		}
		s.BySeverity[f.Severity]++
	}
	return s
}

// Lines renders the summary for console output.
func (s Summary) Lines() []string {
	lines := []string{
		fmt.Sprintf("Findings: %d total, %d kept", s.Total, s.Kept),
		fmt.Sprintf("Analyzed: %d", s.Analyzed),
		fmt.Sprintf("Filtered (false positives): %d", s.Filtered),
		fmt.Sprintf("Remediation enhanced: %d", s.Enhanced),
		fmt.Sprintf("Scanner only: %d", s.SemgrepOnly),
	}
	if s.CacheHits > 0 {
		lines = append(lines, fmt.Sprintf("Cache hits: %d", s.CacheHits))
	}
	if s.Errors > 0 {
		lines = append(lines, fmt.Sprintf("Analysis errors: %d", s.Errors))
	}
	if s.Canceled > 0 {
		lines = append(lines, fmt.Sprintf("Canceled: %d", s.Canceled))
	}
	for _, sev := range finding.Severities() {
		if n := s.BySeverity[sev]; n > 0 {
			lines = append(lines, fmt.Sprintf("  %s: %d", sev, n))
		}
	}
	return lines
}
