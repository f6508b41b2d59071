package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/verdict/internal/finding"
)

func TestSummarize(t *testing.T) {
	filtered := &finding.Finding{Severity: finding.SeverityHigh, Verdict: &finding.Verdict{IsFalsePositive: true, Confidence: 0.9}, Filtered: true}
	enhanced := &finding.Finding{Severity: finding.SeverityCritical, Verdict: &finding.Verdict{}, Source: finding.SourceAIEnhanced}
	plain := &finding.Finding{Severity: finding.SeverityLow}
	all := []*finding.Finding{filtered, enhanced, plain}

	s := Summarize(all, []*finding.Finding{enhanced, plain})
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Kept)
	assert.Equal(t, 2, s.Analyzed)
	assert.Equal(t, 1, s.Filtered)
	assert.Equal(t, 1, s.Enhanced)
	assert.Equal(t, 1, s.SemgrepOnly)
	assert.Equal(t, map[finding.Severity]int{finding.SeverityCritical: 1, finding.SeverityLow: 1}, s.BySeverity)
}

func TestSummary_Lines(t *testing.T) {
	s := Summary{Total: 4, Kept: 3, Analyzed: 2, Filtered: 1, Errors: 1, BySeverity: map[finding.Severity]int{finding.SeverityHigh: 3}}
	lines := s.Lines()
	assert.Equal(t, "Findings: 4 total, 3 kept", lines[0])
	assert.Contains(t, lines, "Analysis errors: 1")
	assert.Contains(t, lines, "  high: 3")
	assert.NotContains(t, lines, "Cache hits: 0")
}
