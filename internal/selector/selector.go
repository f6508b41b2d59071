// Package selector decides which findings are worth a remote model call.
//
// Selection is pure: it never mutates findings and returns a new slice that
// shares the input pointers. The result is ordered by severity so that, under
// a MaxFindings budget, critical and high findings are always analyzed before
// low and info ones.
package selector

import (
	"sort"

	"github.com/dshills/verdict/internal/finding"
)

// Options controls candidate selection.
type Options struct {
	// Rules is an explicit rule-id allowlist. When non-empty, only listed
	// rules (and rules whose metadata recommends analysis) are selected.
	Rules []string
	// MaxFindings caps the number selected; zero means no cap.
	MaxFindings int
}

// Report describes how a selection was made.
type Report struct {
	Considered            int
	Selected              int
	SkippedHighConfidence int
	SkippedNotAllowed     int
	// Eligible is the count before MaxFindings truncation.
	Eligible  int
	Truncated bool
}

// Select returns the findings to analyze, highest priority first.
func Select(findings []*finding.Finding, opts Options) []*finding.Finding {
	selected, _ := SelectWithReport(findings, opts)
	return selected
}

// SelectWithReport is Select plus a description of what was skipped.
func SelectWithReport(findings []*finding.Finding, opts Options) ([]*finding.Finding, Report) {
	rep := Report{Considered: len(findings)}
	allowed := make(map[string]bool, len(opts.Rules))
	for _, r := range opts.Rules {
		allowed[r] = true
	}

	var selected []*finding.Finding
	for _, f := range findings {
		if f == nil {
			continue
		}
		if len(allowed) > 0 {
			if !allowed[f.RuleID] && !f.AIRecommended() {
				rep.SkippedNotAllowed++
				continue
			}
			selected = append(selected, f)
			continue
		}
		if f.AIRecommended() {
			selected = append(selected, f)
			continue
		}
		switch f.Confidence() {
		case "medium", "low":
			selected = append(selected, f)
		default:
			rep.SkippedHighConfidence++
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return finding.Rank(selected[i].Severity) < finding.Rank(selected[j].Severity)
	})

	rep.Eligible = len(selected)
	if opts.MaxFindings > 0 && len(selected) > opts.MaxFindings {
		selected = selected[:opts.MaxFindings]
		rep.Truncated = true
	}
	rep.Selected = len(selected)
	return selected, rep
}
