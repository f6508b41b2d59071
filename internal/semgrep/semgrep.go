// Package semgrep converts `semgrep --json` output into findings.
package semgrep

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dshills/verdict/internal/finding"
)

// Metadata keys added to every converted finding.
const (
	MetaRuleID   = "semgrep_rule_id"
	MetaSeverity = "semgrep_severity"
)

// Decode reads a semgrep JSON report.
func Decode(r io.Reader) (*Report, error) {
	var report Report
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("parsing semgrep JSON: %w", err)
	}
	return &report, nil
}

// Load reads a report from path ("-" for stdin) and converts it.
func Load(path string) ([]*finding.Finding, *Report, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening semgrep report: %w", err)
		}
		defer f.Close()
		r = f
	}
	report, err := Decode(r)
	if err != nil {
		return nil, nil, err
	}
	return report.Findings(), report, nil
}

// Findings converts every non-ignored result, preserving report order.
func (r *Report) Findings() []*finding.Finding {
	out := make([]*finding.Finding, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Extra.IsIgnored {
			continue
		}
		out = append(out, Convert(res))
	}
	return out
}

// Convert maps one result onto a Finding. Rule metadata is carried over
// unchanged so selection can read confidence and recommendation flags.
func Convert(res Result) *finding.Finding {
	ruleID := res.CheckID
	if ruleID == "" {
		ruleID = "unknown"
	}
	message := strings.TrimSpace(res.Extra.Message)
	if message == "" {
		message = ruleID
	}
	level := strings.ToUpper(strings.TrimSpace(res.Extra.Severity))
	if level == "" {
		level = "WARNING"
	}

	meta := make(map[string]any, len(res.Extra.Metadata)+2)
	for k, v := range res.Extra.Metadata {
		meta[k] = v
	}
	meta[MetaRuleID] = ruleID
	meta[MetaSeverity] = level

	loc := finding.Location{
		FilePath:    res.Path,
		StartLine:   max(res.Start.Line, 1),
		StartColumn: max(res.Start.Col, 1),
		EndLine:     res.End.Line,
		EndColumn:   res.End.Col,
		Snippet:     snippet(res.Extra.Lines),
	}
	if loc.FilePath == "" {
		loc.FilePath = "unknown"
	}
	if loc.EndLine == 0 {
		loc.EndLine = loc.StartLine
	}
	if loc.EndColumn == 0 {
		loc.EndColumn = loc.StartColumn
	}

	category := strings.ToLower(stringish(res.Extra.Metadata["category"]))
	if category == "" {
		category = "other"
	}

	return &finding.Finding{
		RuleID:      ruleID,
		Message:     message,
		Severity:    severity(level, res.Extra.Metadata),
		Category:    category,
		Location:    loc,
		CWE:         stringish(res.Extra.Metadata["cwe"]),
		Remediation: stringish(res.Extra.Metadata["remediation"]),
		Dataflow:    dataflow(res),
		Metadata:    meta,
		Source:      finding.SourceScanner,
	}
}

// severity prefers an explicit canonical severity in rule metadata.
func severity(level string, meta map[string]any) finding.Severity {
	if s, ok := meta["severity"].(string); ok {
		if sev, ok := finding.ParseSeverity(s); ok {
			return sev
		}
	}
	return finding.Normalize(level)
}

// snippet drops the placeholder semgrep emits when the matched lines are
// not available to the CLI.
func snippet(lines string) string {
	if strings.TrimSpace(lines) == "requires login" {
		return ""
	}
	return lines
}

func dataflow(res Result) []finding.DataflowStep {
	trace := res.Extra.DataflowTrace
	if trace == nil {
		return nil
	}
	var steps []finding.DataflowStep
	add := func(loc Location, msg string) {
		steps = append(steps, finding.DataflowStep{
			FilePath:    loc.Path,
			StartLine:   loc.Start.Line,
			StartColumn: loc.Start.Col,
			EndLine:     loc.End.Line,
			EndColumn:   loc.End.Col,
			Message:     msg,
		})
	}
	if loc, ok := traceLocation(trace.TaintSource); ok {
		add(loc, "taint source")
	}
	for _, n := range trace.IntermediateVars {
		if n.Location.Path == "" {
			continue
		}
		add(n.Location, "intermediate: "+n.Content)
	}
	if loc, ok := traceLocation(trace.TaintSink); ok {
		add(loc, "taint sink")
	}
	return steps
}
