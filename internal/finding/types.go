package finding

import (
	"strings"
)

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// unknownRank sorts unrecognised severities after every known one.
const unknownRank = 99

// Severities returns the known severities in priority order (most severe first).
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
}

// Rank returns the analysis priority of a severity (lower = analyzed first).
func Rank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	default:
		return unknownRank
	}
}

// ParseSeverity accepts only the five canonical severity tokens, compared
// case-insensitively after trimming whitespace.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if Rank(sev) == unknownRank {
		return "", false
	}
	return sev, true
}

// scannerLevels maps semgrep rule levels onto finding severities.
var scannerLevels = map[string]Severity{
	"ERROR":     SeverityCritical,
	"WARNING":   SeverityHigh,
	"WARN":      SeverityHigh,
	"INFO":      SeverityMedium,
	"INVENTORY": SeverityLow,
	"NOTE":      SeverityLow,
}

// Normalize maps a scanner severity onto a Severity. Scanner levels are
// upper case, so "INFO" is medium while the canonical "info" stays info.
// Anything unrecognised becomes medium.
func Normalize(s string) Severity {
	s = strings.TrimSpace(s)
	if sev, ok := scannerLevels[s]; ok {
		return sev
	}
	if sev, ok := ParseSeverity(s); ok {
		return sev
	}
	if sev, ok := scannerLevels[strings.ToUpper(s)]; ok {
		return sev
	}
	return SeverityMedium
}

// RemediationSource records where a finding's remediation text came from.
type RemediationSource string

const (
	SourceScanner    RemediationSource = "semgrep"
	SourceAIEnhanced RemediationSource = "ai-enhanced"
)

// Location represents where a finding was detected.
type Location struct {
	FilePath    string `json:"file_path"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
	Snippet     string `json:"snippet,omitempty"`
}

// DataflowStep is one hop of a taint trace.
type DataflowStep struct {
	FilePath    string `json:"file_path"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
	Message     string `json:"message"`
}

// Finding is a single static-analysis match. The Verdict, Filtered and
// Source fields are written by the triage engine; everything else comes from
// the scanner.
type Finding struct {
	RuleID      string            `json:"rule_id"`
	Message     string            `json:"message"`
	Severity    Severity          `json:"severity"`
	Category    string            `json:"category"`
	Location    Location          `json:"location"`
	CWE         string            `json:"cwe,omitempty"`
	Remediation string            `json:"remediation,omitempty"`
	Dataflow    []DataflowStep    `json:"dataflow_path,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
	Verdict     *Verdict          `json:"ai_analysis,omitempty"`
	Filtered    bool              `json:"ai_filtered,omitempty"`
	Source      RemediationSource `json:"source"`
}

// Metadata keys consulted by candidate selection.
const (
	MetaConfidence    = "confidence"
	MetaAIRecommended = "ai_analysis_recommended"
	MetaDescription   = "description"
)

// Confidence returns the rule's declared confidence tier, lower-cased.
// Rules that do not declare one are treated as medium.
func (f *Finding) Confidence() string {
	if v, ok := f.Metadata[MetaConfidence].(string); ok && strings.TrimSpace(v) != "" {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return "medium"
}

// AIRecommended reports whether the rule asks for model analysis.
func (f *Finding) AIRecommended() bool {
	switch v := f.Metadata[MetaAIRecommended].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

// Description returns the rule description from metadata.
func (f *Finding) Description() string {
	if v, ok := f.Metadata[MetaDescription].(string); ok && v != "" {
		return v
	}
	return "No description available"
}

// RemediationSourceOrDefault returns the provenance tag, defaulting to the scanner.
func (f *Finding) RemediationSourceOrDefault() RemediationSource {
	if f.Source == "" {
		return SourceScanner
	}
	return f.Source
}
