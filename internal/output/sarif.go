package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/verdict/internal/finding"
)

// SARIFWriter outputs kept findings in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *Report) error {
	data, err := json.MarshalIndent(buildSARIF(report), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Results     []sarifResult     `json:"results"`
	Invocations []sarifInvocation `json:"invocations"`
	Properties  map[string]any    `json:"properties,omitempty"`
}

type sarifInvocation struct {
	ExecutionSuccessful bool `json:"executionSuccessful"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	Help             *sarifMessage       `json:"help,omitempty"`
	DefaultConfig    sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties       sarifRuleProperties `json:"properties,omitempty"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Category string `json:"category,omitempty"`
	CWE      string `json:"cwe,omitempty"`
}

type sarifResult struct {
	RuleID     string          `json:"ruleId"`
	Level      string          `json:"level"`
	Message    sarifMessage    `json:"message"`
	Locations  []sarifLocation `json:"locations"`
	CodeFlows  []sarifCodeFlow `json:"codeFlows,omitempty"`
	Fixes      []sarifFix      `json:"fixes,omitempty"`
	Properties map[string]any  `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	Message          *sarifMessage         `json:"message,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int           `json:"startLine"`
	StartColumn int           `json:"startColumn,omitempty"`
	EndLine     int           `json:"endLine,omitempty"`
	EndColumn   int           `json:"endColumn,omitempty"`
	Snippet     *sarifMessage `json:"snippet,omitempty"`
}

type sarifCodeFlow struct {
	ThreadFlows []sarifThreadFlow `json:"threadFlows"`
}

type sarifThreadFlow struct {
	Locations []sarifThreadFlowLocation `json:"locations"`
}

type sarifThreadFlowLocation struct {
	Location sarifLocation `json:"location"`
}

type sarifFix struct {
	Description sarifMessage `json:"description"`
}

func buildSARIF(report *Report) sarifLog {
	var rules []sarifRule
	seen := make(map[string]bool)
	results := make([]sarifResult, 0, len(report.Findings))

	for _, f := range report.Findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			rule := sarifRule{
				ID:               f.RuleID,
				Name:             f.RuleID,
				ShortDescription: sarifMessage{Text: f.Message},
				DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(f.Severity)},
				Properties:       sarifRuleProperties{Category: f.Category, CWE: f.CWE},
			}
			if f.Remediation != "" && f.Source != finding.SourceAIEnhanced {
				rule.Help = &sarifMessage{Text: f.Remediation}
			}
			rules = append(rules, rule)
		}
		results = append(results, sarifResultFor(f))
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "verdict",
						Version:        report.Version,
						InformationURI: "https://github.com/dshills/verdict",
						Rules:          rules,
					},
				},
				Results:     results,
				Invocations: []sarifInvocation{{ExecutionSuccessful: !report.Canceled}},
				Properties:  map[string]any{"run_id": report.RunID},
			},
		},
	}
}

func sarifResultFor(f *finding.Finding) sarifResult {
	loc := f.Location
	region := sarifRegion{
		StartLine:   loc.StartLine,
		StartColumn: loc.StartColumn,
		EndLine:     loc.EndLine,
		EndColumn:   loc.EndColumn,
	}
	if loc.Snippet != "" {
		region.Snippet = &sarifMessage{Text: loc.Snippet}
	}
	res := sarifResult{
		RuleID:  f.RuleID,
		Level:   severityToLevel(f.Severity),
		Message: sarifMessage{Text: f.Message},
		Locations: []sarifLocation{{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: loc.FilePath},
				Region:           region,
			},
		}},
	}

	if len(f.Dataflow) > 0 {
		var flow sarifThreadFlow
		for _, step := range f.Dataflow {
			flow.Locations = append(flow.Locations, sarifThreadFlowLocation{Location: sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: step.FilePath},
					Region: sarifRegion{
						StartLine:   step.StartLine,
						StartColumn: step.StartColumn,
						EndLine:     step.EndLine,
						EndColumn:   step.EndColumn,
					},
				},
				Message: &sarifMessage{Text: step.Message},
			}})
		}
		res.CodeFlows = []sarifCodeFlow{{ThreadFlows: []sarifThreadFlow{flow}}}
	}

	if f.Source == finding.SourceAIEnhanced {
		res.Fixes = []sarifFix{{Description: sarifMessage{Text: f.Remediation}}}
	}
	if v := f.Verdict; v != nil {
		res.Properties = map[string]any{
			"ai_false_positive": v.IsFalsePositive,
			"ai_confidence":     v.Confidence,
			"ai_reasoning":      v.Reasoning,
		}
	}
	return res
}

// severityToLevel maps finding severity to SARIF level.
func severityToLevel(s finding.Severity) string {
	switch s {
	case finding.SeverityCritical, finding.SeverityHigh:
		return "error"
	case finding.SeverityMedium:
		return "warning"
	case finding.SeverityLow, finding.SeverityInfo:
		return "note"
	default:
		return "warning"
	}
}
