package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/verdict/internal/finding"
	"github.com/dshills/verdict/internal/triage"
)

// Report is the serialized result of one triage run.
type Report struct {
	Tool      string         `json:"tool"`
	Version   string         `json:"version"`
	RunID     string         `json:"run_id"`
	CreatedAt time.Time      `json:"created_at"`
	Input     string         `json:"input"`
	Provider  string         `json:"provider,omitempty"`
	AIEnabled bool           `json:"ai_enabled"`
	Canceled  bool           `json:"canceled,omitempty"`
	Summary   triage.Summary `json:"summary"`
	// Findings are the kept findings in scanner order.
	Findings []*finding.Finding `json:"findings"`
	// Filtered holds findings removed as false positives, when requested.
	Filtered []*finding.Finding `json:"filtered,omitempty"`
	// ScannerErrors are the errors semgrep embedded in its report.
	ScannerErrors []string `json:"scanner_errors,omitempty"`
	Timing        Timing   `json:"timing"`
}

// Timing records run durations in milliseconds.
type Timing struct {
	TotalMs int64 `json:"total_ms"`
	LLMMs   int64 `json:"llm_ms"`
}

// NewReport builds a report from an engine result. When includeFiltered is
// set, filtered findings are listed separately.
func NewReport(res *triage.Result, input, version string, includeFiltered bool) *Report {
	r := &Report{
		Tool:      "verdict",
		Version:   version,
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Input:     input,
		Provider:  res.Provider,
		AIEnabled: !res.AIDisabled,
		Canceled:  res.Canceled,
		Summary:   res.Summary(),
		Findings:  res.Findings,
		Timing:    Timing{TotalMs: res.Duration.Milliseconds()},
	}
	if r.Findings == nil {
		r.Findings = []*finding.Finding{}
	}
	var llm time.Duration
	for _, o := range res.Outcomes {
		if !o.Cached {
			llm += o.Duration
		}
		if includeFiltered && o.Filtered {
			r.Filtered = append(r.Filtered, o.Finding)
		}
	}
	r.Timing.LLMMs = llm.Milliseconds()
	return r
}

// CountAtOrAbove returns the number of kept findings at or above sev.
func (r *Report) CountAtOrAbove(sev finding.Severity) int {
	limit := finding.Rank(sev)
	n := 0
	for _, f := range r.Findings {
		if finding.Rank(f.Severity) <= limit {
			n++
		}
	}
	return n
}
