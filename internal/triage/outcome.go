package triage

import (
	"time"

	"github.com/dshills/verdict/internal/finding"
	"github.com/dshills/verdict/internal/providers"
	"github.com/dshills/verdict/internal/selector"
)

// Status is the per-finding result of a run.
type Status string

const (
	StatusApplied         Status = "applied"
	StatusSkippedError    Status = "skipped-error"
	StatusSkippedParse    Status = "skipped-parse"
	StatusNotSelected     Status = "skipped-not-selected"
	StatusSkippedCanceled Status = "skipped-canceled"
)

// Outcome records what happened to one input finding.
type Outcome struct {
	Finding *finding.Finding
	Status  Status
	// Err is set for skipped-error, skipped-parse and skipped-canceled.
	Err     error
	ErrKind providers.ErrorKind
	Cached  bool
	// Filtered is true when the applied verdict removed the finding.
	Filtered bool
	Duration time.Duration
}

// Result is the output of Engine.Run.
type Result struct {
	// Findings are the kept findings in input order.
	Findings []*finding.Finding
	// All is the input list; filtered findings remain reachable here.
	All []*finding.Finding
	// Outcomes has one entry per input finding, in input order.
	Outcomes  []Outcome
	Selection selector.Report
	Provider  string
	// AIDisabled is set when no analysis was attempted.
	AIDisabled bool
	Canceled   bool
	CacheStats CacheStats
	Duration   time.Duration
}

// CacheStats mirrors cache activity for reporting.
type CacheStats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// Partition groups outcomes by status.
func (r *Result) Partition() map[Status][]Outcome {
	out := make(map[Status][]Outcome)
	for _, o := range r.Outcomes {
		out[o.Status] = append(out[o.Status], o)
	}
	return out
}

// Summary aggregates the run for reporting.
func (r *Result) Summary() Summary {
	s := Summarize(r.All, r.Findings)
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusApplied:
			if o.Cached {
				s.CacheHits++
			}
		case StatusSkippedError, StatusSkippedParse:
			s.Errors++
		case StatusSkippedCanceled:
			s.Canceled++
		}
	}
	return s
}
