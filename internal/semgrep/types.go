package semgrep

import (
	"encoding/json"
	"strings"
)

// Report is the top-level `semgrep --json` document.
type Report struct {
	Results []Result `json:"results"`
	Errors  []Error  `json:"errors,omitempty"`
	Version string   `json:"version,omitempty"`
}

// Result is a single semgrep match.
type Result struct {
	CheckID string `json:"check_id"`
	Path    string `json:"path"`
	Start   Region `json:"start"`
	End     Region `json:"end"`
	Extra   Extra  `json:"extra"`
}

// Region is a position in a file.
type Region struct {
	Line   int `json:"line"`
	Col    int `json:"col"`
	Offset int `json:"offset"`
}

// Extra holds match details. Metadata is kept untyped because rule authors
// put arbitrary keys there and selection reads several of them.
type Extra struct {
	Message       string         `json:"message"`
	Severity      string         `json:"severity"`
	Lines         string         `json:"lines"`
	Metadata      map[string]any `json:"metadata"`
	Fix           string         `json:"fix,omitempty"`
	IsIgnored     bool           `json:"is_ignored,omitempty"`
	DataflowTrace *DataflowTrace `json:"dataflow_trace,omitempty"`
}

// DataflowTrace is a taint trace. Sources and sinks appear either as a bare
// location object or as ["CliLoc", [location, content]] depending on the
// semgrep version, so they are decoded lazily.
type DataflowTrace struct {
	TaintSource      json.RawMessage `json:"taint_source,omitempty"`
	IntermediateVars []TraceNode     `json:"intermediate_vars,omitempty"`
	TaintSink        json.RawMessage `json:"taint_sink,omitempty"`
}

// TraceNode is one intermediate variable of a trace.
type TraceNode struct {
	Content  string   `json:"content"`
	Location Location `json:"location"`
}

// Location is a file span inside a trace.
type Location struct {
	Path  string `json:"path"`
	Start Region `json:"start"`
	End   Region `json:"end"`
}

// Error is a semgrep run error.
type Error struct {
	Code    int    `json:"code,omitempty"`
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	RuleID  string `json:"rule_id,omitempty"`
	Path    string `json:"path,omitempty"`
}

// traceLocation decodes either accepted taint endpoint shape.
func traceLocation(raw json.RawMessage) (Location, bool) {
	if len(raw) == 0 {
		return Location{}, false
	}
	var loc Location
	if err := json.Unmarshal(raw, &loc); err == nil && loc.Path != "" {
		return loc, true
	}
	var tagged []json.RawMessage
	if err := json.Unmarshal(raw, &tagged); err != nil || len(tagged) != 2 {
		return Location{}, false
	}
	var pair []json.RawMessage
	if err := json.Unmarshal(tagged[1], &pair); err != nil || len(pair) == 0 {
		return Location{}, false
	}
	if err := json.Unmarshal(pair[0], &loc); err != nil || loc.Path == "" {
		return Location{}, false
	}
	return loc, true
}

// stringish reads a metadata value that may be a string or a list of strings.
func stringish(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
