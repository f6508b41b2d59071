package finding

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DefaultVerdictConfidence is used when a model omits or mangles its confidence.
const DefaultVerdictConfidence = 0.5

const defaultReasoning = "No reasoning provided"

// Verdict is the model's judgment about one finding. It is shared by pointer
// between the cache and the finding it was applied to and must not be
// modified after construction.
type Verdict struct {
	IsFalsePositive     bool           `json:"is_false_positive"`
	Confidence          float64        `json:"confidence"`
	Reasoning           string         `json:"reasoning"`
	SuggestedSeverity   *Severity      `json:"suggested_severity"`
	EnhancedRemediation string         `json:"enhanced_remediation,omitempty"`
	AdditionalContext   map[string]any `json:"additional_context"`
}

// VerdictFromMap builds a Verdict from a decoded model response, normalising
// malformed fields instead of failing.
func VerdictFromMap(m map[string]any) *Verdict {
	v := &Verdict{
		IsFalsePositive:   toBool(m["is_false_positive"]),
		Confidence:        toConfidence(m["confidence"]),
		Reasoning:         defaultReasoning,
		AdditionalContext: map[string]any{},
	}
	if s, ok := m["reasoning"].(string); ok && s != "" {
		v.Reasoning = s
	}
	if raw, ok := m["suggested_severity"]; ok && raw != nil {
		if sev, ok := ParseSeverity(toString(raw)); ok {
			v.SuggestedSeverity = &sev
		}
	}
	if s, ok := m["enhanced_remediation"].(string); ok && strings.TrimSpace(s) != "" {
		v.EnhancedRemediation = s
	}
	if ctx, ok := m["additional_context"].(map[string]any); ok {
		v.AdditionalContext = ctx
	}
	return v
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	default:
		return false
	}
}

func toConfidence(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return DefaultVerdictConfidence
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return DefaultVerdictConfidence
		}
		f = parsed
	default:
		return DefaultVerdictConfidence
	}
	if math.IsNaN(f) {
		return DefaultVerdictConfidence
	}
	return min(max(f, 0), 1)
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
