package finding

import (
	"testing"
)

func TestRank(t *testing.T) {
	tests := []struct {
		sev  Severity
		want int
	}{
		{SeverityCritical, 0},
		{SeverityHigh, 1},
		{SeverityMedium, 2},
		{SeverityLow, 3},
		{SeverityInfo, 4},
		{Severity("bogus"), 99},
		{Severity(""), 99},
	}
	for _, tt := range tests {
		if got := Rank(tt.sev); got != tt.want {
			t.Errorf("Rank(%q) = %d, want %d", tt.sev, got, tt.want)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in     string
		want   Severity
		wantOK bool
	}{
		{"critical", SeverityCritical, true},
		{"  HIGH ", SeverityHigh, true},
		{"Medium", SeverityMedium, true},
		{"low", SeverityLow, true},
		{"info", SeverityInfo, true},
		{"none", "", false},
		{"", "", false},
		{"ERROR", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSeverity(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseSeverity(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]Severity{
		"ERROR":     SeverityCritical,
		"WARNING":   SeverityHigh,
		"INFO":      SeverityMedium,
		"INVENTORY": SeverityLow,
		"error":     SeverityCritical,
		" High ":    SeverityHigh,
		"info":      SeverityInfo,
		"critical":  SeverityCritical,
		"note":      SeverityLow,
		"whatever":  SeverityMedium,
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFinding_MetadataAccessors(t *testing.T) {
	f := &Finding{}
	if f.Confidence() != "medium" {
		t.Errorf("default Confidence() = %q, want medium", f.Confidence())
	}
	if f.AIRecommended() {
		t.Error("AIRecommended() should default to false")
	}
	if f.Description() != "No description available" {
		t.Errorf("default Description() = %q", f.Description())
	}

	f.Metadata = map[string]any{
		MetaConfidence:    "HIGH",
		MetaAIRecommended: "true",
		MetaDescription:   "Detects eval of model output",
	}
	if f.Confidence() != "high" {
		t.Errorf("Confidence() = %q, want high", f.Confidence())
	}
	if !f.AIRecommended() {
		t.Error("string \"true\" should count as recommended")
	}
	if f.Description() != "Detects eval of model output" {
		t.Errorf("Description() = %q", f.Description())
	}
}

func TestFinding_RemediationSourceOrDefault(t *testing.T) {
	f := &Finding{}
	if got := f.RemediationSourceOrDefault(); got != SourceScanner {
		t.Errorf("got %q, want %q", got, SourceScanner)
	}
	f.Source = SourceAIEnhanced
	if got := f.RemediationSourceOrDefault(); got != SourceAIEnhanced {
		t.Errorf("got %q, want %q", got, SourceAIEnhanced)
	}
}
