package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, NewReport(sampleResult(), "in.json", "1.0", false)); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"## Verdict Triage",
		"| **Kept** | **1** |",
		"<summary>:orange_circle: HIGH (1)</summary>",
		"**`app/run.py:14`** | security | CWE-78",
		"**AI verdict:** true positive, confidence 92%",
		"**Remediation** (ai-enhanced):",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_NoFindings(t *testing.T) {
	var buf bytes.Buffer
	r := NewReport(sampleResult(), "in.json", "1.0", false)
	r.Findings = nil
	if err := (&MarkdownWriter{}).Write(&buf, r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No issues found.") {
		t.Error("expected no-issues message")
	}
}

func TestLooksLikeCode(t *testing.T) {
	if !looksLikeCode("subprocess.run(['ls'])\nreturn out") {
		t.Error("expected code")
	}
	if looksLikeCode("Validate the input against an allowlist") {
		t.Error("prose should not look like code")
	}
}
