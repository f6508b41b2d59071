package recovery

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_Direct(t *testing.T) {
	in := map[string]any{
		"is_false_positive":    true,
		"confidence":           0.9,
		"reasoning":            "sanitized upstream",
		"enhanced_remediation": "use parameterized queries",
		"additional_context":   map[string]any{"framework": "django"},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Parse(string(data))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_InvalidEscapePreserved(t *testing.T) {
	got, err := Parse(`{"path": "C:\New", "confidence": 0.4}`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got["path"] != `C:\New` {
		t.Errorf("path = %q, want %q", got["path"], `C:\New`)
	}
}

func TestRepairEscapes_KeepsValidEscapes(t *testing.T) {
	in := `{"a": "line\nnext \"quoted\" \u00e9 \\ \/ \d+ \tTab"}`
	got, err := RepairEscapes(in)
	if err != nil {
		t.Fatalf("RepairEscapes error: %v", err)
	}
	want := "line\nnext \"quoted\" \u00e9 \\ / \\d+ \tTab"
	if got["a"] != want {
		t.Errorf("a = %q, want %q", got["a"], want)
	}
}

func TestRepairEscapes_ShortUnicodeIsInvalid(t *testing.T) {
	got, err := RepairEscapes(`{"re": "\u12"}`)
	if err != nil {
		t.Fatalf("RepairEscapes error: %v", err)
	}
	if got["re"] != `\u12` {
		t.Errorf("re = %q, want %q", got["re"], `\u12`)
	}
}

func TestRepairEscapes_NothingToRepair(t *testing.T) {
	if _, err := RepairEscapes(`{"a": 1`); err == nil {
		t.Error("expected error when there is nothing to repair")
	}
}

func TestParse_Fence(t *testing.T) {
	in := "Here is my analysis:\n```json\n{\"is_false_positive\": false, \"confidence\": 0.8}\n```\nLet me know."
	got, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got["confidence"] != 0.8 {
		t.Errorf("confidence = %v, want 0.8", got["confidence"])
	}
}

func TestParse_FenceWithInvalidEscape(t *testing.T) {
	in := "```json\n{\"file\": \"C:\\Users\\app\\db.py\"}\n```"
	got, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got["file"] != `C:\Users\app\db.py` {
		t.Errorf("file = %q", got["file"])
	}
}

func TestFromFence_BareFence(t *testing.T) {
	got, err := FromFence("```\n{\"confidence\": 1}\n```")
	if err != nil {
		t.Fatalf("FromFence error: %v", err)
	}
	if got["confidence"] != 1.0 {
		t.Errorf("confidence = %v", got["confidence"])
	}
}

func TestFromFence_Unterminated(t *testing.T) {
	got, err := FromFence("```json\n{\"confidence\": 0.3}")
	if err != nil {
		t.Fatalf("FromFence error: %v", err)
	}
	if got["confidence"] != 0.3 {
		t.Errorf("confidence = %v", got["confidence"])
	}
}

func TestParse_Braces(t *testing.T) {
	in := `Sure! {"is_false_positive": true, "reasoning": "uses a {placeholder}"} Hope this helps.`
	got, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got["reasoning"] != "uses a {placeholder}" {
		t.Errorf("reasoning = %q", got["reasoning"])
	}
}

func TestParse_ArrayIsNotAVerdict(t *testing.T) {
	if _, err := Parse(`[{"confidence": 1}]`); err == nil {
		t.Error("a bare array should not be accepted")
	}
}

func TestParse_Failure(t *testing.T) {
	raw := "I think this is a false positive, but I'm not sure."
	_, err := Parse(raw)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrUnparseable) {
		t.Errorf("error should match ErrUnparseable: %v", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error should be a *DecodeError: %T", err)
	}
	if de.Raw != raw {
		t.Errorf("Raw = %q, want original text", de.Raw)
	}
	if len(de.Errs) != len(Strategies()) {
		t.Errorf("got %d strategy errors, want %d", len(de.Errs), len(Strategies()))
	}
	if !strings.Contains(err.Error(), "brace-boundary") {
		t.Errorf("error should name the failed strategies: %v", err)
	}
}

func TestStrategies_Order(t *testing.T) {
	var names []string
	for _, s := range Strategies() {
		names = append(names, s.Name)
	}
	want := []string{"direct", "repair-escapes", "markdown-fence", "brace-boundary"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("strategy order (-want +got):\n%s", diff)
	}
}
