package providers

import (
	"context"
	"errors"
	"testing"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "unknown"})
	if err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestNew_GoogleAlias(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	_, err := New(Config{Provider: "google"})
	if err == nil {
		t.Fatal("expected missing key error")
	}
	// Error should be about missing key, not unknown provider
	if err.Error() == "unknown provider: google" {
		t.Error("'google' should be a valid provider alias for gemini")
	}
}

func TestNew_DefaultModels(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("ANTHROPIC_API_KEY", "k")

	a, err := New(Config{Provider: "openai"})
	if err != nil {
		t.Fatal(err)
	}
	if o := a.(*OpenAI); o.model != "gpt-4" || o.jsonMode {
		t.Errorf("openai model = %q jsonMode = %v", o.model, o.jsonMode)
	}

	a, err = New(Config{Provider: "Claude", Model: "claude-3-haiku-20240307"})
	if err != nil {
		t.Fatal(err)
	}
	if c := a.(*Anthropic); c.model != "claude-3-haiku-20240307" {
		t.Errorf("anthropic model = %q", c.model)
	}
}

func TestNew_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New(Config{Provider: "openai"}); err == nil {
		t.Error("expected missing key error")
	}
	if _, err := New(Config{Provider: "openai", APIKey: "explicit"}); err != nil {
		t.Errorf("explicit key should satisfy the constructor: %v", err)
	}
}

func TestNew_RateLimitedWrapper(t *testing.T) {
	a, err := New(Config{Provider: "ollama", BaseURL: "http://127.0.0.1:1", RequestsPerSecond: 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.(*limited); !ok {
		t.Fatalf("got %T, want rate-limited analyzer", a)
	}
	if a.Name() != "ollama" {
		t.Errorf("Name() = %q", a.Name())
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"openai":    KindOpenAI,
		" OpenAI ":  KindOpenAI,
		"anthropic": KindAnthropic,
		"google":    KindGemini,
		"lmstudio":  KindOllama,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestDirectParse(t *testing.T) {
	if m := directParse(" {\"a\": 1} \n"); m["a"] != 1.0 {
		t.Errorf("directParse = %v", m)
	}
	if m := directParse("[1]"); m != nil {
		t.Errorf("arrays should not parse, got %v", m)
	}
}

type stubAnalyzer struct{ calls int }

func (s *stubAnalyzer) Name() string { return "stub" }

func (s *stubAnalyzer) Analyze(ctx context.Context, req Request) (Response, error) {
	s.calls++
	return Response{Content: "{}"}, nil
}

func TestLimited_CanceledWait(t *testing.T) {
	stub := &stubAnalyzer{}
	a := Limited(stub, 0.001)

	if _, err := a.Analyze(context.Background(), Request{}); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Analyze(ctx, Request{})
	if err == nil {
		t.Fatal("expected error from canceled wait")
	}
	if stub.calls != 1 {
		t.Errorf("calls = %d, want 1", stub.calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled: %v", err)
	}
}
