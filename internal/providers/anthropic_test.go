package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropic_Analyze(t *testing.T) {
	var got anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify headers
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("Missing API key header")
		}
		if r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Error("Missing anthropic-version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		resp := anthropicResponse{
			Content: []anthropicBlock{
				{Type: "text", Text: `{"is_false_positive": true, `},
				{Type: "text", Text: `"confidence": 0.9}`},
			},
			Usage: anthropicUsage{InputTokens: 100, OutputTokens: 10},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := &Anthropic{
		apiKey: "test-key",
		model:  "claude-3-opus-20240229",
		client: &http.Client{
			Transport: &rewriteTransport{
				base:    server.Client().Transport,
				baseURL: server.URL,
			},
		},
		baseURL: anthropicAPIURL,
	}

	resp, err := a.Analyze(context.Background(), Request{
		SystemPrompt: "be precise",
		Prompt:       "analyze this",
	})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if resp.Content != `{"is_false_positive": true, "confidence": 0.9}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Parsed["confidence"] != 0.9 {
		t.Errorf("Parsed = %v, want confidence 0.9", resp.Parsed)
	}
	if resp.TokensUsed != 110 {
		t.Errorf("TokensUsed = %d, want 110", resp.TokensUsed)
	}

	if got.System != "be precise" {
		t.Errorf("system = %q, want the system prompt", got.System)
	}
	if got.MaxTokens != maxTokens {
		t.Errorf("max_tokens = %d, want %d", got.MaxTokens, maxTokens)
	}
	if got.Temperature == nil || *got.Temperature != temperature {
		t.Errorf("temperature = %v, want %v", got.Temperature, temperature)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "analyze this" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestAnthropic_FreeTextNotParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicBlock{{Type: "text", Text: "```json\n{\"confidence\": 0.2}\n```"}},
		})
	}))
	defer server.Close()

	a := &Anthropic{apiKey: "k", model: "m", baseURL: server.URL, client: server.Client()}
	resp, err := a.Analyze(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if resp.Parsed != nil {
		t.Errorf("fenced content should be left for recovery, got Parsed = %v", resp.Parsed)
	}
}

func TestAnthropic_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer server.Close()

	a := &Anthropic{apiKey: "bad-key", model: "test", baseURL: server.URL, client: server.Client()}

	_, err := a.Analyze(context.Background(), Request{Prompt: "test"})
	if err == nil {
		t.Fatal("Expected auth error")
	}
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
	if Classify(err) != KindAuthError {
		t.Errorf("Classify = %q, want %q", Classify(err), KindAuthError)
	}
}

func TestAnthropic_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"tool_use"}]}`))
	}))
	defer server.Close()

	a := &Anthropic{apiKey: "k", model: "m", baseURL: server.URL, client: server.Client()}
	_, err := a.Analyze(context.Background(), Request{Prompt: "p"})
	if Classify(err) != KindMalformedError {
		t.Errorf("Classify(%v) = %q, want %q", err, Classify(err), KindMalformedError)
	}
}

func TestNewAnthropic_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewAnthropic("", "m", ""); err == nil {
		t.Error("expected missing key error")
	}
	a, err := NewAnthropic("explicit", "m", "")
	if err != nil {
		t.Fatalf("explicit key: %v", err)
	}
	if a.apiKey != "explicit" || a.baseURL != anthropicAPIURL {
		t.Errorf("got key %q url %q", a.apiKey, a.baseURL)
	}
}

// rewriteTransport rewrites all request URLs to point at the test server.
type rewriteTransport struct {
	base    http.RoundTripper
	baseURL string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = "http"
	req.URL.Host = t.baseURL[len("http://"):]
	if t.base != nil {
		return t.base.RoundTrip(req)
	}
	return http.DefaultTransport.RoundTrip(req)
}
