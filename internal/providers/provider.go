package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// RequestTimeout bounds every hosted-provider call. It is fixed per
	// provider instance and not tunable per request.
	RequestTimeout = 60 * time.Second
	// localRequestTimeout bounds calls to locally hosted models.
	localRequestTimeout = 300 * time.Second

	maxTokens   = 2000
	temperature = 0.1
)

// JSONOnlyInstruction is appended to prompts sent to models that cannot be
// put into a structured JSON output mode.
const JSONOnlyInstruction = "\n\nIMPORTANT: Respond ONLY with valid JSON. Do not include any markdown formatting or explanatory text."

// Request contains the prompts sent to a model for one finding.
type Request struct {
	Prompt       string
	SystemPrompt string
}

// Response contains the raw model output. Parsed is set when the content
// decoded directly into a JSON object; otherwise callers run recovery.
type Response struct {
	Content    string
	Parsed     map[string]any
	TokensUsed int
}

// Analyzer is the provider abstraction. Each Analyze issues one model call.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Kind identifies a supported provider.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGemini    Kind = "gemini"
	KindOllama    Kind = "ollama"
)

// ParseKind resolves a provider name, including aliases.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return KindOpenAI, nil
	case "anthropic", "claude":
		return KindAnthropic, nil
	case "gemini", "google":
		return KindGemini, nil
	case "ollama", "lmstudio":
		return KindOllama, nil
	default:
		return "", fmt.Errorf("unknown provider: %s", name)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(k Kind) string {
	switch k {
	case KindOpenAI:
		return "gpt-4"
	case KindAnthropic:
		return "claude-3-opus-20240229"
	case KindGemini:
		return "gemini-2.0-flash"
	case KindOllama:
		return "llama3"
	default:
		return ""
	}
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	// APIKey overrides the provider's environment variable.
	APIKey string
	Model  string
	// BaseURL overrides the provider endpoint (proxies, LM Studio, tests).
	BaseURL string
	// RequestsPerSecond paces calls when positive.
	RequestsPerSecond float64
}

// New creates a provider from cfg.
func New(cfg Config) (Analyzer, error) {
	kind, err := ParseKind(cfg.Provider)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel(kind)
	}

	var a Analyzer
	switch kind {
	case KindOpenAI:
		a, err = NewOpenAI(cfg.APIKey, model, cfg.BaseURL)
	case KindAnthropic:
		a, err = NewAnthropic(cfg.APIKey, model, cfg.BaseURL)
	case KindGemini:
		a, err = NewGemini(cfg.APIKey, model, cfg.BaseURL)
	case KindOllama:
		a, err = NewOllama(cfg.APIKey, model, cfg.BaseURL)
	}
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond > 0 {
		a = Limited(a, cfg.RequestsPerSecond)
	}
	return a, nil
}

// resolveKey returns the explicit key or the first non-empty env var.
func resolveKey(explicit string, envVars ...string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range envVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// directParse is the provider-side fast path; full recovery is left to the caller.
func directParse(content string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &m); err != nil {
		return nil
	}
	return m
}
