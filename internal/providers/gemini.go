package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Gemini implements the Analyzer interface for Google's Gemini API using the
// genai SDK. Responses are requested as application/json.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a new Gemini provider. An empty apiKey falls back to
// GEMINI_API_KEY and then GOOGLE_API_KEY.
func NewGemini(apiKey, model, baseURL string) (*Gemini, error) {
	return newGemini(apiKey, model, baseURL, &http.Client{Timeout: RequestTimeout})
}

func newGemini(apiKey, model, baseURL string, httpClient *http.Client) (*Gemini, error) {
	key := resolveKey(apiKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY (or GOOGLE_API_KEY) environment variable is not set")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Analyze(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](temperature),
		MaxOutputTokens:  maxTokens,
		ResponseMIMEType: "application/json",
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return Response{}, wrapGeminiError(err)
	}

	content := result.Text()
	if content == "" {
		return Response{}, ErrEmptyResponse
	}
	resp := Response{Content: content, Parsed: directParse(content)}
	if result.UsageMetadata != nil {
		resp.TokensUsed = int(result.UsageMetadata.TotalTokenCount)
	}
	return resp, nil
}

// wrapGeminiError attaches the package sentinel matching the SDK status code.
func wrapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("gemini: %w: %w", ErrRateLimited, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("gemini: %w: %w", ErrAuth, err)
		}
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "PERMISSION_DENIED"), strings.Contains(msg, "UNAUTHENTICATED"):
		return fmt.Errorf("gemini: %w: %w", ErrAuth, err)
	case strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return fmt.Errorf("gemini: %w: %w", ErrRateLimited, err)
	case isTimeout(err):
		return fmt.Errorf("gemini: %w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("gemini: %w", err)
}
