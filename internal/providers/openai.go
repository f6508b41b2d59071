package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// jsonModeModels accept response_format {"type":"json_object"}.
var jsonModeModels = map[string]bool{
	"gpt-4-turbo-preview":    true,
	"gpt-4-turbo":            true,
	"gpt-4-1106-preview":     true,
	"gpt-4-0125-preview":     true,
	"gpt-4o":                 true,
	"gpt-4o-mini":            true,
	"gpt-4o-2024-08-06":      true,
	"gpt-4o-mini-2024-07-18": true,
	"gpt-3.5-turbo-1106":     true,
	"gpt-3.5-turbo-0125":     true,
}

// SupportsJSONMode reports whether an OpenAI model is expected to accept the
// structured JSON output parameter. Unknown gpt- models are assumed to
// support it when they look like a turbo or omni variant.
func SupportsJSONMode(model string) bool {
	if jsonModeModels[model] {
		return true
	}
	return strings.HasPrefix(model, "gpt-") && (strings.Contains(model, "turbo") || strings.Contains(model, "o"))
}

// OpenAI implements the Analyzer interface for OpenAI's chat completions API.
type OpenAI struct {
	apiKey   string
	model    string
	baseURL  string
	client   *http.Client
	jsonMode bool
}

// NewOpenAI creates a new OpenAI provider. An empty apiKey falls back to
// OPENAI_API_KEY.
func NewOpenAI(apiKey, model, baseURL string) (*OpenAI, error) {
	key := resolveKey(apiKey, "OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}
	return &OpenAI{
		apiKey:   key,
		model:    model,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: RequestTimeout},
		jsonMode: SupportsJSONMode(model),
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

// Analyze sends one chat completion. If the API rejects response_format the
// call is repeated once without it.
func (o *OpenAI) Analyze(ctx context.Context, req Request) (Response, error) {
	resp, err := o.complete(ctx, req, o.jsonMode)
	if err != nil && o.jsonMode && strings.Contains(strings.ToLower(err.Error()), "response_format") {
		return o.complete(ctx, req, false)
	}
	return resp, err
}

func (o *OpenAI) complete(ctx context.Context, req Request, jsonMode bool) (Response, error) {
	prompt := req.Prompt
	if !jsonMode {
		prompt += JSONOnlyInstruction
	}

	var messages []openaiMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: prompt})

	temp := temperature
	body := openaiRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: &temp,
	}
	if jsonMode {
		body.ResponseFormat = &openaiResponseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	respBody, err := postJSON(ctx, o.client, "openai", o.baseURL, map[string]string{
		"Authorization": "Bearer " + o.apiKey,
	}, payload)
	if err != nil {
		return Response{}, err
	}
	return decodeChatCompletion(respBody)
}

// decodeChatCompletion is shared with OpenAI-compatible local servers.
func decodeChatCompletion(respBody []byte) (Response, error) {
	var result openaiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Response{}, fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Choices) == 0 {
		return Response{}, fmt.Errorf("no choices in response")
	}
	content := result.Choices[0].Message.Content
	if content == "" {
		return Response{}, ErrEmptyResponse
	}
	return Response{
		Content:    content,
		Parsed:     directParse(content),
		TokensUsed: result.Usage.TotalTokens,
	}, nil
}

type openaiRequest struct {
	Model          string                `json:"model"`
	Messages       []openaiMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens"`
	Temperature    *float64              `json:"temperature,omitempty"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	TotalTokens int `json:"total_tokens"`
}
