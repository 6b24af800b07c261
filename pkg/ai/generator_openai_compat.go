package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Groq defaults for the story provider.
const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama3-8b-8192"
)

// OpenAIGenerator calls any OpenAI-compatible /chat/completions endpoint.
// The default target is Groq; vLLM, LiteLLM or OpenRouter work the same way.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	service string
}

// NewOpenAIGenerator builds an OpenAI-compatible TextGenerator.
// baseURL should include the /v1 prefix, e.g. "http://localhost:8000/v1".
// apiKey can be empty for local models that do not require authentication.
func NewOpenAIGenerator(baseURL, apiKey, model string) *OpenAIGenerator {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultGroqModel
	}
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	service := "openai-compat"
	if strings.Contains(baseURL, "groq.com") {
		service = "groq"
	}
	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		service: service,
	}
}

// GenerateText implements TextGenerator using the chat completions API.
func (g *OpenAIGenerator) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", g.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", g.service)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from %s", g.service)
	}
	return text, nil
}

func (g *OpenAIGenerator) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{Service: g.service, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &ServiceError{Service: g.service, StatusCode: reqErr.HTTPStatusCode, Body: body}
	}
	return fmt.Errorf("%s request: %w", g.service, err)
}
