package ai

import (
	"context"
	"fmt"
	"strings"
)

// OllamaGenerator wraps OllamaClient with a fixed model for text generation
// using the Ollama /api/chat endpoint.
type OllamaGenerator struct {
	client *OllamaClient
	model  string
}

// NewOllamaGenerator builds an Ollama-based TextGenerator.
func NewOllamaGenerator(client *OllamaClient, model string) *OllamaGenerator {
	return &OllamaGenerator{client: client, model: model}
}

// GenerateText implements TextGenerator using Ollama /api/chat.
func (g *OllamaGenerator) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	model := strings.TrimSpace(g.model)
	if model == "" {
		return "", fmt.Errorf("ollama generation model required")
	}

	messages := make([]ollamaChatMessage, 0, 2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, ollamaChatMessage{Role: "user", Content: req.Prompt})

	reqBody := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		reqBody.Options = &ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	}

	var resp ollamaChatResponse
	if err := g.client.doJSON(ctx, "/api/chat", reqBody, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return resp.Message.Content, nil
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  *ollamaOptions      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
}
