package ai

import "context"

// TextRequest is one single-turn completion. Zero Temperature and MaxTokens
// leave the provider defaults in place.
type TextRequest struct {
	SystemPrompt string
	Prompt       string
	Temperature  float32
	MaxTokens    int
}

// TextGenerator generates text from a system prompt and user prompt.
// All story providers (Groq/OpenAI, Gemini, Ollama) implement this interface.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}
