package ai

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when the selected provider has no usable
// credentials. It is raised before any network call is made.
var ErrNotConfigured = errors.New("ai provider not configured")

// Result is a normalized generation response across providers.
type Result struct {
	Content    string
	TokensUsed int
}

// TextGenerator generates text from a system prompt and user prompt using a
// given model. Both LLM providers (OpenAI, Vertex) implement this interface.
type TextGenerator interface {
	GenerateText(ctx context.Context, model, systemPrompt, userPrompt string) (Result, error)
}
