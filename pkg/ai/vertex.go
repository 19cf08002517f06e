package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultVertexModel    = "gemini-1.5-flash"
	vertexTemperature     = 0.7
	vertexMaxOutputTokens = 1024
)

// VertexGenerator implements TextGenerator using Vertex AI generative models.
// Authentication uses ambient application-default credentials.
type VertexGenerator struct {
	client       *genai.Client
	tokenDivisor int
}

// NewVertexGenerator builds a Vertex-backed generator for a project and region.
func NewVertexGenerator(ctx context.Context, project, location string) (*VertexGenerator, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, fmt.Errorf("vertex project id required")
	}
	if strings.TrimSpace(location) == "" {
		location = "us-central1"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: location,
	})
	if err != nil {
		return nil, fmt.Errorf("init vertex client: %w", err)
	}
	return &VertexGenerator{client: client, tokenDivisor: defaultTokenDivisor}, nil
}

// SetTokenDivisor overrides the chars-per-token ratio used when the provider
// response carries no usage metadata.
func (g *VertexGenerator) SetTokenDivisor(divisor int) {
	if divisor > 0 {
		g.tokenDivisor = divisor
	}
}

// GenerateText sends the prompt with a system instruction and returns the
// trimmed text of the first candidate. Token usage comes from the response
// metadata when present, otherwise from a character-count estimate.
func (g *VertexGenerator) GenerateText(ctx context.Context, model, systemPrompt, userPrompt string) (Result, error) {
	if strings.TrimSpace(model) == "" {
		model = defaultVertexModel
	}
	temperature := float32(vertexTemperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: vertexMaxOutputTokens,
	}
	if strings.TrimSpace(systemPrompt) != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(userPrompt), config)
	if err != nil {
		return Result{}, fmt.Errorf("vertex generate content: %w", err)
	}
	content := strings.TrimSpace(responseText(resp))
	if content == "" {
		return Result{}, fmt.Errorf("empty response from vertex")
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	if tokens == 0 {
		tokens = EstimateTokens(content, g.tokenDivisor)
	}
	return Result{Content: content, TokensUsed: tokens}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
