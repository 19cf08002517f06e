package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

const (
	defaultOpenAIModel    = "gpt-4o-mini"
	openAITemperature     = 0.7
	openAIMaxOutputTokens = 600
)

// OpenAIGenerator implements TextGenerator using the OpenAI chat completions API.
type OpenAIGenerator struct {
	client openai.Client
}

// NewOpenAIGenerator builds an OpenAI-backed generator from an API key.
func NewOpenAIGenerator(apiKey string) (*OpenAIGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key required")
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &OpenAIGenerator{client: client}, nil
}

// GenerateText issues a chat completion with system+user messages and returns
// the trimmed text plus the provider-reported total token count (0 if absent).
func (g *OpenAIGenerator) GenerateText(ctx context.Context, model, systemPrompt, userPrompt string) (Result, error) {
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(openAITemperature),
		MaxTokens:   openai.Int(openAIMaxOutputTokens),
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Result{}, fmt.Errorf("empty response from openai")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return Result{}, fmt.Errorf("empty response from openai")
	}
	return Result{
		Content:    content,
		TokensUsed: int(completion.Usage.TotalTokens),
	}, nil
}
