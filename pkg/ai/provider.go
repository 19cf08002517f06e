package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Provider identifies a supported generative-text backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderVertex Provider = "vertex"
)

// ErrUnsupportedProvider is returned for provider names outside the closed set.
var ErrUnsupportedProvider = errors.New("unsupported ai provider")

// ParseProvider maps a stored provider name to a Provider. The empty string
// defaults to OpenAI; "google" is accepted as an alias for Vertex. Any other
// value is an error rather than a silent fallback.
func ParseProvider(raw string) (Provider, error) {
	switch strings.TrimSpace(raw) {
	case "", string(ProviderOpenAI):
		return ProviderOpenAI, nil
	case string(ProviderVertex), "google":
		return ProviderVertex, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, raw)
}

// DefaultModel returns the model used when the configuration leaves it blank.
func DefaultModel(p Provider) string {
	if p == ProviderVertex {
		return defaultVertexModel
	}
	return defaultOpenAIModel
}
