package ai

import (
	"context"
	"fmt"
)

// Status reports which providers have usable credentials. It reflects only
// what was present at construction time; credentials are not validated.
type Status struct {
	OpenAI bool `json:"openai"`
	Vertex bool `json:"vertex"`
}

// Dispatcher routes generation requests to the configured provider client.
// Clients are constructed once at startup; a missing client means the
// corresponding credentials were absent from the environment.
type Dispatcher struct {
	openai TextGenerator
	vertex TextGenerator
}

// NewDispatcher wires the available provider clients. Either client may be nil.
func NewDispatcher(openAI *OpenAIGenerator, vertex *VertexGenerator) *Dispatcher {
	d := &Dispatcher{}
	if openAI != nil {
		d.openai = openAI
	}
	if vertex != nil {
		d.vertex = vertex
	}
	return d
}

// NewDispatcherFromGenerators wires arbitrary TextGenerator implementations.
func NewDispatcherFromGenerators(openAI, vertex TextGenerator) *Dispatcher {
	return &Dispatcher{openai: openAI, vertex: vertex}
}

// Status reports provider availability.
func (d *Dispatcher) Status() Status {
	return Status{
		OpenAI: d.openai != nil,
		Vertex: d.vertex != nil,
	}
}

// Generate routes a prompt to the selected provider and returns the
// normalized result. Selecting a provider without credentials fails with
// ErrNotConfigured before any network call.
func (d *Dispatcher) Generate(ctx context.Context, provider Provider, model, systemPrompt, userPrompt string) (Result, error) {
	switch provider {
	case ProviderOpenAI:
		if d.openai == nil {
			return Result{}, fmt.Errorf("%w: set OPENAI_API_KEY", ErrNotConfigured)
		}
		return d.openai.GenerateText(ctx, model, systemPrompt, userPrompt)
	case ProviderVertex:
		if d.vertex == nil {
			return Result{}, fmt.Errorf("%w: set GOOGLE_CLOUD_PROJECT or VERTEX_PROJECT_ID", ErrNotConfigured)
		}
		return d.vertex.GenerateText(ctx, model, systemPrompt, userPrompt)
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
}
