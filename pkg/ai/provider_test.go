package ai

import (
	"context"
	"errors"
	"testing"
)

func TestParseProvider(t *testing.T) {
	cases := []struct {
		raw     string
		want    Provider
		wantErr bool
	}{
		{raw: "", want: ProviderOpenAI},
		{raw: "openai", want: ProviderOpenAI},
		{raw: "vertex", want: ProviderVertex},
		{raw: "google", want: ProviderVertex},
		{raw: "  vertex  ", want: ProviderVertex},
		{raw: "Vertex", wantErr: true},
		{raw: "anthropic", wantErr: true},
		{raw: "openai-compatible", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseProvider(tc.raw)
		if tc.wantErr {
			if !errors.Is(err, ErrUnsupportedProvider) {
				t.Fatalf("ParseProvider(%q): expected unsupported-provider error, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseProvider(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseProvider(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestDispatcherFailsWithoutCredentials(t *testing.T) {
	d := NewDispatcher(nil, nil)

	if _, err := d.Generate(context.Background(), ProviderOpenAI, "", "sys", "user"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for openai, got %v", err)
	}
	if _, err := d.Generate(context.Background(), ProviderVertex, "", "sys", "user"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for vertex, got %v", err)
	}
	if _, err := d.Generate(context.Background(), Provider("anthropic"), "", "sys", "user"); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}

	status := d.Status()
	if status.OpenAI || status.Vertex {
		t.Fatalf("expected no provider available, got %+v", status)
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text    string
		divisor int
		want    int
	}{
		{text: "", divisor: 4, want: 0},
		{text: "abcd", divisor: 4, want: 1},
		{text: "abcde", divisor: 4, want: 2},
		{text: "abcdefgh", divisor: 4, want: 2},
		{text: "abc", divisor: 0, want: 1},
		{text: "abcdef", divisor: 3, want: 2},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.text, tc.divisor); got != tc.want {
			t.Fatalf("EstimateTokens(%q, %d) = %d, want %d", tc.text, tc.divisor, got, tc.want)
		}
	}
}
