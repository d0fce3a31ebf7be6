// Package llm provides the language-model clients used for chunk
// summarization. Query planning and column matching are heuristic and
// never call a model.
package llm

import (
	"context"
)

// Client defines the interface for model generation calls.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// GenerateResponse generates a completion for the prompt under the
	// given system instruction. maxTokens bounds the output length.
	GenerateResponse(ctx context.Context, prompt, systemMessage string, temperature float64, maxTokens int) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Compile-time interface checks for both providers and the mock.
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
	_ Client = (*MockClient)(nil)
)
