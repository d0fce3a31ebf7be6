package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// ProviderConfig selects and configures a model provider.
type ProviderConfig struct {
	Provider string // "openai" or "anthropic"
	Endpoint string
	Model    string
	APIKey   string
}

// NewClient creates a model client for the configured provider.
// Returns the Client interface to enable dependency injection of mocks.
func NewClient(cfg *ProviderConfig, logger *zap.Logger) (Client, error) {
	base := &Config{
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(base, logger)
	case "anthropic":
		return NewAnthropicClient(base, logger)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
