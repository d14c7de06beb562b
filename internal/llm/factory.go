package llm

import (
	"fmt"
	"strings"
	"time"
)

// FactoryConfig holds the parameters needed to create a Client.
// This is defined in the llm package to avoid importing the config package,
// keeping the llm package free of infrastructure dependencies.
type FactoryConfig struct {
	// Provider is "openai", "anthropic" or "gemini". Empty disables the LLM.
	Provider string
	// Temperature is the sampling temperature.
	Temperature float64
	// MaxTokens is the default completion length.
	MaxTokens int
	// Timeout bounds one API call.
	Timeout time.Duration

	OpenAI    ProviderConfig
	Anthropic ProviderConfig
	Gemini    ProviderConfig
}

// NewClient creates the Client selected by cfg.Provider. It returns an error
// wrapping ErrNotConfigured when the provider is empty or lacks an API key, and
// a plain error for an unknown provider.
func NewClient(cfg FactoryConfig) (Client, error) {
	opts := Options{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	var pc ProviderConfig
	switch provider {
	case "":
		return nil, ErrNotConfigured
	case "openai":
		pc = cfg.OpenAI
	case "anthropic":
		pc = cfg.Anthropic
	case "gemini":
		pc = cfg.Gemini
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
	if pc.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key is empty", ErrNotConfigured, provider)
	}

	switch provider {
	case "openai":
		return NewOpenAIClient(pc, opts), nil
	case "anthropic":
		return NewAnthropicClient(pc, opts), nil
	default:
		return NewGeminiClient(pc, opts), nil
	}
}
