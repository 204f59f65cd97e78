package generator

import (
	"context"
	"fmt"
	"strings"
)

// LLMClient abstracts the text-generation service so it can be swapped or faked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// GenerationConfig holds the sampling options passed to the model.
type GenerationConfig struct {
	// Temperature controls randomness: 0 is deterministic, 1 is most diverse.
	Temperature float32
	// MaxOutputTokens is a hard cap on response length.
	MaxOutputTokens int32
	// TopK and TopP are the top-k and nucleus sampling cutoffs. Zero means
	// the provider default.
	TopK float32
	TopP float32
}

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.7,
		MaxOutputTokens: 1024,
		TopK:            40,
		TopP:            0.95,
	}
}

// LLMSettings is the provider configuration handed to concrete clients.
type LLMSettings struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Generation GenerationConfig
}

// NewLLMFromSettings builds the client for the configured provider.
func NewLLMFromSettings(settings LLMSettings) (LLMClient, error) {
	switch strings.ToLower(settings.Provider) {
	case "gemini", "google":
		return NewGeminiLLMFromConfig(&settings)
	case "openai":
		return NewOpenAILLMFromConfig(&settings)
	case "deepseek":
		// DeepSeek exposes an OpenAI-compatible API and needs an explicit base URL.
		if settings.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return NewOpenAILLMFromConfig(&settings)
	case "mock":
		return MockLLM{}, nil
	case "":
		return nil, fmt.Errorf("llm provider missing; set llm.provider")
	default:
		return nil, fmt.Errorf("llm provider %s not supported", settings.Provider)
	}
}
