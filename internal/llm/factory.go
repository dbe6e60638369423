package llm

import (
	"fmt"
	"os"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	ollamaDefaultHost = "http://localhost:11434"
)

// Providers lists the provider types NewProvider accepts.
var Providers = []string{"openai", "openrouter", "ollama"}

// NewProvider creates a new LLM provider based on the given provider type and model.
// API keys are read from the environment.
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "openrouter":
		apiKey := os.Getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable is not set")
		}
		return NewCompatibleProvider("openrouter", openRouterBaseURL, apiKey, model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = ollamaDefaultHost
		}
		return NewCompatibleProvider("ollama", host+"/v1", "ollama", model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
