package config

import "time"

// DefaultPath is where Load and the init wizard look for the config file.
const DefaultPath = ".supportdesk.yml"

// defaultModels maps each provider to the model the wizard suggests.
var defaultModels = map[ProviderType]string{
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderOllama:     "llama3",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		Model:          defaultModels[ProviderOpenAI],
		EmbeddingModel: "text-embedding-3-small",
		DataDir:        ".supportdesk",
		Server: ServerConfig{
			Port: 8080,
		},
		Queue: QueueConfig{
			MinPriority:      0,
			MaxPriority:      10,
			MinutesPerTicket: 5,
			PollInterval:     5 * time.Second,
		},
		Analysis: AnalysisConfig{
			Enabled:           true,
			TriggerEvery:      2,
			Timeout:           60 * time.Second,
			RequestsPerMinute: 60,
			MaxTokens:         2048,
			Concurrency:       4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultModel returns the suggested model for provider.
func DefaultModel(provider ProviderType) string {
	return defaultModels[provider]
}
