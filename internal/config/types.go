package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderOllama     ProviderType = "ollama"
)

// Config is the top-level supportdesk configuration, corresponding to
// .supportdesk.yml.
type Config struct {
	Provider       ProviderType   `yaml:"provider" koanf:"provider"`
	Model          string         `yaml:"model" koanf:"model"`
	EmbeddingModel string         `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir        string         `yaml:"data_dir" koanf:"data_dir"`
	Server         ServerConfig   `yaml:"server" koanf:"server"`
	Queue          QueueConfig    `yaml:"queue" koanf:"queue"`
	Analysis       AnalysisConfig `yaml:"analysis" koanf:"analysis"`
	Webhooks       []string       `yaml:"webhooks" koanf:"webhooks"`
	Log            LogConfig      `yaml:"log" koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// QueueConfig tunes the priority queue.
type QueueConfig struct {
	MinPriority      int           `yaml:"min_priority" koanf:"min_priority"`
	MaxPriority      int           `yaml:"max_priority" koanf:"max_priority"`
	MinutesPerTicket int           `yaml:"minutes_per_ticket" koanf:"minutes_per_ticket"`
	PollInterval     time.Duration `yaml:"poll_interval" koanf:"poll_interval"`
}

// AnalysisConfig controls when and how transcripts are analyzed.
type AnalysisConfig struct {
	Enabled           bool          `yaml:"enabled" koanf:"enabled"`
	TriggerEvery      int           `yaml:"trigger_every" koanf:"trigger_every"`
	Timeout           time.Duration `yaml:"timeout" koanf:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	MaxTokens         int           `yaml:"max_tokens" koanf:"max_tokens"`
	Concurrency       int           `yaml:"concurrency" koanf:"concurrency"`
	RelatedIndex      bool          `yaml:"related_index" koanf:"related_index"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
