package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

const envPrefix = "SUPPORTDESK_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SUPPORTDESK_*). Nested keys use a double
// underscore: SUPPORTDESK_ANALYSIS__TRIGGER_EVERY=4.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps SUPPORTDESK_SERVER__PORT to server.port. Webhooks are a comma
// separated list.
func envKey(key, value string) (string, any) {
	k := strings.ToLower(strings.TrimPrefix(key, envPrefix))
	k = strings.ReplaceAll(k, "__", ".")
	if k == "webhooks" {
		return k, splitAndTrim(value)
	}
	return k, value
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI:     true,
	ProviderOpenRouter: true,
	ProviderOllama:     true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Analysis.Enabled {
		if c.Provider == "" {
			return fmt.Errorf("provider is required when analysis is enabled")
		}
		if !validProviders[c.Provider] {
			return fmt.Errorf("invalid provider %q: must be one of openai, openrouter, ollama", c.Provider)
		}
		if c.Model == "" {
			return fmt.Errorf("model is required when analysis is enabled")
		}
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535")
	}

	if c.Queue.MinPriority > c.Queue.MaxPriority {
		return fmt.Errorf("queue.min_priority (%d) exceeds queue.max_priority (%d)", c.Queue.MinPriority, c.Queue.MaxPriority)
	}
	if c.Queue.MinutesPerTicket < 0 {
		return fmt.Errorf("queue.minutes_per_ticket must be non-negative")
	}

	if c.Analysis.TriggerEvery < 1 {
		return fmt.Errorf("analysis.trigger_every must be at least 1")
	}
	if c.Analysis.Timeout < 0 {
		return fmt.Errorf("analysis.timeout must be non-negative")
	}
	if c.Analysis.RequestsPerMinute < 0 {
		return fmt.Errorf("analysis.requests_per_minute must be non-negative")
	}
	if c.Analysis.MaxTokens < 0 {
		return fmt.Errorf("analysis.max_tokens must be non-negative")
	}
	if c.Analysis.Concurrency < 0 {
		return fmt.Errorf("analysis.concurrency must be non-negative")
	}

	for _, u := range c.Webhooks {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("invalid webhook URL %q", u)
		}
	}
	return nil
}

// DBPath is the SQLite file inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "supportdesk.db")
}

// IndexDir is where the related-ticket vector index persists.
func (c *Config) IndexDir() string {
	return filepath.Join(c.DataDir, "related")
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
