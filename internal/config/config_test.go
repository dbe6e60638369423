package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.Queue.MinPriority != 0 || cfg.Queue.MaxPriority != 10 {
		t.Errorf("expected priority range 0..10, got %d..%d", cfg.Queue.MinPriority, cfg.Queue.MaxPriority)
	}
	if cfg.Queue.MinutesPerTicket != 5 {
		t.Errorf("expected 5 minutes per ticket, got %d", cfg.Queue.MinutesPerTicket)
	}
	if cfg.Analysis.TriggerEvery != 2 {
		t.Errorf("expected trigger_every 2, got %d", cfg.Analysis.TriggerEvery)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.supportdesk.yml")

	original := DefaultConfig()
	original.Provider = ProviderOllama
	original.Model = "llama3:70b"
	original.Queue.MaxPriority = 5
	original.Analysis.Timeout = 90 * time.Second
	original.Webhooks = []string{"https://hooks.example.com/a", "https://hooks.example.com/b"}
	original.Server.AllowAllOrigins = true

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Queue.MaxPriority != 5 {
		t.Errorf("queue.max_priority: got %d, want 5", loaded.Queue.MaxPriority)
	}
	if loaded.Analysis.Timeout != 90*time.Second {
		t.Errorf("analysis.timeout: got %s, want 90s", loaded.Analysis.Timeout)
	}
	if !loaded.Server.AllowAllOrigins {
		t.Error("server.allow_all_origins: expected true")
	}
	if len(loaded.Webhooks) != 2 || loaded.Webhooks[1] != "https://hooks.example.com/b" {
		t.Errorf("webhooks: got %v", loaded.Webhooks)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yml")
	if err := os.WriteFile(path, []byte("queue:\n  minutes_per_ticket: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Queue.MinutesPerTicket != 3 {
		t.Errorf("expected override 3, got %d", cfg.Queue.MinutesPerTicket)
	}
	if cfg.Queue.MaxPriority != 10 {
		t.Errorf("expected default max priority 10, got %d", cfg.Queue.MaxPriority)
	}
	if cfg.Analysis.TriggerEvery != 2 {
		t.Errorf("expected default trigger_every 2, got %d", cfg.Analysis.TriggerEvery)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("SUPPORTDESK_PROVIDER", "openrouter")
	t.Setenv("SUPPORTDESK_ANALYSIS__TRIGGER_EVERY", "4")
	t.Setenv("SUPPORTDESK_SERVER__PORT", "9090")
	t.Setenv("SUPPORTDESK_WEBHOOKS", "https://a.example.com, https://b.example.com")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenRouter {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOpenRouter)
	}
	if loaded.Analysis.TriggerEvery != 4 {
		t.Errorf("nested env override failed: got %d, want 4", loaded.Analysis.TriggerEvery)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("port override failed: got %d", loaded.Server.Port)
	}
	if len(loaded.Webhooks) != 2 || loaded.Webhooks[0] != "https://a.example.com" {
		t.Errorf("webhooks override failed: got %v", loaded.Webhooks)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }, true},
		{"empty provider", func(c *Config) { c.Provider = "" }, true},
		{"empty provider without analysis", func(c *Config) { c.Provider = ""; c.Analysis.Enabled = false }, false},
		{"empty model", func(c *Config) { c.Model = "" }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"inverted priority range", func(c *Config) { c.Queue.MinPriority = 6; c.Queue.MaxPriority = 5 }, true},
		{"negative minutes per ticket", func(c *Config) { c.Queue.MinutesPerTicket = -1 }, true},
		{"zero trigger", func(c *Config) { c.Analysis.TriggerEvery = 0 }, true},
		{"negative timeout", func(c *Config) { c.Analysis.Timeout = -time.Second }, true},
		{"negative rpm", func(c *Config) { c.Analysis.RequestsPerMinute = -1 }, true},
		{"bad webhook", func(c *Config) { c.Webhooks = []string{"ftp://x"} }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/supportdesk"
	if got := cfg.DBPath(); got != "/var/lib/supportdesk/supportdesk.db" {
		t.Errorf("DBPath = %q", got)
	}
	if got := cfg.IndexDir(); got != "/var/lib/supportdesk/related" {
		t.Errorf("IndexDir = %q", got)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	if got := APIKeyEnvVar(ProviderOpenAI); got != "OPENAI_API_KEY" {
		t.Errorf("openai: got %q", got)
	}
	if got := APIKeyEnvVar(ProviderOpenRouter); got != "OPENROUTER_API_KEY" {
		t.Errorf("openrouter: got %q", got)
	}
	if got := APIKeyEnvVar(ProviderOllama); got != "" {
		t.Errorf("ollama: got %q", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" a, b ,,c ")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] got %q, want %q", i, got[i], want[i])
		}
	}
}
