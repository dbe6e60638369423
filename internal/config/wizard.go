package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to supportdesk! Let's configure the triage service.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider for transcript analysis",
		Items: []string{"openai", "openrouter", "ollama", "none (disable analysis)"},
	}
	idx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	providers := []ProviderType{ProviderOpenAI, ProviderOpenRouter, ProviderOllama}
	if idx < len(providers) {
		cfg.Provider = providers[idx]
		cfg.Model = DefaultModel(cfg.Provider)

		// 2. Model.
		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: cfg.Model,
		}
		if cfg.Model, err = modelPrompt.Run(); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
	} else {
		cfg.Analysis.Enabled = false
	}

	// 3. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 4. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 5. Webhooks.
	hookPrompt := promptui.Prompt{
		Label:   "Webhook URLs for summary updates (comma-separated, blank for none)",
		Default: "",
	}
	hooks, err := hookPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("webhooks: %w", err)
	}
	cfg.Webhooks = splitAndTrim(hooks)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && cfg.Analysis.Enabled {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running supportdesk server.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
