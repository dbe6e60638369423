// Package llm is the thin completion client the analysis pipeline talks to.
// Every supported backend speaks the OpenAI chat completions protocol.
package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
