package agent

import (
	"context"
	"fmt"
	"strings"
)

// Request contains the parameters for one streamed generation.
type Request struct {
	Model        string
	SystemPrompt string
	UserMessage  string
	Temperature  float64
	TopP         float64
	MaxTokens    int
}

// Chunk is one incremental fragment of generated text.
type Chunk struct {
	Text string
}

// Stream is a lazy, forward-only, non-restartable sequence of text chunks.
// After Next returns false the consumer must check Err to distinguish normal
// end-of-stream from a provider failure, and may read Usage for the token
// counts reported in the final frame (nil when the provider omitted them).
type Stream interface {
	Next() bool
	Current() Chunk
	Err() error
	Usage() *TokenUsage
	Close() error
}

// StreamingProvider opens streamed generations against one model provider.
type StreamingProvider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
	Name() string
}

// ProviderFactory creates streaming providers by name.
type ProviderFactory struct{}

// NewProvider creates a provider for the given name and API key.
func (f *ProviderFactory) NewProvider(name, apiKey string) (StreamingProvider, error) {
	switch name {
	case "anthropic":
		return NewAnthropicProvider(apiKey), nil
	case "openai":
		return NewOpenAIProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// ProviderCreator creates streaming providers. Satisfied by ProviderFactory
// and by test doubles.
type ProviderCreator interface {
	NewProvider(name, apiKey string) (StreamingProvider, error)
}

// ResolveProvider maps a model identifier to a provider name. A qualified
// identifier like "anthropic/claude-sonnet-4" names the provider directly;
// otherwise the model ID prefix decides.
func ResolveProvider(modelID string) (provider, bareModel string, err error) {
	if idx := strings.Index(modelID, "/"); idx > 0 {
		return modelID[:idx], modelID[idx+1:], nil
	}
	switch {
	case strings.HasPrefix(modelID, "claude"):
		return "anthropic", modelID, nil
	case strings.HasPrefix(modelID, "gpt"), strings.HasPrefix(modelID, "o"):
		return "openai", modelID, nil
	default:
		return "", "", fmt.Errorf("cannot resolve provider for model %q", modelID)
	}
}
