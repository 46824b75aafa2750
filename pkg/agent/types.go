package agent

import (
	"context"
	"fmt"

	"github.com/arvid/lumen/pkg/tools"
)

// AgentConfig describes one agent variant. It is constructed by the caller
// on every build action and never mutated afterwards.
type AgentConfig struct {
	Name         string                 `json:"name"`
	Model        string                 `json:"model"`
	SystemPrompt string                 `json:"system_prompt,omitempty"`
	Temperature  float64                `json:"temperature"`
	TopP         float64                `json:"top_p"`
	Tools        []string               `json:"tools,omitempty"`
	Extras       map[string]interface{} `json:"extras,omitempty"`
}

// Validate checks the config against the allowed ranges and the closed
// capability set. The first offending field is reported as a ValidationError.
func (c AgentConfig) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if c.Model == "" {
		return &ValidationError{Field: "model", Reason: "must not be empty"}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return &ValidationError{Field: "temperature", Reason: fmt.Sprintf("%v is outside [0.0, 2.0]", c.Temperature)}
	}
	if c.TopP < 0 || c.TopP > 1 {
		return &ValidationError{Field: "topP", Reason: fmt.Sprintf("%v is outside [0.0, 1.0]", c.TopP)}
	}
	seen := map[tools.Capability]bool{}
	for _, name := range c.Tools {
		capability, ok := tools.ParseCapability(name)
		if !ok {
			return &ValidationError{Field: "tools", Reason: fmt.Sprintf("unknown capability %q", name)}
		}
		if seen[capability] {
			return &ValidationError{Field: "tools", Reason: fmt.Sprintf("capability %q listed twice", name)}
		}
		seen[capability] = true
	}
	return nil
}

// wantsCapability reports whether the config asks for the given capability.
func (c AgentConfig) wantsCapability(cap tools.Capability) bool {
	for _, name := range c.Tools {
		if name == string(cap) {
			return true
		}
	}
	return false
}

// maxTokens returns the generation cap, honoring an integer "max_tokens"
// override in the extras bag.
func (c AgentConfig) maxTokens() int {
	if v, ok := c.Extras["max_tokens"]; ok {
		switch n := v.(type) {
		case int:
			if n > 0 {
				return n
			}
		case float64:
			if n > 0 {
				return int(n)
			}
		}
	}
	return defaultMaxTokens
}

const defaultMaxTokens = 4096

// TokenUsage tracks token consumption reported by the provider.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Total returns prompt plus completion tokens.
func (u TokenUsage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// RunResult is the outcome of one turn. Usage is nil when the provider never
// reported usage metadata.
type RunResult struct {
	Text      string      `json:"text"`
	Usage     *TokenUsage `json:"usage,omitempty"`
	LatencyMs int64       `json:"latency_ms"`
	Aborted   bool        `json:"aborted"`
}

// Agent is a bound combination of model, system prompt, decoding parameters
// and enabled capability tools, ready to execute turns.
type Agent struct {
	ID     string
	Config AgentConfig

	// Model is the catalog-resolved identifier actually sent to the provider.
	Model string

	provider   StreamingProvider
	registry   *tools.Registry
	webTracker *tools.WebTracker
	webEnabled bool
}

// Tools returns the names of the capabilities registered on this agent.
func (a *Agent) Tools() []string {
	return a.registry.Names()
}

// WebEnabled reports whether the allow-listed fetch capability was bound.
func (a *Agent) WebEnabled() bool {
	return a.webEnabled
}

// InvokeTool executes one of the agent's registered capability tools. Tool
// calls are pass-through: the caller decides when to invoke them, not the
// model stream.
func (a *Agent) InvokeTool(ctx context.Context, name string, params map[string]interface{}) (interface{}, error) {
	return a.registry.Invoke(ctx, name, params)
}

// WebStatus returns the fetch capability status for the current turn.
func (a *Agent) WebStatus() string {
	if !a.webEnabled {
		return tools.WebStatusOff
	}
	return a.webTracker.Status()
}
