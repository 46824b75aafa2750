// Package tools provides the closed set of capability tools an agent can be
// built with. Unknown capability names are rejected at validation time, not
// at call time.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Capability identifies one tool kind from the fixed enumeration.
type Capability string

const (
	CapabilityArithmetic  Capability = "basic-arithmetic"
	CapabilityCurrentTime Capability = "current-time"
	CapabilityWebFetch    Capability = "web-fetch"
)

// ParseCapability resolves a capability tag, rejecting unknown names.
func ParseCapability(name string) (Capability, bool) {
	switch Capability(name) {
	case CapabilityArithmetic, CapabilityCurrentTime, CapabilityWebFetch:
		return Capability(name), true
	default:
		return "", false
	}
}

// Parameter describes one tool input.
type Parameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Definition binds a capability to its concrete handler.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
	Handler     func(ctx context.Context, params map[string]interface{}) (interface{}, error)
}

// Registry holds the tools registered on one built agent.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Definition)}
}

// Register adds a tool definition. Registering the same name twice fails.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s has no handler", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %s is already registered", def.Name)
	}
	r.tools[def.Name] = def
	return nil
}

// Get returns a registered tool definition.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// Names lists the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs a registered tool handler.
func (r *Registry) Invoke(ctx context.Context, name string, params map[string]interface{}) (interface{}, error) {
	def, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return def.Handler(ctx, params)
}
