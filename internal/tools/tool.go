package tools

import (
	"context"
	"sort"
)

// Tool defines the interface for lookup capabilities exposed to the model.
// Implementations must be deterministic and side-effect free: the same input
// always yields the same output, and Execute never mutates shared state.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema for the tool's inputs
	Execute(ctx context.Context, input string) (string, error)
}

// Registry manages the set of tools available to the model.
type Registry struct {
	Tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		Tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	r.Tools[t.Name()] = t
}

// Get returns the tool registered under name, or nil when no such tool
// exists. Callers treat nil as an unknown-tool condition.
func (r *Registry) Get(name string) Tool {
	return r.Tools[name]
}

// Names returns the registered tool names in sorted order, so the descriptor
// set presented to the model is stable across runs.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Tools))
	for name := range r.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
