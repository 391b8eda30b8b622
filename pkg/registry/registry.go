// Package registry holds named tool definitions and dispatches calls to them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/stategraph/pkg/schema"
)

// ErrToolNotFound is returned by Execute for unregistered names.
var ErrToolNotFound = errors.New("tool not found")

// Result is the outcome of a tool call: a human-readable text and, when
// useful, a structured payload for programmatic callers.
type Result struct {
	Text string `json:"text"`
	// NotFound marks a call that referenced a missing state or action.
	// It is a normal outcome, not an error.
	NotFound bool `json:"not_found,omitempty"`
	Data     any  `json:"data,omitempty"`
}

// ToolFunction is the implementation of a tool.
// It receives a context and a map of arguments already validated against the
// tool's schema.
type ToolFunction func(ctx context.Context, args map[string]any) (*Result, error)

// Tool is a named, schema-typed operation.
type Tool struct {
	Name        string
	Description string
	Schema      schema.Schema
	// Mutates is true for tools that change the graph.
	Mutates bool
	Fn      ToolFunction
}

// Registry manages the available tools, keeping registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten in place.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Execute validates args against the tool's schema and runs it.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*Result, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := schema.Validate(t.Schema, args); err != nil {
		return nil, fmt.Errorf("%s: invalid arguments: %w", name, err)
	}
	return t.Fn(ctx, args)
}
