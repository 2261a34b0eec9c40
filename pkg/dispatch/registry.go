// Package dispatch owns the authoritative set of invocable tools and
// executes them on request. It runs as an independent process serving
// the MCP stdio protocol; invocation failures are always data, never
// faults.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
)

// Handler executes one tool call with normalized parameters.
type Handler func(ctx context.Context, params map[string]any) core.Result

// Descriptor declares a tool: its unique name, parameter shape and
// handler. Descriptors are registered once at startup and immutable
// afterward.
type Descriptor struct {
	Name        string
	Description string
	// Schema maps parameter name to a short type/usage note, used for
	// the tool listing surface.
	Schema  map[string]string
	Handler Handler
}

// DuplicateToolError reports a name collision at registration time.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// Registry is the tool table. It is written during startup and
// read-only once the dispatcher starts serving, so Invoke needs no
// locking.
type Registry struct {
	tools  map[string]Descriptor
	order  []string
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]Descriptor),
		logger: logger,
	}
}

// Register adds a tool descriptor. Names must be unique.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return errors.New(errors.CodeInvalidInput, "tool name is required", nil)
	}
	if d.Handler == nil {
		return errors.New(errors.CodeInvalidInput, "tool handler is required", nil)
	}
	if _, exists := r.tools[d.Name]; exists {
		return &DuplicateToolError{Name: d.Name}
	}
	r.tools[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the descriptor for a tool name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.tools[name]
	return d, ok
}

// Invoke looks up and executes a tool. Every failure mode comes back
// as an error Result; the dispatcher process never crashes because a
// handler failed.
func (r *Registry) Invoke(ctx context.Context, name string, params map[string]any) (result core.Result) {
	d, ok := r.tools[name]
	if !ok {
		return core.Failuref(string(errors.CodeToolNotFound), "unknown tool: %s", name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "tool handler panicked", "tool", name, "panic", rec)
			result = core.Failuref(string(errors.CodeToolFailure), "tool %s failed: %v", name, rec)
		}
	}()

	normalized := NormalizeParams(params)
	r.logger.DebugContext(ctx, "invoking tool", "tool", name)
	return d.Handler(ctx, normalized)
}
