package pipeline

import (
	"context"
	"fmt"
)

// Handler applies one pipeline step to the running text. The sessionID is
// the executor's authoritative session identifier; handlers must use it in
// preference to any session parameter carried by the step.
type Handler interface {
	Apply(ctx context.Context, text, sessionID string, step Step) (string, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, text, sessionID string, step Step) (string, error)

// Apply implements Handler.
func (f HandlerFunc) Apply(ctx context.Context, text, sessionID string, step Step) (string, error) {
	return f(ctx, text, sessionID, step)
}

type handlerKey struct {
	server string
	tool   string
}

// Registry maps (server, tool) pairs to handlers. Unregistered pairs fall
// through to the stub handler, so an unknown tool never fails a run.
type Registry struct {
	handlers map[handlerKey]Handler
	fallback Handler
}

// NewRegistry creates a registry with the stub passthrough as fallback.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[handlerKey]Handler),
		fallback: HandlerFunc(stubHandler),
	}
}

// Register binds a handler to a (server, tool) pair.
func (r *Registry) Register(server, tool string, handler Handler) {
	r.handlers[handlerKey{server: server, tool: tool}] = handler
}

// Resolve returns the handler for a (server, tool) pair, or the stub
// fallback when none is registered.
func (r *Registry) Resolve(server, tool string) Handler {
	if handler, ok := r.handlers[handlerKey{server: server, tool: tool}]; ok {
		return handler
	}
	return r.fallback
}

// stubHandler simulates a third-party tool integration point: it appends a
// marker recording which server/tool was applied and leaves the text itself
// untouched.
func stubHandler(ctx context.Context, text, sessionID string, step Step) (string, error) {
	return fmt.Sprintf("%s [processed by %s.%s (%s)]", text, step.Server, step.Tool, step.Description), nil
}
