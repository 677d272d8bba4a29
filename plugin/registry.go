package plugin

import "sync"

// Registry is a default in-memory Resolver implementation, grounded on
// teacher's map[string]DirectiveHandler registry in engine/engine.go.
// Plugin *discovery on disk* is out of scope (spec.md §1) — callers
// populate a Registry themselves (or supply their own Resolver).
type Registry struct {
	mu        sync.RWMutex
	modifiers map[string]ModifierPlugin
	functions map[string]FunctionPlugin
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		modifiers: make(map[string]ModifierPlugin),
		functions: make(map[string]FunctionPlugin),
	}
}

// RegisterModifier makes p resolvable by name.
func (r *Registry) RegisterModifier(name string, p ModifierPlugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modifiers[name] = p
}

// RegisterFunction makes p resolvable by its own Name().
func (r *Registry) RegisterFunction(p FunctionPlugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[p.Name()] = p
}

func (r *Registry) ResolveModifier(name string) (ModifierPlugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.modifiers[name]
	return p, ok
}

func (r *Registry) ResolveFunction(name string) (FunctionPlugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.functions[name]
	return p, ok
}

var _ Resolver = (*Registry)(nil)

// NewDefaultRegistry returns a Registry pre-populated with the builtin
// modifier and function plugins (see builtins.go).
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	registerBuiltinModifiers(r)
	registerBuiltinFunctions(r)
	return r
}
