// Package plugin implements PluginDispatch (spec.md §4.8): the
// injected-resolver contract the renderer uses to look up modifier and
// function plugins by name, plus a default in-memory registry and a
// starter set of builtin plugins.
//
// Grounded on teacher's DirectiveHandler map and DefaultFunctions()
// table (engine/engine.go, engine/functions.go) — a name-keyed registry
// of callables the renderer dispatches into; here split into two typed
// interfaces (ModifierPlugin/FunctionPlugin) since the two have
// different invocation shapes (spec.md §4.8).
package plugin

import "github.com/codingersid/blocktemplate/value"

// EntityHandle is the opaque handle a plugin receives for the Entity it
// is rendering inside (spec.md §6 "plugin callbacks receive an opaque
// handle ... may call assign, get_value, and parse_text"). Implemented
// by *entity.Entity; declared here (not imported from package entity)
// so plugin has no dependency on entity, avoiding an import cycle since
// entity depends on plugin for dispatch.
type EntityHandle interface {
	Assign(name string, v value.Value)
	GetValue(name string, path []string, modifiers []ModifierCall) value.Value
	ParseText(text string) (string, error)
}

// ModifierCall is one parsed "->NAME:arg1:arg2" step of a variable
// expression's modifier pipeline (spec.md §4.4), shaped for GetValue so
// neither plugin nor entity needs to depend on package expr's own
// modifier-call AST type.
type ModifierCall struct {
	Name string
	Args []value.Value
}

// ModifierPlugin transforms a value produced by a variable-tag pipeline
// (spec.md §4.7 step 6).
type ModifierPlugin interface {
	Modify(v value.Value, args []value.Value) value.Value
}

// ModifierFunc adapts a plain function to ModifierPlugin.
type ModifierFunc func(v value.Value, args []value.Value) value.Value

func (f ModifierFunc) Modify(v value.Value, args []value.Value) value.Value { return f(v, args) }

// ParamDef is one declared parameter of a FunctionPlugin, used for
// positional-argument assignment in declaration order (spec.md §4.5
// shape 2) and as the default bag when ARGS is empty (shape 1).
type ParamDef struct {
	Name    string
	Default value.Value
}

// ParameterBag is the shaped argument set a FunctionPlugin.Invoke
// receives, built by the renderer per spec.md §4.5.
type ParameterBag struct {
	// Flags holds the ":sub:args" colon-separated tokens that precede
	// the positional/keyword section, passed through as "invocation
	// arguments" distinct from the parameter bag proper.
	Flags []string

	// Values holds the final parameter values keyed by declared
	// parameter name (positional args assigned by declaration order,
	// keyword args assigned by name; unset params keep their default).
	Values map[string]value.Value

	// Extended holds keyword arguments whose name was not among the
	// plugin's declared parameters, populated only when the plugin
	// declares ExtendedParameter() == true.
	Extended map[string]value.Value

	// RawText is populated instead of Values/Extended when the plugin
	// declares BypassParser() == true: the entire raw argument text,
	// untokenized.
	RawText string
}

// Get returns bag.Values[name], or Null if unset.
func (b ParameterBag) Get(name string) value.Value {
	if v, ok := b.Values[name]; ok {
		return v
	}
	return value.NullValue()
}

// FunctionPlugin is an (enclosing or non-enclosing) function tag handler
// (spec.md §4.8).
type FunctionPlugin interface {
	Name() string
	EncloseContent() bool
	BypassParser() bool
	ExtendedParameter() bool
	Parameters() []ParamDef
	Invoke(entity EntityHandle, bag ParameterBag, wrapped *string) (string, error)
}

// Resolver is the injected plugin-dispatch contract (spec.md §4.8):
// never panics, returns ok=false for unknown names.
type Resolver interface {
	ResolveModifier(name string) (ModifierPlugin, bool)
	ResolveFunction(name string) (FunctionPlugin, bool)
}
