package entity

import (
	"testing"

	"github.com/codingersid/blocktemplate/plugin"
	"github.com/codingersid/blocktemplate/value"
)

// funcResolver is a plugin.Resolver stub that only resolves
// FunctionPlugins, for tests exercising renderFunctionTags/
// findMatchingClose through Entity.Render rather than calling a
// FunctionPlugin's Invoke directly.
type funcResolver struct {
	functions map[string]plugin.FunctionPlugin
}

func (r funcResolver) ResolveModifier(name string) (plugin.ModifierPlugin, bool) {
	return nil, false
}

func (r funcResolver) ResolveFunction(name string) (plugin.FunctionPlugin, bool) {
	f, ok := r.functions[name]
	return f, ok
}

func TestRender_EnclosingFunctionTag(t *testing.T) {
	root := parseRoot(t, "{@repeat 3}ab{/repeat}")
	e := newRootEntity(root, plugin.NewDefaultRegistry())

	out, err := e.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "ababab" {
		t.Fatalf("got %q, want %q", out, "ababab")
	}
}

func TestRender_NestedSameNameEnclosingFunctionTags(t *testing.T) {
	root := parseRoot(t, "{@repeat 2}{@repeat 3}x{/repeat}{/repeat}")
	e := newRootEntity(root, plugin.NewDefaultRegistry())

	out, err := e.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// Inner "{@repeat 3}x{/repeat}" resolves first (to "xxx"), then the
	// outer repeat-2 wraps that already-resolved body: "xxx" + "xxx".
	want := "xxxxxx"
	if out != want {
		t.Fatalf("got %q, want %q (findMatchingClose must track same-name nesting depth)", out, want)
	}
}

func TestRender_UnknownFunctionTagPassesThroughWhileVarResolves(t *testing.T) {
	root := parseRoot(t, "{@nosuch}{$name}{/nosuch}")
	e := newRootEntity(root, funcResolver{functions: map[string]plugin.FunctionPlugin{}})
	e.Assign("name", value.StringValue("Go"))

	out, err := e.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "{@nosuch}Go{/nosuch}"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

// injectFunction is a non-enclosing FunctionPlugin whose output contains
// a "{$who}" variable tag of its own, for exercising the invariant that
// a function's emitted text is resolved by the *subsequent* variable-tag
// pass, not re-scanned for nested function tags during the function pass
// itself.
type injectFunction struct{}

func (injectFunction) Name() string            { return "inject" }
func (injectFunction) EncloseContent() bool    { return false }
func (injectFunction) BypassParser() bool      { return false }
func (injectFunction) ExtendedParameter() bool { return false }
func (injectFunction) Parameters() []plugin.ParamDef { return nil }

func (injectFunction) Invoke(_ plugin.EntityHandle, _ plugin.ParameterBag, _ *string) (string, error) {
	return "Hello {$who}!", nil
}

func TestRender_FunctionOutputVariableResolvesInSecondPass(t *testing.T) {
	root := parseRoot(t, "{@inject}")
	e := newRootEntity(root, funcResolver{functions: map[string]plugin.FunctionPlugin{
		"inject": injectFunction{},
	}})
	e.Assign("who", value.StringValue("World"))

	out, err := e.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "Hello World!"
	if out != want {
		t.Fatalf("got %q, want %q (function output must resolve in the variable-tag pass, not collapse into the function pass)", out, want)
	}
}

func TestBind_LazyDereferenceSeesLaterMutation(t *testing.T) {
	root := parseRoot(t, "{$ref}")
	sourceParams := value.NewStore()
	templateParams := value.NewStore()
	templateParams.Set("site", value.StringValue("A"))

	e := NewRoot(root, "root", sourceParams, templateParams, nil)
	e.Bind("ref", "template", "site")

	// Mutate the bound Template-scope location after Bind but before the
	// first lookup: since deref happens lazily at GetValue time (not at
	// Bind time), this later write must still be what is seen.
	templateParams.Set("site", value.StringValue("B"))

	got := e.GetValue("ref", nil, nil)
	if got.Stringify() != "B" {
		t.Fatalf("GetValue(%q) = %q, want %q (bind must dereference lazily)", "ref", got.Stringify(), "B")
	}

	out, err := e.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "B" {
		t.Fatalf("rendered %q, want %q", out, "B")
	}
}

func TestBind_SourceScopeLazyDereference(t *testing.T) {
	root := parseRoot(t, "{$ref}")
	sourceParams := value.NewStore()
	sourceParams.Set("page", value.StringValue("home"))
	templateParams := value.NewStore()

	e := NewRoot(root, "root", sourceParams, templateParams, nil)
	e.Bind("ref", "source", "page")
	sourceParams.Set("page", value.StringValue("about"))

	got := e.GetValue("ref", nil, nil)
	if got.Stringify() != "about" {
		t.Fatalf("GetValue(%q) = %q, want %q", "ref", got.Stringify(), "about")
	}
}
