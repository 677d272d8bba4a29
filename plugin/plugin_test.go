package plugin

import (
	"testing"

	"github.com/codingersid/blocktemplate/value"
)

func TestRegistry_ResolveModifier(t *testing.T) {
	r := NewDefaultRegistry()
	m, ok := r.ResolveModifier("upper")
	if !ok {
		t.Fatal("expected upper modifier to be registered")
	}
	got := m.Modify(value.StringValue("hi"), nil)
	if got.AsString() != "HI" {
		t.Errorf("expected HI, got %q", got.AsString())
	}
}

func TestRegistry_UnknownModifier(t *testing.T) {
	r := NewDefaultRegistry()
	if _, ok := r.ResolveModifier("nope"); ok {
		t.Fatal("expected unknown modifier to miss")
	}
}

func TestModifyTrim(t *testing.T) {
	r := NewDefaultRegistry()
	m, _ := r.ResolveModifier("trim")
	got := m.Modify(value.StringValue("  hi  "), nil)
	if got.AsString() != "hi" {
		t.Errorf("expected trimmed value, got %q", got.AsString())
	}
}

func TestModifyChain_TrimThenUpper(t *testing.T) {
	r := NewDefaultRegistry()
	trim, _ := r.ResolveModifier("trim")
	upper, _ := r.ResolveModifier("upper")
	v := value.StringValue("  hi  ")
	v = trim.Modify(v, nil)
	v = upper.Modify(v, nil)
	if v.AsString() != "HI" {
		t.Errorf("expected HI, got %q", v.AsString())
	}
}

func TestModifySubstr(t *testing.T) {
	r := NewDefaultRegistry()
	m, _ := r.ResolveModifier("substr")
	got := m.Modify(value.StringValue("hello world"), []value.Value{value.IntValue(6), value.IntValue(5)})
	if got.AsString() != "world" {
		t.Errorf("expected world, got %q", got.AsString())
	}
}

func TestRepeatFunction_Invoke(t *testing.T) {
	f := repeatFunction{}
	wrapped := "ab"
	bag := ParameterBag{Values: map[string]value.Value{"times": value.IntValue(3)}}
	out, err := f.Invoke(nil, bag, &wrapped)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "ababab" {
		t.Errorf("expected ababab, got %q", out)
	}
}

func TestJSONFunction_Invoke(t *testing.T) {
	f := jsonFunction{}
	bag := ParameterBag{Values: map[string]value.Value{"value": value.StringValue("hi")}}
	out, err := f.Invoke(nil, bag, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != `"hi"` {
		t.Errorf("expected quoted json string, got %q", out)
	}
}
