// Package value implements the tagged union used to carry data through
// scope lookup, variable-tag resolution, and plugin invocation.
package value

import (
	"fmt"
	"strconv"
)

// Kind identifies which field of a Value is live.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	Seq
	Map
	Ref
	Transform
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Seq:
		return "seq"
	case Map:
		return "map"
	case Ref:
		return "ref"
	case Transform:
		return "transform"
	default:
		return "unknown"
	}
}

// RefTarget names an external storage location bound via Entity.Bind.
// Resolution dereferences lazily, at lookup time, so later mutations of
// the bound variable are visible (spec.md §9 "bind").
type RefTarget struct {
	Scope string // which scope the reference was bound from, for diagnostics
	Name  string
}

// TransformFunc receives the current value at assign time and returns the
// value to actually store (spec.md §9 "closure-style assign").
type TransformFunc func(Value) Value

// Value is a tagged union: Null | Bool | Int | Float | String | Seq | Map |
// Ref(scope,name) | Transform(fn).
type Value struct {
	kind Kind

	b bool
	i int64
	f float64
	s string

	seq []Value
	m   map[string]Value

	ref       RefTarget
	transform TransformFunc
}

func (v Value) Kind() Kind { return v.kind }

func NullValue() Value           { return Value{kind: Null} }
func BoolValue(b bool) Value     { return Value{kind: Bool, b: b} }
func IntValue(i int64) Value     { return Value{kind: Int, i: i} }
func FloatValue(f float64) Value { return Value{kind: Float, f: f} }
func StringValue(s string) Value { return Value{kind: String, s: s} }

func SeqValue(items []Value) Value {
	return Value{kind: Seq, seq: items}
}

func MapValue(m map[string]Value) Value {
	return Value{kind: Map, m: m}
}

func RefValue(scope, name string) Value {
	return Value{kind: Ref, ref: RefTarget{Scope: scope, Name: name}}
}

func TransformValue(fn TransformFunc) Value {
	return Value{kind: Transform, transform: fn}
}

func (v Value) IsNull() bool { return v.kind == Null }

func (v Value) AsBool() bool       { return v.b }
func (v Value) AsInt() int64       { return v.i }
func (v Value) AsFloat() float64   { return v.f }
func (v Value) AsString() string   { return v.s }
func (v Value) AsSeq() []Value     { return v.seq }
func (v Value) AsMap() map[string]Value {
	return v.m
}
func (v Value) AsRef() RefTarget          { return v.ref }
func (v Value) AsTransform() TransformFunc { return v.transform }

// Stringify converts a scalar/container value to its textual rendering.
// Null, Ref, and Transform have no direct textual form and stringify to "".
func (v Value) Stringify() string {
	switch v.kind {
	case Null:
		return ""
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case String:
		return v.s
	case Seq, Map:
		return fmt.Sprintf("%v", v.raw())
	default:
		return ""
	}
}

// IsEmptyAfterStringify reports whether Stringify() would yield "".
// This drives the VarRef alternatives rule in spec.md §4.6: "the first
// alternative whose final value is a scalar or stringable and is
// non-empty-after-stringification wins."
func (v Value) IsEmptyAfterStringify() bool {
	if v.kind == Null || v.kind == Ref || v.kind == Transform {
		return true
	}
	return v.Stringify() == ""
}

func (v Value) raw() interface{} {
	switch v.kind {
	case Seq:
		out := make([]interface{}, len(v.seq))
		for i, e := range v.seq {
			out[i] = e.raw()
		}
		return out
	case Map:
		out := make(map[string]interface{}, len(v.m))
		for k, e := range v.m {
			out[k] = e.raw()
		}
		return out
	case Bool:
		return v.b
	case Int:
		return v.i
	case Float:
		return v.f
	case String:
		return v.s
	default:
		return nil
	}
}

// Index applies one dotted path segment to v, per spec.md §4.7 step 4:
// mapping → key lookup, sequence → integer index, anything else → Null.
func (v Value) Index(segment string) Value {
	switch v.kind {
	case Map:
		if e, ok := v.m[segment]; ok {
			return e
		}
		return NullValue()
	case Seq:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(v.seq) {
			return NullValue()
		}
		return v.seq[idx]
	default:
		return NullValue()
	}
}

// FromAny converts a loosely-typed Go value (as received across the
// PluginResolver boundary, or from host-code Assign calls) into a Value.
func FromAny(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return NullValue()
	case Value:
		return t
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case float64:
		return FloatValue(t)
	case string:
		return StringValue(t)
	case []Value:
		return SeqValue(t)
	case map[string]Value:
		return MapValue(t)
	case []interface{}:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromAny(e)
		}
		return SeqValue(out)
	case map[string]interface{}:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = FromAny(e)
		}
		return MapValue(out)
	default:
		return StringValue(fmt.Sprintf("%v", t))
	}
}
