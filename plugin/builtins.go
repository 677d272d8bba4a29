package plugin

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/codingersid/blocktemplate/value"
)

// registerBuiltinModifiers wires the subset of teacher's
// DefaultFunctions() string table (engine/functions.go: trim, upper,
// lower, substr, limit, join) that reads naturally as ModifierPlugins
// — single value in, single value out.
func registerBuiltinModifiers(r *Registry) {
	r.RegisterModifier("trim", ModifierFunc(func(v value.Value, _ []value.Value) value.Value {
		return value.StringValue(strings.TrimSpace(v.Stringify()))
	}))
	r.RegisterModifier("upper", ModifierFunc(func(v value.Value, _ []value.Value) value.Value {
		return value.StringValue(strings.ToUpper(v.Stringify()))
	}))
	r.RegisterModifier("lower", ModifierFunc(func(v value.Value, _ []value.Value) value.Value {
		return value.StringValue(strings.ToLower(v.Stringify()))
	}))
	r.RegisterModifier("substr", ModifierFunc(modifySubstr))
	r.RegisterModifier("limit", ModifierFunc(modifyLimit))
	r.RegisterModifier("join", ModifierFunc(modifyJoin))
}

func modifySubstr(v value.Value, args []value.Value) value.Value {
	runes := []rune(v.Stringify())
	start := argInt(args, 0, 0)
	if start < 0 {
		start = len(runes) + start
	}
	if start < 0 {
		start = 0
	}
	if start >= len(runes) {
		return value.StringValue("")
	}
	end := len(runes)
	if n, ok := argIntOK(args, 1); ok && n >= 0 && start+n < end {
		end = start + n
	}
	return value.StringValue(string(runes[start:end]))
}

func modifyLimit(v value.Value, args []value.Value) value.Value {
	runes := []rune(v.Stringify())
	n := argInt(args, 0, len(runes))
	if len(runes) <= n {
		return value.StringValue(string(runes))
	}
	suffix := "..."
	if len(args) > 1 {
		suffix = args[1].Stringify()
	}
	return value.StringValue(string(runes[:n]) + suffix)
}

func modifyJoin(v value.Value, args []value.Value) value.Value {
	sep := ","
	if len(args) > 0 {
		sep = args[0].Stringify()
	}
	parts := make([]string, len(v.AsSeq()))
	for i, e := range v.AsSeq() {
		parts[i] = e.Stringify()
	}
	return value.StringValue(strings.Join(parts, sep))
}

func argInt(args []value.Value, i int, def int) int {
	if n, ok := argIntOK(args, i); ok {
		return n
	}
	return def
}

func argIntOK(args []value.Value, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch args[i].Kind() {
	case value.Int:
		return int(args[i].AsInt()), true
	case value.Float:
		return int(args[i].AsFloat()), true
	case value.String:
		n, err := strconv.Atoi(strings.TrimSpace(args[i].AsString()))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// registerBuiltinFunctions wires two sample FunctionPlugins grounded on
// teacher's "repeat" (strings.Repeat) and "json" (jsonEncode) table
// entries (engine/functions.go) — repeat is enclosing and repeats its
// wrapped body "times" times; json is non-enclosing and encodes whatever
// value its "value" parameter is given (a variable reference argument is
// resolved in the calling Entity's scope before Invoke).
func registerBuiltinFunctions(r *Registry) {
	r.RegisterFunction(repeatFunction{})
	r.RegisterFunction(jsonFunction{})
}

type repeatFunction struct{}

func (repeatFunction) Name() string             { return "repeat" }
func (repeatFunction) EncloseContent() bool     { return true }
func (repeatFunction) BypassParser() bool       { return false }
func (repeatFunction) ExtendedParameter() bool  { return false }
func (repeatFunction) Parameters() []ParamDef {
	return []ParamDef{{Name: "times", Default: value.IntValue(1)}}
}

func (repeatFunction) Invoke(_ EntityHandle, bag ParameterBag, wrapped *string) (string, error) {
	n := int(bag.Get("times").AsInt())
	if n < 0 {
		n = 0
	}
	body := ""
	if wrapped != nil {
		body = *wrapped
	}
	return strings.Repeat(body, n), nil
}

type jsonFunction struct{}

func (jsonFunction) Name() string            { return "json" }
func (jsonFunction) EncloseContent() bool    { return false }
func (jsonFunction) BypassParser() bool      { return false }
func (jsonFunction) ExtendedParameter() bool { return false }
func (jsonFunction) Parameters() []ParamDef {
	return []ParamDef{{Name: "value", Default: value.NullValue()}}
}

func (jsonFunction) Invoke(entity EntityHandle, bag ParameterBag, _ *string) (string, error) {
	v := bag.Get("value")
	raw, err := json.Marshal(toJSONable(v))
	if err != nil {
		return "", err
	}
	_ = entity
	return string(raw), nil
}

func toJSONable(v value.Value) interface{} {
	switch v.Kind() {
	case value.Bool:
		return v.AsBool()
	case value.Int:
		return v.AsInt()
	case value.Float:
		return v.AsFloat()
	case value.String:
		return v.AsString()
	case value.Seq:
		out := make([]interface{}, len(v.AsSeq()))
		for i, e := range v.AsSeq() {
			out[i] = toJSONable(e)
		}
		return out
	case value.Map:
		out := make(map[string]interface{}, len(v.AsMap()))
		for k, e := range v.AsMap() {
			out[k] = toJSONable(e)
		}
		return out
	default:
		return nil
	}
}
