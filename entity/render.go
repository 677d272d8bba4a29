package entity

import (
	"strings"

	"github.com/codingersid/blocktemplate/block"
	"github.com/codingersid/blocktemplate/errs"
	"github.com/codingersid/blocktemplate/expr"
	"github.com/codingersid/blocktemplate/plugin"
	"github.com/codingersid/blocktemplate/segment"
	"github.com/codingersid/blocktemplate/value"
)

// Render walks e.BlockRef's Structure, rendering each literal segment
// and child-block slot in order (spec.md §4.6).
func (e *Entity) Render() (string, error) {
	var sb strings.Builder
	for _, entry := range e.BlockRef.Structure {
		switch entry.Kind {
		case block.EntrySegment:
			out, err := e.RenderSegment(entry.Segment)
			if err != nil {
				return "", err
			}
			sb.WriteString(out)
		case block.EntryChildSlot:
			for _, child := range e.Children(entry.ChildName) {
				out, err := child.Render()
				if err != nil {
					return "", err
				}
				sb.WriteString(out)
			}
		}
	}
	return sb.String(), nil
}

// RenderSegment renders one CompiledSegment in e's scope, per spec.md
// §4.6 step 2: a function-tag pass over the literal text, then a
// variable-tag pass over the result. Segments with no function tags
// skip straight to resolving each precompiled VarRef token's
// Alternatives (the common case, and the reason CompiledSegment
// precompiles them at all); segments with function tags fall back to
// reconstructing the full text and re-scanning dynamically, since a
// function tag's output may introduce variable tags that did not exist
// at compile time.
func (e *Entity) RenderSegment(cs *segment.CompiledSegment) (string, error) {
	if !cs.HasFunctionTags {
		var sb strings.Builder
		for _, tok := range cs.Tokens {
			if tok.Kind == segment.TokenLiteral {
				sb.WriteString(tok.Literal)
				continue
			}
			sb.WriteString(e.resolveAlternatives(tok.Alternatives))
		}
		return sb.String(), nil
	}

	processed, err := e.renderFunctionTags(cs.Text())
	if err != nil {
		return "", err
	}
	return e.renderVarTags(processed), nil
}

// ParseText implements plugin.EntityHandle's re-entrant rendering hook
// (spec.md §6): a plugin may call this on text it owns (e.g. its own
// wrapped body) to run both render passes over it in this Entity's
// scope.
func (e *Entity) ParseText(text string) (string, error) {
	processed, err := e.renderFunctionTags(text)
	if err != nil {
		return "", err
	}
	return e.renderVarTags(processed), nil
}

// renderVarTags dynamically re-scans text for "{$...}" occurrences and
// resolves each one, without relying on precompiled tokens (used for
// segments/text that may contain function-tag output not present at
// compile time).
func (e *Entity) renderVarTags(text string) string {
	var sb strings.Builder
	i := 0
	for i < len(text) {
		if !hasPrefixAt(text, i, "{$") {
			sb.WriteByte(text[i])
			i++
			continue
		}
		close, ok := segment.FindTagClose(text, i+2)
		if !ok {
			sb.WriteByte(text[i])
			i++
			continue
		}
		interior := text[i+1 : close]
		sb.WriteString(e.resolveAlternatives(expr.ParseTag(interior)))
		i = close + 1
	}
	return sb.String()
}

func (e *Entity) resolveAlternatives(alts []expr.VarExpression) string {
	for _, alt := range alts {
		v := e.resolveAlternative(alt)
		if !v.IsEmptyAfterStringify() {
			return v.Stringify()
		}
	}
	return ""
}

func (e *Entity) resolveAlternative(alt expr.VarExpression) value.Value {
	switch alt.Kind {
	case expr.AltVariable:
		calls := make([]plugin.ModifierCall, len(alt.Modifiers))
		for i, m := range alt.Modifiers {
			calls[i] = plugin.ModifierCall{Name: m.Name, Args: argsToValues(m.Args)}
		}
		return e.GetValue(alt.Name, alt.Path, calls)
	case expr.AltBool:
		return value.BoolValue(alt.BoolLit)
	case expr.AltNumber:
		if alt.IsFloat {
			return value.FloatValue(alt.FloatLit)
		}
		return value.IntValue(alt.IntLit)
	case expr.AltString:
		return value.StringValue(alt.StringLit)
	default:
		return value.NullValue()
	}
}

func argsToValues(args []expr.Arg) []value.Value {
	out := make([]value.Value, len(args))
	for i, a := range args {
		switch a.Kind {
		case expr.AltNumber:
			if a.IsFloat {
				out[i] = value.FloatValue(a.Float)
			} else {
				out[i] = value.IntValue(a.Int)
			}
		case expr.AltBool:
			out[i] = value.BoolValue(a.Ident == "true")
		default:
			out[i] = value.StringValue(a.Str)
		}
	}
	return out
}

func hasPrefixAt(s string, i int, prefix string) bool {
	return i+len(prefix) <= len(s) && s[i:i+len(prefix)] == prefix
}

// renderFunctionTags scans text for "{@NAME ARGS}" / "{/NAME}" pairs at
// render time (spec.md §4.5: "discovered during rendering, not parse").
// Unknown plugin names leave the opening tag's literal text unchanged
// (spec.md §7's permissive policy); a PluginInvocationError from a
// resolved plugin aborts the render.
func (e *Entity) renderFunctionTags(text string) (string, error) {
	var sb strings.Builder
	i := 0
	for i < len(text) {
		if !hasPrefixAt(text, i, "{@") {
			sb.WriteByte(text[i])
			i++
			continue
		}

		name, argsStart := expr.ScanIdent(text, i+2)
		if name == "" {
			sb.WriteByte(text[i])
			i++
			continue
		}
		closeIdx, ok := expr.ScanBraceClose(text, argsStart)
		if !ok {
			sb.WriteByte(text[i])
			i++
			continue
		}
		argsText := strings.TrimSpace(text[argsStart:closeIdx])
		tagEnd := closeIdx + 1

		fn, ok := e.resolver2ResolveFunction(name)
		if !ok {
			sb.WriteString(text[i:tagEnd])
			i = tagEnd
			continue
		}

		var wrapped *string
		consumedEnd := tagEnd
		if fn.EncloseContent() {
			body, afterClose, found := findMatchingClose(text, tagEnd, name)
			if !found {
				// No matching closer: degrade to leaving the opening
				// tag literally, per the permissive unknown-tag policy.
				sb.WriteString(text[i:tagEnd])
				i = tagEnd
				continue
			}
			resolvedBody, err := e.renderFunctionTags(body)
			if err != nil {
				return "", err
			}
			wrapped = &resolvedBody
			consumedEnd = afterClose
		}

		bag := shapeParameterBag(e, fn, argsText)
		out, err := fn.Invoke(e, bag, wrapped)
		if err != nil {
			return "", errs.Wrap(errs.PluginInvocationError, name, err)
		}
		sb.WriteString(out)
		i = consumedEnd
	}
	return sb.String(), nil
}

func (e *Entity) resolver2ResolveFunction(name string) (plugin.FunctionPlugin, bool) {
	if e.resolver == nil {
		return nil, false
	}
	return e.resolver.ResolveFunction(name)
}

// findMatchingClose finds the "{/name}" that closes the "{@name ...}"
// opening whose args ended at from, tracking same-named nested openings
// on a depth counter (spec.md §4.5 "nested same-named openings tracked
// on a stack").
func findMatchingClose(s string, from int, name string) (wrapped string, afterClose int, ok bool) {
	depth := 1
	openMarker := "{@" + name
	closeMarker := "{/" + name + "}"

	i := from
	for i < len(s) {
		if strings.HasPrefix(s[i:], closeMarker) {
			depth--
			if depth == 0 {
				return s[from:i], i + len(closeMarker), true
			}
			i += len(closeMarker)
			continue
		}
		if strings.HasPrefix(s[i:], openMarker) {
			nb := i + len(openMarker)
			if nb >= len(s) || s[nb] == ' ' || s[nb] == '\t' || s[nb] == '}' {
				end, okEnd := expr.ScanBraceClose(s, nb)
				if !okEnd {
					return "", 0, false
				}
				depth++
				i = end + 1
				continue
			}
		}
		i++
	}
	return "", 0, false
}

// shapeParameterBag builds a plugin.ParameterBag from a function tag's
// raw argument text, per spec.md §4.5's three ARGS shapes plus the
// leading ":flag:args" and bypass_parser escape hatches.
func shapeParameterBag(e *Entity, fn plugin.FunctionPlugin, rawArgs string) plugin.ParameterBag {
	if fn.BypassParser() {
		return plugin.ParameterBag{RawText: rawArgs}
	}

	parsed := expr.ParseFunctionArgs(rawArgs)
	bag := plugin.ParameterBag{Flags: parsed.Flags}

	params := fn.Parameters()
	values := make(map[string]value.Value, len(params))
	for _, p := range params {
		values[p.Name] = p.Default
	}

	switch parsed.Shape {
	case expr.ShapePositional:
		for i, arg := range parsed.Positional {
			if i >= len(params) {
				break // extra values are ignored (spec.md §4.5 shape 2)
			}
			values[params[i].Name] = altToValue(e, arg)
		}
	case expr.ShapeKeyword:
		var extended map[string]value.Value
		for _, kw := range parsed.Keyword {
			if declared(params, kw.Name) {
				values[kw.Name] = altToValue(e, kw.Value)
				continue
			}
			if fn.ExtendedParameter() {
				if extended == nil {
					extended = make(map[string]value.Value)
				}
				extended[kw.Name] = altToValue(e, kw.Value)
			}
			// else: unknown keyword name is ignored (spec.md §4.5 shape 3)
		}
		bag.Extended = extended
	}

	bag.Values = values
	return bag
}

func declared(params []plugin.ParamDef, name string) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func altToValue(e *Entity, ve expr.VarExpression) value.Value {
	switch ve.Kind {
	case expr.AltVariable:
		return e.resolveAlternative(ve)
	case expr.AltBool:
		return value.BoolValue(ve.BoolLit)
	case expr.AltNumber:
		if ve.IsFloat {
			return value.FloatValue(ve.FloatLit)
		}
		return value.IntValue(ve.IntLit)
	case expr.AltString:
		return value.StringValue(ve.StringLit)
	default:
		return value.NullValue()
	}
}

var _ plugin.EntityHandle = (*Entity)(nil)
