// Package entity implements Entity (spec.md §3): a runtime instance of
// a Block carrying entity-scope parameters, ordered child-entity lists,
// a lazy value cache, and the four-level scope chain (§4.7). Render is
// implemented in render.go.
//
// Scope-level value storage reuses value.Store (grounded on teacher's
// runtime.Context/runtime.SharedData, runtime/context.go — a
// mutex-guarded map with Get/Set/Has). The enclosing-function-tag
// nesting stack used during render (render.go) is grounded on teacher's
// runtime.LoopStack (runtime/loop.go — Push/Pop/Current/Depth),
// repurposed from loop-iteration metadata to tag-name nesting.
package entity

import (
	"encoding/hex"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/codingersid/blocktemplate/block"
	"github.com/codingersid/blocktemplate/errs"
	"github.com/codingersid/blocktemplate/plugin"
	"github.com/codingersid/blocktemplate/value"
)

// childSlot is the ordered id->Entity mapping behind one child-block
// name (spec.md §3 "children": an ordered mapping from id to Entity").
type childSlot struct {
	order []string
	byID  map[string]*Entity
}

func newChildSlot() *childSlot {
	return &childSlot{byID: make(map[string]*Entity)}
}

type cacheKey struct {
	name string
	path string
}

// Entity is a runtime instance of a Block (spec.md §3).
type Entity struct {
	BlockRef *block.Block
	ID       string
	Parent   *Entity

	Params *value.Store

	// sourceParams/templateParams/resolver are shared across the whole
	// Entity tree rooted at one Source (and the owning Template
	// manager); every child Entity carries the same pointers down so
	// scope-chain resolution (§4.7) can reach Source/Template scope
	// without Entity needing to import package source or template
	// (which would create an import cycle, since those packages
	// construct Entities).
	sourceParams   *value.Store
	templateParams *value.Store
	resolver       plugin.Resolver

	children map[string]*childSlot

	cacheMu sync.Mutex
	cache   map[cacheKey]value.Value

	// linked is set only when BlockRef.Type == block.Wrapper: the
	// shell's own inner same-named child, created on the first
	// new_block call for that name (spec.md §3 "linked_entity").
	linked *Entity
}

// NewRoot constructs the root Entity of a Source (spec.md §3 "the root
// Entity is owned by the Source"). sourceParams/templateParams/resolver
// are shared with every Entity subsequently created under it.
func NewRoot(blockRef *block.Block, id string, sourceParams, templateParams *value.Store, resolver plugin.Resolver) *Entity {
	return &Entity{
		BlockRef:       blockRef,
		ID:             id,
		Params:         value.NewStore(),
		sourceParams:   sourceParams,
		templateParams: templateParams,
		resolver:       resolver,
		children:       make(map[string]*childSlot),
		cache:          make(map[cacheKey]value.Value),
	}
}

func (e *Entity) instantiate(childBlock *block.Block, id string) *Entity {
	effective := childBlock
	if childBlock.Type == block.Recursion || childBlock.Type == block.Use {
		effective = childBlock.Target
	}
	return &Entity{
		BlockRef:       effective,
		ID:             id,
		Parent:         e,
		Params:         value.NewStore(),
		sourceParams:   e.sourceParams,
		templateParams: e.templateParams,
		resolver:       e.resolver,
		children:       make(map[string]*childSlot),
		cache:          make(map[cacheKey]value.Value),
	}
}

func (e *Entity) slotFor(name string) *childSlot {
	s, ok := e.children[name]
	if !ok {
		s = newChildSlot()
		e.children[name] = s
	}
	return s
}

// NewChild creates (or returns the existing) child Entity named name
// with the given id under e, per spec.md §3's child-entity lifecycle
// and the boundary behavior "new_block(name, id) with an existing
// (name, id) returns the existing Entity; does not re-insert" (§8). An
// empty id auto-generates a fresh 32-bit random hex id (§3 "id").
//
// Wrapper delegation (§3 "linked_entity"): when the named child Block
// is a Wrapper, e never creates more than one Wrapper-shell Entity for
// that name — the first call instantiates the shell and (if the
// Wrapper's own Block declares a same-named inner child, the usual
// "<!-- WRAPPER BLOCK: x --> ... <!-- START BLOCK: x --> ... -->"
// shape) immediately creates its first inner Entity, caching it as
// shell.linked; every call after that is forwarded into the shell's own
// NewChild for that name, so the shell renders once while the inner
// block accumulates one Entity per call, in insertion order.
func (e *Entity) NewChild(name, id string) (*Entity, error) {
	childBlock, ok := e.BlockRef.Children[name]
	if !ok {
		return nil, errs.New(errs.InvalidParameterName, name)
	}

	slot := e.slotFor(name)

	if childBlock.Type == block.Wrapper {
		return e.newWrapperChild(name, id, childBlock, slot)
	}

	if id != "" {
		if existing, ok := slot.byID[id]; ok {
			return existing, nil
		}
	} else {
		id = newAutoID()
	}

	child := e.instantiate(childBlock, id)
	slot.order = append(slot.order, id)
	slot.byID[id] = child
	return child, nil
}

func (e *Entity) newWrapperChild(name, id string, childBlock *block.Block, slot *childSlot) (*Entity, error) {
	var shell *Entity
	if len(slot.order) == 0 {
		shellID := id
		if shellID == "" {
			shellID = newAutoID()
		}
		shell = e.instantiate(childBlock, shellID)
		slot.order = append(slot.order, shellID)
		slot.byID[shellID] = shell
	} else {
		shell = slot.byID[slot.order[0]]
	}

	if _, hasInner := childBlock.Children[name]; !hasInner {
		// No same-named inner slot to delegate into: the Wrapper shell
		// itself is the only Entity for this name.
		return shell, nil
	}

	inner, err := shell.NewChild(name, id)
	if err != nil {
		return nil, err
	}
	if shell.linked == nil {
		shell.linked = inner
	}
	return inner, nil
}

// Children returns the ordered Entities instantiated under child-block
// name, in insertion order (spec.md §5 "Ordering").
func (e *Entity) Children(name string) []*Entity {
	slot, ok := e.children[name]
	if !ok {
		return nil
	}
	out := make([]*Entity, len(slot.order))
	for i, id := range slot.order {
		out[i] = slot.byID[id]
	}
	return out
}

// Assign binds name to v in e's own entity-scope parameters, and
// invalidates this Entity's cached resolutions for name (spec.md §4.7
// "Assigning a parameter on an Entity invalidates that Entity's cache
// entries whose key-name matches"). This is deliberately asymmetric:
// Block/Source/Template scope assignment does not cascade into any
// Entity's cache (spec.md §9).
func (e *Entity) Assign(name string, v value.Value) {
	e.Params.Set(name, v)
	e.invalidate(name)
}

// Bind stores a lazily-dereferenced reference to an external scope
// location (spec.md §9 "bind"): later mutations of that location are
// visible at the next uncached lookup.
func (e *Entity) Bind(name, scope, targetName string) {
	e.Assign(name, value.RefValue(scope, targetName))
}

func (e *Entity) invalidate(name string) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	for k := range e.cache {
		if k.name == name {
			delete(e.cache, k)
		}
	}
}

// GetValue resolves name.path through the scope chain and applies
// modifiers, per spec.md §4.7. Implements plugin.EntityHandle.
func (e *Entity) GetValue(name string, path []string, modifiers []plugin.ModifierCall) value.Value {
	key := cacheKey{name: name, path: strings.Join(path, ".")}

	e.cacheMu.Lock()
	if cached, ok := e.cache[key]; ok {
		e.cacheMu.Unlock()
		return e.applyModifiers(cached, modifiers)
	}
	e.cacheMu.Unlock()

	v := e.resolveBinding(name)
	v = e.deref(v)
	for _, seg := range path {
		v = v.Index(seg)
	}

	e.cacheMu.Lock()
	e.cache[key] = v
	e.cacheMu.Unlock()

	return e.applyModifiers(v, modifiers)
}

// resolveBinding walks Entity -> parent Entities -> Block -> Source ->
// Template scope for the first explicit binding of name (spec.md §4.7
// step 2).
func (e *Entity) resolveBinding(name string) value.Value {
	for cur := e; cur != nil; cur = cur.Parent {
		if v, ok := cur.Params.Get(name); ok {
			return v
		}
	}
	if e.BlockRef.Params != nil {
		if v, ok := e.BlockRef.Params.Get(name); ok {
			return v
		}
	}
	if e.sourceParams != nil {
		if v, ok := e.sourceParams.Get(name); ok {
			return v
		}
	}
	if e.templateParams != nil {
		if v, ok := e.templateParams.Get(name); ok {
			return v
		}
	}
	return value.NullValue()
}

// deref resolves a Value::Ref by re-running the scope chain for its
// target name (spec.md §9 "the Ref variant is the bind semantics —
// resolution dereferences at lookup time").
func (e *Entity) deref(v value.Value) value.Value {
	if v.Kind() != value.Ref {
		return v
	}
	ref := v.AsRef()
	return e.resolveBinding(ref.Name)
}

func (e *Entity) applyModifiers(v value.Value, modifiers []plugin.ModifierCall) value.Value {
	if e.resolver == nil {
		return v
	}
	for _, call := range modifiers {
		mod, ok := e.resolver.ResolveModifier(call.Name)
		if !ok {
			continue // unknown modifier: value passes through unchanged (spec.md §7)
		}
		v = mod.Modify(v, call.Args)
	}
	return v
}

// newAutoID returns a 32-bit random hex id (spec.md §3 "id": "caller-
// supplied or auto-generated 32-bit random hex"), truncated from
// uuid.New()'s random bytes rather than a hand-rolled crypto/rand call.
func newAutoID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:4])
}

var _ plugin.EntityHandle = (*Entity)(nil)
