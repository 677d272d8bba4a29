// Package block implements Block (spec.md §3, §4.2): a parsed node in
// the template tree, and the marker-driven parser that produces it.
//
// The parser's recursive-descent shape (a cursor over an input stream,
// dispatching on the next token's kind) is grounded on teacher's
// parser.Parser (parser/parser.go); the per-marker-type switch inside
// parseBlock plays the same role as teacher's node-type switch in
// compiler.Compiler.compileNode (compiler/compiler.go).
package block

import (
	"regexp"

	"github.com/codingersid/blocktemplate/segment"
	"github.com/codingersid/blocktemplate/value"
)

// Type is the kind of parsed node (spec.md §3).
type Type int

const (
	Root Type = iota
	Start
	Wrapper
	Template
	Use
	Recursion
)

func (t Type) String() string {
	switch t {
	case Root:
		return "Root"
	case Start:
		return "Start"
	case Wrapper:
		return "Wrapper"
	case Template:
		return "Template"
	case Use:
		return "Use"
	case Recursion:
		return "Recursion"
	default:
		return "Unknown"
	}
}

// EntryKind distinguishes the two shapes a Block.Structure entry takes.
type EntryKind int

const (
	EntrySegment EntryKind = iota
	EntryChildSlot
)

// StructureEntry is one ordered item of a Block's rendered structure.
type StructureEntry struct {
	Kind EntryKind

	Segment *segment.CompiledSegment // EntrySegment

	ChildName string // EntryChildSlot
}

// Block is a parsed node in the template tree (spec.md §3). Immutable
// after parse. Use/Recursion blocks are thin back-edges: Target points
// non-owningly at the ancestor (or named-template) Block they refer to,
// and carry no Structure/Children of their own.
type Block struct {
	Name      string
	Type      Type
	Path      string
	Structure []StructureEntry
	Children  map[string]*Block
	Readonly  bool

	// Params holds block-scope parameters, the third rung of the scope
	// chain (spec.md §4.7 step 2). Use/Recursion blocks are back-edges
	// and carry no Params of their own (nil) — lookups on them fall
	// straight through to Source/Template scope, since the real scope
	// lives on Target.
	Params *value.Store

	// Target is set only for Type == Use or Type == Recursion: the
	// ancestor (or registered named template) Block this slot defers
	// to. Go's garbage collector makes the arena-of-indices technique
	// spec.md §9 suggests for non-GC languages unnecessary here — a
	// plain pointer back-edge cannot leak or dangle.
	Target *Block
}

// NewBlock constructs a Block of the given kind with an initialized
// Params store and Children map.
func NewBlock(name string, typ Type, path string) *Block {
	return &Block{
		Name:     name,
		Type:     typ,
		Path:     path,
		Children: map[string]*Block{},
		Readonly: typ == Template,
		Params:   value.NewStore(),
	}
}

// identifierPattern is spec.md §6's verbatim name constraint:
// "^[A-Za-z_][A-Za-z0-9_-]*[^-]$" (no trailing hyphen). Replicated
// exactly, including its ambiguous treatment of length-2 names (spec.md
// §9 Open Questions: implementers should replicate the regex verbatim
// rather than infer intent).
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*[^-]$`)

// ValidName reports whether name satisfies the block/child identifier
// grammar (spec.md §4.2 rule 1, §6).
func ValidName(name string) bool {
	return identifierPattern.MatchString(name)
}
