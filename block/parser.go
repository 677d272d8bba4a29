package block

import (
	"strings"

	"github.com/codingersid/blocktemplate/errs"
	"github.com/codingersid/blocktemplate/reader"
	"github.com/codingersid/blocktemplate/segment"
)

// IncludeResolver resolves "<!-- INCLUDE BLOCK: relative/path -->"
// against the owning Source's directory (spec.md §4.2 rule 2).
type IncludeResolver interface {
	Resolve(dir, relPath string) (path string, ok bool)
}

// NamedTemplateLookup is the Template manager's fallback for USE blocks
// whose template name is not found among ancestors (spec.md §4.9
// "register_named_template").
type NamedTemplateLookup interface {
	LookupNamedTemplate(name string) (*Block, bool)
}

// Parser parses a template file into a Block tree (spec.md §4.2).
type Parser struct {
	fr        *reader.FileReader
	dir       string
	includes  IncludeResolver
	named     NamedTemplateLookup
	cache     *segment.Cache
}

// NewParser builds a Parser reading from fr. dir is the owning Source's
// directory, used to resolve relative INCLUDE paths. cache may be nil,
// in which case the process-wide default segment cache is used.
func NewParser(fr *reader.FileReader, dir string, includes IncludeResolver, named NamedTemplateLookup, cache *segment.Cache) *Parser {
	return &Parser{fr: fr, dir: dir, includes: includes, named: named, cache: cache}
}

// ParseRoot parses the root Block of a Source: an unnamed Root block
// that runs to end-of-input rather than a matching END marker.
func (p *Parser) ParseRoot() (*Block, error) {
	root := NewBlock("", Root, "")
	_, err := p.parseBody(root, nil)
	return root, err
}

// parseBody parses lines into blk's Structure/Children until its
// terminating END marker (or end-of-input, for the root). ancestors is
// the chain of enclosing blocks from root down to blk's parent, used by
// RECURSION/USE to walk upward; blk itself is appended before parsing
// children so RECURSION BLOCK: <own-name> resolves to blk itself.
func (p *Parser) parseBody(blk *Block, ancestors []*Block) (closed bool, err error) {
	selfChain := append(append([]*Block{}, ancestors...), blk)

	var literal strings.Builder
	flush := func() {
		if literal.Len() == 0 {
			return
		}
		blk.Structure = append(blk.Structure, StructureEntry{Kind: EntrySegment, Segment: p.compile(literal.String())})
		literal.Reset()
	}

	for {
		line, ok := p.fr.Fetch()
		if !ok {
			flush()
			return false, nil
		}

		m, isMarker := classifyLine(line.Text)
		if !isMarker {
			literal.WriteString(line.Text)
			continue
		}

		switch m.Keyword {
		case KeywordInclude:
			if path, ok := p.includes.Resolve(p.dir, m.Arg); ok {
				if err := p.fr.Prepend(path); err != nil {
					// resolved but unreadable: degrade quietly per the
					// include rule's permissive contract.
					continue
				}
			}
			continue

		case KeywordStart, KeywordTemplate, KeywordWrapper:
			if !ValidName(m.Arg) {
				literal.WriteString(line.Text)
				continue
			}
			if _, exists := blk.Children[m.Arg]; exists {
				return false, errs.New(errs.DuplicateBlock, m.Arg)
			}
			flush()

			childType := Start
			if m.Keyword == KeywordTemplate {
				childType = Template
			} else if m.Keyword == KeywordWrapper {
				childType = Wrapper
			}
			child := NewBlock(m.Arg, childType, joinPath(blk.Path, m.Arg))
			if _, err := p.parseBody(child, selfChain); err != nil {
				return false, err
			}
			blk.Children[m.Arg] = child
			blk.Structure = append(blk.Structure, StructureEntry{Kind: EntryChildSlot, ChildName: m.Arg})

		case KeywordRecursion:
			if !ValidName(m.Arg) {
				literal.WriteString(line.Text)
				continue
			}
			target := findAncestorByName(selfChain, m.Arg)
			if target == nil {
				return false, errs.New(errs.RecursionTargetNotFound, m.Arg)
			}
			if _, exists := blk.Children[m.Arg]; exists {
				return false, errs.New(errs.DuplicateBlock, m.Arg)
			}
			flush()
			blk.Children[m.Arg] = &Block{Name: m.Arg, Type: Recursion, Path: joinPath(blk.Path, m.Arg), Target: target}
			blk.Structure = append(blk.Structure, StructureEntry{Kind: EntryChildSlot, ChildName: m.Arg})

		case KeywordUse:
			if !ValidName(m.Arg) || !ValidName(m.TemplateName) {
				literal.WriteString(line.Text)
				continue
			}
			target := findAncestorTemplateByName(selfChain, m.TemplateName)
			if target == nil && p.named != nil {
				target, _ = p.named.LookupNamedTemplate(m.TemplateName)
			}
			if target == nil {
				return false, errs.New(errs.TemplateNotFound, m.TemplateName)
			}
			if _, exists := blk.Children[m.Arg]; exists {
				return false, errs.New(errs.DuplicateBlock, m.Arg)
			}
			flush()
			blk.Children[m.Arg] = &Block{Name: m.Arg, Type: Use, Path: joinPath(blk.Path, m.Arg), Target: target}
			blk.Structure = append(blk.Structure, StructureEntry{Kind: EntryChildSlot, ChildName: m.Arg})

		case KeywordEnd:
			if !ValidName(m.Arg) {
				literal.WriteString(line.Text)
				continue
			}
			if m.Arg != blk.Name {
				return false, errs.New(errs.MismatchedEnd, m.Arg)
			}
			flush()
			return true, nil
		}
	}
}

func (p *Parser) compile(content string) *segment.CompiledSegment {
	if p.cache != nil {
		return p.cache.Compile(content)
	}
	return segment.Compile(content)
}

// findAncestorByName walks chain from nearest (last) to farthest (first)
// looking for a Block named name, per spec.md §4.2 rule 6.
func findAncestorByName(chain []*Block, name string) *Block {
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Name == name {
			return chain[i]
		}
	}
	return nil
}

// findAncestorTemplateByName walks chain from the immediate parent
// outward looking for a readonly Template block named name, either
// declared as a child of that ancestor or being that ancestor itself
// (spec.md §4.2 rule 7, §4.9's "walks from the immediate parent outward").
func findAncestorTemplateByName(chain []*Block, name string) *Block {
	for i := len(chain) - 1; i >= 0; i-- {
		if c, ok := chain[i].Children[name]; ok && c.Readonly {
			return c
		}
		if chain[i].Readonly && chain[i].Name == name {
			return chain[i]
		}
	}
	return nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
