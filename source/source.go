// Package source implements Source (spec.md §3): one parsed template
// file, owning its root Block and source-scope parameters, resolving
// relative INCLUDE paths against its own directory.
//
// Grounded on teacher's per-file compile entry point,
// Engine.compileFile/compileWithInheritance (engine/engine.go) — the
// place where the teacher turns one file on disk into one renderable
// unit, here split into a parse step (block.Parser) plus the scope
// Store and directory bookkeeping Source adds on top.
package source

import (
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/codingersid/blocktemplate/block"
	"github.com/codingersid/blocktemplate/reader"
	"github.com/codingersid/blocktemplate/segment"
	"github.com/codingersid/blocktemplate/value"
)

// Source owns one root Block, its source-scope parameters, and the
// directory relative INCLUDE paths resolve against (spec.md §3).
type Source struct {
	Root *block.Block
	Dir  string
	Path string

	Params *value.Store

	fs afero.Fs
}

// Load parses the file at path (on fs) into a Source. named is the
// Template manager's named-template fallback lookup for USE blocks
// (may be nil); cache is the CompiledSegment cache to compile literal
// runs into (nil uses the process-wide default).
func Load(fs afero.Fs, path string, named block.NamedTemplateLookup, cache *segment.Cache) (*Source, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dir := filepath.Dir(path)

	fr, err := reader.New(fs, path)
	if err != nil {
		return nil, err
	}

	s := &Source{Dir: dir, Path: path, Params: value.NewStore(), fs: fs}
	p := block.NewParser(fr, dir, s, named, cache)
	root, err := p.ParseRoot()
	if err != nil {
		return nil, err
	}
	s.Root = root
	return s, nil
}

// Resolve implements block.IncludeResolver: it joins relPath onto dir
// and reports whether the result exists on the Source's filesystem
// (spec.md §4.2 rule 2 — unresolved paths are silently ignored by the
// caller, not an error here).
func (s *Source) Resolve(dir, relPath string) (string, bool) {
	joined := path.Join(dir, relPath)
	exists, err := afero.Exists(s.fs, joined)
	if err != nil || !exists {
		return "", false
	}
	return joined, true
}
