// Package template implements the Template manager façade (spec.md
// §4.9): template-scope parameters, a named-template registry, the
// injected plugin resolver, a mtime-keyed Source cache, and the render
// queue used for batched output.
//
// Grounded on teacher's engine.Engine (engine/engine.go): a
// functional-options constructor wrapping a views directory, a cache,
// and a shared-data store. LoadFile plays the role of teacher's
// getTemplate/compileFile; Queue/OutputQueue replace the teacher's
// section-merging @extends machinery (spec.md's grammar has no template
// inheritance) with the simpler batched-render queue spec.md §4.9
// actually describes.
package template

import (
	"fmt"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/codingersid/blocktemplate/block"
	"github.com/codingersid/blocktemplate/entity"
	"github.com/codingersid/blocktemplate/plugin"
	"github.com/codingersid/blocktemplate/segment"
	"github.com/codingersid/blocktemplate/source"
	"github.com/codingersid/blocktemplate/value"
)

// Engine is the template manager façade (spec.md §4.9).
type Engine struct {
	fs       afero.Fs
	resolver plugin.Resolver
	cache    *segment.Cache
	logger   *zap.SugaredLogger

	params *value.Store

	mu    sync.RWMutex
	named map[string]*block.Block

	cacheMu    sync.Mutex
	sourceByPath map[string]*cachedSource

	queueMu sync.Mutex
	queue   map[string][]*source.Source
	order   []string // section insertion order
}

type cachedSource struct {
	src   *source.Source
	mtime int64
}

// Option configures an Engine, mirroring teacher's Option pattern in
// engine/engine.go.
type Option func(*Engine)

// WithFS overrides the filesystem templates are loaded from (default:
// the OS filesystem). Tests use afero.NewMemMapFs().
func WithFS(fs afero.Fs) Option {
	return func(e *Engine) { e.fs = fs }
}

// WithResolver injects the plugin dispatch contract (spec.md §4.8). A
// nil resolver (the default) means no modifier/function ever resolves.
func WithResolver(r plugin.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithSegmentCache overrides the CompiledSegment cache Sources compile
// literal runs into (default: a fresh cache created by New for this
// Engine, not the process-wide default cache).
func WithSegmentCache(c *segment.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithLogger attaches a *zap.Logger (used through its SugaredLogger) for
// diagnostics: LoadFile logs parse failures at Debug before returning
// them. Ignored includes and unknown plugins are not logged.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.Sugar()
		}
	}
}

// New builds a Template manager with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		fs:           afero.NewOsFs(),
		cache:        segment.NewCache(),
		params:       value.NewStore(),
		named:        make(map[string]*block.Block),
		sourceByPath: make(map[string]*cachedSource),
		queue:        make(map[string][]*source.Source),
		logger:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assign binds name to v at template scope, the outermost rung of the
// scope chain (spec.md §4.7 step 2 "resolve in the Template manager
// scope").
func (e *Engine) Assign(name string, v value.Value) {
	e.params.Set(name, v)
}

// Bind stores a lazily-dereferenced reference to an external scope
// location at template scope (spec.md §9 "bind").
func (e *Engine) Bind(name, scope, targetName string) {
	e.params.Set(name, value.RefValue(scope, targetName))
}

// RegisterNamedTemplate makes blk discoverable by any USE block whose
// ancestor walk fails to find the template name locally (spec.md §4.2
// rule 7, §4.9 "register_named_template").
func (e *Engine) RegisterNamedTemplate(name string, blk *block.Block) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.named[name] = blk
}

// LookupNamedTemplate implements block.NamedTemplateLookup.
func (e *Engine) LookupNamedTemplate(name string) (*block.Block, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.named[name]
	return b, ok
}

// LoadFile parses the file at path into a Source, caching by the path
// string as given (not cleaned or made absolute) and modification time
// so an unchanged file is parsed once
// (spec.md §4.9 "load_file(path) -> Source (may cache by resolved path
// + mtime)").
func (e *Engine) LoadFile(path string) (*source.Source, error) {
	mtime := e.statModTime(path)

	e.cacheMu.Lock()
	if cs, ok := e.sourceByPath[path]; ok && cs.mtime == mtime {
		e.cacheMu.Unlock()
		return cs.src, nil
	}
	e.cacheMu.Unlock()

	src, err := source.Load(e.fs, path, e, e.cache)
	if err != nil {
		e.logger.Debugw("template parse failed", "path", path, "error", err)
		return nil, err
	}

	e.cacheMu.Lock()
	e.sourceByPath[path] = &cachedSource{src: src, mtime: mtime}
	e.cacheMu.Unlock()

	return src, nil
}

// Forget evicts path from the mtime-keyed Source cache, forcing the
// next LoadFile call to re-parse it regardless of mtime (used by
// webview.Engine's Reload development mode).
func (e *Engine) Forget(path string) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	delete(e.sourceByPath, path)
}

func (e *Engine) statModTime(path string) int64 {
	info, err := e.fs.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().UnixNano()
}

// RootEntity constructs the root Entity owned by src, wired to this
// Engine's template-scope Store and plugin resolver (spec.md §3 "the
// root Entity is owned by the Source").
func (e *Engine) RootEntity(src *source.Source) *entity.Entity {
	return entity.NewRoot(src.Root, "", src.Params, e.params, e.resolver)
}

// Queue appends src to section's render queue (default section "" when
// empty), preserving insertion order (spec.md §4.9 "queue(Source,
// section?)").
func (e *Engine) Queue(src *source.Source, section string) {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	if _, ok := e.queue[section]; !ok {
		e.order = append(e.order, section)
	}
	e.queue[section] = append(e.queue[section], src)
}

// OutputQueue renders every queued Source exactly once, concatenating
// each section's Sources in insertion order, and empties the queue
// (spec.md §4.9 "each Source renders exactly once per call").
func (e *Engine) OutputQueue() (map[string]string, error) {
	e.queueMu.Lock()
	sections := e.queue
	order := e.order
	e.queue = make(map[string][]*source.Source)
	e.order = nil
	e.queueMu.Unlock()

	out := make(map[string]string, len(sections))
	for _, section := range order {
		var sb []byte
		for _, src := range sections[section] {
			root := e.RootEntity(src)
			text, err := root.Render()
			if err != nil {
				return nil, fmt.Errorf("render section %q: %w", section, err)
			}
			sb = append(sb, text...)
		}
		out[section] = string(sb)
	}
	return out, nil
}

var _ block.NamedTemplateLookup = (*Engine)(nil)
