// Package webview adapts the Template manager to fiber.Views (spec.md
// §1 lists the HTTP controller/router as an external collaborator; this
// package is the thin seam a Fiber app uses to reach it).
//
// Grounded on teacher's fiber/adapter.go, which duck-typed fiber.Views
// without ever importing the gofiber module. This version imports
// github.com/gofiber/fiber/v2 directly and asserts the interface at
// compile time, wiring the dependency the teacher's package name always
// implied.
package webview

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"

	"github.com/codingersid/blocktemplate/template"
	"github.com/codingersid/blocktemplate/value"
)

// Engine adapts a *template.Engine to fiber.Views.
type Engine struct {
	*template.Engine

	fs        afero.Fs
	directory string
	extension string

	mu     sync.RWMutex
	layout string
	reload bool
}

// New creates a Fiber-compatible view engine rooted at directory,
// matching files with the given extension (default ".tpl"). fs may be
// nil, in which case the OS filesystem is used; it is shared with the
// underlying *template.Engine so Load's directory walk and LoadFile's
// per-request reads agree on what "the filesystem" means.
func New(fs afero.Fs, directory string, extension string, opts ...template.Option) *Engine {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	ext := extension
	if ext == "" {
		ext = ".tpl"
	} else if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	opts = append([]template.Option{template.WithFS(fs)}, opts...)

	return &Engine{
		Engine:    template.New(opts...),
		fs:        fs,
		directory: directory,
		extension: ext,
	}
}

// Layout sets the default layout template name (spec.md has no
// notion of layouts of its own; this is the adapter's own convention,
// the same as teacher's Layout/getLayout pair).
func (e *Engine) Layout(layout string) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.layout = layout
	return e
}

// Reload enables re-parsing a Source on every Render call instead of
// reusing the mtime-keyed cache, mirroring teacher's development mode.
func (e *Engine) Reload(reload bool) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reload = reload
	return e
}

// Load implements fiber.Views: it walks directory compiling every
// template file it finds, surfacing the first structural parse error
// (spec.md §7 "parse errors surface to the caller of load_file").
func (e *Engine) Load() error {
	return afero.Walk(e.fs, e.directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, e.extension) {
			return nil
		}
		_, loadErr := e.Engine.LoadFile(path)
		return loadErr
	})
}

// Render implements fiber.Views: it resolves name to a file path,
// renders its root Entity with bind's fields assigned at entity scope,
// and writes the result to w. An optional layout name wraps the
// rendered content under a "content" binding, the same two-step shape
// as teacher's renderWithLayout.
func (e *Engine) Render(w io.Writer, name string, bind interface{}, layouts ...string) error {
	out, err := e.renderName(name, bind)
	if err != nil {
		return err
	}

	layout := e.resolveLayout(layouts...)
	if layout != "" {
		out, err = e.renderName(layout, withContent(bind, out))
		if err != nil {
			return err
		}
	}

	_, err = io.WriteString(w, out)
	return err
}

func (e *Engine) renderName(name string, bind interface{}) (string, error) {
	path := e.resolvePath(name)

	e.mu.RLock()
	reload := e.reload
	e.mu.RUnlock()

	if reload {
		e.Engine.Forget(path)
	}

	src, err := e.Engine.LoadFile(path)
	if err != nil {
		return "", fmt.Errorf("webview: load %q: %w", name, err)
	}

	root := e.Engine.RootEntity(src)
	for k, v := range toBindMap(bind) {
		root.Assign(k, value.FromAny(v))
	}

	return root.Render()
}

func (e *Engine) resolvePath(name string) string {
	name = strings.ReplaceAll(name, ".", string(filepath.Separator))
	if !strings.HasSuffix(name, e.extension) {
		name += e.extension
	}
	return filepath.Join(e.directory, name)
}

func (e *Engine) resolveLayout(layouts ...string) string {
	if len(layouts) > 0 && layouts[0] != "" {
		return layouts[0]
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.layout
}

func toBindMap(bind interface{}) map[string]interface{} {
	switch b := bind.(type) {
	case map[string]interface{}:
		return b
	case map[string]string:
		out := make(map[string]interface{}, len(b))
		for k, v := range b {
			out[k] = v
		}
		return out
	case nil:
		return nil
	default:
		return map[string]interface{}{"data": b}
	}
}

func withContent(bind interface{}, content string) map[string]interface{} {
	out := toBindMap(bind)
	if out == nil {
		out = make(map[string]interface{}, 1)
	}
	out["content"] = content
	return out
}

var _ fiber.Views = (*Engine)(nil)
