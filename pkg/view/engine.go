package view

import (
	"context"
	"io"
	"io/fs"
	"slices"
	"strings"
	"sync"
)

// Source is a template ready for compilation. FS and Path are empty for
// inline sources.
type Source struct {
	FS   fs.FS
	Path string
	Body string
	Meta map[string]any
}

// Engine compiles template sources of one file extension.
type Engine interface {
	Compile(src Source) (Template, error)
}

// Template is a compiled template. Execute must be safe for concurrent use.
type Template interface {
	Execute(w io.Writer, s *Scope) error
}

// Scope is what a template sees during one execution.
type Scope struct {
	ctx     context.Context
	Data    any
	Meta    map[string]any
	Format  Format
	Locale  Locale
	content string
	render  func(name string, data any) (string, error)
}

// Context returns the render call's context.
func (s *Scope) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// Yield returns the wrapped view output. It is empty outside layouts.
func (s *Scope) Yield() string {
	return s.content
}

// Render renders another view without a layout into its own buffer.
// The current data is passed on when data is omitted.
func (s *Scope) Render(name string, data ...any) (string, error) {
	if s.render == nil {
		return "", ErrRender
	}
	d := s.Data
	if len(data) > 0 {
		d = data[0]
	}
	return s.render(name, d)
}

// Engines maps file extensions to engines. Lookup order follows
// registration order. It is safe for concurrent use.
type Engines struct {
	byExt map[string]Engine
	order []string
	mu    sync.RWMutex
}

// NewEngines creates an empty registry.
func NewEngines() *Engines {
	return &Engines{byExt: make(map[string]Engine)}
}

// DefaultEngines creates a registry with the built-in engines:
// tmpl (html/template), gotext (text/template), md (markdown) and sgo (scriggo).
func DefaultEngines() *Engines {
	e := NewEngines()
	e.Register("tmpl", NewHTMLEngine())
	e.Register("gotext", NewTextEngine())
	e.Register("md", NewMarkdownEngine())
	e.Register("sgo", NewScriggoEngine())
	return e
}

// Register binds an engine to an extension, replacing any previous binding
// while keeping its position.
func (e *Engines) Register(ext string, engine Engine) {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" || engine == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.byExt[ext]; !ok {
		e.order = append(e.order, ext)
	}
	e.byExt[ext] = engine
}

// Lookup returns the engine for an extension.
func (e *Engines) Lookup(ext string) (Engine, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	engine, ok := e.byExt[strings.ToLower(ext)]
	return engine, ok
}

// Has reports whether an engine is registered for ext.
func (e *Engines) Has(ext string) bool {
	_, ok := e.Lookup(ext)
	return ok
}

// Exts returns registered extensions in registration order.
func (e *Engines) Exts() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.order)
}
