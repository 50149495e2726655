package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/sync/singleflight"
)

// Result is a rendered view.
type Result struct {
	Body        []byte
	Format      Format
	ContentType string
	View        Candidate
	Layout      *Candidate
}

// Renderer locates views and layouts and executes them. It is safe for
// concurrent use; per-request state lives in State.
type Renderer struct {
	formats    *Formats
	engines    *Engines
	negotiator *Negotiator
	locator    *Locator
	layouts    *LayoutResolver
	memo       *memo
	watcher    *watcher
	logger     *slog.Logger

	roots         []Root
	dirs          []string
	backup        []string
	layoutDir     string
	defaultLayout string
	strict        bool
	cache         bool
	reload        bool
	debounce      time.Duration

	compiled map[string]compiledTemplate
	group    singleflight.Group
	mu       sync.RWMutex
}

type compiledTemplate struct {
	tmpl Template
	meta map[string]any
}

// New creates a renderer with the built-in formats and engines.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		formats:       NewFormats(),
		engines:       DefaultEngines(),
		logger:        slog.New(slog.DiscardHandler),
		backup:        DefaultBackupSuffixes,
		layoutDir:     DefaultLayoutDir,
		defaultLayout: DefaultLayoutName,
		cache:         true,
		debounce:      defaultWatchDebounce,
		compiled:      make(map[string]compiledTemplate),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.negotiator = NewNegotiator(r.formats, r.strict)
	r.locator = NewLocator(r.formats, r.engines, r.backup, r.logger)
	if r.cache {
		r.memo = newMemo()
		r.locator.withMemo(r.memo)
	}
	r.layouts = NewLayoutResolver(r.locator, r.layoutDir, r.defaultLayout, r.logger)

	if r.reload && len(r.dirs) > 0 {
		w, err := newWatcher(r.dirs, r.debounce, r.Flush, r.logger)
		if err != nil {
			return nil, err
		}
		r.watcher = w
	}

	return r, nil
}

// Formats returns the format registry.
func (r *Renderer) Formats() *Formats {
	return r.formats
}

// Engines returns the engine registry.
func (r *Renderer) Engines() *Engines {
	return r.engines
}

// Roots returns the default view roots.
func (r *Renderer) Roots() []Root {
	return r.roots
}

// Negotiate selects the format of a route providing the given formats.
func (r *Renderer) Negotiate(provides []Format, accept string) (Format, error) {
	return r.negotiator.Negotiate(provides, accept)
}

// Render locates the named view, executes it and wraps it in its layout.
// Renders started from inside a template reuse the caller's candidate
// lists and skip the layout unless one is requested.
func (r *Renderer) Render(ctx context.Context, st *State, name string, data any, opts ...RenderOption) (*Result, error) {
	start := time.Now()
	if st == nil {
		st = NewState()
	}
	o := applyRenderOptions(opts)

	fr, nested, err := r.frame(st, o)
	if err != nil {
		return nil, err
	}

	view, err := r.locator.Locate(name, fr.formats, fr.locales, fr.roots)
	if err != nil {
		return nil, err
	}

	ct, err := r.compile(view)
	if err != nil {
		return nil, err
	}

	body, err := r.execute(ctx, st, fr, ct, view.Format, data, ct.meta, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", view.ID(), err)
	}

	res := &Result{Body: body, Format: view.Format, ContentType: r.formats.ContentType(view.Format), View: view}
	if !nested || o.layout != nil {
		if err := r.wrap(ctx, st, fr, o, res, data, ct.meta); err != nil {
			return nil, err
		}
	}

	r.logger.DebugContext(ctx, "view rendered",
		slog.String("view", view.ID()),
		slog.String("layout", layoutID(res.Layout)),
		slog.String("format", res.Format.String()),
		slog.Int("depth", st.Depth()),
		slog.Duration("duration", time.Since(start)),
	)

	return res, nil
}

// RenderInline compiles src with the engine registered for ext and renders
// it like a view file, layout included.
func (r *Renderer) RenderInline(ctx context.Context, st *State, ext, src string, data any, opts ...RenderOption) (*Result, error) {
	if st == nil {
		st = NewState()
	}
	o := applyRenderOptions(opts)

	engine, ok := r.engines.Lookup(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, ext)
	}

	meta, body, err := splitFrontmatter([]byte(src))
	if err != nil {
		return nil, err
	}
	tmpl, err := engine.Compile(Source{Body: string(body), Meta: meta})
	if err != nil {
		return nil, err
	}

	fr, nested, err := r.frame(st, o)
	if err != nil {
		return nil, err
	}
	format := fr.formats[0]

	out, err := r.execute(ctx, st, fr, compiledTemplate{tmpl: tmpl, meta: meta}, format, data, meta, nil)
	if err != nil {
		return nil, fmt.Errorf("inline: %w", err)
	}

	res := &Result{
		Body:        out,
		Format:      format,
		ContentType: r.formats.ContentType(format),
		View:        Candidate{Name: "inline", Format: format, Locale: fr.locales[0], Ext: ext},
	}
	if !nested || o.layout != nil {
		if err := r.wrap(ctx, st, fr, o, res, data, meta); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// RenderComponent renders a templ component as an html view and wraps it
// in its layout.
func (r *Renderer) RenderComponent(ctx context.Context, st *State, c templ.Component, opts ...RenderOption) (*Result, error) {
	if st == nil {
		st = NewState()
	}
	o := applyRenderOptions(opts)
	if o.format == "" {
		o.format = HTML
	}

	fr, _, err := r.frame(st, o)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("%w: component: %v", ErrRender, err)
	}

	res := &Result{
		Body:        buf.Bytes(),
		Format:      HTML,
		ContentType: r.formats.ContentType(HTML),
		View:        Candidate{Name: "component", Format: HTML, Locale: fr.locales[0], Ext: "templ"},
	}
	if err := r.wrap(ctx, st, fr, o, res, nil, nil); err != nil {
		return nil, err
	}
	return res, nil
}

// Lookup resolves the view and layout a Render call with the same
// arguments would use, without executing anything.
func (r *Renderer) Lookup(st *State, name string, opts ...RenderOption) (Candidate, *Candidate, error) {
	if st == nil {
		st = NewState()
	}
	o := applyRenderOptions(opts)

	fr, _, err := r.frame(st, o)
	if err != nil {
		return Candidate{}, nil, err
	}
	view, err := r.locator.Locate(name, fr.formats, fr.locales, fr.roots)
	if err != nil {
		return Candidate{}, nil, err
	}
	layout, err := r.layouts.Resolve(st.Scope, o.layout, []Format{view.Format}, fr.locales, fr.roots)
	if err != nil {
		return view, nil, err
	}
	return view, layout, nil
}

// Flush drops memoized lookups and compiled templates.
func (r *Renderer) Flush() {
	r.memo.flush()

	r.mu.Lock()
	clear(r.compiled)
	r.mu.Unlock()

	r.logger.Debug("view caches flushed")
}

// Check reports whether every view root is readable.
func (r *Renderer) Check(ctx context.Context) error {
	if len(r.roots) == 0 {
		return ErrNoRoots
	}
	for _, root := range r.roots {
		if err := checkRoot(ctx, root); err != nil {
			return err
		}
	}
	return nil
}

// RootChecks returns one readiness check per default view root, keyed by
// root name.
func (r *Renderer) RootChecks() map[string]func(context.Context) error {
	checks := make(map[string]func(context.Context) error, len(r.roots))
	for _, root := range r.roots {
		checks[root.Name] = func(ctx context.Context) error {
			return checkRoot(ctx, root)
		}
	}
	return checks
}

func checkRoot(ctx context.Context, root Root) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := fs.Stat(root.FS, "."); err != nil {
		return fmt.Errorf("view root %s: %w", root.Name, err)
	}
	return nil
}

// Close stops the file watcher.
func (r *Renderer) Close() error {
	if r.watcher == nil {
		return nil
	}
	return r.watcher.close()
}

// frame resolves the candidate lists for a render call. Top-level calls
// derive them from the state; nested calls inherit the enclosing frame
// unless options override parts of it.
func (r *Renderer) frame(st *State, o renderOptions) (frame, bool, error) {
	parent, nested := st.current()

	var fr frame
	switch {
	case o.format != "":
		formats, err := r.negotiator.ResolveFormats(o.format, nil, "", "")
		if err != nil {
			return frame{}, nested, err
		}
		fr.formats = formats
	case nested:
		fr.formats = parent.formats
	default:
		formats, err := r.negotiator.ResolveFormats("", nil, "", st.Format)
		if err != nil {
			return frame{}, nested, err
		}
		fr.formats = formats
	}

	switch {
	case o.locale != nil:
		fr.locales = ResolveLocales(*o.locale)
	case nested:
		fr.locales = parent.locales
	default:
		fr.locales = ResolveLocales(st.Locale)
	}

	switch {
	case len(o.roots) > 0:
		fr.roots = o.roots
	case nested:
		fr.roots = parent.roots
	default:
		fr.roots = r.roots
	}

	return fr, nested, nil
}

// execute runs a compiled template with fr pushed on the state. The output
// goes to a buffer owned by this call.
func (r *Renderer) execute(ctx context.Context, st *State, fr frame, ct compiledTemplate, format Format, data any, meta map[string]any, content []byte) ([]byte, error) {
	scope := &Scope{
		ctx:     ctx,
		Data:    data,
		Meta:    meta,
		Format:  format,
		Locale:  fr.locales[0],
		content: string(content),
	}
	scope.render = func(name string, d any) (string, error) {
		res, err := r.Render(ctx, st, name, d)
		if err != nil {
			return "", err
		}
		return string(res.Body), nil
	}

	st.push(fr)
	defer st.pop()

	var buf bytes.Buffer
	if err := ct.tmpl.Execute(&buf, scope); err != nil {
		if errors.Is(err, ErrRender) || errors.Is(err, ErrTemplateNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// wrap resolves the layout for res and executes it with res.Body as yield.
// Layouts are located with the view's format only.
func (r *Renderer) wrap(ctx context.Context, st *State, fr frame, o renderOptions, res *Result, data any, viewMeta map[string]any) error {
	layout, err := r.layouts.Resolve(st.Scope, o.layout, []Format{res.Format}, fr.locales, fr.roots)
	if err != nil || layout == nil {
		return err
	}

	ct, err := r.compile(*layout)
	if err != nil {
		return err
	}

	meta := make(map[string]any, len(ct.meta)+len(viewMeta))
	maps.Copy(meta, ct.meta)
	maps.Copy(meta, viewMeta)

	body, err := r.execute(ctx, st, fr, ct, res.Format, data, meta, res.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", layout.ID(), err)
	}

	res.Body = body
	res.Layout = layout
	return nil
}

// compile returns the compiled template for c, reading and compiling it
// once per candidate while caching is enabled.
func (r *Renderer) compile(c Candidate) (compiledTemplate, error) {
	if !r.cache {
		return r.load(c)
	}

	key, ok := r.locator.cacheKey(c)
	if !ok {
		return r.load(c)
	}
	r.mu.RLock()
	ct, ok := r.compiled[key]
	r.mu.RUnlock()
	if ok {
		return ct, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		ct, err := r.load(c)
		if err != nil {
			return compiledTemplate{}, err
		}
		r.mu.Lock()
		r.compiled[key] = ct
		r.mu.Unlock()
		return ct, nil
	})
	if err != nil {
		return compiledTemplate{}, err
	}
	return v.(compiledTemplate), nil
}

func (r *Renderer) load(c Candidate) (compiledTemplate, error) {
	engine, ok := r.engines.Lookup(c.Ext)
	if !ok {
		return compiledTemplate{}, fmt.Errorf("%w: %q", ErrUnknownEngine, c.Ext)
	}

	content, err := fs.ReadFile(c.FS, c.Path)
	if err != nil {
		return compiledTemplate{}, fmt.Errorf("%w: %s: %v", ErrCompile, c.ID(), err)
	}

	meta, body, err := splitFrontmatter(content)
	if err != nil {
		return compiledTemplate{}, fmt.Errorf("%s: %w", c.ID(), err)
	}

	tmpl, err := engine.Compile(Source{FS: c.FS, Path: c.Path, Body: string(body), Meta: meta})
	if err != nil {
		return compiledTemplate{}, err
	}

	return compiledTemplate{tmpl: tmpl, meta: meta}, nil
}

func applyRenderOptions(opts []RenderOption) renderOptions {
	var o renderOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func layoutID(c *Candidate) string {
	if c == nil {
		return ""
	}
	return c.ID()
}
