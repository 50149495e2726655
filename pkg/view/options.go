package view

import (
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithRoot appends a view root backed by fsys.
func WithRoot(name string, fsys fs.FS) Option {
	return func(r *Renderer) {
		r.roots = append(r.roots, Root{Name: name, FS: fsys})
	}
}

// WithDir appends a view root on disk. Directories are watched when
// reloading is enabled.
func WithDir(dir string) Option {
	return func(r *Renderer) {
		r.roots = append(r.roots, Root{Name: dir, FS: os.DirFS(dir)})
		r.dirs = append(r.dirs, dir)
	}
}

// WithCustomFormat registers a format and its MIME types.
func WithCustomFormat(format Format, mimeTypes ...string) Option {
	return func(r *Renderer) {
		r.formats.Register(format, mimeTypes...)
	}
}

// WithEngine registers a template engine for a file extension.
func WithEngine(ext string, engine Engine) Option {
	return func(r *Renderer) {
		r.engines.Register(ext, engine)
	}
}

// WithLayoutDir sets the directory layouts are looked up in.
func WithLayoutDir(dir string) Option {
	return func(r *Renderer) {
		r.layoutDir = dir
	}
}

// WithDefaultLayout sets the layout used when no scope declares one.
func WithDefaultLayout(name string) Option {
	return func(r *Renderer) {
		r.defaultLayout = name
	}
}

// WithStrictFormat disables the implicit html fallback.
func WithStrictFormat(strict bool) Option {
	return func(r *Renderer) {
		r.strict = strict
	}
}

// WithBackupSuffixes replaces the file name suffixes that never resolve.
func WithBackupSuffixes(suffixes ...string) Option {
	return func(r *Renderer) {
		r.backup = suffixes
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCache toggles lookup memoization and the compiled template cache.
func WithCache(enabled bool) Option {
	return func(r *Renderer) {
		r.cache = enabled
	}
}

// WithReload watches disk roots and flushes caches when files change.
func WithReload(enabled bool) Option {
	return func(r *Renderer) {
		r.reload = enabled
	}
}

// WithReloadDebounce sets how long the watcher waits for a burst of
// changes to settle.
func WithReloadDebounce(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// WithConfig applies a Config.
func WithConfig(cfg Config) Option {
	return func(r *Renderer) {
		if cfg.Dir != "" {
			WithDir(cfg.Dir)(r)
		}
		if cfg.LayoutDir != "" {
			r.layoutDir = cfg.LayoutDir
		}
		if cfg.DefaultLayout != "" {
			r.defaultLayout = cfg.DefaultLayout
		}
		if cfg.BackupSuffixes != nil {
			r.backup = cfg.BackupSuffixes
		}
		r.strict = cfg.StrictFormat
		r.cache = cfg.Cache
		r.reload = cfg.Reload
	}
}

// RenderOption configures one render call.
type RenderOption func(*renderOptions)

type renderOptions struct {
	layout *LayoutRef
	format Format
	locale *Locale
	roots  []Root
}

// WithLayout wraps the view in the named layout, overriding scope
// declarations.
func WithLayout(name string) RenderOption {
	return func(o *renderOptions) {
		o.layout = &LayoutRef{Name: name}
	}
}

// WithoutLayout renders the view without a layout.
func WithoutLayout() RenderOption {
	return func(o *renderOptions) {
		o.layout = &LayoutRef{Disabled: true}
	}
}

// WithFormat makes format the only format candidate.
func WithFormat(format Format) RenderOption {
	return func(o *renderOptions) {
		o.format = format
	}
}

// WithLocale overrides the active locale.
func WithLocale(locale Locale) RenderOption {
	return func(o *renderOptions) {
		o.locale = &locale
	}
}

// WithRoots searches the given roots instead of the renderer's. A root
// may reuse a default root's name: lookups and compiled templates are
// cached per tree, so it is searched on its own. Pass long-lived trees;
// each distinct tree stays referenced by the renderer.
func WithRoots(roots ...Root) RenderOption {
	return func(o *renderOptions) {
		o.roots = roots
	}
}
