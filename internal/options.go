package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/stagehand/pkg/logger"
	"github.com/dmitrymomot/stagehand/pkg/view"
)

// Option configures the application.
type Option func(*App)

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers handlers that declare routes.
// Each handler's Routes method is called during setup.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled. Files are served with default cache headers.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	stagehand.New(
//	    stagehand.WithStaticFiles("/static/", assets, "public"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}

		fileServer := http.FileServerFS(subFS)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Block directory listings
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}

			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")

			fileServer.ServeHTTP(w, r)
		})

		a.staticRoutes = append(a.staticRoutes, staticRoute{handler, pattern})
	}
}

// WithErrorHandler sets a custom error handler for handler errors.
// Called when a handler returns a non-nil error.
//
// Example:
//
//	stagehand.WithErrorHandler(func(c stagehand.Context, err error) error {
//	    // Log error, render error page, etc.
//	    return c.JSON(http.StatusInternalServerError, map[string]string{
//	        "error": err.Error(),
//	    })
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithNotFoundHandler sets a custom 404 handler.
//
// Example:
//
//	stagehand.WithNotFoundHandler(func(c stagehand.Context) error {
//	    return c.String(http.StatusNotFound, "Page not found")
//	})
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

// WithMethodNotAllowedHandler sets a custom 405 handler.
//
// Example:
//
//	stagehand.WithMethodNotAllowedHandler(func(c stagehand.Context) error {
//	    return c.String(http.StatusMethodNotAllowed, "Method not allowed")
//	})
func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.methodNotAllowedHandler = h
	}
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	stagehand.WithHealthChecks(
//	    stagehand.WithReadinessCheck("assets", assets.Check),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			checks:        make(healthChecks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// WithLogger creates a logger with a component name and optional extractors.
// The component name is added to every log entry for easy filtering.
// Extractors pull values from context (e.g., request_id, user_id).
//
// Example:
//
//	stagehand.New(
//	    stagehand.WithLogger("web", middlewares.RequestIDExtractor(), middlewares.RenderExtractor()),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
// Use this when you need complete control over logging configuration.
//
// Example:
//
//	customLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	stagehand.New(
//	    stagehand.WithCustomLogger(customLogger),
//	)
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithViews enables view rendering. The renderer is built once all options
// are applied, with the app logger; it panics if the view options are
// invalid.
//
// Example:
//
//	stagehand.New(
//	    stagehand.WithViews(
//	        view.WithDir("views"),
//	        view.WithReload(true),
//	    ),
//	)
func WithViews(opts ...view.Option) Option {
	return func(a *App) {
		a.views = true
		a.viewOptions = append(a.viewOptions, opts...)
	}
}

// WithRenderer uses a renderer built by the caller. It takes precedence
// over WithViews.
func WithRenderer(r *view.Renderer) Option {
	return func(a *App) {
		a.renderer = r
	}
}

// WithLayout sets the application-wide layout. Controllers and render
// calls can still override it. Without it, views are wrapped in
// "application" when that layout exists.
func WithLayout(name string) Option {
	return func(a *App) {
		a.layouts.Use(name)
	}
}

// WithoutLayout renders views without layout unless a controller or a
// render call asks for one.
func WithoutLayout() Option {
	return func(a *App) {
		a.layouts.Disable()
	}
}

// WithHTMXLayout keeps layouts on partial HTMX requests. By default they
// get the bare view.
func WithHTMXLayout(enabled bool) Option {
	return func(a *App) {
		a.htmxLayout = enabled
	}
}
