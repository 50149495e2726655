package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/stagehand/pkg/logger"
	"github.com/dmitrymomot/stagehand/pkg/view"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App orchestrates the application lifecycle.
// It manages HTTP routing, middleware, view rendering and graceful shutdown.
// App is immutable after creation - all configuration is done via New().
type App struct {
	router                  chi.Router
	errorHandler            ErrorHandler
	notFoundHandler         HandlerFunc
	methodNotAllowedHandler HandlerFunc
	healthConfig            *healthConfig
	logger                  *slog.Logger
	renderer                *view.Renderer
	viewOptions             []view.Option
	views                   bool
	formats                 *view.Formats
	negotiate               func([]view.Format, string) (view.Format, error)
	layouts                 *view.LayoutScope
	htmxLayout              bool
	middlewares             []Middleware
	handlers                []Handler
	staticRoutes            []staticRoute
}

// staticRoute represents a static file handler mount point.
type staticRoute struct {
	handler http.Handler
	pattern string
}

// New creates a new application with the given options.
// The App is immutable after creation.
//
// Example:
//
//	app := stagehand.New(
//	    stagehand.WithViews(view.WithDir("views")),
//	    stagehand.WithMiddleware(middlewares.Locale([]view.Locale{"en", "de"})),
//	    stagehand.WithHandlers(
//	        handlers.NewPosts(repo),
//	        handlers.NewAdmin(repo),
//	    ),
//	)
func New(opts ...Option) *App {
	a := &App{
		router:  chi.NewRouter(),
		logger:  logger.NewNope(), // Default: noop logger (before options)
		layouts: view.NewLayoutScope("application", nil),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.renderer == nil && a.views {
		viewOpts := append([]view.Option{view.WithLogger(a.logger.With("component", "view"))}, a.viewOptions...)
		r, err := view.New(viewOpts...)
		if err != nil {
			panic(fmt.Sprintf("views: %v", err))
		}
		a.renderer = r
	}

	if a.renderer != nil {
		a.formats = a.renderer.Formats()
		a.negotiate = a.renderer.Negotiate
	} else {
		a.formats = view.NewFormats()
		a.negotiate = view.NewNegotiator(a.formats, false).Negotiate
	}

	a.setupRoutes()
	return a
}

// Router returns the underlying chi.Router for the App.
func (a *App) Router() chi.Router {
	return a.router
}

// Renderer returns the view renderer, or nil if views are not configured.
func (a *App) Renderer() *view.Renderer {
	return a.renderer
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Run starts the HTTP server and blocks until shutdown.
// The view file watcher, if any, is stopped during shutdown.
//
// Example:
//
//	app := stagehand.New(
//	    stagehand.WithViews(view.WithDir("views"), view.WithReload(true)),
//	    stagehand.WithHandlers(handlers.NewPages()),
//	)
//	err := app.Run(":8080", stagehand.Logger(slog))
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)

	shutdownHooks := cfg.shutdownHooks
	if a.renderer != nil {
		shutdownHooks = append([]func(context.Context) error{func(context.Context) error {
			return a.renderer.Close()
		}}, shutdownHooks...)
	}

	log := cfg.logger
	if log == nil {
		log = a.logger
	}

	return runServer(runtimeConfig{
		handler:         a.router,
		address:         addr,
		logger:          log,
		shutdownTimeout: cfg.shutdownTimeout,
		shutdownHooks:   shutdownHooks,
		onListen:        cfg.onListen,
		baseCtx:         cfg.baseCtx,
	})
}

// setupRoutes configures the router with middleware and handlers.
func (a *App) setupRoutes() {
	// Set custom error handlers on chi router
	if a.notFoundHandler != nil {
		a.router.NotFound(a.adaptHandler(a.notFoundHandler, a.layouts))
	}
	if a.methodNotAllowedHandler != nil {
		a.router.MethodNotAllowed(a.adaptHandler(a.methodNotAllowedHandler, a.layouts))
	}

	// Apply global middleware
	for _, mw := range a.middlewares {
		a.router.Use(a.adaptMiddleware(mw))
	}

	// Mount static file handlers
	for _, sr := range a.staticRoutes {
		a.router.Mount(sr.pattern, sr.handler)
	}

	// Register health check endpoints
	if a.healthConfig != nil {
		checks := a.healthConfig.checks
		if a.renderer != nil {
			for name, check := range a.renderer.RootChecks() {
				key := viewsCheckPrefix + name
				if _, ok := checks[key]; !ok {
					checks[key] = check
				}
			}
		}
		a.router.Get(a.healthConfig.livenessPath, livenessHandler())
		a.router.Get(a.healthConfig.readinessPath, readinessHandler(checks, a.logger))
	}

	// Register handlers
	r := &routerAdapter{router: a.router, app: a, scope: a.layouts}
	for _, h := range a.handlers {
		h.Routes(r)
	}
}

// handleError handles errors from handlers using the configured error handler.
func (a *App) handleError(c Context, err error) {
	// Check if response has already been written
	if c.Written() {
		c.LogError("handler failed after response was written", slog.Any("error", err))
		return
	}
	if a.errorHandler != nil {
		_ = a.errorHandler(c, err)
		return
	}

	he := ToHTTPError(err)
	if he.Code >= http.StatusInternalServerError {
		c.LogError("request failed", slog.Any("error", err))
	}
	http.Error(c.Response(), he.Message, he.Code)
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        healthChecks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe. Apps with views get one
// "views:<root>" check per view root that verifies the root is readable.
func WithReadinessCheck(name string, fn CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(healthChecks)
		}
		c.checks[name] = fn
	}
}
