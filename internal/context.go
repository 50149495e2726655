package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/stagehand/pkg/htmx"
	"github.com/dmitrymomot/stagehand/pkg/view"
)

// viewStateKey is the request context key of the render state.
type viewStateKey struct{}

// ViewState returns the render state stored in ctx, or nil.
func ViewState(ctx context.Context) *view.State {
	st, _ := ctx.Value(viewStateKey{}).(*view.State)
	return st
}

// Context provides request/response access and helper methods.
// It also implements context.Context by delegating to the underlying request context.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the underlying http.ResponseWriter.
	Response() http.ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// Param returns the URL parameter value by name.
	// Returns empty string if the parameter doesn't exist.
	Param(name string) string

	// Query returns the query parameter value by name.
	// Returns empty string if the parameter doesn't exist.
	Query(name string) string

	// QueryDefault returns the query parameter value or a default.
	QueryDefault(name, defaultValue string) string

	// Form returns the form value by name.
	// Returns empty string if the field doesn't exist.
	Form(name string) string

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// JSON writes a JSON response with the given status code.
	JSON(code int, v any) error

	// String writes a plain text response with the given status code.
	String(code int, s string) error

	// NoContent writes a response with no body.
	NoContent(code int) error

	// Redirect redirects to the given URL with the given status code.
	// Handles both regular HTTP redirects and HTMX requests.
	Redirect(code int, url string) error

	// Error creates and returns an HTTPError without writing a response.
	// The error should be returned from the handler to trigger the error handler.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// IsHTMX returns true if the request originated from HTMX.
	IsHTMX() bool

	// ViewState returns the render state of the request.
	ViewState() *view.State

	// Formats returns the format registry used for negotiation.
	Formats() *view.Formats

	// ContentType sets the active format. Views rendered afterwards look
	// for files of this format first.
	ContentType(format view.Format)

	// Format returns the active format.
	Format() view.Format

	// Negotiate picks the first of provides the client accepts and makes it
	// the active format. Returns view.ErrNotAcceptable if none matches.
	Negotiate(provides ...view.Format) (view.Format, error)

	// SetLocale sets the active locale.
	SetLocale(locale view.Locale)

	// Locale returns the active locale.
	Locale() view.Locale

	// RenderView renders the named view in its layout and writes it with
	// the given status code and the Content-Type of the resolved format.
	// Partial HTMX requests skip the layout unless an option asks for one.
	RenderView(code int, name string, data any, opts ...view.RenderOption) error

	// RenderInline renders template source with the engine registered for
	// ext, wrapped in the layout like a view file.
	RenderInline(code int, ext, src string, data any, opts ...view.RenderOption) error

	// RenderComponent renders a templ component as an html view inside its
	// layout.
	RenderComponent(code int, component templ.Component, opts ...view.RenderOption) error

	// Renderer returns the view renderer, or nil if views are not configured.
	Renderer() *view.Renderer

	// Written returns true if a response has already been written.
	Written() bool

	// Logger returns the logger for advanced usage.
	Logger() *slog.Logger

	// LogDebug logs a debug message with optional attributes.
	LogDebug(msg string, attrs ...any)

	// LogInfo logs an info message with optional attributes.
	LogInfo(msg string, attrs ...any)

	// LogWarn logs a warning message with optional attributes.
	LogWarn(msg string, attrs ...any)

	// LogError logs an error message with optional attributes.
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	// The value can be retrieved using Get or from c.Context().Value(key).
	Set(key any, value any)

	// Get retrieves a value from the request context.
	// Returns nil if the key is not found.
	Get(key any) any

	// Cookie returns a plain cookie value.
	Cookie(name string) (string, error)

	// SetCookie sets a plain cookie.
	SetCookie(name, value string, maxAge int)

	// DeleteCookie removes a cookie.
	DeleteCookie(name string)

	// ResponseWriter returns the response wrapper.
	ResponseWriter() *ResponseWriter
}

// requestContext implements the Context interface.
type requestContext struct {
	response       http.ResponseWriter
	request        *http.Request
	responseWriter *ResponseWriter
	logger         *slog.Logger
	app            *App
	state          *view.State
}

// newContext creates a request context. The render state and response
// wrapper are shared with the contexts of enclosing middleware; scope, when
// set, is the layout scope of the route being served.
func (a *App) newContext(w http.ResponseWriter, r *http.Request, scope *view.LayoutScope) *requestContext {
	rw, ok := w.(*ResponseWriter)
	if !ok {
		rw = NewResponseWriter(w, htmx.IsHTMX(r))
	}

	st := ViewState(r.Context())
	if st == nil {
		st = view.NewState()
		r = r.WithContext(context.WithValue(r.Context(), viewStateKey{}, st))
		rw.OnBeforeWrite(func(h http.Header) {
			if st.Locale != view.NoLocale && h.Get("Content-Language") == "" {
				h.Set("Content-Language", st.Locale.String())
			}
		})
	}
	if scope != nil {
		st.Scope = scope
	}

	return &requestContext{
		request:        r,
		response:       rw,
		responseWriter: rw,
		logger:         a.logger,
		app:            a,
		state:          st,
	}
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.response
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	v := c.request.URL.Query().Get(name)
	if v == "" {
		return defaultValue
	}
	return v
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	htmx.RedirectWithStatus(c.response, c.request, url, code)
	return nil
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) IsHTMX() bool {
	return htmx.IsHTMX(c.request)
}

func (c *requestContext) ViewState() *view.State {
	return c.state
}

func (c *requestContext) Formats() *view.Formats {
	return c.app.formats
}

func (c *requestContext) ContentType(format view.Format) {
	c.state.Format = format
}

func (c *requestContext) Format() view.Format {
	if c.state.Format == "" {
		return view.HTML
	}
	return c.state.Format
}

func (c *requestContext) Negotiate(provides ...view.Format) (view.Format, error) {
	f, err := c.app.negotiate(provides, c.request.Header.Get("Accept"))
	if err != nil {
		return "", err
	}
	if f != "" {
		c.state.Format = f
	}
	return f, nil
}

func (c *requestContext) SetLocale(locale view.Locale) {
	c.state.Locale = locale
}

func (c *requestContext) Locale() view.Locale {
	return c.state.Locale
}

func (c *requestContext) RenderView(code int, name string, data any, opts ...view.RenderOption) error {
	if c.app.renderer == nil {
		return ErrViewsNotConfigured
	}
	res, err := c.app.renderer.Render(c.Context(), c.state, name, data, c.renderOptions(opts)...)
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return c.writeResult(code, res)
}

func (c *requestContext) RenderInline(code int, ext, src string, data any, opts ...view.RenderOption) error {
	if c.app.renderer == nil {
		return ErrViewsNotConfigured
	}
	res, err := c.app.renderer.RenderInline(c.Context(), c.state, ext, src, data, c.renderOptions(opts)...)
	if err != nil {
		return fmt.Errorf("render inline: %w", err)
	}
	return c.writeResult(code, res)
}

func (c *requestContext) RenderComponent(code int, component templ.Component, opts ...view.RenderOption) error {
	if c.app.renderer == nil {
		return ErrViewsNotConfigured
	}
	res, err := c.app.renderer.RenderComponent(c.Context(), c.state, component, c.renderOptions(opts)...)
	if err != nil {
		return fmt.Errorf("render component: %w", err)
	}
	return c.writeResult(code, res)
}

func (c *requestContext) Renderer() *view.Renderer {
	return c.app.renderer
}

// renderOptions prepends the request-derived defaults to opts, so options
// passed by the handler win.
func (c *requestContext) renderOptions(opts []view.RenderOption) []view.RenderOption {
	if c.app.htmxLayout || !htmx.WantsPartial(c.request) {
		return opts
	}
	return append([]view.RenderOption{view.WithoutLayout()}, opts...)
}

func (c *requestContext) writeResult(code int, res *view.Result) error {
	c.response.Header().Set("Content-Type", res.ContentType)
	c.response.WriteHeader(code)
	if c.request.Method == http.MethodHead {
		return nil
	}
	_, err := c.response.Write(res.Body)
	return err
}

func (c *requestContext) Written() bool {
	return c.responseWriter.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.logger.DebugContext(c.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.logger.InfoContext(c.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Cookie(name string) (string, error) {
	ck, err := c.request.Cookie(name)
	if err != nil {
		return "", err
	}
	return ck.Value, nil
}

func (c *requestContext) SetCookie(name, value string, maxAge int) {
	http.SetCookie(c.response, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *requestContext) DeleteCookie(name string) {
	c.SetCookie(name, "", -1)
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.responseWriter
}
