// Package internal provides the core types and implementation for the stagehand framework.
//
// This package is internal and should not be used directly. Import "github.com/dmitrymomot/stagehand"
// instead, which re-exports the public API.
//
// # Core Types
//
//   - App: Orchestrates routing, view rendering and graceful shutdown
//   - Context: Request/response access, render state and rendering helpers
//   - Router: Declares routes, groups and controller layout scopes
//   - Handler: Interface implemented by types that declare routes on a router
//   - HandlerFunc: Signature for individual route handlers that return errors
//   - Middleware: Wraps handlers to add cross-cutting concerns
//   - ErrorHandler: Custom error handling function for handler errors
//   - HTTPError: Error carrying a status code, produced by ToHTTPError
//
// # Context as context.Context
//
// Context embeds context.Context. Deadline, Done, Err and Value delegate to
// the underlying request context:
//
//	func (h *Posts) show(c stagehand.Context) error {
//	    post, err := h.repo.Get(c, c.Param("id"))
//	    if err != nil {
//	        return err
//	    }
//	    return c.RenderView(http.StatusOK, "posts/show", post)
//	}
//
// # Rendering
//
// Each request carries a view.State holding the active format, the active
// locale and the layout scope of the route. Middleware and handlers share
// it through the request context, so a format picked by Provides or a
// locale picked by Locale is seen by RenderView:
//
//	c.ContentType(view.JS)      // look for posts/show.js.* first
//	c.SetLocale("de")           // then posts/show.de.js.*
//	return c.RenderView(http.StatusOK, "posts/show", post)
//
// The response Content-Type comes from the format the view was found in.
// Partial HTMX requests get the bare view unless WithHTMXLayout is set.
//
// # Layouts
//
// Views are wrapped in layouts/application when it exists. Controllers
// declare their own layout; a render call can still override it:
//
//	func (h *Admin) Routes(r stagehand.Router) {
//	    r.Controller("admin", func(r stagehand.Router) {
//	        r.Layout("admin")
//	        r.GET("/admin", h.index)
//	        r.GET("/admin/report", h.report) // c.RenderView(..., view.WithLayout("print"))
//	    })
//	}
//
// DisableLayout turns layouts off for a scope. WithLayout and WithoutLayout
// set the application-wide default.
//
// # Error Handling
//
// Errors returned from handlers reach the ErrorHandler. The default one maps
// them with ToHTTPError: view.ErrNotAcceptable becomes 404, an HTTPError
// keeps its code and everything else is a logged 500.
//
// # Server Runtime
//
//	err := app.Run(":8080", internal.Logger(log), internal.ShutdownTimeout(10*time.Second))
//
// Run stops the view watcher on shutdown.
package internal
