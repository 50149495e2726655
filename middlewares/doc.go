// Package middlewares provides HTTP middleware for stagehand applications.
//
// # Provides
//
// Provides declares the formats a route can render and negotiates the
// active format of the request. An explicit format in the path extension
// or the "format" query parameter wins over the Accept header:
//
//	r.GET("/posts", h.index, middlewares.Provides(view.HTML, view.JSON))
//	r.GET("/posts.{format}", h.index, middlewares.Provides(view.HTML, view.JSON))
//
// Requests accepting none of the formats fail with view.ErrNotAcceptable,
// answered with 404 by the default error handler.
//
// # Locale
//
// Locale sets the active locale from the "locale" query parameter, the
// locale cookie or Accept-Language. Views then resolve to their localized
// variant (index.de.html.tmpl) before the locale-agnostic one:
//
//	stagehand.WithMiddleware(
//	    middlewares.Locale([]view.Locale{"en", "de"}, middlewares.WithLocaleRemember(86400*365)),
//	)
//
// # Request ID
//
// RequestID assigns a unique ID to each request, reusing an upstream
// X-Request-ID when present. Use RequestIDExtractor and RenderExtractor
// with WithLogger to tag every log entry:
//
//	app := stagehand.New(
//	    stagehand.WithLogger("web", middlewares.RequestIDExtractor(), middlewares.RenderExtractor()),
//	    stagehand.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover catches panics and converts them to PanicError for the global
// ErrorHandler.
//
// # Recommended Middleware Order
//
//	stagehand.WithMiddleware(
//	    middlewares.RequestID(), // First: assign ID for all subsequent logging
//	    middlewares.Recover(),   // Second: catch panics from handlers and views
//	    middlewares.Locale(locales),
//	)
//
// Provides is usually attached per route or per group.
package middlewares
