// Package stagehand is a small web framework on top of chi that renders
// views the way Rails does: one view name, many formats and locales,
// layouts picked by convention.
//
// # Quick Start
//
//	app := stagehand.New(
//	    stagehand.WithViews(view.WithDir("views")),
//	    stagehand.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Locale([]view.Locale{"en", "de"}),
//	    ),
//	    stagehand.WithHandlers(handlers.NewPosts(repo)),
//	)
//
//	if err := app.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Views
//
// View files are named name[.locale][.format].ext and live under one or
// more view roots:
//
//	views/
//	    layouts/application.tmpl
//	    layouts/admin.tmpl
//	    posts/index.tmpl
//	    posts/index.de.tmpl
//	    posts/index.json.gotext
//	    posts/show.md
//
// A render looks for the active format first and falls back to html, and
// for the active locale first and falls back to locale-agnostic files.
// Registered engines: tmpl (html/template), gotext (text/template), md
// (Markdown) and sgo (scriggo). The view output is available to its layout
// as yield.
//
// # Handlers
//
//	func (h *Posts) Routes(r stagehand.Router) {
//	    r.GET("/posts", h.index, middlewares.Provides(view.HTML, view.JSON))
//	    r.Controller("admin", func(r stagehand.Router) {
//	        r.Layout("admin")
//	        r.GET("/admin/posts", h.admin)
//	    })
//	}
//
//	func (h *Posts) index(c stagehand.Context) error {
//	    return c.RenderView(http.StatusOK, "posts/index", h.repo.List(c))
//	}
//
// Provides negotiates the format against the Accept header, the path
// extension or the format query parameter. A request for a format the route
// does not provide gets 404.
//
// # Shutdown
//
// Run handles SIGINT/SIGTERM, stops the view watcher and runs the
// registered shutdown hooks:
//
//	app.Run(":8080", stagehand.ShutdownHook(func(ctx context.Context) error {
//	    return db.Close()
//	}))
package stagehand
