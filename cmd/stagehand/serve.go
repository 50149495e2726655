package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dmitrymomot/stagehand"
	"github.com/dmitrymomot/stagehand/middlewares"
	"github.com/dmitrymomot/stagehand/pkg/view"
)

// disabledLayout is the --layout value that turns layouts off.
const disabledLayout = "none"

func newServeCmd(v *viper.Viper, load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a views directory",
		Long: `Serve every view of the views directory at its own path.

GET /posts renders posts/index or posts, GET /posts.json renders the json
variant. Partials (names starting with "_") and layouts are not routable.

Examples:
  # Serve ./views with live reload
  stagehand serve --reload

  # Negotiate html and json, localized in English and German
  stagehand serve --provides html,json --locale en,de

  # Render without layouts
  stagehand serve --layout none`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			app, err := newApp(cfg, log)
			if err != nil {
				return err
			}

			return app.Run(cfg.Addr,
				stagehand.Logger(log),
				stagehand.ShutdownTimeout(cfg.ShutdownTimeout),
				stagehand.WithContext(cmd.Context()),
				stagehand.OnListen(func(addr net.Addr) {
					log.Info("serving views", "addr", addr.String(), "dir", cfg.Views.Dir)
				}),
			)
		},
	}

	flags := cmd.Flags()
	flags.StringP("addr", "a", "", "listen address (default :8080)")
	flags.Bool("reload", false, "watch the views directory and flush caches on change")
	flags.StringSlice("locale", nil, "available locales, the first is the default")
	flags.StringSlice("provides", nil, "formats to negotiate against the Accept header")
	flags.String("layout", "", `application-wide layout, "none" to disable`)

	_ = v.BindPFlag("addr", flags.Lookup("addr"))
	_ = v.BindPFlag("views.reload", flags.Lookup("reload"))
	_ = v.BindPFlag("locales", flags.Lookup("locale"))
	_ = v.BindPFlag("provides", flags.Lookup("provides"))
	_ = v.BindPFlag("layout", flags.Lookup("layout"))

	return cmd
}

// newApp builds the app behind the serve command.
func newApp(cfg config, log *slog.Logger) (*stagehand.App, error) {
	r, err := view.New(
		view.WithConfig(cfg.Views),
		view.WithLogger(log.With("component", "view")),
	)
	if err != nil {
		return nil, fmt.Errorf("views: %w", err)
	}

	opts := []stagehand.Option{
		stagehand.WithCustomLogger(log),
		stagehand.WithRenderer(r),
		stagehand.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
		),
		stagehand.WithHandlers(&pages{
			provides:  cfg.provides(),
			layoutDir: cfg.Views.LayoutDir,
		}),
		stagehand.WithHealthChecks(),
	}
	if locales := cfg.locales(); len(locales) > 0 {
		opts = append(opts, stagehand.WithMiddleware(middlewares.Locale(locales)))
	}
	switch cfg.Layout {
	case "":
	case disabledLayout:
		opts = append(opts, stagehand.WithoutLayout())
	default:
		opts = append(opts, stagehand.WithLayout(cfg.Layout))
	}

	return stagehand.New(opts...), nil
}

// pages renders the view named by the request path.
type pages struct {
	provides  []view.Format
	layoutDir string
}

func (p *pages) Routes(r stagehand.Router) {
	var mw []stagehand.Middleware
	if len(p.provides) > 0 {
		mw = append(mw, middlewares.Provides(p.provides...))
	}
	r.GET("/*", p.show, mw...)
}

func (p *pages) show(c stagehand.Context) error {
	name, ok := p.viewName(c.Request().URL.Path)
	if !ok {
		return stagehand.NewHTTPError(http.StatusNotFound, http.StatusText(http.StatusNotFound))
	}

	err := p.render(c, name)
	if isMissing(err, name) && path.Base(name) != "index" && path.Ext(name) == "" {
		name = path.Join(name, "index")
		err = p.render(c, name)
	}
	if isMissing(err, name) {
		return stagehand.NewHTTPError(http.StatusNotFound, http.StatusText(http.StatusNotFound), stagehand.WithError(err))
	}
	return err
}

func (p *pages) render(c stagehand.Context, name string) error {
	return c.RenderView(http.StatusOK, name, map[string]any{
		"Path":  c.Request().URL.Path,
		"Query": c.Request().URL.Query(),
	})
}

// isMissing reports whether err says the view name itself was not found,
// as opposed to a partial or layout it refers to.
func isMissing(err error, name string) bool {
	nf, ok := view.AsNotFoundError(err)
	return ok && nf.Name == name
}

// viewName maps a request path to a view name. Directory paths map to
// their index view. Partials and layouts are not routable.
func (p *pages) viewName(urlPath string) (string, bool) {
	name := strings.Trim(path.Clean("/"+urlPath), "/")
	if name == "" || strings.HasSuffix(urlPath, "/") {
		name = path.Join(name, "index")
	}

	if strings.HasPrefix(path.Base(name), "_") {
		return "", false
	}
	if dir := strings.Trim(p.layoutDir, "/"); dir != "" && (name == dir || strings.HasPrefix(name, dir+"/")) {
		return "", false
	}
	return name, true
}
