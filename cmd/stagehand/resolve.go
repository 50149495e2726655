package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/stagehand/pkg/logger"
	"github.com/dmitrymomot/stagehand/pkg/view"
)

// resolution is the printable outcome of a lookup.
type resolution struct {
	Name   string `yaml:"name"`
	View   string `yaml:"view"`
	Format string `yaml:"format"`
	Locale string `yaml:"locale,omitempty"`
	Engine string `yaml:"engine"`
	Layout string `yaml:"layout,omitempty"`
}

type resolveFlags struct {
	format   string
	locale   string
	layout   string
	noLayout bool
	output   string
}

func newResolveCmd(load loadFunc) *cobra.Command {
	var f resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve NAME",
		Short: "Show which files a view name resolves to",
		Long: `Resolve a view name the way a render call would and print the view and
layout files it picks. When nothing matches, every candidate tried is listed.

Examples:
  stagehand resolve posts/index
  stagehand resolve posts/index --format js --locale it
  stagehand resolve admin/dashboard --layout admin -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runResolve(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.format, "format", "f", "", "active format (default html)")
	flags.StringVarP(&f.locale, "locale", "l", "", "active locale")
	flags.StringVar(&f.layout, "layout", "", "layout override")
	flags.BoolVar(&f.noLayout, "no-layout", false, "render without layout")
	flags.StringVarP(&f.output, "output", "o", "text", "output format (text, yaml)")

	return cmd
}

func runResolve(out, errOut io.Writer, cfg config, name string, f resolveFlags) error {
	r, err := view.New(
		view.WithConfig(cfg.Views),
		view.WithCache(false),
		view.WithReload(false),
		view.WithLogger(logger.NewNope()),
	)
	if err != nil {
		return fmt.Errorf("views: %w", err)
	}
	defer func() { _ = r.Close() }()

	st := view.NewState()
	if f.format != "" {
		st.Format = view.Format(strings.ToLower(f.format))
	}
	st.Locale = view.ParseLocale(f.locale)
	st.Scope = view.NewLayoutScope("application", nil)
	switch cfg.Layout {
	case "":
	case disabledLayout:
		st.Scope.Disable()
	default:
		st.Scope.Use(cfg.Layout)
	}

	var opts []view.RenderOption
	if f.layout != "" {
		opts = append(opts, view.WithLayout(f.layout))
	}
	if f.noLayout {
		opts = append(opts, view.WithoutLayout())
	}

	vc, lc, err := r.Lookup(st, name, opts...)
	if nf, ok := view.AsNotFoundError(err); ok {
		fmt.Fprintf(errOut, "%s not found, tried:\n", nf.Name)
		for _, t := range nf.Tried {
			fmt.Fprintf(errOut, "  %s\n", t)
		}
	}
	if err != nil {
		return err
	}

	res := resolution{
		Name:   name,
		View:   vc.ID(),
		Format: vc.Format.String(),
		Locale: vc.Locale.String(),
		Engine: vc.Ext,
	}
	if lc != nil {
		res.Layout = lc.ID()
	}

	return printResolution(out, res, f.output)
}

func printResolution(w io.Writer, res resolution, output string) error {
	switch output {
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(res)
	case "text", "":
		layout := res.Layout
		if layout == "" {
			layout = "(none)"
		}
		_, err := fmt.Fprintf(w, "view:   %s\nformat: %s\nlocale: %s\nlayout: %s\n",
			res.View, res.Format, orDash(res.Locale), layout)
		return err
	default:
		return fmt.Errorf("unknown output %q", output)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
