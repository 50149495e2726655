package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dmitrymomot/stagehand/middlewares"
	"github.com/dmitrymomot/stagehand/pkg/logger"
)

// loadFunc resolves the configuration once flags are parsed.
type loadFunc func() (config, error)

func newRootCmd(version string) *cobra.Command {
	var cfgFile string
	v := viper.New()
	setDefaults(v)

	root := &cobra.Command{
		Use:   "stagehand",
		Short: "Render views by convention",
		Long: `stagehand serves a directory of views the way a stagehand app renders them:
name[.locale][.format].ext files, layouts picked by convention, formats
negotiated from the Accept header.

Configuration is read from flags, STAGEHAND_* environment variables and
./stagehand.yaml (or --config), in that order of precedence.`,
		Version:      version,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: ./stagehand.yaml)")
	flags.StringP("views", "d", "", "views directory")
	flags.Bool("strict", false, "disable the implicit html fallback")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	_ = v.BindPFlag("views.dir", flags.Lookup("views"))
	_ = v.BindPFlag("views.strict_format", flags.Lookup("strict"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))

	load := func() (config, error) {
		return loadConfig(v, cfgFile)
	}

	root.AddCommand(
		newServeCmd(v, load),
		newResolveCmd(load),
	)
	return root
}

// newLogger builds the process logger. Errors are sent to Sentry when a
// DSN is configured.
func newLogger(cfg config) *slog.Logger {
	return logger.NewWithSentry(cfg.Sentry,
		middlewares.RequestIDExtractor(),
		middlewares.RenderExtractor(),
	).With("app", "stagehand")
}
