package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dmitrymomot/stagehand/pkg/logger"
	"github.com/dmitrymomot/stagehand/pkg/view"
)

const envPrefix = "STAGEHAND"

// config is the CLI configuration. Values come from flags, STAGEHAND_*
// environment variables and an optional YAML file, in that order of
// precedence.
type config struct {
	Addr            string              `mapstructure:"addr"`
	ShutdownTimeout time.Duration       `mapstructure:"shutdown_timeout"`
	Locales         []string            `mapstructure:"locales"`
	Provides        []string            `mapstructure:"provides"`
	Layout          string              `mapstructure:"layout"`
	Views           view.Config         `mapstructure:"views"`
	Log             logger.Config       `mapstructure:"log"`
	Sentry          logger.SentryConfig `mapstructure:"sentry"`
}

func setDefaults(v *viper.Viper) {
	vc := view.DefaultConfig()

	v.SetDefault("addr", ":8080")
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("locales", []string{})
	v.SetDefault("provides", []string{})
	v.SetDefault("layout", "")
	v.SetDefault("views.dir", vc.Dir)
	v.SetDefault("views.layout_dir", vc.LayoutDir)
	v.SetDefault("views.default_layout", vc.DefaultLayout)
	v.SetDefault("views.backup_suffixes", vc.BackupSuffixes)
	v.SetDefault("views.strict_format", vc.StrictFormat)
	v.SetDefault("views.cache", vc.Cache)
	v.SetDefault("views.reload", vc.Reload)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}

// loadConfig reads the config file, if any, and decodes v into a config.
func loadConfig(v *viper.Viper, file string) (config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("stagehand")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Sentry.Log = cfg.Log
	return cfg, nil
}

func (c config) locales() []view.Locale {
	out := make([]view.Locale, 0, len(c.Locales))
	for _, l := range c.Locales {
		if pl := view.ParseLocale(l); pl != view.NoLocale {
			out = append(out, pl)
		}
	}
	return out
}

func (c config) provides() []view.Format {
	out := make([]view.Format, 0, len(c.Provides))
	for _, f := range c.Provides {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, view.Format(f))
		}
	}
	return out
}
