package view

// Config holds renderer settings loadable from the environment or a
// config file.
type Config struct {
	Dir            string   `env:"VIEWS_DIR" envDefault:"views" mapstructure:"dir"`
	LayoutDir      string   `env:"VIEWS_LAYOUT_DIR" envDefault:"layouts" mapstructure:"layout_dir"`
	DefaultLayout  string   `env:"VIEWS_DEFAULT_LAYOUT" envDefault:"application" mapstructure:"default_layout"`
	BackupSuffixes []string `env:"VIEWS_BACKUP_SUFFIXES" envDefault:"~" envSeparator:"," mapstructure:"backup_suffixes"`

	// StrictFormat disables the implicit html fallback.
	StrictFormat bool `env:"VIEWS_STRICT_FORMAT" envDefault:"false" mapstructure:"strict_format"`

	// Cache memoizes lookups and compiled templates.
	Cache bool `env:"VIEWS_CACHE" envDefault:"true" mapstructure:"cache"`

	// Reload watches Dir and flushes caches on change.
	Reload bool `env:"VIEWS_RELOAD" envDefault:"false" mapstructure:"reload"`
}

// DefaultConfig returns the configuration matching the envDefault tags.
func DefaultConfig() Config {
	return Config{
		Dir:            "views",
		LayoutDir:      DefaultLayoutDir,
		DefaultLayout:  DefaultLayoutName,
		BackupSuffixes: []string{"~"},
		Cache:          true,
	}
}
