package middlewares

import (
	"github.com/dmitrymomot/stagehand/internal"
	"github.com/dmitrymomot/stagehand/pkg/view"
)

// DefaultLocaleCookie is the cookie Locale reads and, with
// WithLocaleRemember, writes.
const DefaultLocaleCookie = "locale"

// LocaleConfig configures the Locale middleware.
type LocaleConfig struct {
	Extractor    internal.Extractor
	Default      view.Locale
	CookieName   string
	CookieMaxAge int
	Remember     bool
	extractorSet bool
}

// LocaleOption configures LocaleConfig.
type LocaleOption func(*LocaleConfig)

// WithLocaleExtractor sets a custom locale extractor chain.
func WithLocaleExtractor(ext internal.Extractor) LocaleOption {
	return func(cfg *LocaleConfig) {
		cfg.Extractor = ext
		cfg.extractorSet = true
	}
}

// WithDefaultLocale sets the locale used when the request names none of
// the available ones. Defaults to the first available locale.
func WithDefaultLocale(l view.Locale) LocaleOption {
	return func(cfg *LocaleConfig) {
		cfg.Default = l
	}
}

// WithLocaleCookie sets the cookie name of the default extractor.
func WithLocaleCookie(name string) LocaleOption {
	return func(cfg *LocaleConfig) {
		if name != "" {
			cfg.CookieName = name
		}
	}
}

// WithLocaleRemember stores the resolved locale in the locale cookie when
// it differs from the cookie value.
func WithLocaleRemember(maxAge int) LocaleOption {
	return func(cfg *LocaleConfig) {
		cfg.Remember = true
		cfg.CookieMaxAge = maxAge
	}
}

// FromAcceptLanguage returns an ExtractorSource that matches the
// Accept-Language header against the available locales.
func FromAcceptLanguage(available []view.Locale) internal.ExtractorSource {
	return func(c internal.Context) (string, bool) {
		header := c.Header("Accept-Language")
		if header == "" {
			return "", false
		}
		l := view.NegotiateLocale(header, available)
		return l.String(), l != view.NoLocale
	}
}

// Locale returns middleware that sets the active locale of the request.
// Views are then looked up as name.<locale>.<format>.<ext> first, falling
// back to locale-agnostic files.
//
// The default extractor tries the "locale" query parameter, the locale
// cookie and Accept-Language, in that order. Values that match no
// available locale are skipped.
//
// Example:
//
//	stagehand.WithMiddleware(middlewares.Locale([]view.Locale{"en", "de"}))
func Locale(available []view.Locale, opts ...LocaleOption) internal.Middleware {
	cfg := &LocaleConfig{CookieName: DefaultLocaleCookie}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Default == view.NoLocale && len(available) > 0 {
		cfg.Default = available[0]
	}
	if !cfg.extractorSet {
		cfg.Extractor = internal.NewExtractor(
			availableOnly(internal.FromQuery("locale"), available),
			availableOnly(internal.FromCookie(cfg.CookieName), available),
			FromAcceptLanguage(available),
		)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			locale := cfg.Default
			if v, ok := cfg.Extractor.Extract(c); ok {
				locale = view.ParseLocale(v)
			}
			c.SetLocale(locale)

			if cfg.Remember && locale != view.NoLocale {
				if current, err := c.Cookie(cfg.CookieName); err != nil || current != locale.String() {
					c.SetCookie(cfg.CookieName, locale.String(), cfg.CookieMaxAge)
				}
			}

			return next(c)
		}
	}
}

// GetLocale returns the active locale of the request.
func GetLocale(c internal.Context) view.Locale {
	return c.Locale()
}

// availableOnly narrows src to values naming one of the available
// locales, matching region variants by their primary subtag.
func availableOnly(src internal.ExtractorSource, available []view.Locale) internal.ExtractorSource {
	return func(c internal.Context) (string, bool) {
		v, ok := src(c)
		if !ok {
			return "", false
		}
		l := view.NegotiateLocale(v, available)
		return l.String(), l != view.NoLocale
	}
}
