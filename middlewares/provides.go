package middlewares

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrymomot/stagehand/internal"
	"github.com/dmitrymomot/stagehand/pkg/view"
)

// ProvidesConfig configures the Provides middleware.
type ProvidesConfig struct {
	// Extractor reads an explicit format from the request. It wins over
	// the Accept header.
	Extractor    internal.Extractor
	extractorSet bool
}

// ProvidesOption configures ProvidesConfig.
type ProvidesOption func(*ProvidesConfig)

// WithFormatExtractor sets a custom explicit-format extractor chain.
func WithFormatExtractor(ext internal.Extractor) ProvidesOption {
	return func(cfg *ProvidesConfig) {
		cfg.Extractor = ext
		cfg.extractorSet = true
	}
}

// Provides returns middleware declaring the formats a route can render.
// The first format the client asks for becomes the active format of the
// request; html is still tried as a fallback when the view is located,
// unless the renderer is strict.
//
// An explicit format, from the path extension ("/posts.json") or the
// "format" query parameter, is used as is when provided. Requests that
// match none of the formats fail with view.ErrNotAcceptable, which the
// default error handler answers with 404.
//
// Example:
//
//	r.GET("/posts", h.index, middlewares.Provides(view.HTML, view.JSON))
func Provides(formats ...view.Format) internal.Middleware {
	return ProvidesWith(formats)
}

// ProvidesWith is Provides with options.
func ProvidesWith(formats []view.Format, opts ...ProvidesOption) internal.Middleware {
	cfg := &ProvidesConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.extractorSet {
		cfg.Extractor = internal.NewExtractor(
			internal.FromPathExtension(),
			internal.FromQuery("format"),
		)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if len(formats) == 0 {
				return next(c)
			}
			c.Response().Header().Add("Vary", "Accept")

			if v, ok := cfg.Extractor.Extract(c); ok {
				f := view.Format(strings.ToLower(strings.TrimPrefix(v, ".")))
				switch {
				case slices.Contains(formats, f):
					c.ContentType(f)
					return next(c)
				case c.Formats().Known(f):
					return fmt.Errorf("format %s: %w", f, view.ErrNotAcceptable)
				}
			}

			if _, err := c.Negotiate(formats...); err != nil {
				return err
			}
			return next(c)
		}
	}
}
