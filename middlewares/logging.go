package middlewares

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/stagehand/internal"
	"github.com/dmitrymomot/stagehand/pkg/logger"
)

// RenderExtractor returns a ContextExtractor for use with WithLogger.
// It adds a "render" group with the active format and locale of the
// request, once a middleware or handler has set one of them.
func RenderExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		st := internal.ViewState(ctx)
		if st == nil {
			return slog.Attr{}, false
		}
		attrs := make([]any, 0, 2)
		if st.Format != "" {
			attrs = append(attrs, slog.String("format", st.Format.String()))
		}
		if st.Locale != "" {
			attrs = append(attrs, slog.String("locale", st.Locale.String()))
		}
		if len(attrs) == 0 {
			return slog.Attr{}, false
		}
		return slog.Group("render", attrs...), true
	}
}
