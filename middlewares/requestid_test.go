package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stagehand/internal"
	"github.com/dmitrymomot/stagehand/middlewares"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	capture := func(got *string) func(internal.Router) {
		return func(r internal.Router) {
			r.GET("/", func(c internal.Context) error {
				*got = middlewares.GetRequestID(c)
				return c.NoContent(http.StatusNoContent)
			})
		}
	}

	t.Run("generates a uuid when none is present", func(t *testing.T) {
		t.Parallel()

		var got string
		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), capture(&got),
			internal.WithMiddleware(middlewares.RequestID()))

		_, err := uuid.Parse(got)
		require.NoError(t, err)
		require.Equal(t, got, w.Header().Get("X-Request-ID"))
	})

	t.Run("keeps upstream id in header order", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "corr-1")
		req.Header.Set("X-Request-ID", "req-1")

		var got string
		w := serve(t, req, capture(&got), internal.WithMiddleware(middlewares.RequestID()))

		require.Equal(t, "req-1", got)
		require.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	})

	t.Run("oversized upstream id is replaced", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("a", 200))

		var got string
		serve(t, req, capture(&got), internal.WithMiddleware(middlewares.RequestID()))

		_, err := uuid.Parse(got)
		require.NoError(t, err)
	})

	t.Run("custom options", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "ignored")

		var got string
		w := serve(t, req, capture(&got), internal.WithMiddleware(middlewares.RequestID(
			middlewares.WithRequestIDHeaders("X-Trace"),
			middlewares.WithRequestIDGenerator(func() string { return "fixed" }),
			middlewares.WithRequestIDResponseHeader("X-Trace"),
		)))

		require.Equal(t, "fixed", got)
		require.Equal(t, "fixed", w.Header().Get("X-Trace"))
	})

	t.Run("missing middleware yields empty id", func(t *testing.T) {
		t.Parallel()

		var got string
		serve(t, httptest.NewRequest(http.MethodGet, "/", nil), capture(&got))
		require.Empty(t, got)
	})
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	var attrValue string
	serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(r internal.Router) {
		r.GET("/", func(c internal.Context) error {
			attr, ok := middlewares.RequestIDExtractor()(c.Context())
			require.True(t, ok)
			require.Equal(t, "request_id", attr.Key)
			attrValue = attr.Value.String()
			return nil
		})
	}, internal.WithMiddleware(middlewares.RequestID(
		middlewares.WithRequestIDGenerator(func() string { return "id-42" }),
	)))
	require.Equal(t, "id-42", attrValue)

	_, ok := middlewares.RequestIDExtractor()(context.Background())
	require.False(t, ok)
}
