package internal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stagehand/internal"
	"github.com/dmitrymomot/stagehand/pkg/view"
)

// requestVia creates an App with the given options, registers a handler at GET /,
// executes fn inside that handler, and sends a request. This lets tests exercise
// the real requestContext without accessing unexported symbols.
func requestVia(t *testing.T, req *http.Request, opts []internal.Option, fn func(c internal.Context)) *httptest.ResponseRecorder {
	t.Helper()

	h := &captureHandler{fn: fn}
	opts = append(opts, internal.WithHandlers(h))
	app := internal.New(opts...)

	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, req)
	return w
}

type captureHandler struct {
	fn func(c internal.Context)
}

func (h *captureHandler) Routes(r internal.Router) {
	r.GET("/", func(c internal.Context) error {
		h.fn(c)
		return nil
	})
}

func TestContextImplementsContextInterface(t *testing.T) {
	t.Parallel()

	t.Run("Deadline delegates to request context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		requestVia(t, req, nil, func(c internal.Context) {
			deadline, ok := c.Deadline()
			require.True(t, ok)

			expected, _ := ctx.Deadline()
			require.Equal(t, expected, deadline)
		})
	})

	t.Run("Err returns Canceled after cancel", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		requestVia(t, req, nil, func(c internal.Context) {
			require.NoError(t, c.Err())
			cancel()
			<-c.Done()
			require.ErrorIs(t, c.Err(), context.Canceled)
		})
	})

	t.Run("Value reflects Set changes", func(t *testing.T) {
		t.Parallel()

		type testKey struct{}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		requestVia(t, req, nil, func(c internal.Context) {
			require.Nil(t, c.Value(testKey{}))
			c.Set(testKey{}, 42)
			require.Equal(t, 42, c.Value(testKey{}))
			require.Equal(t, 42, c.Get(testKey{}))
		})
	})

	t.Run("context can be passed to functions accepting context.Context", func(t *testing.T) {
		t.Parallel()

		type testKey struct{}
		ctx := context.WithValue(context.Background(), testKey{}, "world")
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		requestVia(t, req, nil, func(c internal.Context) {
			type childKey struct{}
			derived := context.WithValue(c, childKey{}, "child-val")

			require.Equal(t, "world", derived.Value(testKey{}))
			require.Equal(t, "child-val", derived.Value(childKey{}))
		})
	})
}

func TestContextViewState(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(c internal.Context) {
			require.Equal(t, view.HTML, c.Format())
			require.Equal(t, view.NoLocale, c.Locale())
			require.Same(t, c.ViewState(), internal.ViewState(c.Context()))
			require.Nil(t, c.Renderer())
		})
	})

	t.Run("ContentType and SetLocale update the state", func(t *testing.T) {
		t.Parallel()

		requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(c internal.Context) {
			c.ContentType(view.JS)
			c.SetLocale("en")
			require.Equal(t, view.JS, c.ViewState().Format)
			require.Equal(t, view.Locale("en"), c.ViewState().Locale)
		})
	})

	t.Run("state set by global middleware reaches the handler", func(t *testing.T) {
		t.Parallel()

		mw := func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				c.ContentType(view.XML)
				c.SetLocale("de")
				return next(c)
			}
		}

		var format view.Format
		var locale view.Locale
		w := requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil),
			[]internal.Option{internal.WithMiddleware(mw)},
			func(c internal.Context) {
				format, locale = c.Format(), c.Locale()
				_ = c.String(http.StatusOK, "ok")
			})

		require.Equal(t, view.XML, format)
		require.Equal(t, view.Locale("de"), locale)
		require.Equal(t, "de", w.Header().Get("Content-Language"))
	})

	t.Run("Negotiate without views uses built-in formats", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", "text/csv")
		requestVia(t, req, nil, func(c internal.Context) {
			f, err := c.Negotiate(view.JSON, view.CSV)
			require.NoError(t, err)
			require.Equal(t, view.CSV, f)
			require.Equal(t, view.CSV, c.Format())

			_, err = c.Negotiate(view.Format("pdf"))
			require.ErrorIs(t, err, view.ErrNotAcceptable)
			require.Equal(t, view.CSV, c.Format())
		})
	})

	t.Run("render without views", func(t *testing.T) {
		t.Parallel()

		requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(c internal.Context) {
			require.ErrorIs(t, c.RenderView(http.StatusOK, "index", nil), internal.ErrViewsNotConfigured)
			require.ErrorIs(t, c.RenderInline(http.StatusOK, "tmpl", "x", nil), internal.ErrViewsNotConfigured)
			require.False(t, c.Written())
		})
	})
}

func TestContextResponses(t *testing.T) {
	t.Parallel()

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()

		w := requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(c internal.Context) {
			require.NoError(t, c.JSON(http.StatusCreated, map[string]int{"id": 1}))
			require.True(t, c.Written())
		})
		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		require.JSONEq(t, `{"id":1}`, w.Body.String())
	})

	t.Run("cookies", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
		w := requestVia(t, req, nil, func(c internal.Context) {
			v, err := c.Cookie("theme")
			require.NoError(t, err)
			require.Equal(t, "dark", v)

			_, err = c.Cookie("missing")
			require.ErrorIs(t, err, http.ErrNoCookie)

			c.SetCookie("locale", "en", 60)
			c.DeleteCookie("theme")
		})

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)
		require.Equal(t, "locale", cookies[0].Name)
		require.Equal(t, 60, cookies[0].MaxAge)
		require.Equal(t, "theme", cookies[1].Name)
		require.Negative(t, cookies[1].MaxAge)
	})

	t.Run("Redirect", func(t *testing.T) {
		t.Parallel()

		w := requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(c internal.Context) {
			require.NoError(t, c.Redirect(http.StatusSeeOther, "/login"))
		})
		require.Equal(t, http.StatusSeeOther, w.Code)
		require.Equal(t, "/login", w.Header().Get("Location"))
	})
}
