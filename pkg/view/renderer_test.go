package view_test

import (
	"context"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stagehand/pkg/view"
)

func newRenderer(t *testing.T, fsys fstest.MapFS, opts ...view.Option) *view.Renderer {
	t.Helper()

	r, err := view.New(append([]view.Option{view.WithRoot("app", fsys)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func render(t *testing.T, r *view.Renderer, st *view.State, name string, data any, opts ...view.RenderOption) string {
	t.Helper()

	res, err := r.Render(context.Background(), st, name, data, opts...)
	require.NoError(t, err)
	return string(res.Body)
}

func stateFor(format view.Format, locale view.Locale) *view.State {
	st := view.NewState()
	st.Format = format
	st.Locale = locale
	return st
}

func TestRenderer_Identity(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{"foo.tmpl": file("<h1>This is a foo test</h1>")})

	res, err := r.Render(context.Background(), view.NewState(), "foo", nil)
	require.NoError(t, err)
	require.Equal(t, "<h1>This is a foo test</h1>", string(res.Body))
	require.Equal(t, view.HTML, res.Format)
	require.Equal(t, "text/html; charset=utf-8", res.ContentType)
	require.Nil(t, res.Layout)
}

func TestRenderer_LocaleFallback(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{
		"foo.tmpl":    file("Im Generic"),
		"foo.en.tmpl": file("Im English"),
		"foo.it.tmpl": file("Im Italian"),
	})

	require.Equal(t, "Im Italian", render(t, r, stateFor(view.HTML, "it"), "foo", nil))
	require.Equal(t, "Im English", render(t, r, stateFor(view.HTML, "en"), "foo", nil))
	require.Equal(t, "Im Generic", render(t, r, stateFor(view.HTML, "fr"), "foo", nil))
	require.Equal(t, "Im Generic", render(t, r, stateFor(view.HTML, view.NoLocale), "foo", nil))
	require.Equal(t, "Im English", render(t, r, stateFor(view.HTML, "it"), "foo", nil, view.WithLocale("en")))
}

func TestRenderer_FormatLocaleLayout(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{
		"foo.tmpl":                       file("Im Generic"),
		"foo.en.js.tmpl":                 file("Im English Js"),
		"foo.it.js.tmpl":                 file("Im Italian Js"),
		"layouts/application.tmpl":       file("Hello {{ yield }} in a Html layout"),
		"layouts/application.en.js.tmpl": file("Hello {{ yield }} in a Js-En layout"),
		"layouts/application.it.js.tmpl": file("Hello {{ yield }} in a Js-It layout"),
		"layouts/application.en.tmpl~":   file("backup"),
	})

	tests := []struct {
		name   string
		format view.Format
		locale view.Locale
		want   string
		wantCT string
	}{
		{name: "js en", format: view.JS, locale: "en", want: "Hello Im English Js in a Js-En layout", wantCT: "application/javascript; charset=utf-8"},
		{name: "js it", format: view.JS, locale: "it", want: "Hello Im Italian Js in a Js-It layout", wantCT: "application/javascript; charset=utf-8"},
		{name: "html en", format: view.HTML, locale: "en", want: "Hello Im Generic in a Html layout", wantCT: "text/html; charset=utf-8"},
		{name: "js fr falls back to html", format: view.JS, locale: "fr", want: "Hello Im Generic in a Html layout", wantCT: "text/html; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := r.Render(context.Background(), stateFor(tt.format, tt.locale), "foo", nil)
			require.NoError(t, err)
			require.Equal(t, tt.want, string(res.Body))
			require.Equal(t, tt.wantCT, res.ContentType)
			require.NotNil(t, res.Layout)
		})
	}
}

func TestRenderer_LayoutMatchesViewFormat(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{
		"data.json.gotext":         file(`{"a":1}`),
		"script.js.tmpl":           file("alert(1)"),
		"layouts/application.tmpl": file("<html>{{ yield }}</html>"),
	})

	res, err := r.Render(context.Background(), stateFor(view.JSON, view.NoLocale), "data", nil)
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(res.Body))
	require.Equal(t, view.JSON, res.Format)
	require.Nil(t, res.Layout)

	require.Equal(t, "alert(1)", render(t, r, view.NewState(), "script.js", nil))
}

func TestRenderer_StrictFormat(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"foo.tmpl": file("html")}

	lenient := newRenderer(t, fsys)
	require.Equal(t, "html", render(t, lenient, stateFor(view.JSON, view.NoLocale), "foo", nil))

	strict := newRenderer(t, fsys, view.WithStrictFormat(true))
	_, err := strict.Render(context.Background(), stateFor(view.JSON, view.NoLocale), "foo", nil)
	require.ErrorIs(t, err, view.ErrTemplateNotFound)
}

func TestRenderer_BackupOnly(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{"bar.tmpl~": file("backup")})

	_, err := r.Render(context.Background(), view.NewState(), "bar", nil)
	require.ErrorIs(t, err, view.ErrTemplateNotFound)
	require.True(t, view.IsNotFound(err))
}

func TestRenderer_LayoutPrecedence(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"index.tmpl":               file("x"),
		"layouts/application.tmpl": file("app[{{ yield }}]"),
		"layouts/foo.tmpl":         file("foo[{{ yield }}]"),
		"layouts/override.tmpl":    file("override[{{ yield }}]"),
		"shared/frame.tmpl":        file("frame[{{ yield }}]"),
	}
	r := newRenderer(t, fsys)

	root := view.NewLayoutScope("", nil)
	foo := view.NewLayoutScope("foo", root)
	foo.Use("foo")
	bar := view.NewLayoutScope("bar", root)
	bar.Disable()
	none := view.NewLayoutScope("none", root)
	nested := view.NewLayoutScope("nested", foo)
	missing := view.NewLayoutScope("missing", root)
	missing.Use("nope")
	rooted := view.NewLayoutScope("rooted", root)
	rooted.Use("shared/frame")

	withScope := func(s *view.LayoutScope) *view.State {
		st := view.NewState()
		st.Scope = s
		return st
	}

	tests := []struct {
		name  string
		scope *view.LayoutScope
		opts  []view.RenderOption
		want  string
	}{
		{name: "application default", scope: root, want: "app[x]"},
		{name: "controller layout", scope: foo, want: "foo[x]"},
		{name: "controller disabled", scope: bar, want: "x"},
		{name: "inherits application", scope: none, want: "app[x]"},
		{name: "inherits enclosing controller", scope: nested, want: "foo[x]"},
		{name: "override beats controller", scope: foo, opts: []view.RenderOption{view.WithLayout("override")}, want: "override[x]"},
		{name: "override beats disabled controller", scope: bar, opts: []view.RenderOption{view.WithLayout("override")}, want: "override[x]"},
		{name: "explicit disable", scope: foo, opts: []view.RenderOption{view.WithoutLayout()}, want: "x"},
		{name: "root relative name", scope: rooted, want: "frame[x]"},
		{name: "nil scope", scope: nil, want: "app[x]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, render(t, r, withScope(tt.scope), "index", nil, tt.opts...))
		})
	}

	t.Run("missing override is an error", func(t *testing.T) {
		t.Parallel()
		_, err := r.Render(context.Background(), withScope(root), "index", nil, view.WithLayout("nope"))
		require.ErrorIs(t, err, view.ErrTemplateNotFound)
	})

	t.Run("missing controller layout renders bare", func(t *testing.T) {
		t.Parallel()
		res, err := r.Render(context.Background(), withScope(missing), "index", nil)
		require.NoError(t, err)
		require.Equal(t, "x", string(res.Body))
		require.Nil(t, res.Layout)
	})

	t.Run("controller layout without a file for the format", func(t *testing.T) {
		t.Parallel()
		multi := newRenderer(t, fstest.MapFS{
			"bar.json.gotext":     file("Im a json"),
			"bar.js.tmpl":         file("Im a js"),
			"layouts/foo.tmpl":    file("html[{{ yield }}]"),
			"layouts/foo.js.tmpl": file("js[{{ yield }}]"),
		})
		st := withScope(foo)

		st.Format = view.JSON
		res, err := multi.Render(context.Background(), st, "bar", nil)
		require.NoError(t, err)
		require.Equal(t, "Im a json", string(res.Body))
		require.Nil(t, res.Layout)

		st.Format = view.JS
		require.Equal(t, "js[Im a js]", render(t, multi, st, "bar", nil))

		_, err = multi.Render(context.Background(), st, "bar", nil, view.WithLayout("missing"))
		require.ErrorIs(t, err, view.ErrTemplateNotFound)
	})

	t.Run("missing default layout is silent", func(t *testing.T) {
		t.Parallel()
		bare := newRenderer(t, fstest.MapFS{"index.tmpl": file("x")})
		res, err := bare.Render(context.Background(), withScope(root), "index", nil)
		require.NoError(t, err)
		require.Equal(t, "x", string(res.Body))
		require.Nil(t, res.Layout)
	})

	t.Run("custom default layout and directory", func(t *testing.T) {
		t.Parallel()
		custom := newRenderer(t, fstest.MapFS{
			"index.tmpl":       file("x"),
			"frames/site.tmpl": file("site[{{ yield }}]"),
		}, view.WithLayoutDir("frames"), view.WithDefaultLayout("site"))
		require.Equal(t, "site[x]", render(t, custom, view.NewState(), "index", nil))
	})
}

func TestRenderer_NestedRender(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{
		"page.tmpl":                file(`A{{ render "_part" }}B{{ render "_part" . }}C`),
		"_part.tmpl":               file(`[{{ format }}:{{ .Name }}]`),
		"_part.it.tmpl":            file(`[it:{{ .Name }}]`),
		"deep.tmpl":                file(`{{ render "page" }}`),
		"broken.tmpl":              file(`{{ render "missing" }}`),
		"layouts/application.tmpl": file("L({{ yield }})"),
	})
	data := map[string]any{"Name": "ann"}

	t.Run("partials render without layout", func(t *testing.T) {
		t.Parallel()
		st := view.NewState()
		require.Equal(t, "L(A[html:ann]B[html:ann]C)", render(t, r, st, "page", data))
		require.Zero(t, st.Depth())
	})

	t.Run("partials reuse the caller locale", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "L(A[it:ann]B[it:ann]C)", render(t, r, stateFor(view.HTML, "it"), "page", data))
	})

	t.Run("deeply nested", func(t *testing.T) {
		t.Parallel()
		st := view.NewState()
		require.Equal(t, "L(A[html:ann]B[html:ann]C)", render(t, r, st, "deep", data))
		require.Zero(t, st.Depth())
	})

	t.Run("nested failure", func(t *testing.T) {
		t.Parallel()
		st := view.NewState()
		_, err := r.Render(context.Background(), st, "broken", nil)
		require.ErrorIs(t, err, view.ErrTemplateNotFound)
		require.Zero(t, st.Depth())
	})
}

func TestRenderer_BlockComposition(t *testing.T) {
	t.Parallel()

	shout := view.NewHTMLEngine(template.FuncMap{
		"shout": func(s template.HTML) template.HTML {
			return template.HTML(strings.ToUpper(string(s)) + "!") //nolint:gosec // test helper
		},
	})
	r := newRenderer(t, fstest.MapFS{
		"layouts/application.tmpl": file(`{{ block "title" . }}Site{{ end }}|{{ yield }}|{{ yield }}`),
		"page.tmpl":                file(`{{ define "title" }}Page{{ end }}{{ block "body" . }}{{ template "title" }}: {{ .Name }}{{ end }}`),
		"sparta.tmpl":              file(`{{ shout (render "_word" .) }}`),
		"_word.tmpl":               file(`this. is. {{ .Name }}`),
	}, view.WithEngine("tmpl", shout))

	t.Run("view blocks stay in the view", func(t *testing.T) {
		t.Parallel()
		st := view.NewState()
		require.Equal(t, "Site|Page: ann|Page: ann", render(t, r, st, "page", map[string]any{"Name": "ann"}))
		require.Zero(t, st.Depth())
	})

	t.Run("helper wraps nested output", func(t *testing.T) {
		t.Parallel()
		got := render(t, r, view.NewState(), "sparta", map[string]any{"Name": "sparta"})
		require.Equal(t, "Site|THIS. IS. SPARTA!|THIS. IS. SPARTA!", got)
	})
}

func TestRenderer_Idempotent(t *testing.T) {
	t.Parallel()

	for _, cache := range []bool{true, false} {
		r := newRenderer(t, fstest.MapFS{
			"foo.en.tmpl":              file("Hi {{ .Name }}"),
			"layouts/application.tmpl": file("<main>{{ yield }}</main>"),
		}, view.WithCache(cache))
		st := stateFor(view.HTML, "en")
		data := map[string]any{"Name": "<b>"}

		first, err := r.Render(context.Background(), st, "foo", data)
		require.NoError(t, err)
		second, err := r.Render(context.Background(), st, "foo", data)
		require.NoError(t, err)

		require.Equal(t, "<main>Hi &lt;b&gt;</main>", string(first.Body))
		require.Equal(t, first.Body, second.Body)
		require.Equal(t, first.View.ID(), second.View.ID())
		require.Equal(t, first.Layout.ID(), second.Layout.ID())
	}
}

func TestRenderer_Frontmatter(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{
		"about.tmpl":               file("---\ntitle: About\n---\n<p>about</p>"),
		"layouts/application.tmpl": file("---\ntitle: Site\nlang: en\n---\n<title>{{ meta \"title\" }}</title><html lang=\"{{ meta \"lang\" }}\">{{ yield }}</html>"),
		"bad.tmpl":                 file("---\ntitle: [\n---\nbody"),
	})

	require.Equal(t, `<title>About</title><html lang="en"><p>about</p></html>`, render(t, r, view.NewState(), "about", nil))

	_, err := r.Render(context.Background(), view.NewState(), "bad", nil)
	require.ErrorIs(t, err, view.ErrInvalidFrontmatter)
}

func TestRenderer_Engines(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{
		"post.md":                  file("# Title\n\nHello {{ .Name }}"),
		"raw.txt.gotext":           file("{{ .Name }}"),
		"hello.html.sgo":           file("Hi {{ locale }}"),
		"wrapped.tmpl":             file("x"),
		"invalid.tmpl":             file("{{ .Name "),
		"layouts/application.tmpl": file("<main>{{ yield }}</main>"),
		"layouts/scriggo.sgo":      file("<b>{{ yield }}</b>"),
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()
		got := render(t, r, view.NewState(), "post", map[string]any{"Name": "World"})
		require.Equal(t, "<main><h1>Title</h1>\n<p>Hello World</p>\n</main>", got)
	})

	t.Run("text template does not escape", func(t *testing.T) {
		t.Parallel()
		res, err := r.Render(context.Background(), stateFor(view.Text, view.NoLocale), "raw", map[string]any{"Name": "<b>"})
		require.NoError(t, err)
		require.Equal(t, "<b>", string(res.Body))
		require.Equal(t, "text/plain; charset=utf-8", res.ContentType)
		require.Nil(t, res.Layout)
	})

	t.Run("scriggo view", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "<main>Hi en</main>", render(t, r, stateFor(view.HTML, "en"), "hello", nil))
	})

	t.Run("scriggo layout", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "<b>x</b>", render(t, r, view.NewState(), "wrapped", nil, view.WithLayout("scriggo")))
	})

	t.Run("compile error", func(t *testing.T) {
		t.Parallel()
		_, err := r.Render(context.Background(), view.NewState(), "invalid", nil)
		require.ErrorIs(t, err, view.ErrCompile)
	})
}

func TestRenderer_Inline(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{
		"layouts/application.tmpl":        file("L({{ yield }})"),
		"layouts/application.json.gotext": file(`{"data":{{ yield }}}`),
	})

	res, err := r.RenderInline(context.Background(), view.NewState(), "tmpl", "Hi {{ .Name }}", map[string]any{"Name": "ann"})
	require.NoError(t, err)
	require.Equal(t, "L(Hi ann)", string(res.Body))
	require.Equal(t, "inline", res.View.Name)

	res, err = r.RenderInline(context.Background(), view.NewState(), "gotext", `[1,2]`, nil, view.WithFormat(view.JSON))
	require.NoError(t, err)
	require.Equal(t, `{"data":[1,2]}`, string(res.Body))
	require.Equal(t, "application/json; charset=utf-8", res.ContentType)

	_, err = r.RenderInline(context.Background(), view.NewState(), "haml", "%p", nil)
	require.ErrorIs(t, err, view.ErrUnknownEngine)
}

func TestRenderer_Component(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{"layouts/application.tmpl": file("L({{ yield }})")})
	comp := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>comp</p>")
		return err
	})

	res, err := r.RenderComponent(context.Background(), view.NewState(), comp)
	require.NoError(t, err)
	require.Equal(t, "L(<p>comp</p>)", string(res.Body))
	require.Equal(t, view.HTML, res.Format)

	res, err = r.RenderComponent(context.Background(), view.NewState(), comp, view.WithoutLayout())
	require.NoError(t, err)
	require.Equal(t, "<p>comp</p>", string(res.Body))
}

func TestRenderer_Roots(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{"foo.tmpl": file("app")})
	theme := view.Root{Name: "theme", FS: fstest.MapFS{"foo.tmpl": file("theme")}}

	require.Equal(t, "app", render(t, r, view.NewState(), "foo", nil))
	require.Equal(t, "theme", render(t, r, view.NewState(), "foo", nil, view.WithRoots(theme)))
}

func TestRenderer_RootsSharingName(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{
		"foo.tmpl":                 file("default"),
		"layouts/application.tmpl": file("app[{{ yield }}]"),
	})
	other := view.Root{Name: "app", FS: fstest.MapFS{
		"foo.tmpl":                 file("other"),
		"layouts/application.tmpl": file("other[{{ yield }}]"),
	}}

	require.Equal(t, "app[default]", render(t, r, view.NewState(), "foo", nil))
	require.Equal(t, "other[other]", render(t, r, view.NewState(), "foo", nil, view.WithRoots(other)))
	require.Equal(t, "app[default]", render(t, r, view.NewState(), "foo", nil))

	v, layout, err := r.Lookup(view.NewState(), "foo", view.WithRoots(other))
	require.NoError(t, err)
	require.Equal(t, "app", v.Root)
	require.Equal(t, "other", readCandidate(t, v))
	require.NotNil(t, layout)
	require.Equal(t, "other[{{ yield }}]", readCandidate(t, *layout))
}

func readCandidate(t *testing.T, c view.Candidate) string {
	t.Helper()

	b, err := fs.ReadFile(c.FS, c.Path)
	require.NoError(t, err)
	return string(b)
}

func TestRenderer_LookupAndFlush(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"foo.tmpl": file("generic"),
		"layouts/application.tmpl": file("{{ yield }}"),
	}
	r := newRenderer(t, fsys)
	st := stateFor(view.HTML, "en")

	v, layout, err := r.Lookup(st, "foo")
	require.NoError(t, err)
	require.Equal(t, "app:foo.tmpl", v.ID())
	require.Equal(t, "app:layouts/application.tmpl", layout.ID())

	fsys["foo.en.tmpl"] = file("english")
	require.Equal(t, "generic", render(t, r, st, "foo", nil))

	r.Flush()
	require.Equal(t, "english", render(t, r, st, "foo", nil))
}

func TestRenderer_Check(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, fstest.MapFS{"foo.tmpl": file("x")})
	require.NoError(t, r.Check(context.Background()))

	empty, err := view.New()
	require.NoError(t, err)
	require.ErrorIs(t, empty.Check(context.Background()), view.ErrNoRoots)
	require.Empty(t, empty.RootChecks())

	gone := filepath.Join(t.TempDir(), "gone")
	broken := newRenderer(t, fstest.MapFS{"foo.tmpl": file("x")}, view.WithDir(gone))
	require.Error(t, broken.Check(context.Background()))

	checks := broken.RootChecks()
	require.Len(t, checks, 2)
	require.NoError(t, checks["app"](context.Background()))
	require.Error(t, checks[gone](context.Background()))
}

func TestRenderer_Reload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.tmpl"), []byte("one"), 0o644))

	r, err := view.New(view.WithDir(dir), view.WithReload(true), view.WithReloadDebounce(10*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	require.Equal(t, "one", render(t, r, view.NewState(), "foo", nil))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.tmpl"), []byte("two"), 0o644))

	require.Eventually(t, func() bool {
		res, err := r.Render(context.Background(), view.NewState(), "foo", nil)
		return err == nil && string(res.Body) == "two"
	}, 3*time.Second, 20*time.Millisecond)
}
