package view_test

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stagehand/pkg/view"
)

func file(s string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(s)}
}

func newLocator() *view.Locator {
	return view.NewLocator(view.NewFormats(), view.DefaultEngines(), nil, nil)
}

func TestLocator_Locate(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"foo.tmpl":               file("generic"),
		"foo.en.tmpl":            file("english"),
		"foo.it.tmpl":            file("italian"),
		"foo.en.js.tmpl":         file("english js"),
		"bar.tmpl~":              file("backup"),
		"baz.html.tmpl":          file("explicit html"),
		"baz.tmpl":               file("formatless"),
		"notes.md":               file("markdown"),
		"admin/users/index.tmpl": file("admin"),
		"report.csv.gotext":      file("csv"),
	}
	roots := []view.Root{{Name: "app", FS: fsys}}
	l := newLocator()

	tests := []struct {
		name     string
		view     string
		formats  []view.Format
		locales  []view.Locale
		wantPath string
		wantFmt  view.Format
	}{
		{name: "formatless file serves html", view: "foo", formats: []view.Format{view.HTML}, locales: []view.Locale{view.NoLocale}, wantPath: "foo.tmpl", wantFmt: view.HTML},
		{name: "active locale", view: "foo", formats: []view.Format{view.HTML}, locales: []view.Locale{"it", view.NoLocale}, wantPath: "foo.it.tmpl", wantFmt: view.HTML},
		{name: "undeclared locale falls back", view: "foo", formats: []view.Format{view.HTML}, locales: []view.Locale{"fr", view.NoLocale}, wantPath: "foo.tmpl", wantFmt: view.HTML},
		{name: "format before locale fallback", view: "foo", formats: []view.Format{view.JS, view.HTML}, locales: []view.Locale{"en", view.NoLocale}, wantPath: "foo.en.js.tmpl", wantFmt: view.JS},
		{name: "html fallback", view: "foo", formats: []view.Format{view.JS, view.HTML}, locales: []view.Locale{"it", view.NoLocale}, wantPath: "foo.it.tmpl", wantFmt: view.HTML},
		{name: "explicit html segment first", view: "baz", formats: []view.Format{view.HTML}, locales: nil, wantPath: "baz.html.tmpl", wantFmt: view.HTML},
		{name: "name fixes format", view: "foo.js", formats: []view.Format{view.HTML}, locales: []view.Locale{"en", view.NoLocale}, wantPath: "foo.en.js.tmpl", wantFmt: view.JS},
		{name: "name fixes engine", view: "baz.tmpl", formats: []view.Format{view.HTML}, locales: nil, wantPath: "baz.html.tmpl", wantFmt: view.HTML},
		{name: "name fixes format and engine", view: "report.csv.gotext", formats: []view.Format{view.HTML}, locales: nil, wantPath: "report.csv.gotext", wantFmt: view.CSV},
		{name: "other engine", view: "notes", formats: []view.Format{view.HTML}, locales: nil, wantPath: "notes.md", wantFmt: view.HTML},
		{name: "nested path with leading slash", view: "/admin/users/index", formats: []view.Format{view.HTML}, locales: nil, wantPath: "admin/users/index.tmpl", wantFmt: view.HTML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := l.Locate(tt.view, tt.formats, tt.locales, roots)
			require.NoError(t, err)
			require.Equal(t, tt.wantPath, c.Path)
			require.Equal(t, tt.wantFmt, c.Format)
			require.Equal(t, "app", c.Root)
		})
	}
}

func TestLocator_BackupSuffix(t *testing.T) {
	t.Parallel()

	t.Run("backup file never resolves", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{"bar.tmpl~": file("backup")}

		_, err := newLocator().Locate("bar", []view.Format{view.HTML}, []view.Locale{view.NoLocale}, []view.Root{{Name: "app", FS: fsys}})
		require.ErrorIs(t, err, view.ErrTemplateNotFound)

		nf, ok := view.AsNotFoundError(err)
		require.True(t, ok)
		require.Equal(t, "bar", nf.Name)
		require.Contains(t, nf.Tried, "app:bar.tmpl")
	})

	t.Run("custom suffixes are filtered before matching", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{
			"post-draft.tmpl": file("draft"),
			"post-draft.md":   file("published"),
		}
		roots := []view.Root{{Name: "app", FS: fsys}}
		l := view.NewLocator(nil, nil, []string{"~", "-draft.tmpl"}, nil)

		c, err := l.Locate("post-draft", nil, nil, roots)
		require.NoError(t, err)
		require.Equal(t, "post-draft.md", c.Path)
		require.Equal(t, "md", c.Ext)
	})
}

func TestLocator_TriedOrder(t *testing.T) {
	t.Parallel()

	l := view.NewLocator(view.NewFormats(), func() *view.Engines {
		e := view.NewEngines()
		e.Register("tmpl", view.NewHTMLEngine())
		return e
	}(), nil, nil)

	roots := []view.Root{
		{Name: "a", FS: fstest.MapFS{}},
		{Name: "b", FS: fstest.MapFS{}},
	}

	_, err := l.Locate("foo", []view.Format{view.JS, view.HTML}, []view.Locale{"en", view.NoLocale}, roots)
	nf, ok := view.AsNotFoundError(err)
	require.True(t, ok)

	want := []string{
		"a:foo.en.js.tmpl", "a:foo.js.tmpl",
		"a:foo.en.html.tmpl", "a:foo.en.tmpl", "a:foo.html.tmpl", "a:foo.tmpl",
		"b:foo.en.js.tmpl", "b:foo.js.tmpl",
		"b:foo.en.html.tmpl", "b:foo.en.tmpl", "b:foo.html.tmpl", "b:foo.tmpl",
	}
	if diff := cmp.Diff(want, nf.Tried); diff != "" {
		t.Errorf("tried candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestLocator_RootPrecedence(t *testing.T) {
	t.Parallel()

	roots := []view.Root{
		{Name: "theme", FS: fstest.MapFS{"foo.tmpl": file("theme")}},
		{Name: "app", FS: fstest.MapFS{"foo.en.tmpl": file("app en"), "bar.tmpl": file("app")}},
	}
	l := newLocator()
	locales := []view.Locale{"en", view.NoLocale}

	c, err := l.Locate("foo", nil, locales, roots)
	require.NoError(t, err)
	require.Equal(t, "theme:foo.tmpl", c.ID())

	c, err = l.Locate("bar", nil, locales, roots)
	require.NoError(t, err)
	require.Equal(t, "app:bar.tmpl", c.ID())
}

func TestLocator_Errors(t *testing.T) {
	t.Parallel()

	l := newLocator()

	_, err := l.Locate("", nil, nil, []view.Root{{Name: "app", FS: fstest.MapFS{}}})
	require.ErrorIs(t, err, view.ErrTemplateNotFound)

	_, err = l.Locate("foo", nil, nil, nil)
	require.ErrorIs(t, err, view.ErrNoRoots)
}
