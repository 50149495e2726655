package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/open2b/scriggo"
	"github.com/open2b/scriggo/native"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ScriggoEngine compiles scriggo templates. The content format comes from
// the segment before the extension ("page.html.sgo" is HTML, "feed.xml.sgo"
// is text); formatless files are HTML.
//
// Templates see the globals yield, format, locale, meta and data
// (data holds the render data when it is a map[string]any) and the
// function partial(name) that renders another view.
type ScriggoEngine struct {
	globals native.Declarations
	md      goldmark.Markdown
}

// NewScriggoEngine creates a scriggo engine. Extra declarations are added
// to the template globals.
func NewScriggoEngine(globals ...native.Declarations) *ScriggoEngine {
	decls := native.Declarations{
		"yield":   (*native.HTML)(nil),
		"format":  (*string)(nil),
		"locale":  (*string)(nil),
		"meta":    (*map[string]any)(nil),
		"data":    (*map[string]any)(nil),
		"partial": scriggoPartial,
	}
	for _, g := range globals {
		maps.Copy(decls, g)
	}
	return &ScriggoEngine{
		globals: decls,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (e *ScriggoEngine) Compile(src Source) (Template, error) {
	name := src.Path
	if name == "" {
		name = "inline.html.sgo"
	}

	fsys := &overlayFS{base: src.FS, name: name, body: []byte(src.Body)}
	t, err := scriggo.BuildTemplate(fsys, name, &scriggo.BuildOptions{
		Globals: e.globals,
		MarkdownConverter: func(src []byte, out io.Writer) error {
			return e.md.Convert(src, out)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, name, err)
	}

	return &scriggoTemplate{t: t}, nil
}

type scriggoTemplate struct {
	t *scriggo.Template
}

type scriggoRun struct {
	scope *Scope
	mu    sync.Mutex
	err   error
}

type scriggoRunKey struct{}

func (t *scriggoTemplate) Execute(w io.Writer, s *Scope) error {
	data, _ := s.Data.(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	meta := s.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	run := &scriggoRun{scope: s}
	ctx := context.WithValue(s.Context(), scriggoRunKey{}, run)

	vars := map[string]any{
		"yield":  native.HTML(s.Yield()),
		"format": s.Format.String(),
		"locale": s.Locale.String(),
		"meta":   meta,
		"data":   data,
	}

	var buf bytes.Buffer
	if err := t.t.Run(&buf, vars, &scriggo.RunOptions{Context: ctx}); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	if run.err != nil {
		return run.err
	}

	_, err := buf.WriteTo(w)
	return err
}

func scriggoPartial(env native.Env, name string) native.HTML {
	run, ok := env.Context().Value(scriggoRunKey{}).(*scriggoRun)
	if !ok {
		return ""
	}
	out, err := run.scope.Render(name)
	if err != nil {
		run.mu.Lock()
		run.err = errors.Join(run.err, err)
		run.mu.Unlock()
		return ""
	}
	return native.HTML(out)
}

// overlayFS serves one in-memory file over an optional base file system,
// so frontmatter-stripped and inline sources compile with imports intact.
type overlayFS struct {
	base fs.FS
	name string
	body []byte
}

func (o *overlayFS) Open(name string) (fs.File, error) {
	if name == o.name {
		return &memFile{name: path.Base(name), r: bytes.NewReader(o.body), size: int64(len(o.body))}, nil
	}
	if o.base == nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return o.base.Open(name)
}

// Format implements scriggo.FormatFS.
func (o *overlayFS) Format(name string) (scriggo.Format, error) {
	segments := strings.Split(path.Base(name), ".")
	if len(segments) < 3 {
		return scriggo.FormatHTML, nil
	}
	switch Format(segments[len(segments)-2]) {
	case HTML:
		return scriggo.FormatHTML, nil
	case CSS:
		return scriggo.FormatCSS, nil
	case JS:
		return scriggo.FormatJS, nil
	case JSON:
		return scriggo.FormatJSON, nil
	case "md":
		return scriggo.FormatMarkdown, nil
	default:
		return scriggo.FormatText, nil
	}
}

type memFile struct {
	name string
	r    *bytes.Reader
	size int64
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *memFile) Read(p []byte) (int, error) { return f.r.Read(p) }
func (f *memFile) Close() error               { return nil }

func (f *memFile) Name() string       { return f.name }
func (f *memFile) Size() int64        { return f.size }
func (f *memFile) Mode() fs.FileMode  { return 0o444 }
func (f *memFile) ModTime() time.Time { return time.Time{} }
func (f *memFile) IsDir() bool        { return false }
func (f *memFile) Sys() any           { return nil }
