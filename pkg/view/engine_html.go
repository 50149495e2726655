package view

import (
	"fmt"
	"html/template"
	"io"
	"maps"
)

// HTMLEngine compiles html/template sources with contextual escaping.
// Templates get yield, render, meta, format and locale functions; yield
// and render return template.HTML so nested output is not escaped twice.
type HTMLEngine struct {
	funcs template.FuncMap
}

// NewHTMLEngine creates an html/template engine with optional extra functions.
func NewHTMLEngine(funcs ...template.FuncMap) *HTMLEngine {
	fm := template.FuncMap{}
	for _, f := range funcs {
		maps.Copy(fm, f)
	}
	return &HTMLEngine{funcs: fm}
}

func (e *HTMLEngine) Compile(src Source) (Template, error) {
	t, err := template.New(templateName(src)).
		Funcs(htmlScopeFuncs(nil)).
		Funcs(e.funcs).
		Parse(src.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, templateName(src), err)
	}
	return &htmlTemplate{base: t}, nil
}

type htmlTemplate struct {
	base *template.Template
}

// Execute runs a clone bound to the scope; the base is never executed
// so it stays cloneable.
func (t *htmlTemplate) Execute(w io.Writer, s *Scope) error {
	clone, err := t.base.Clone()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return clone.Funcs(htmlScopeFuncs(s)).Execute(w, s.Data)
}

func htmlScopeFuncs(s *Scope) template.FuncMap {
	return template.FuncMap{
		"yield": func() template.HTML {
			if s == nil {
				return ""
			}
			return template.HTML(s.Yield()) //nolint:gosec // rendered by a trusted template
		},
		"render": func(name string, data ...any) (template.HTML, error) {
			if s == nil {
				return "", nil
			}
			out, err := s.Render(name, data...)
			return template.HTML(out), err //nolint:gosec // rendered by a trusted template
		},
		"meta": func(key string) any {
			if s == nil {
				return nil
			}
			return s.Meta[key]
		},
		"format": func() string {
			if s == nil {
				return ""
			}
			return s.Format.String()
		},
		"locale": func() string {
			if s == nil {
				return ""
			}
			return s.Locale.String()
		},
	}
}

func templateName(src Source) string {
	if src.Path == "" {
		return "inline"
	}
	return src.Path
}
