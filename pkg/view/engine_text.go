package view

import (
	"fmt"
	"io"
	"maps"
	"text/template"
)

// TextEngine compiles text/template sources. Output is not escaped, which
// suits js, json, txt and csv views.
type TextEngine struct {
	funcs template.FuncMap
}

// NewTextEngine creates a text/template engine with optional extra functions.
func NewTextEngine(funcs ...template.FuncMap) *TextEngine {
	fm := template.FuncMap{}
	for _, f := range funcs {
		maps.Copy(fm, f)
	}
	return &TextEngine{funcs: fm}
}

func (e *TextEngine) Compile(src Source) (Template, error) {
	t, err := parseText(src, e.funcs)
	if err != nil {
		return nil, err
	}
	return &textTemplate{base: t}, nil
}

func parseText(src Source, funcs template.FuncMap) (*template.Template, error) {
	t, err := template.New(templateName(src)).
		Funcs(textScopeFuncs(nil)).
		Funcs(funcs).
		Parse(src.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, templateName(src), err)
	}
	return t, nil
}

type textTemplate struct {
	base *template.Template
}

func (t *textTemplate) Execute(w io.Writer, s *Scope) error {
	return executeText(t.base, w, s)
}

func executeText(base *template.Template, w io.Writer, s *Scope) error {
	clone, err := base.Clone()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return clone.Funcs(textScopeFuncs(s)).Execute(w, s.Data)
}

func textScopeFuncs(s *Scope) template.FuncMap {
	return template.FuncMap{
		"yield": func() string {
			if s == nil {
				return ""
			}
			return s.Yield()
		},
		"render": func(name string, data ...any) (string, error) {
			if s == nil {
				return "", nil
			}
			return s.Render(name, data...)
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
