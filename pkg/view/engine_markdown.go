package view

import (
	"bytes"
	"fmt"
	"io"
	"text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// MarkdownEngine runs a text/template pass over the source and converts
// the result from Markdown to HTML. Raw HTML in the source is dropped
// unless a sanitizing policy is set.
type MarkdownEngine struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	funcs  template.FuncMap
}

// MarkdownOption configures a MarkdownEngine.
type MarkdownOption func(*MarkdownEngine)

// WithMarkdownPolicy keeps raw HTML and passes the output through policy.
func WithMarkdownPolicy(policy *bluemonday.Policy) MarkdownOption {
	return func(e *MarkdownEngine) {
		e.policy = policy
	}
}

// WithMarkdownFuncs adds functions to the template pass.
func WithMarkdownFuncs(funcs template.FuncMap) MarkdownOption {
	return func(e *MarkdownEngine) {
		for k, v := range funcs {
			e.funcs[k] = v
		}
	}
}

// NewMarkdownEngine creates a GitHub-flavored Markdown engine.
func NewMarkdownEngine(opts ...MarkdownOption) *MarkdownEngine {
	e := &MarkdownEngine{funcs: template.FuncMap{}}
	for _, opt := range opts {
		opt(e)
	}

	rendererOpts := []goldmark.Option{goldmark.WithExtensions(extension.GFM)}
	if e.policy != nil {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(gmhtml.WithUnsafe()))
	}
	e.md = goldmark.New(rendererOpts...)

	return e
}

func (e *MarkdownEngine) Compile(src Source) (Template, error) {
	t, err := parseText(src, e.funcs)
	if err != nil {
		return nil, err
	}
	return &markdownTemplate{engine: e, base: t}, nil
}

type markdownTemplate struct {
	engine *MarkdownEngine
	base   *template.Template
}

func (t *markdownTemplate) Execute(w io.Writer, s *Scope) error {
	var processed bytes.Buffer
	if err := executeText(t.base, &processed, s); err != nil {
		return err
	}

	var out bytes.Buffer
	if err := t.engine.md.Convert(processed.Bytes(), &out); err != nil {
		return fmt.Errorf("%w: converting markdown: %v", ErrRender, err)
	}

	if t.engine.policy != nil {
		_, err := t.engine.policy.SanitizeReader(&out).WriteTo(w)
		return err
	}

	_, err := out.WriteTo(w)
	return err
}
