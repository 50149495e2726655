package view

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTemplateNotFound indicates no template file matched any candidate.
	ErrTemplateNotFound = errors.New("view: template not found")

	// ErrNotAcceptable indicates the route's provided formats do not
	// intersect with the formats the client accepts.
	ErrNotAcceptable = errors.New("view: not acceptable")

	// ErrUnknownEngine indicates no engine is registered for an extension.
	ErrUnknownEngine = errors.New("view: unknown template engine")

	// ErrCompile indicates a template source failed to compile.
	ErrCompile = errors.New("view: failed to compile template")

	// ErrRender indicates template execution failed.
	ErrRender = errors.New("view: failed to render template")

	// ErrNoRoots indicates the renderer has no view roots to search.
	ErrNoRoots = errors.New("view: no view roots configured")

	// ErrInvalidFrontmatter indicates a malformed YAML frontmatter block.
	ErrInvalidFrontmatter = errors.New("view: invalid frontmatter")
)

// NotFoundError carries the logical name and every candidate path tried.
// It matches ErrTemplateNotFound with errors.Is.
type NotFoundError struct {
	Name  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("view: template %q not found", e.Name)
	}
	return fmt.Sprintf("view: template %q not found (tried %s)", e.Name, strings.Join(e.Tried, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// IsNotFound reports whether err is a template-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// AsNotFoundError extracts the NotFoundError from an error chain.
func AsNotFoundError(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}
