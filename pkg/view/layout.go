package view

import (
	"errors"
	"log/slog"
	"path"
	"strings"
)

type layoutMode uint8

const (
	layoutInherit layoutMode = iota
	layoutNamed
	layoutDisabled
)

// LayoutScope is one level of the layout declaration chain: the
// application at the root, one child per controller. Declarations are made
// while routes are registered and only read afterwards.
type LayoutScope struct {
	owner  string
	name   string
	mode   layoutMode
	parent *LayoutScope
}

// NewLayoutScope creates a scope inheriting from parent. A nil parent
// makes a root scope.
func NewLayoutScope(owner string, parent *LayoutScope) *LayoutScope {
	return &LayoutScope{owner: owner, parent: parent}
}

// Owner returns the controller name the scope belongs to.
func (s *LayoutScope) Owner() string {
	if s == nil {
		return ""
	}
	return s.owner
}

// Parent returns the enclosing scope.
func (s *LayoutScope) Parent() *LayoutScope {
	if s == nil {
		return nil
	}
	return s.parent
}

// Use declares a named layout for the scope and its children.
func (s *LayoutScope) Use(name string) {
	s.name = name
	s.mode = layoutNamed
}

// Disable declares that views in the scope render without a layout.
func (s *LayoutScope) Disable() {
	s.name = ""
	s.mode = layoutDisabled
}

// Inherit clears the declaration so the parent's applies.
func (s *LayoutScope) Inherit() {
	s.name = ""
	s.mode = layoutInherit
}

// Lookup walks from s to the root and returns the first declaration.
// ok is false when no scope declares anything.
func (s *LayoutScope) Lookup() (ref LayoutRef, ok bool) {
	for cur := s; cur != nil; cur = cur.parent {
		switch cur.mode {
		case layoutNamed:
			return LayoutRef{Name: cur.name}, true
		case layoutDisabled:
			return LayoutRef{Disabled: true}, true
		}
	}
	return LayoutRef{}, false
}

// LayoutRef is an explicit layout choice: a name or "no layout".
type LayoutRef struct {
	Name     string
	Disabled bool
}

// Default layout settings.
const (
	DefaultLayoutDir  = "layouts"
	DefaultLayoutName = "application"
)

// LayoutResolver picks the layout template for a render.
type LayoutResolver struct {
	locator     *Locator
	dir         string
	defaultName string
	logger      *slog.Logger
}

// NewLayoutResolver creates a resolver that looks up layouts under dir.
func NewLayoutResolver(locator *Locator, dir, defaultName string, logger *slog.Logger) *LayoutResolver {
	if dir == "" {
		dir = DefaultLayoutDir
	}
	if defaultName == "" {
		defaultName = DefaultLayoutName
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LayoutResolver{locator: locator, dir: dir, defaultName: defaultName, logger: logger}
}

// Resolve applies, in order: the override, the scope chain, and the
// default layout. A missing override is an error. A layout declared by a
// scope but missing for the view's format, like a missing default layout,
// means no layout. A nil candidate means no layout.
func (r *LayoutResolver) Resolve(scope *LayoutScope, override *LayoutRef, formats []Format, locales []Locale, roots []Root) (*Candidate, error) {
	var (
		ref      LayoutRef
		declared bool
		explicit bool
	)
	switch {
	case override != nil:
		ref, explicit = *override, true
		declared = true
	default:
		ref, declared = scope.Lookup()
	}

	if declared && ref.Disabled {
		return nil, nil
	}

	name := ref.Name
	if !declared || name == "" {
		name = r.defaultName
		declared, explicit = false, false
	}

	c, err := r.locator.Locate(r.layoutName(name), formats, locales, roots)
	switch {
	case err == nil:
		return &c, nil
	case explicit || !errors.Is(err, ErrTemplateNotFound):
		r.logger.Warn("layout not found",
			slog.String("layout", name),
			slog.String("scope", scope.Owner()),
			slog.Any("error", err),
		)
		return nil, err
	case declared:
		r.logger.Debug("layout skipped",
			slog.String("layout", name),
			slog.String("scope", scope.Owner()),
			slog.Any("formats", formats),
		)
	}
	return nil, nil
}

// layoutName maps a layout name to a logical view name. Names with a
// slash are relative to the view root instead of the layout directory.
func (r *LayoutResolver) layoutName(name string) string {
	if strings.Contains(name, "/") {
		return strings.TrimPrefix(name, "/")
	}
	return path.Join(r.dir, name)
}
