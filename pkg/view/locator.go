package view

import (
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
)

// Root is a named view tree. Names identify roots in diagnostics and in
// candidate ids, so they should be unique among the default roots. Caches
// key roots by name and tree, so a per-call root reusing a name never
// sees another tree's templates.
type Root struct {
	Name string
	FS   fs.FS
}

// Candidate is a resolved template file.
type Candidate struct {
	Name   string
	Root   string
	FS     fs.FS `json:"-"`
	Path   string
	Format Format
	Locale Locale
	Ext    string
}

// ID identifies the candidate across roots.
func (c Candidate) ID() string {
	return c.Root + ":" + c.Path
}

// DefaultBackupSuffixes are file name suffixes that never resolve.
var DefaultBackupSuffixes = []string{"~"}

// Locator finds template files by logical name across view roots.
type Locator struct {
	formats *Formats
	engines *Engines
	backup  []string
	memo    *memo
	trees   treeIDs
	logger  *slog.Logger
}

// NewLocator creates a locator. A nil memo disables memoization.
func NewLocator(formats *Formats, engines *Engines, backupSuffixes []string, logger *slog.Logger) *Locator {
	if formats == nil {
		formats = NewFormats()
	}
	if engines == nil {
		engines = DefaultEngines()
	}
	if backupSuffixes == nil {
		backupSuffixes = DefaultBackupSuffixes
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Locator{
		formats: formats,
		engines: engines,
		backup:  slices.Clone(backupSuffixes),
		logger:  logger,
	}
}

// cacheKey identifies the file behind c across roots sharing a name.
func (l *Locator) cacheKey(c Candidate) (string, bool) {
	k, ok := l.trees.key(Root{Name: c.Root, FS: c.FS})
	if !ok {
		return "", false
	}
	return k + ":" + c.Path, true
}

func (l *Locator) withMemo(m *memo) *Locator {
	l.memo = m
	return l
}

// Locate resolves a logical name. It iterates roots, then formats, then
// locales, then engine extensions, and returns the first existing file.
// A format or extension fixed by the name itself narrows the search.
func (l *Locator) Locate(name string, formats []Format, locales []Locale, roots []Root) (Candidate, error) {
	vn := parseName(name, l.formats, l.engines)
	if vn.empty() {
		return Candidate{}, &NotFoundError{Name: name}
	}
	if len(roots) == 0 {
		return Candidate{}, ErrNoRoots
	}

	if vn.format != "" {
		formats = []Format{vn.format}
	}
	if len(formats) == 0 {
		formats = []Format{HTML}
	}
	if len(locales) == 0 {
		locales = []Locale{NoLocale}
	}

	var key string
	if l.memo != nil {
		if rk, ok := l.trees.keys(roots); ok {
			key = memoKey(name, formats, locales, rk)
			if c, ok := l.memo.get(key); ok {
				return c, nil
			}
		}
	}

	exts := l.engines.Exts()
	if vn.ext != "" {
		exts = []string{vn.ext}
	}

	var tried []string
	for _, root := range roots {
		files := l.listDir(root.FS, vn.dir)
		for _, format := range formats {
			for _, locale := range locales {
				for _, segment := range formatSegments(format) {
					for _, ext := range exts {
						file := vn.fileName(locale, segment, ext)
						p := path.Join(vn.dir, file)
						tried = append(tried, root.Name+":"+p)

						if _, ok := files[file]; !ok {
							continue
						}

						c := Candidate{
							Name:   name,
							Root:   root.Name,
							FS:     root.FS,
							Path:   p,
							Format: normalizeFormat(format),
							Locale: locale,
							Ext:    ext,
						}
						if key != "" {
							l.memo.set(key, c)
						}
						l.logger.Debug("view resolved",
							slog.String("name", name),
							slog.String("path", c.ID()),
							slog.String("format", c.Format.String()),
							slog.String("locale", c.Locale.String()),
						)
						return c, nil
					}
				}
			}
		}
	}

	return Candidate{}, &NotFoundError{Name: name, Tried: tried}
}

// listDir returns regular file names in dir with backup files removed.
// Unreadable directories are treated as empty.
func (l *Locator) listDir(fsys fs.FS, dir string) map[string]struct{} {
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}

	files := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.IsDir() || l.isBackup(e.Name()) {
			continue
		}
		files[e.Name()] = struct{}{}
	}
	return files
}

func (l *Locator) isBackup(name string) bool {
	for _, suffix := range l.backup {
		if suffix != "" && strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
