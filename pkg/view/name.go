package view

import (
	"path"
	"strings"
)

// viewName is a parsed logical name: "admin/users/index.js.tmpl" splits into
// dir "admin/users", base "index", format "js" and ext "tmpl".
type viewName struct {
	raw    string
	dir    string
	base   string
	format Format
	ext    string
}

func parseName(name string, formats *Formats, engines *Engines) viewName {
	clean := strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(name)), "/")
	dir, file := path.Split(clean)

	vn := viewName{raw: name, dir: strings.TrimSuffix(dir, "/")}

	segments := strings.Split(file, ".")
	if n := len(segments); n > 1 && engines.Has(segments[n-1]) {
		vn.ext = segments[n-1]
		segments = segments[:n-1]
	}
	if n := len(segments); n > 1 && formats.Known(Format(segments[n-1])) {
		vn.format = normalizeFormat(Format(segments[n-1]))
		segments = segments[:n-1]
	}

	vn.base = strings.Join(segments, ".")
	return vn
}

func (vn viewName) empty() bool {
	return vn.base == ""
}

// fileName builds "base[.locale][.format].ext". An empty format segment
// yields a formatless file name.
func (vn viewName) fileName(locale Locale, formatSegment, ext string) string {
	var b strings.Builder
	b.WriteString(vn.base)
	if locale != NoLocale {
		b.WriteByte('.')
		b.WriteString(string(locale))
	}
	if formatSegment != "" {
		b.WriteByte('.')
		b.WriteString(formatSegment)
	}
	b.WriteByte('.')
	b.WriteString(ext)
	return b.String()
}

// formatSegments lists the file name segments matching a format.
// Formatless files are html.
func formatSegments(f Format) []string {
	if f == HTML {
		return []string{string(HTML), ""}
	}
	return []string{string(f)}
}
