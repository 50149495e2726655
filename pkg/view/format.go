package view

import (
	"slices"
	"strings"
	"sync"
)

// Format is the content type discriminator encoded in template file names
// ("index.xml.tmpl") and negotiated from the Accept header.
type Format string

// Built-in formats.
const (
	HTML Format = "html"
	XML  Format = "xml"
	JS   Format = "js"
	JSON Format = "json"
	RSS  Format = "rss"
	Atom Format = "atom"
	Text Format = "txt"
	CSS  Format = "css"
	CSV  Format = "csv"
)

func (f Format) String() string {
	return string(f)
}

const fallbackMIME = "application/octet-stream"

// Formats is a registry of known formats and their MIME types.
// The first MIME type registered for a format is its primary type.
// It is safe for concurrent use.
type Formats struct {
	mimes  map[Format][]string
	byMIME map[string]Format
	mu     sync.RWMutex
}

// NewFormats creates a registry pre-populated with the built-in formats.
func NewFormats() *Formats {
	f := &Formats{
		mimes:  make(map[Format][]string),
		byMIME: make(map[string]Format),
	}
	f.Register(HTML, "text/html", "application/xhtml+xml")
	f.Register(XML, "application/xml", "text/xml")
	f.Register(JS, "application/javascript", "text/javascript")
	f.Register(JSON, "application/json")
	f.Register(RSS, "application/rss+xml")
	f.Register(Atom, "application/atom+xml")
	f.Register(Text, "text/plain")
	f.Register(CSS, "text/css")
	f.Register(CSV, "text/csv")
	return f
}

// Register adds a format or extends an existing one with more MIME types.
// A MIME type already claimed by another format keeps its first owner for
// reverse lookups.
func (f *Formats) Register(format Format, mimeTypes ...string) {
	format = normalizeFormat(format)
	if format == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	list, ok := f.mimes[format]
	if !ok {
		list = make([]string, 0, len(mimeTypes))
	}
	for _, mt := range mimeTypes {
		mt = normalizeMIME(mt)
		if mt == "" || slices.Contains(list, mt) {
			continue
		}
		list = append(list, mt)
		if _, taken := f.byMIME[mt]; !taken {
			f.byMIME[mt] = format
		}
	}
	f.mimes[format] = list
}

// Known reports whether the format is registered.
func (f *Formats) Known(format Format) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.mimes[normalizeFormat(format)]
	return ok
}

// MIMEs returns all MIME types of a format, primary first.
func (f *Formats) MIMEs(format Format) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.mimes[normalizeFormat(format)])
}

// MIME returns the primary MIME type of a format.
func (f *Formats) MIME(format Format) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if list := f.mimes[normalizeFormat(format)]; len(list) > 0 {
		return list[0]
	}
	return fallbackMIME
}

// ContentType returns a Content-Type header value for the format.
func (f *Formats) ContentType(format Format) string {
	mt := f.MIME(format)
	if mt == fallbackMIME {
		return mt
	}
	return mt + "; charset=utf-8"
}

// ForMIME returns the format owning a MIME type. Parameters are ignored.
func (f *Formats) ForMIME(mimeType string) (Format, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	format, ok := f.byMIME[normalizeMIME(mimeType)]
	return format, ok
}

func normalizeFormat(format Format) Format {
	return Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(string(format)), ".")))
}

func normalizeMIME(mt string) string {
	mt, _, _ = strings.Cut(mt, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
