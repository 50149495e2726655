package view

import (
	"slices"
	"strings"
)

// Negotiator derives ordered format candidate lists from explicit
// overrides, route capabilities and the Accept header.
type Negotiator struct {
	formats *Formats
	strict  bool
}

// NewNegotiator creates a negotiator over a format registry. In strict mode
// html is never appended as an implicit fallback.
func NewNegotiator(formats *Formats, strict bool) *Negotiator {
	if formats == nil {
		formats = NewFormats()
	}
	return &Negotiator{formats: formats, strict: strict}
}

// Strict reports whether the implicit html fallback is disabled.
func (n *Negotiator) Strict() bool {
	return n.strict
}

// Negotiate intersects the provided formats with the Accept header in the
// client's preference order. An empty or unmatched header yields
// ErrNotAcceptable. An empty provides list places no restriction and
// returns an empty format.
func (n *Negotiator) Negotiate(provides []Format, accept string) (Format, error) {
	if len(provides) == 0 {
		return "", nil
	}

	for _, entry := range parseWeighted(accept) {
		if f, ok := n.match(provides, entry.value); ok {
			return f, nil
		}
	}

	return "", ErrNotAcceptable
}

func (n *Negotiator) match(provides []Format, mediaRange string) (Format, bool) {
	mediaRange = normalizeMIME(mediaRange)

	if mediaRange == "*/*" || mediaRange == "*" {
		return normalizeFormat(provides[0]), true
	}

	if major, ok := strings.CutSuffix(mediaRange, "/*"); ok {
		for _, p := range provides {
			for _, mt := range n.formats.MIMEs(p) {
				if strings.HasPrefix(mt, major+"/") {
					return normalizeFormat(p), true
				}
			}
		}
		return "", false
	}

	for _, p := range provides {
		if slices.Contains(n.formats.MIMEs(p), mediaRange) {
			return normalizeFormat(p), true
		}
	}

	return "", false
}

// ResolveFormats builds the format candidate list for a render:
//   - an explicit format is the sole candidate;
//   - else a non-empty provides list is negotiated against accept;
//   - else the current format (html when empty) is used.
//
// Unless strict, html is appended as the final fallback.
func (n *Negotiator) ResolveFormats(explicit Format, provides []Format, accept string, current Format) ([]Format, error) {
	if explicit = normalizeFormat(explicit); explicit != "" {
		return []Format{explicit}, nil
	}

	if len(provides) > 0 {
		f, err := n.Negotiate(provides, accept)
		if err != nil {
			return nil, err
		}
		return n.withFallback(f), nil
	}

	if current = normalizeFormat(current); current == "" {
		current = HTML
	}

	return n.withFallback(current), nil
}

func (n *Negotiator) withFallback(f Format) []Format {
	if n.strict || f == HTML {
		return []Format{f}
	}
	return []Format{f, HTML}
}
