package view

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Locale is the language/region discriminator encoded in template file
// names ("index.en.html.tmpl").
type Locale string

// NoLocale selects locale-agnostic templates, those without a locale segment.
const NoLocale Locale = ""

func (l Locale) String() string {
	return string(l)
}

// ParseLocale normalizes a locale identifier. "none" and "" map to NoLocale.
func ParseLocale(s string) Locale {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	if s == "none" {
		return NoLocale
	}
	return Locale(s)
}

// ResolveLocales returns the locale candidate list for an active locale:
// the active locale followed by NoLocale.
func ResolveLocales(active Locale) []Locale {
	if active == NoLocale {
		return []Locale{NoLocale}
	}
	return []Locale{active, NoLocale}
}

// maxAcceptHeaderLength bounds the parsed part of Accept and Accept-Language headers.
const maxAcceptHeaderLength = 4096

type weighted struct {
	value   string
	quality float64
}

// parseWeighted splits a comma-separated header into values ordered by
// q-value. Ties keep header order; entries with q=0 are dropped.
func parseWeighted(header string) []weighted {
	if len(header) > maxAcceptHeaderLength {
		header = header[:maxAcceptHeaderLength]
	}

	var out []weighted
	for part := range strings.SplitSeq(header, ",") {
		value, params, _ := strings.Cut(part, ";")
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}

		quality := 1.0
		for param := range strings.SplitSeq(params, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || strings.TrimSpace(k) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && q >= 0 && q <= 1 {
				quality = q
			}
		}
		if quality == 0 {
			continue
		}

		out = append(out, weighted{value: value, quality: quality})
	}

	slices.SortStableFunc(out, func(a, b weighted) int {
		return cmp.Compare(b.quality, a.quality)
	})

	return out
}

// NegotiateLocale picks the available locale best matching an
// Accept-Language header. Tags are tried in preference order; for each tag
// an exact match wins over a primary-subtag match ("en-us" ~ "en").
// Returns NoLocale when nothing matches.
func NegotiateLocale(header string, available []Locale) Locale {
	if len(available) == 0 || header == "" {
		return NoLocale
	}

	for _, tag := range parseWeighted(header) {
		if tag.value == "*" {
			return available[0]
		}
		want := ParseLocale(tag.value)
		if i := slices.Index(available, want); i >= 0 {
			return available[i]
		}
		for _, avail := range available {
			if primarySubtag(avail) == primarySubtag(want) {
				return avail
			}
		}
	}

	return NoLocale
}

func primarySubtag(l Locale) string {
	base, _, _ := strings.Cut(string(ParseLocale(string(l))), "-")
	return base
}
