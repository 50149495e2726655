package view

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	frontmatterOpen  = []byte("---")
	frontmatterClose = []byte("\n---")
)

// splitFrontmatter separates a leading YAML block delimited by "---" lines
// from the template body. Sources without a block return nil metadata and
// the content unchanged.
func splitFrontmatter(content []byte) (map[string]any, []byte, error) {
	rest, ok := bytes.CutPrefix(content, frontmatterOpen)
	if !ok {
		return nil, content, nil
	}
	switch {
	case bytes.HasPrefix(rest, []byte("\r\n")):
		rest = rest[2:]
	case bytes.HasPrefix(rest, []byte("\n")):
		rest = rest[1:]
	default:
		return nil, content, nil
	}

	var header, body []byte
	if bytes.HasPrefix(rest, frontmatterOpen) {
		body = rest[len(frontmatterOpen):]
	} else {
		end := bytes.Index(rest, frontmatterClose)
		if end == -1 {
			return nil, nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
		}
		header = rest[:end]
		body = rest[end+len(frontmatterClose):]
	}

	switch {
	case bytes.HasPrefix(body, []byte("\r\n")):
		body = body[2:]
	case bytes.HasPrefix(body, []byte("\n")):
		body = body[1:]
	}

	meta := make(map[string]any)
	if len(bytes.TrimSpace(header)) > 0 {
		if err := yaml.Unmarshal(header, &meta); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return meta, body, nil
}
