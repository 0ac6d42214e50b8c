package router

import (
	"fmt"
	"strings"
)

type segmentKind uint8

const (
	literal  segmentKind = iota // default
	param                       // :name
	wildcard                    // *name, last segment only
)

// defaultWildcardName is used for a bare "*".
const defaultWildcardName = "wildcard"

type segment struct {
	kind  segmentKind
	value string // literal text or parameter name
}

// compilePattern splits a route pattern into typed segments.
func compilePattern(pattern string) ([]segment, error) {
	if pattern == "" || pattern[0] != '/' {
		return nil, fmt.Errorf("pattern %q must begin with '/'", pattern)
	}

	parts := splitPath(pattern)
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, ":"):
			name := part[1:]
			if name == "" {
				return nil, fmt.Errorf("pattern %q: parameters must be named", pattern)
			}
			if seen[name] {
				return nil, fmt.Errorf("pattern %q: duplicate parameter %q", pattern, name)
			}
			seen[name] = true
			segs = append(segs, segment{kind: param, value: name})

		case strings.HasPrefix(part, "*"):
			if i != len(parts)-1 {
				return nil, fmt.Errorf("pattern %q: wildcard must be the last segment", pattern)
			}
			name := part[1:]
			if name == "" {
				name = defaultWildcardName
			}
			if seen[name] {
				return nil, fmt.Errorf("pattern %q: duplicate parameter %q", pattern, name)
			}
			seen[name] = true
			segs = append(segs, segment{kind: wildcard, value: name})

		default:
			segs = append(segs, segment{kind: literal, value: part})
		}
	}
	return segs, nil
}

// splitPath splits a path into segments. "/" has none and a trailing slash
// yields a trailing empty segment.
func splitPath(path string) []string {
	if path == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}
