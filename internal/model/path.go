package model

import (
	"regexp"
	"strings"
)

var (
	duplicateSlashes = regexp.MustCompile(`/{2,}`)
	// :name, :name?, :name(regex) and {name}
	pathParamPattern = regexp.MustCompile(`:([A-Za-z0-9_]+)(\([^)]*\))?\??|\{([A-Za-z0-9_]+)\}`)
)

// NormalizePath adds a leading slash, collapses duplicate slashes and drops a
// trailing slash.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = duplicateSlashes.ReplaceAllString("/"+p, "/")
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// JoinPath joins and normalizes path segments.
func JoinPath(parts ...string) string {
	return NormalizePath(strings.Join(parts, "/"))
}

// OpenAPIPath rewrites route placeholders to the {name} form and returns the
// parameter names in order of appearance.
func OpenAPIPath(p string) (string, []string) {
	var names []string
	out := pathParamPattern.ReplaceAllStringFunc(p, func(match string) string {
		sub := pathParamPattern.FindStringSubmatch(match)
		name := sub[1]
		if name == "" {
			name = sub[3]
		}
		names = append(names, name)
		return "{" + name + "}"
	})
	return out, names
}
