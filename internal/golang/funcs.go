package golang

import (
	"strconv"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"
)

// TemplateFuncs returns the helpers available to the Go templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"identifier": Identifier,
		"pascalCase": PascalCase,
		"quote":      strconv.Quote,
		"comment":    GoComment,
		"chunk":      Chunk,
		"unexport":   Unexport,
	}
}

// GoComment turns s into line comments.
func GoComment(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}
		result.WriteString("// ")
		result.WriteString(strings.TrimSpace(line))
	}
	return result.String()
}

// Chunk splits s into pieces of at most n bytes, for long string literals.
func Chunk(n int, s string) []string {
	if n <= 0 || len(s) <= n {
		return []string{s}
	}
	out := make([]string, 0, len(s)/n+1)
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// Unexport lower-cases the first letter of an identifier.
func Unexport(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
