package golang

import (
	"go/token"
	"strings"
	"unicode"
)

var commonInitialisms = map[string]bool{
	"API":   true,
	"CPU":   true,
	"CSS":   true,
	"DNS":   true,
	"GUID":  true,
	"HTML":  true,
	"HTTP":  true,
	"HTTPS": true,
	"ID":    true,
	"IP":    true,
	"JSON":  true,
	"RPC":   true,
	"SQL":   true,
	"SSH":   true,
	"TCP":   true,
	"TLS":   true,
	"TTL":   true,
	"UDP":   true,
	"UI":    true,
	"UID":   true,
	"UUID":  true,
	"URI":   true,
	"URL":   true,
	"UTF8":  true,
	"XML":   true,
}

// PascalCase joins the words of s, upper-casing known initialisms.
func PascalCase(s string) string {
	var result strings.Builder
	for _, word := range splitWords(s) {
		upper := strings.ToUpper(word)
		if commonInitialisms[upper] {
			result.WriteString(upper)
		} else {
			result.WriteString(capitalize(word))
		}
	}
	return result.String()
}

// splitWords splits operation IDs, action names and paths into words.
// "v2.owners.get-2" -> [v2 owners get 2], "listPets" -> [list Pets].
func splitWords(s string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	var prev rune
	for i, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			prev = r
			continue
		}
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			flush()
		}
		current.WriteRune(r)
		prev = r
	}
	flush()
	return words
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// Identifier returns an exported Go identifier for s, prefixed with prefix.
func Identifier(prefix, s string) string {
	result := prefix + PascalCase(s)
	if result == "" {
		return "X"
	}
	if unicode.IsDigit(rune(result[0])) {
		result = "X" + result
	}
	if token.IsKeyword(result) {
		result += "_"
	}
	return result
}

// IsIdentifier reports whether s can be used as a Go identifier as is.
func IsIdentifier(s string) bool {
	return token.IsIdentifier(s)
}
