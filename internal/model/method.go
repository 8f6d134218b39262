package model

import (
	"fmt"
	"strings"
)

type Method string

const (
	MethodGet     Method = "get"
	MethodPost    Method = "post"
	MethodPut     Method = "put"
	MethodPatch   Method = "patch"
	MethodDelete  Method = "delete"
	MethodHead    Method = "head"
	MethodOptions Method = "options"

	// MethodAny matches every method; it is expanded before documents are built.
	MethodAny Method = "*"
)

var knownMethods = map[string]Method{
	"get":     MethodGet,
	"post":    MethodPost,
	"put":     MethodPut,
	"patch":   MethodPatch,
	"delete":  MethodDelete,
	"head":    MethodHead,
	"options": MethodOptions,
	"*":       MethodAny,
	"all":     MethodAny,
	"any":     MethodAny,
}

// anyMethods is the expansion of MethodAny, in output order.
var anyMethods = []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}

// ParseMethod lower-cases and validates a method token.
func ParseMethod(s string) (Method, error) {
	m, ok := knownMethods[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("invalid method %q", s)
	}
	return m, nil
}

// Expand returns the concrete methods m stands for.
func (m Method) Expand() []Method {
	if m == MethodAny {
		out := make([]Method, len(anyMethods))
		copy(out, anyMethods)
		return out
	}
	return []Method{m}
}

// HasBody reports whether parameters default to the request body for m.
func (m Method) HasBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

// Upper is the method as written in HTTP.
func (m Method) Upper() string {
	return strings.ToUpper(string(m))
}
