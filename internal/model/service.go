package model

import "github.com/kolah/routedoc/internal/schema"

// ServiceDescriptor is one service reported by the registry.
type ServiceDescriptor struct {
	Name     string
	Version  string
	Local    bool
	Settings map[string]any
	Actions  map[string]*ActionDescriptor
}

// Setting returns a raw settings value.
func (s *ServiceDescriptor) Setting(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.Settings[key]
	return v, ok
}

// OpenAPI returns the service-level fragment from settings.openapi.
func (s *ServiceDescriptor) OpenAPI() (map[string]any, bool) {
	v, _ := s.Setting("openapi")
	return Fragment(v)
}

// ActionDescriptor is one action of a service.
type ActionDescriptor struct {
	// Name is the fully qualified name ("posts.list").
	Name        string
	RawName     string
	Service     string
	Description string

	// Owner is the service declaring the action, when the registry knows it.
	Owner *ServiceDescriptor

	// Params is the raw params map; maps keep declaration order.
	Params  any
	OpenAPI any
	Rest    any
}

// Fragment reads an openapi settings value. optOut is false when the value is the
// literal false, meaning "leave this out of the document".
func Fragment(v any) (frag map[string]any, include bool) {
	if b, ok := v.(bool); ok && !b {
		return nil, false
	}
	m, _ := schema.PlainMap(v)
	return m, true
}

// AliasInfo is one endpoint reported by auto-alias discovery.
type AliasInfo struct {
	Path       string
	FullPath   string
	RoutePath  string
	Methods    string
	ActionName string
}
