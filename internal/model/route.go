package model

// Route is one mounting point of an endpoint host.
type Route struct {
	Path        string
	Aliases     []*Alias
	AutoAliases bool
	BodyParsers map[string]any

	// OpenAPI is the route-level override fragment; OptOut is set when the route
	// declared openapi: false.
	OpenAPI map[string]any
	OptOut  bool

	// Service is the endpoint host declaring the route; Generator is the service
	// holding the documentation settings.
	Service   *ServiceDescriptor
	Generator *ServiceDescriptor
}

var bodyParserTypes = []struct {
	parser      string
	contentType string
}{
	{"json", "application/json"},
	{"urlencoded", "application/x-www-form-urlencoded"},
	{"text", "text/plain"},
	{"raw", "application/octet-stream"},
}

// ContentTypes lists the request content types accepted by the route's body parsers.
func (r *Route) ContentTypes() []string {
	var out []string
	for _, bp := range bodyParserTypes {
		v, ok := r.BodyParsers[bp.parser]
		if !ok || v == nil || v == false {
			continue
		}
		out = append(out, bp.contentType)
	}
	if len(out) == 0 {
		return []string{"application/json"}
	}
	return out
}

// ServiceName is the endpoint host name, or empty.
func (r *Route) ServiceName() string {
	if r.Service == nil {
		return ""
	}
	return r.Service.Name
}

// Key identifies a route by host service and normalized path.
func RouteKey(service, path string) string {
	return service + " " + NormalizePath(path)
}
