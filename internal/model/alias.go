package model

// UploadType marks aliases whose body carries file content.
type UploadType string

const (
	UploadNone      UploadType = ""
	UploadMultipart UploadType = "multipart"
	UploadStream    UploadType = "stream"
)

// Alias is one logical endpoint: a method and a path bound to an optional action.
type Alias struct {
	Method   Method
	Path     string
	FullPath string

	// Action is the action name; empty when the alias is not bound to an action.
	Action       string
	ActionSchema *ActionDescriptor

	Type    UploadType
	Skipped bool

	// OpenAPI is the alias-level override fragment.
	OpenAPI map[string]any

	Route *Route
}

// NewAlias creates an alias under route with a normalized method and path.
func NewAlias(route *Route, method Method, path string) *Alias {
	a := &Alias{
		Method: method,
		Path:   NormalizePath(path),
		Route:  route,
	}
	prefix := ""
	if route != nil {
		prefix = route.Path
	}
	a.FullPath = JoinPath(prefix, a.Path)
	return a
}

// Key identifies duplicates: two aliases are the same endpoint when their method and
// normalized full path match.
func (a *Alias) Key() string {
	return string(a.Method) + " " + a.FullPath
}

func (a *Alias) IsUpload() bool {
	return a.Type == UploadMultipart || a.Type == UploadStream
}

// HasAction reports whether the alias is bound to an action name.
func (a *Alias) HasAction() bool {
	return a.Action != ""
}

// ServiceName is the name of the service owning the bound action.
func (a *Alias) ServiceName() string {
	if a.ActionSchema != nil {
		return a.ActionSchema.Service
	}
	return ""
}

// OpenAPIPath is the full path in OpenAPI placeholder form.
func (a *Alias) OpenAPIPath() (string, []string) {
	return OpenAPIPath(a.FullPath)
}

// PathAction is an alias projected onto one concrete method.
type PathAction struct {
	Method Method
	Path   string
	Params []string
	Alias  *Alias
	Action *ActionDescriptor
}

// PathActions expands the alias method into concrete per-method projections.
func (a *Alias) PathActions() []PathAction {
	path, params := a.OpenAPIPath()
	methods := a.Method.Expand()
	out := make([]PathAction, 0, len(methods))
	for _, m := range methods {
		out = append(out, PathAction{
			Method: m,
			Path:   path,
			Params: params,
			Alias:  a,
			Action: a.ActionSchema,
		})
	}
	return out
}
