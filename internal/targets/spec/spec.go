// Package spec renders a Go source file embedding a generated document.
package spec

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/kolah/routedoc/internal/document"
	"github.com/kolah/routedoc/internal/golang"
	"github.com/kolah/routedoc/internal/schema"
	"github.com/kolah/routedoc/internal/templates"
)

const templateName = "go/spec.tmpl"

type Target struct{}

func New() *Target {
	return &Target{}
}

type operation struct {
	Name    string
	ID      string
	Summary string
}

type templateData struct {
	Package    string
	VarName    string
	Version    string
	Format     string
	Data       string
	Operations []operation
}

// Generate renders the Go file for doc. data is the encoded document embedded in
// the file; format names its encoding.
func (t *Target) Generate(engine templates.Engine, doc *document.Document, data []byte, format, pkg, varName string) (string, error) {
	if !golang.IsIdentifier(pkg) {
		return "", fmt.Errorf("invalid package name %q", pkg)
	}
	if !golang.IsIdentifier(varName) {
		return "", fmt.Errorf("invalid variable name %q", varName)
	}

	return engine.Execute(templateName, templateData{
		Package:    pkg,
		VarName:    varName,
		Version:    document.Version,
		Format:     format,
		Data:       base64.StdEncoding.EncodeToString(data),
		Operations: operations(doc),
	})
}

// operations lists the operation IDs of doc, sorted, with unique constant names.
func operations(doc *document.Document) []operation {
	var out []operation
	root := doc.Root()
	paths, _ := root["paths"].(map[string]any)
	for _, path := range schema.SortedKeys(paths) {
		item, _ := paths[path].(map[string]any)
		for _, method := range schema.SortedKeys(item) {
			op, _ := item[method].(map[string]any)
			id, _ := op["operationId"].(string)
			if id == "" {
				continue
			}
			summary, _ := op["summary"].(string)
			out = append(out, operation{ID: id, Summary: summary})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	used := make(map[string]bool, len(out))
	for i := range out {
		base := golang.Identifier("Operation", out[i].ID)
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s%d", base, n)
		}
		used[name] = true
		out[i].Name = name
	}
	return out
}
