// Package document assembles the OpenAPI document from resolved aliases.
package document

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/routedoc/internal/schema"
)

// Version is the OpenAPI version every document is emitted in.
const Version = "3.1.0"

// Map keys are sorted so equal documents encode to equal bytes.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Document is a finished OpenAPI document. It is not modified after Generate returns.
type Document struct {
	root map[string]any
}

// Root returns a copy of the document tree.
func (d *Document) Root() map[string]any {
	return schema.CloneNode(d.root)
}

// Paths lists the documented paths in order.
func (d *Document) Paths() []string {
	paths, _ := d.root["paths"].(map[string]any)
	return schema.SortedKeys(paths)
}

// Operation returns a copy of the operation at path and method.
func (d *Document) Operation(path, method string) (map[string]any, bool) {
	paths, _ := d.root["paths"].(map[string]any)
	item, _ := paths[path].(map[string]any)
	op, ok := item[method].(map[string]any)
	if !ok {
		return nil, false
	}
	return schema.CloneNode(op), true
}

// JSON encodes the document with two-space indentation.
func (d *Document) JSON() ([]byte, error) {
	compact, err := json.Marshal(d.root)
	if err != nil {
		return nil, fmt.Errorf("encoding document as json: %w", err)
	}
	// jsoniter misaligns nested maps when indenting with sorted keys.
	var out bytes.Buffer
	if err := stdjson.Indent(&out, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indenting document json: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// YAML encodes the document as YAML.
func (d *Document) YAML() ([]byte, error) {
	out, err := yaml.Marshal(d.root)
	if err != nil {
		return nil, fmt.Errorf("encoding document as yaml: %w", err)
	}
	return out, nil
}
