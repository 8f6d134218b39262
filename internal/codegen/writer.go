// Package codegen renders a generated document in the configured output format.
package codegen

import (
	"fmt"

	"github.com/kolah/routedoc/internal/document"
	"github.com/kolah/routedoc/internal/golang"
	spectarget "github.com/kolah/routedoc/internal/targets/spec"
	"github.com/kolah/routedoc/internal/templates"
	embeddedtmpl "github.com/kolah/routedoc/templates"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatGo   = "go"
)

// Options select what a Writer produces.
type Options struct {
	Format string
	// Package and VarName name the Go file's package and accessor function.
	Package      string
	VarName      string
	TemplatesDir string
}

type Output struct {
	Filename string
	Content  string
}

type Writer struct {
	opts   Options
	engine templates.Engine
}

func New(opts Options) (*Writer, error) {
	w := &Writer{opts: opts}
	switch opts.Format {
	case FormatJSON, FormatYAML:
	case FormatGo:
		engine, err := templates.NewEngine(embeddedtmpl.FS, opts.TemplatesDir, golang.TemplateFuncs())
		if err != nil {
			return nil, fmt.Errorf("creating template engine: %w", err)
		}
		w.engine = engine
	default:
		return nil, fmt.Errorf("unsupported output format: %s (valid: json, yaml, go)", opts.Format)
	}
	return w, nil
}

// Write renders doc.
func (w *Writer) Write(doc *document.Document) (Output, error) {
	switch w.opts.Format {
	case FormatYAML:
		data, err := doc.YAML()
		if err != nil {
			return Output{}, err
		}
		return Output{Filename: "openapi.yaml", Content: string(data)}, nil
	case FormatGo:
		return w.goFile(doc)
	}

	data, err := doc.JSON()
	if err != nil {
		return Output{}, err
	}
	return Output{Filename: "openapi.json", Content: string(data)}, nil
}

func (w *Writer) goFile(doc *document.Document) (Output, error) {
	data, err := doc.JSON()
	if err != nil {
		return Output{}, err
	}

	content, err := spectarget.New().Generate(w.engine, doc, data, FormatJSON, w.opts.Package, w.opts.VarName)
	if err != nil {
		return Output{}, fmt.Errorf("generating go file: %w", err)
	}
	formatted, err := golang.Format([]byte(content))
	if err != nil {
		return Output{}, err
	}
	return Output{Filename: "openapi.go", Content: string(formatted)}, nil
}
