// Package templates executes the output templates. Templates in a custom directory
// replace the embedded ones of the same name.
package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"
)

type Engine interface {
	Execute(name string, data any) (string, error)
}

type TextTemplateEngine struct {
	templates *template.Template
}

// NewEngine parses every .tmpl file of embedded, then of customDir when set.
func NewEngine(embedded fs.FS, customDir string, funcs template.FuncMap) (*TextTemplateEngine, error) {
	root := template.New("").Funcs(funcs)

	if err := parseTree(root, embedded); err != nil {
		return nil, fmt.Errorf("loading embedded templates: %w", err)
	}
	if customDir != "" {
		if _, err := os.Stat(customDir); err != nil {
			return nil, fmt.Errorf("loading custom templates: %w", err)
		}
		if err := parseTree(root, os.DirFS(customDir)); err != nil {
			return nil, fmt.Errorf("loading custom templates from %s: %w", customDir, err)
		}
	}
	return &TextTemplateEngine{templates: root}, nil
}

func parseTree(root *template.Template, fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", path, err)
		}
		if _, err := root.New(path).Parse(string(content)); err != nil {
			return fmt.Errorf("parsing template %s: %w", path, err)
		}
		return nil
	})
}

func (e *TextTemplateEngine) Execute(name string, data any) (string, error) {
	tmpl := e.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.String(), nil
}
