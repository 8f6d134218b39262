// Package loader reads generated documents back with libopenapi to check that they
// are well-formed OpenAPI 3.1.
package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/pb33f/libopenapi"
	validator "github.com/pb33f/libopenapi-validator"
	validatorErrors "github.com/pb33f/libopenapi-validator/errors"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

// Report summarizes a verified document.
type Report struct {
	Version string
	Paths   int
	Schemas int
	// Errors lists meta-schema violations. A document with errors still parsed.
	Errors []string
}

// Valid reports whether the document passed validation.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// ValidateFile reads and validates a document file.
func ValidateFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return Validate(data)
}

// Validate parses data, builds the v3 model and runs the OpenAPI meta-schema check.
func Validate(data []byte) (*Report, error) {
	doc, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "3.1") {
		return nil, fmt.Errorf("unsupported OpenAPI version: %s (only 3.1 is emitted)", version)
	}

	model, err := doc.BuildV3Model()
	if err != nil {
		return nil, fmt.Errorf("building OpenAPI model: %w", err)
	}

	report := &Report{Version: version}
	count(report, &model.Model)

	v, errs := validator.NewValidator(doc)
	if len(errs) > 0 {
		return nil, fmt.Errorf("creating validator: %w", errs[0])
	}
	if valid, verrs := v.ValidateDocument(); !valid {
		for _, ve := range verrs {
			report.Errors = append(report.Errors, describe(ve.Message, ve.Reason, ve.SchemaValidationErrors))
		}
	}
	return report, nil
}

func count(r *Report, doc *v3.Document) {
	if doc.Paths != nil && doc.Paths.PathItems != nil {
		r.Paths = doc.Paths.PathItems.Len()
	}
	if doc.Components != nil && doc.Components.Schemas != nil {
		r.Schemas = doc.Components.Schemas.Len()
	}
}

func describe(message, reason string, failures []*validatorErrors.SchemaValidationFailure) string {
	var b strings.Builder
	b.WriteString(message)
	if reason != "" && reason != message {
		b.WriteString(": ")
		b.WriteString(reason)
	}
	for _, f := range failures {
		b.WriteString("; ")
		if f.Location != "" {
			b.WriteString(f.Location)
			b.WriteString(" ")
		}
		b.WriteString(f.Reason)
	}
	return b.String()
}
