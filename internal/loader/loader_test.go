package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const petsDocument = `{
  "openapi": "3.1.0",
  "info": {"title": "Pets", "version": "1.0.0"},
  "paths": {
    "/pets": {
      "post": {
        "operationId": "pets.create",
        "requestBody": {
          "content": {
            "application/json": {"schema": {"$ref": "#/components/schemas/pets.create"}}
          }
        },
        "responses": {"200": {"description": "Successful response"}}
      }
    },
    "/pets/{id}": {
      "get": {
        "operationId": "pets.get",
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "Successful response"}}
      }
    }
  },
  "components": {
    "schemas": {
      "pets.create": {"type": "object", "properties": {"name": {"type": "string"}}}
    }
  }
}
`

func TestValidate(t *testing.T) {
	report, err := Validate([]byte(petsDocument))
	require.NoError(t, err)
	require.Equal(t, "3.1.0", report.Version)
	require.Equal(t, 2, report.Paths)
	require.Equal(t, 1, report.Schemas)
	require.True(t, report.Valid(), report.Errors)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not a document", data: "just text"},
		{name: "openapi 3.0", data: `{"openapi": "3.0.3", "info": {"title": "x", "version": "1"}, "paths": {}}`},
		{name: "swagger 2", data: `{"swagger": "2.0", "info": {"title": "x", "version": "1"}, "paths": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestValidate_MetaSchemaViolation(t *testing.T) {
	report, err := Validate([]byte(`{"openapi": "3.1.0", "info": {"title": "no version"}, "paths": {}}`))
	require.NoError(t, err)
	require.False(t, report.Valid())
}

func TestValidateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.json")
	require.NoError(t, os.WriteFile(path, []byte(petsDocument), 0o644))

	report, err := ValidateFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, report.Paths)

	_, err = ValidateFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
