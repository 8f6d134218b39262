package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"text/template"

	"github.com/stretchr/testify/require"
)

var funcs = template.FuncMap{"upper": strings.ToUpper}

func TestEngine_Execute(t *testing.T) {
	embedded := fstest.MapFS{
		"go/spec.tmpl": {Data: []byte(`package {{ upper .Package }}`)},
		"README.md":    {Data: []byte(`ignored`)},
	}

	e, err := NewEngine(embedded, "", funcs)
	require.NoError(t, err)

	out, err := e.Execute("go/spec.tmpl", map[string]string{"Package": "api"})
	require.NoError(t, err)
	require.Equal(t, "package API", out)

	_, err = e.Execute("README.md", nil)
	require.ErrorContains(t, err, "template not found")
}

func TestEngine_CustomOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "go"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go", "spec.tmpl"), []byte(`custom {{ .Package }}`), 0o644))

	embedded := fstest.MapFS{"go/spec.tmpl": {Data: []byte(`embedded`)}}
	e, err := NewEngine(embedded, dir, funcs)
	require.NoError(t, err)

	out, err := e.Execute("go/spec.tmpl", map[string]string{"Package": "api"})
	require.NoError(t, err)
	require.Equal(t, "custom api", out)
}

func TestEngine_Errors(t *testing.T) {
	_, err := NewEngine(fstest.MapFS{"bad.tmpl": {Data: []byte(`{{ .Unclosed`)}}, "", funcs)
	require.Error(t, err)

	_, err = NewEngine(fstest.MapFS{}, filepath.Join(t.TempDir(), "missing"), funcs)
	require.Error(t, err)

	e, err := NewEngine(fstest.MapFS{"x.tmpl": {Data: []byte(`{{ .Missing.Field }}`)}}, "", funcs)
	require.NoError(t, err)
	_, err = e.Execute("x.tmpl", struct{}{})
	require.Error(t, err)
}
