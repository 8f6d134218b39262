package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

const petstore = "../registry/testdata/petstore.yaml"

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := RootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestGenerate_Stdout(t *testing.T) {
	stdout, stderr, err := execute(t, "generate", "--manifest", petstore, "--log.level", "error")
	require.NoError(t, err)
	require.Contains(t, stderr, "Generated OpenAPI 3.1.0 document: 3 paths")

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Equal(t, "3.1.0", doc["openapi"])
	require.Contains(t, doc["paths"], "/api/v1/pets")
}

func TestGenerate_File(t *testing.T) {
	out := filepath.Join(t.TempDir(), "docs", "openapi.yaml")

	_, stderr, err := execute(t, "generate", "-m", petstore, "-f", "yaml", "-o", out, "--validate")
	require.NoError(t, err)
	require.Contains(t, stderr, "Written: "+out)
	require.Contains(t, stderr, "Paths: 3")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.Equal(t, "Pet store", doc["info"].(map[string]any)["title"])
}

func TestGenerate_GoDryRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "openapi.go")

	stdout, _, err := execute(t, "generate", "-m", petstore, "-f", "go", "-p", "apidoc", "-o", out, "--dry-run")
	require.NoError(t, err)
	require.Contains(t, stdout, "package apidoc")
	require.Contains(t, stdout, `"pets.list"`)
	require.NoFileExists(t, out)
}

func TestGenerate_Errors(t *testing.T) {
	_, _, err := execute(t, "generate")
	require.ErrorContains(t, err, "manifest file is required")

	_, _, err = execute(t, "generate", "-m", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "loading manifest")

	_, _, err = execute(t, "generate", "-m", petstore, "--hosts", "nope")
	require.ErrorContains(t, err, "selecting hosts")
}

func TestAliases(t *testing.T) {
	stdout, stderr, err := execute(t, "aliases", "--manifest", petstore, "--skip-unresolved-actions=false")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Regexp(t, `^METHOD\s+PATH\s+ACTION\s+SERVICE\s+TYPE$`, lines[0])
	require.Regexp(t, `GET\s+/api/v1/pets\s+pets\.list\s+pets`, stdout)
	require.Regexp(t, `POST\s+/api/v1/pets/:id/photo\s+pets\.upload\s+pets\s+multipart`, stdout)
	require.Contains(t, stderr, " aliases")
}
