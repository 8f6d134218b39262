package golang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	require.Equal(t, []string{"abc"}, Chunk(5, "abc"))
	require.Equal(t, []string{"ab", "cd", "e"}, Chunk(2, "abcde"))
	require.Equal(t, []string{"ab", "cd"}, Chunk(2, "abcd"))
	require.Equal(t, []string{""}, Chunk(3, ""))
}

func TestGoComment(t *testing.T) {
	require.Equal(t, "", GoComment(""))
	require.Equal(t, "// one\n// two", GoComment("one\n  two"))
}

func TestFormat(t *testing.T) {
	out, err := Format([]byte("package x\nvar s = strings.ToUpper( \"a\" )\n"))
	require.NoError(t, err)
	require.Equal(t, "package x\n\nimport \"strings\"\n\nvar s = strings.ToUpper(\"a\")\n", string(out))

	_, err = Format([]byte("package x\nfunc {"))
	require.Error(t, err)
}

func TestUnexport(t *testing.T) {
	require.Equal(t, "openAPIDocument", Unexport("OpenAPIDocument"))
	require.Equal(t, "", Unexport(""))
}
