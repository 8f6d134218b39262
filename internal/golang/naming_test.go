package golang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPascalCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello_world", "HelloWorld"},
		{"hello-world", "HelloWorld"},
		{"helloWorld", "HelloWorld"},
		{"pets.list", "PetsList"},
		{"v2.owners.get-2", "V2OwnersGet2"},
		{"get-legacy-id", "GetLegacyID"},
		{"users.get_by_uuid", "UsersGetByUUID"},
		{"api/v1/{id}", "APIV1ID"},
		{"", ""},
		{"ABC", "Abc"},
		{"petId", "PetID"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, PascalCase(tt.input))
		})
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		prefix   string
		input    string
		expected string
	}{
		{"Operation", "pets.list", "OperationPetsList"},
		{"", "2fa.verify", "X2faVerify"},
		{"", "", "X"},
		{"", "...", "X"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, Identifier(tt.prefix, tt.input))
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	require.True(t, IsIdentifier("OpenAPIDocument"))
	require.False(t, IsIdentifier("open-api"))
	require.False(t, IsIdentifier("func"))
}
