package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolah/routedoc/internal/model"
	"github.com/kolah/routedoc/internal/schema"
)

func loadPetstore(t *testing.T) *Manifest {
	t.Helper()
	m, err := LoadManifest(filepath.Join("testdata", "petstore.yaml"))
	require.NoError(t, err)
	return m
}

func TestLoadManifest(t *testing.T) {
	m := loadPetstore(t)
	ctx := context.Background()

	services, err := m.ListServices(ctx, true, false)
	require.NoError(t, err)
	require.Len(t, services, 4)

	names := make([]string, len(services))
	for i, s := range services {
		names[i] = s.Name
	}
	require.Equal(t, []string{"api", "openapi", "pets", "owners"}, names)

	pets := services[2]
	list := pets.Actions["list"]
	require.Equal(t, "pets.list", list.Name)
	require.Equal(t, "list", list.RawName)
	require.Equal(t, "pets", list.Service)
	require.Same(t, pets, list.Owner)
	require.Equal(t, "List pets", list.Description)

	entries, ok := schema.Entries(list.Params)
	require.True(t, ok)
	require.Equal(t, "page", entries[0].Key)
	require.Equal(t, "limit", entries[1].Key)

	owners := services[3]
	require.Equal(t, "2", owners.Version)
	require.Equal(t, "v2.owners.create", owners.Actions["create"].Name)
	require.Nil(t, owners.Actions["list"].Params)
}

func TestManifest_RouteAliasesKeepOrder(t *testing.T) {
	m := loadPetstore(t)
	services, err := m.ListServices(context.Background(), false, true)
	require.NoError(t, err)
	require.Len(t, services, 2)
	require.Nil(t, services[0].Actions)

	routes := services[0].Settings["routes"].([]any)
	aliases, ok := schema.Lookup(routes[0], "aliases")
	require.True(t, ok)

	entries, ok := schema.Entries(aliases)
	require.True(t, ok)
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	require.Equal(t, []string{"GET /pets", "REST owners", "POST /pets/:id/photo"}, keys)
}

func TestManifest_RestAliases(t *testing.T) {
	m := loadPetstore(t)
	infos, err := m.ListAliases(context.Background(), "api")
	require.NoError(t, err)

	require.Equal(t, []model.AliasInfo{
		{Path: "/pets/:id", FullPath: "/api/v1/pets/:id", RoutePath: "/api/v1", Methods: "GET", ActionName: "pets.get"},
		{Path: "/pets/secret", FullPath: "/api/v1/pets/secret", RoutePath: "/api/v1", Methods: "GET", ActionName: "pets.secret"},
	}, infos)

	none, err := m.ListAliases(context.Background(), "pets")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "services: [\n"},
		{name: "no services", data: "other: 1\n"},
		{name: "nameless service", data: "services:\n  - settings: {}\n"},
		{name: "duplicate service", data: "services:\n  - name: a\n  - name: a\n"},
		{name: "bad actions", data: "services:\n  - name: a\n    actions: [x]\n"},
		{name: "bad action", data: "services:\n  - name: a\n    actions:\n      x: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestManifest_CancelledContext(t *testing.T) {
	m := loadPetstore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.ListServices(ctx, true, false)
	require.ErrorIs(t, err, context.Canceled)
	_, err = m.ListAliases(ctx, "api")
	require.ErrorIs(t, err, context.Canceled)
}

func TestStatic(t *testing.T) {
	svc := &model.ServiceDescriptor{
		Name:    "pets",
		Actions: map[string]*model.ActionDescriptor{"list": {Name: "pets.list"}},
	}
	reg := NewStatic([]*model.ServiceDescriptor{svc}, map[string][]model.AliasInfo{
		"api": {{Path: "/pets", Methods: "GET", ActionName: "pets.list"}},
	})

	services, err := reg.ListServices(context.Background(), true, false)
	require.NoError(t, err)
	require.Same(t, svc, services[0].Actions["list"].Owner)

	local, err := reg.ListServices(context.Background(), true, true)
	require.NoError(t, err)
	require.Empty(t, local)

	infos, err := reg.ListAliases(context.Background(), "api")
	require.NoError(t, err)
	require.Len(t, infos, 1)
}

func TestFile_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services:\n  - name: a\n"), 0o644))

	f, err := OpenFile(path)
	require.NoError(t, err)

	services, err := f.ListServices(context.Background(), false, false)
	require.NoError(t, err)
	require.Len(t, services, 1)

	require.NoError(t, os.WriteFile(path, []byte("services:\n  - name: a\n  - name: b\n"), 0o644))
	require.NoError(t, f.Reload())
	services, err = f.ListServices(context.Background(), false, false)
	require.NoError(t, err)
	require.Len(t, services, 2)

	require.NoError(t, os.WriteFile(path, []byte("services: nope\n"), 0o644))
	require.Error(t, f.Reload())
	services, err = f.ListServices(context.Background(), false, false)
	require.NoError(t, err)
	require.Len(t, services, 2, "failed reload keeps the previous manifest")

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
