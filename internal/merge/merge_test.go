package merge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMerge_Tags(t *testing.T) {
	tests := []struct {
		name    string
		sources []Fragment
		want    []string
	}{
		{
			name: "accumulate unique",
			sources: []Fragment{
				{"tags": []any{"a"}},
				{"tags": []any{"b", "a"}},
			},
			want: []string{"a", "b"},
		},
		{
			name: "null resets inherited tags",
			sources: []Fragment{
				{"tags": []any{"a"}},
				{"tags": []any{nil, "b"}},
			},
			want: []string{"b"},
		},
		{
			name: "false clears",
			sources: []Fragment{
				{"tags": []any{"a"}},
				{"tags": false},
			},
			want: nil,
		},
		{
			name: "absent inherits",
			sources: []Fragment{
				{"tags": []any{"a"}},
				{"summary": "x"},
			},
			want: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := New(nil).Merge(tt.sources...)
			require.Equal(t, tt.want, op.Tags)
		})
	}
}

func TestMerge_TagObjectsMergeIntoRegistry(t *testing.T) {
	reg := NewTagRegistry()
	m := New(reg)

	op := m.Merge(
		Fragment{"tags": []any{"pets"}},
		Fragment{"tags": []any{map[string]any{"name": "pets", "description": "Pet store"}}},
	)
	require.Equal(t, []string{"pets"}, op.Tags)

	require.Equal(t, []any{
		map[string]any{"name": "pets", "description": "Pet store"},
	}, reg.Sorted())
}

func TestMerge_Responses(t *testing.T) {
	tests := []struct {
		name    string
		sources []Fragment
		want    map[string]any
	}{
		{
			name: "false deletes status",
			sources: []Fragment{
				{"responses": map[string]any{"200": map[string]any{"description": "ok"}}},
				{"responses": map[string]any{"200": false}},
			},
			want: map[string]any{},
		},
		{
			name: "shallow merge by status",
			sources: []Fragment{
				{"responses": map[string]any{"200": map[string]any{"description": "ok"}}},
				{"responses": map[string]any{
					"200": map[string]any{"content": map[string]any{}},
					"404": map[string]any{"description": "missing"},
				}},
			},
			want: map[string]any{
				"200": map[string]any{"description": "ok", "content": map[string]any{}},
				"404": map[string]any{"description": "missing"},
			},
		},
		{
			name: "singular response becomes 200",
			sources: []Fragment{
				{"response": map[string]any{"description": "single"}},
			},
			want: map[string]any{"200": map[string]any{"description": "single"}},
		},
		{
			name: "singular false deletes inherited 200",
			sources: []Fragment{
				{"responses": map[string]any{"200": map[string]any{"description": "ok"}}},
				{"response": false},
			},
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := New(nil).Merge(tt.sources...)
			require.Equal(t, tt.want, op.Responses)
		})
	}
}

func TestMerge_Components(t *testing.T) {
	op := New(nil).Merge(
		Fragment{"components": map[string]any{
			"schemas":   map[string]any{"Pet": map[string]any{"type": "object"}},
			"responses": map[string]any{"NotFound": map[string]any{"description": "nf"}},
		}},
		Fragment{"components": map[string]any{
			"schemas":   map[string]any{"Error": map[string]any{"type": "string"}},
			"responses": map[string]any{"NotFound": false},
		}},
	)

	require.Equal(t, map[string]map[string]any{
		"schemas": {
			"Pet":   map[string]any{"type": "object"},
			"Error": map[string]any{"type": "string"},
		},
	}, op.Components)
}

func TestMerge_ScalarsLastWriterWins(t *testing.T) {
	op := New(nil).Merge(
		Fragment{"summary": "global", "deprecated": true, "security": []any{map[string]any{"key": []any{}}}},
		Fragment{"summary": "action", "deprecated": false, "security": nil},
	)
	require.Equal(t, map[string]any{"summary": "action"}, op.Fields)
}

func TestMerge_DoesNotMutateSources(t *testing.T) {
	src := Fragment{"responses": map[string]any{"200": map[string]any{"description": "ok"}}}
	op := New(nil).Merge(src, Fragment{"responses": map[string]any{"200": map[string]any{"description": "changed"}}})

	require.Equal(t, "ok", src["responses"].(map[string]any)["200"].(map[string]any)["description"])
	require.Equal(t, "changed", op.Responses["200"].(map[string]any)["description"])
}

func TestOperation_Apply(t *testing.T) {
	op := New(nil).Merge(Fragment{
		"tags":        []any{"pets"},
		"summary":     "List pets",
		"operationId": "listPets",
	})

	node := map[string]any{"summary": "default"}
	op.Apply(node)

	require.Equal(t, map[string]any{
		"tags":        []any{"pets"},
		"summary":     "List pets",
		"operationId": "listPets",
	}, node)
}

func TestTagRegistry_SortedByName(t *testing.T) {
	reg := NewTagRegistry()
	reg.Load([]any{"zeta", map[string]any{"name": "alpha", "description": "first"}})
	reg.Use("mid")

	require.Equal(t, 3, reg.Len())
	require.Equal(t, []any{
		map[string]any{"name": "alpha", "description": "first"},
		map[string]any{"name": "mid"},
		map[string]any{"name": "zeta"},
	}, reg.Sorted())
}

func TestOperation_ApplyErasesGeneratedFields(t *testing.T) {
	op := New(nil).Merge(
		Fragment{"description": "global"},
		Fragment{"summary": false, "description": nil},
		Fragment{"description": "action"},
	)

	node := map[string]any{"summary": "GET /pets", "description": "generated"}
	op.Apply(node)

	require.Equal(t, map[string]any{"description": "action"}, node)
}

func TestMerge_ResetTagsAreNotListed(t *testing.T) {
	reg := NewTagRegistry()
	m := New(reg)

	op := m.Merge(
		Fragment{"tags": []any{"inherited", map[string]any{"name": "pets", "description": "Pet store"}}},
		Fragment{"tags": []any{nil, "b"}},
	)
	require.Equal(t, []string{"b"}, op.Tags)
	require.Equal(t, []any{map[string]any{"name": "b"}}, reg.Sorted())

	// A later operation keeping the tag lists it with the description defined earlier.
	m.Merge(Fragment{"tags": []any{"pets"}})
	require.Equal(t, []any{
		map[string]any{"name": "b"},
		map[string]any{"name": "pets", "description": "Pet store"},
	}, reg.Sorted())
}
