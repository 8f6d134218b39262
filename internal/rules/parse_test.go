package rules

import (
	"testing"

	"github.com/pb33f/libopenapi/orderedmap"
	"github.com/stretchr/testify/require"
)

func TestParse_Shorthand(t *testing.T) {
	tests := []struct {
		raw      string
		typ      string
		optional bool
		attrs    map[string]any
	}{
		{raw: "string", typ: TypeString, attrs: map[string]any{}},
		{raw: "string|optional", typ: TypeString, optional: true, attrs: map[string]any{}},
		{raw: "string | min:3 | max:10", typ: TypeString, attrs: map[string]any{"min": 3, "max": 10}},
		{raw: "number|positive|integer", typ: TypeNumber, attrs: map[string]any{"positive": true, "integer": true}},
		{raw: "number|min:0.5", typ: TypeNumber, attrs: map[string]any{"min": 0.5}},
		{raw: "string|pattern:^a", typ: TypeString, attrs: map[string]any{"pattern": "^a"}},
		{raw: "boolean|required:false", typ: TypeBoolean, optional: true, attrs: map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r, err := Parse(tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.typ, r.Type())
			require.Equal(t, tt.optional, r.Optional())
			require.Equal(t, tt.attrs, r.attrs)
		})
	}
}

func TestParse_ShorthandArray(t *testing.T) {
	r, err := Parse("string[]|optional|min:2|default:x")
	require.NoError(t, err)

	require.Equal(t, TypeArray, r.Type())
	require.True(t, r.Optional())
	def, ok := r.Default()
	require.True(t, ok)
	require.Equal(t, "x", def)

	items := r.Items()
	require.Equal(t, TypeString, items.Type())
	require.False(t, items.Optional())
	min, ok := items.Int("min")
	require.True(t, ok)
	require.Equal(t, 2, min)
	_, ok = items.Default()
	require.False(t, ok)
}

func TestParse_Object(t *testing.T) {
	props := orderedmap.New[string, any]()
	props.Set("name", "string")
	props.Set("age", map[string]any{"type": "number", "optional": true})

	raw := orderedmap.New[string, any]()
	raw.Set("type", "object")
	raw.Set("props", props)
	raw.Set("description", "A person")
	raw.Set(OpenAPIKey, map[string]any{"example": map[string]any{"name": "Ann"}})

	r, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, TypeObject, r.Type())
	require.Equal(t, "A person", r.Description())
	require.Equal(t, []string{"name", "age"}, r.Props().Names())
	require.Equal(t, map[string]any{"example": map[string]any{"name": "Ann"}}, r.OpenAPI())

	age, ok := r.Props().Get("age")
	require.True(t, ok)
	require.True(t, age.Optional())
}

func TestParse_InferredType(t *testing.T) {
	r, err := Parse(map[string]any{"props": map[string]any{"a": "string"}})
	require.NoError(t, err)
	require.Equal(t, TypeObject, r.Type())

	r, err = Parse(map[string]any{"optional": true})
	require.NoError(t, err)
	require.Equal(t, TypeAny, r.Type())
}

func TestParse_Multi(t *testing.T) {
	r, err := Parse([]any{"string", "number|optional"})
	require.NoError(t, err)
	require.Equal(t, TypeMulti, r.Type())
	require.Len(t, r.Rules(), 2)
	require.True(t, r.Optional(), "any optional alternative makes the rule optional")
}

func TestParse_RecordAndEqual(t *testing.T) {
	rec, err := Parse(map[string]any{"type": "record", "key": "string|alpha", "value": "number"})
	require.NoError(t, err)
	require.Equal(t, TypeString, rec.Key().Type())
	require.Equal(t, TypeNumber, rec.ValueRule().Type())
	require.False(t, rec.Has("value"))

	eq, err := Parse(map[string]any{"type": "equal", "value": "yes", "strict": true})
	require.NoError(t, err)
	v, ok := eq.Value("value")
	require.True(t, ok)
	require.Equal(t, "yes", v)
	require.Nil(t, eq.ValueRule())
}

func TestParse_Tuple(t *testing.T) {
	r, err := Parse(map[string]any{"type": "tuple", "items": []any{"number", "string"}})
	require.NoError(t, err)
	require.Len(t, r.Rules(), 2)
	require.Nil(t, r.Items())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{name: "empty shorthand", raw: "|optional"},
		{name: "false", raw: false},
		{name: "number", raw: 42},
		{name: "type not a string", raw: map[string]any{"type": 1}},
		{name: "bad openapi", raw: map[string]any{"type": "string", OpenAPIKey: "x"}},
		{name: "bad nested prop", raw: map[string]any{"props": map[string]any{"a": 1}}},
		{name: "bad alternative", raw: []any{"string", nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)
		})
	}
}

func TestParseMap(t *testing.T) {
	raw := orderedmap.New[string, any]()
	raw.Set("b", "string")
	raw.Set("$$oa", map[string]any{"summary": "x"})
	raw.Set("a", true)

	fields, err := ParseMap(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, fields.Names())
	require.Equal(t, []string{"a"}, fields.Without("b").Names())

	fields, err = ParseMap(nil)
	require.NoError(t, err)
	require.Empty(t, fields)

	_, err = ParseMap("string")
	require.Error(t, err)
}

func TestRule_Immutable(t *testing.T) {
	r, err := Parse(map[string]any{"type": "enum", "values": []any{"a", "b"}, "default": []any{"a"}})
	require.NoError(t, err)

	values, _ := r.List("values")
	values[0] = "changed"
	def, _ := r.Default()
	def.([]any)[0] = "changed"

	again, _ := r.List("values")
	require.Equal(t, []any{"a", "b"}, again)
	def, _ = r.Default()
	require.Equal(t, []any{"a"}, def)

	derived := r.Derive(TypeString, map[string]any{"min": 1})
	require.False(t, r.Has("min"))
	require.True(t, derived.Has("values"))
}
