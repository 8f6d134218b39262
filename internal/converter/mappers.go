package converter

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/kolah/routedoc/internal/rules"
	"github.com/kolah/routedoc/internal/schema"
)

func builtinMappers() map[string]Mapper {
	return map[string]Mapper{
		rules.TypeAny:       mapAny,
		rules.TypeArray:     mapArray,
		rules.TypeBoolean:   mapBoolean,
		rules.TypeClass:     mapNothing,
		rules.TypeCurrency:  mapCurrency,
		rules.TypeCustom:    mapNothing,
		rules.TypeDate:      mapDate,
		rules.TypeEmail:     mapEmail,
		rules.TypeEnum:      mapEnum,
		rules.TypeEqual:     mapEqual,
		rules.TypeForbidden: mapNothing,
		rules.TypeFunction:  mapNothing,
		rules.TypeLuhn:      mapLuhn,
		rules.TypeMAC:       mapMAC,
		rules.TypeMulti:     mapMulti,
		rules.TypeNumber:    mapNumber,
		rules.TypeObject:    mapObject,
		rules.TypeRecord:    mapRecord,
		rules.TypeString:    mapString,
		rules.TypeTuple:     mapTuple,
		rules.TypeURL:       mapURL,
		rules.TypeUUID:      mapUUID,
		rules.TypeObjectID:  mapObjectID,
	}
}

// mapNothing covers server-side-only constraints.
func mapNothing(*Converter, *rules.Rule, Context) (schema.Node, error) {
	return nil, nil
}

func mapAny(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	node := schema.Node{}
	withDefault(node, r)
	return node, nil
}

func mapBoolean(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	node := schema.Node{"type": "boolean"}
	withDefault(node, r)
	return node, nil
}

func mapArray(c *Converter, r *rules.Rule, ctx Context) (schema.Node, error) {
	node := schema.Node{"type": "array"}

	if items := r.Items(); items != nil {
		// Item objects take the array's own name.
		item, err := c.ConvertRule(items, Context{Name: ctx.Name, Components: ctx.Components})
		if err != nil {
			return nil, err
		}
		if item != nil {
			if values, ok := r.List("enum"); ok && !schema.IsRef(item) {
				item["enum"] = values
			}
			node["items"] = item
		}
	}

	if n, ok := r.Int("length"); ok {
		node["minItems"] = n
		node["maxItems"] = n
	} else {
		if n, ok := r.Int("min"); ok {
			node["minItems"] = n
		}
		if n, ok := r.Int("max"); ok {
			node["maxItems"] = n
		}
	}
	if r.Bool("unique") {
		node["uniqueItems"] = true
	}
	if v, ok := r.Value("contains"); ok {
		node["contains"] = schema.Node{"const": v}
	}
	withDefault(node, r)
	return node, nil
}

func mapObject(c *Converter, r *rules.Rule, ctx Context) (schema.Node, error) {
	node := schema.Node{"type": "object"}

	if r.HasProps() {
		var defaults map[string]any
		if d, ok := r.Default(); ok {
			defaults, _ = d.(map[string]any)
		}
		conv, err := c.ConvertSchema(r.Props(), Context{
			Name:       ctx.Name,
			Components: ctx.Components,
			Defaults:   defaults,
		})
		if err != nil {
			return nil, err
		}
		node["properties"] = conv.Properties()
		if req := conv.Required(); len(req) > 0 {
			node["required"] = req
		}
	}

	if n, ok := r.Int("minProps"); ok {
		node["minProperties"] = n
	}
	if n, ok := r.Int("maxProps"); ok {
		node["maxProperties"] = n
	}
	if r.Bool("strict") {
		node["additionalProperties"] = false
	}
	withDefault(node, r)
	return node, nil
}

func mapRecord(c *Converter, r *rules.Rule, ctx Context) (schema.Node, error) {
	node := schema.Node{"type": "object"}

	if vr := r.ValueRule(); vr != nil {
		value, err := c.ConvertRule(vr, ctx.child("value"))
		if err != nil {
			return nil, err
		}
		if value != nil {
			node["additionalProperties"] = value
		}
	}
	if kr := r.Key(); kr != nil {
		key, err := c.ConvertRule(kr, Context{})
		if err != nil {
			return nil, err
		}
		if key != nil && key["type"] == "string" {
			delete(key, "examples")
			node["propertyNames"] = key
		}
	}
	withDefault(node, r)
	return node, nil
}

func mapMulti(c *Converter, r *rules.Rule, ctx Context) (schema.Node, error) {
	alts, err := mapAlternatives(c, r.Rules(), ctx)
	if err != nil || len(alts) == 0 {
		return nil, err
	}
	node := schema.Node{"oneOf": alts}
	withDefault(node, r)
	return node, nil
}

func mapTuple(c *Converter, r *rules.Rule, ctx Context) (schema.Node, error) {
	// Tuples are documented as pairs.
	node := schema.Node{
		"type":     "array",
		"minItems": 2,
		"maxItems": 2,
	}
	alts, err := mapAlternatives(c, r.Rules(), ctx)
	if err != nil {
		return nil, err
	}
	if len(alts) > 0 {
		node["items"] = schema.Node{"oneOf": alts}
	}
	withDefault(node, r)
	return node, nil
}

func mapAlternatives(c *Converter, alternatives []*rules.Rule, ctx Context) ([]any, error) {
	var out []any
	for i, alt := range alternatives {
		node, err := c.ConvertRule(alt, ctx.child(fmt.Sprint(i)))
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		delete(node, schema.ExtOptional)
		out = append(out, node)
	}
	return out, nil
}

func mapNumber(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	node := schema.Node{"type": "number"}
	if r.Bool("integer") {
		node["type"] = "integer"
	}
	if v, ok := r.Number("min"); ok {
		node["minimum"] = v
	}
	if v, ok := r.Number("max"); ok {
		node["maximum"] = v
	}
	if r.Bool("positive") {
		node["exclusiveMinimum"] = 0
	}
	if r.Bool("negative") {
		node["exclusiveMaximum"] = 0
	}
	if v, ok := r.Number("equal"); ok {
		node["const"] = v
	}
	withDefault(node, r)
	return node, nil
}

func mapEnum(c *Converter, r *rules.Rule, ctx Context) (schema.Node, error) {
	values, _ := r.List("values")
	return mapString(c, r.Derive(rules.TypeString, map[string]any{"enum": values}), ctx)
}

func mapEqual(c *Converter, r *rules.Rule, ctx Context) (schema.Node, error) {
	if field, ok := r.Text("field"); ok && field != "" {
		if node := ctx.sibling(c, field); node != nil {
			return node, nil
		}
		return schema.Node{"type": "string"}, nil
	}

	value, hasValue := r.Value("value")
	if !r.Bool("strict") {
		node := schema.Node{"type": "string"}
		if hasValue {
			node["const"] = fmt.Sprint(value)
		}
		return node, nil
	}

	node := schema.Node{"type": jsonType(value)}
	if hasValue {
		node["const"] = value
	}
	return node, nil
}

// sibling maps the named field of the enclosing object, reusing its schema when it
// has already been mapped.
func (ctx Context) sibling(c *Converter, field string) schema.Node {
	if node, ok := ctx.mapped[field]; ok {
		node = schema.CloneNode(node)
		delete(node, schema.ExtOptional)
		delete(node, schema.ExtIn)
		return node
	}
	r, ok := ctx.Siblings.Get(field)
	if !ok || ctx.resolving == nil || ctx.resolving[field] {
		return nil
	}
	ctx.resolving[field] = true
	defer delete(ctx.resolving, field)

	node, err := c.ConvertRule(r, Context{Siblings: ctx.Siblings, mapped: ctx.mapped, resolving: ctx.resolving})
	if err != nil || node == nil {
		return nil
	}
	delete(node, schema.ExtOptional)
	delete(node, schema.ExtIn)
	return node
}

func jsonType(v any) string {
	if v == nil {
		return "null"
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	}
	return "string"
}

func mapDate(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	if !r.Bool("convert") {
		return nil, nil
	}
	node := schema.Node{
		"type":     "string",
		"format":   "date-time",
		"examples": []any{"1998-01-10T13:00:00.000Z"},
	}
	withDefault(node, r)
	return node, nil
}

const currencyTemplate = `(?=.*\d)^(-?~1|~1-?)(([0-9]\d{0,2}(~2\d{3})*)|0)?(~3\d{1,2})?$`

func mapCurrency(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	node := schema.Node{"type": "string", "format": "currency"}

	if custom, ok := r.Text("customRegex"); ok && custom != "" {
		node["pattern"] = custom
	} else {
		symbol := ""
		if s, ok := r.Text("currencySymbol"); ok && s != "" {
			symbol = regexp.QuoteMeta(s)
			if r.Bool("symbolOptional") {
				symbol += "?"
			}
		}
		thousand := ","
		if s, ok := r.Text("thousandSeparator"); ok && s != "" {
			thousand = s
		}
		decimal := "."
		if s, ok := r.Text("decimalSeparator"); ok && s != "" {
			decimal = s
		}
		node["pattern"] = strings.NewReplacer(
			"~1", symbol,
			"~2", regexp.QuoteMeta(thousand),
			"~3", regexp.QuoteMeta(decimal),
		).Replace(currencyTemplate)

		sym, _ := r.Text("currencySymbol")
		node["examples"] = []any{sym + "12" + thousand + "222" + decimal + "2"}
	}
	withDefault(node, r)
	return node, nil
}

// withDefault documents a rule's default value as the default and sole example.
func withDefault(node schema.Node, r *rules.Rule) {
	if d, ok := r.Default(); ok {
		node["default"] = d
		node["examples"] = []any{d}
	}
}

// uuidExamples holds one well-formed example per UUID version.
var uuidExamples = map[int]string{
	0: uuid.Nil.String(),
	1: uuid.NameSpaceDNS.String(),
	3: uuid.NewMD5(uuid.NameSpaceURL, []byte("https://example.com")).String(),
	4: uuid.MustParse("10ba038e-48da-487b-96e8-8d3b99b6d18a").String(),
	5: uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://example.com")).String(),
	6: uuid.MustParse("1ec9414c-232a-6b00-b3c8-9e6bdeced846").String(),
}

func mapUUID(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	example := uuidExamples[4]
	if v, ok := r.Int("version"); ok {
		if ex, known := uuidExamples[v]; known {
			example = ex
		}
	}
	return formatNode(r, "uuid", "", example), nil
}

func mapEmail(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	node := formatNode(r, "email", "", "foo@example.com")
	lengths(node, r)
	return node, nil
}

func mapURL(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	return formatNode(r, "uri", "", "https://example.com"), nil
}

func mapMAC(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	return formatNode(r, "mac",
		`^((([a-fA-F0-9][a-fA-F0-9]+[-]){5}|([a-fA-F0-9][a-fA-F0-9]+[:]){5})([a-fA-F0-9][a-fA-F0-9])$)|(^([a-fA-F0-9][a-fA-F0-9][a-fA-F0-9][a-fA-F0-9]+[.]){2}([a-fA-F0-9][a-fA-F0-9][a-fA-F0-9][a-fA-F0-9]))$`,
		"01:C8:95:4B:65:FE"), nil
}

func mapLuhn(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	return formatNode(r, "luhn", `^[0-9]+(?:[- ][0-9]+)*$`, "4242424242424242"), nil
}

func mapObjectID(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	return formatNode(r, "objectid", `^[0-9a-fA-F]{24}$`, "507f1f77bcf86cd799439011"), nil
}

func formatNode(r *rules.Rule, format, pattern, example string) schema.Node {
	node := schema.Node{
		"type":     "string",
		"format":   format,
		"examples": []any{example},
	}
	if pattern != "" {
		node["pattern"] = pattern
	}
	withDefault(node, r)
	return node
}

func lengths(node schema.Node, r *rules.Rule) {
	if n, ok := r.Int("length"); ok {
		node["minLength"] = n
		node["maxLength"] = n
		return
	}
	if n, ok := r.Int("min"); ok {
		node["minLength"] = n
	}
	if n, ok := r.Int("max"); ok {
		node["maxLength"] = n
	}
}

type stringFormat struct {
	flag    string
	format  string
	pattern string
	example string
}

// stringFormats are checked in order; the first flag set on a rule wins.
var stringFormats = []stringFormat{
	{"numeric", "numeric", `^-?[0-9]\d*(\.\d+)?$`, "12345"},
	{"alpha", "alpha", `^[a-zA-Z]+$`, "abcdef"},
	{"alphanum", "alphanum", `^[a-zA-Z0-9]+$`, "abc123"},
	{"alphadash", "alphadash", `^[a-zA-Z0-9_-]+$`, "abc-123_def"},
	{"singleLine", "single-line", `^[^\r\n]*$`, "a single line"},
	{"hex", "hex", `^([0-9a-fA-F]{2})+$`, "deadbeef"},
	{"base64", "base64", `^(?:[A-Za-z0-9+/]{4})*(?:[A-Za-z0-9+/]{2}==|[A-Za-z0-9+/]{3}=)?$`, "aGVsbG8gd29ybGQ="},
}

func mapString(_ *Converter, r *rules.Rule, _ Context) (schema.Node, error) {
	node := schema.Node{"type": "string"}

	for _, f := range stringFormats {
		if !r.Bool(f.flag) {
			continue
		}
		node["format"] = f.format
		node["pattern"] = f.pattern
		node["examples"] = []any{f.example}
		break
	}

	if p, ok := r.Text("pattern"); ok && p != "" {
		node["pattern"] = p
	}
	lengths(node, r)
	if values, ok := r.List("enum"); ok && len(values) > 0 {
		node["enum"] = values
		if _, has := node["examples"]; !has {
			node["examples"] = []any{values[0]}
		}
	}
	withDefault(node, r)
	return node, nil
}
