package generator

import (
	"fmt"
	"strconv"

	"github.com/segmentio/fasthash/fnv1a"

	"github.com/kolah/routedoc/internal/model"
	"github.com/kolah/routedoc/internal/schema"
)

// fingerprint identifies the inputs of a document: two runs with equal fingerprints
// produce equal documents.
func fingerprint(base map[string]any, aliases []*model.Alias) string {
	h := fnv1a.Init64
	h = hashValue(h, base)
	for _, a := range aliases {
		h = fnv1a.AddString64(h, a.Key())
		h = fnv1a.AddString64(h, a.Action)
		h = fnv1a.AddString64(h, string(a.Type))
		h = hashValue(h, a.OpenAPI)

		if r := a.Route; r != nil {
			h = fnv1a.AddString64(h, r.Path)
			h = hashValue(h, r.OpenAPI)
			h = hashValue(h, r.BodyParsers)
		}
		if act := a.ActionSchema; act != nil {
			h = fnv1a.AddString64(h, act.Name)
			h = fnv1a.AddString64(h, act.Description)
			h = hashValue(h, act.Params)
			h = hashValue(h, act.OpenAPI)
			if act.Owner != nil {
				v, _ := act.Owner.Setting("openapi")
				h = hashValue(h, v)
			}
		}
	}
	return strconv.FormatUint(h, 16)
}

// hashValue folds v into h. Ordered maps contribute their order; plain maps are
// walked in key order.
func hashValue(h uint64, v any) uint64 {
	if entries, ok := schema.Entries(v); ok {
		h = fnv1a.AddString64(h, "{")
		for _, e := range entries {
			h = fnv1a.AddString64(h, e.Key)
			h = hashValue(h, e.Value)
		}
		return fnv1a.AddString64(h, "}")
	}

	switch t := v.(type) {
	case nil:
		return fnv1a.AddString64(h, "null")
	case []any:
		h = fnv1a.AddString64(h, "[")
		for _, el := range t {
			h = hashValue(h, el)
		}
		return fnv1a.AddString64(h, "]")
	case []string:
		h = fnv1a.AddString64(h, "[")
		for _, el := range t {
			h = fnv1a.AddString64(h, el)
		}
		return fnv1a.AddString64(h, "]")
	}
	return fnv1a.AddString64(h, fmt.Sprintf("%T:%v", v, v))
}
