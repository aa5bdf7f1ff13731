package digest

import (
	"fmt"
	"maps"
	"slices"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

// chunkSummarySchema is the strict output schema sent with every chunk request.
var chunkSummarySchema = GenerateSchema[ChunkSummary]()

// GenerateSchema reflects T into a JSON schema acceptable to strict structured-output endpoints:
// no references, no additional properties, every property required. Property lists come out
// sorted, so the same T always yields the same schema. It panics if T cannot be reflected, which
// only happens for programmer error at init time.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema, err := schemaToMap(reflector.Reflect(v))
	if err != nil {
		panic(fmt.Sprintf("generate schema for %T: %v", v, err))
	}
	makeStrict(schema)
	return schema
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// makeStrict closes every object node and requires all of its properties, recursing into
// properties, array items and map values.
func makeStrict(node map[string]any) {
	props, _ := node["properties"].(map[string]any)
	names := slices.Sorted(maps.Keys(props))

	if node["type"] == "object" {
		node["additionalProperties"] = false
		if len(names) > 0 {
			node["required"] = names
		}
	}

	for _, name := range names {
		if child, ok := props[name].(map[string]any); ok {
			makeStrict(child)
		}
	}
	for _, key := range []string{"items", "additionalProperties"} {
		if child, ok := node[key].(map[string]any); ok {
			makeStrict(child)
		}
	}
}
