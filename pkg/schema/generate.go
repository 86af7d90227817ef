package schema

import "slices"

const draft2020 = "https://json-schema.org/draft/2020-12/schema"

// NodesSchema builds the node-id document referenced by the action schema. With no names the
// node id is any non-empty string.
func NodesSchema(names []string) map[string]any {
	nodeID := map[string]any{"type": "string", "minLength": 1}
	if len(names) > 0 {
		sorted := slices.Clone(names)
		slices.Sort(sorted)
		nodeID = map[string]any{"type": "string", "enum": slices.Compact(sorted)}
	}
	return map[string]any{
		"$schema": draft2020,
		"$id":     NodesSchemaURL,
		"$defs": map[string]any{
			"node_id": nodeID,
		},
	}
}

// PayloadSchema builds the schema of a clarification payload for node: every consumed field
// may appear as a string, nothing else may, and at least one field must be supplied.
func PayloadSchema(node string, consumes []string) map[string]any {
	props := make(map[string]any, len(consumes))
	for _, f := range consumes {
		props[f] = map[string]any{"type": "string"}
	}
	s := map[string]any{
		"$schema":              draft2020,
		"$id":                  "schemas/node_payloads/" + node + ".schema.json",
		"$defs":                map[string]any{},
		"title":                node + " payload",
		"type":                 "object",
		"$anchor":              "payload",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(consumes) > 0 {
		s["minProperties"] = 1
	}
	return s
}
