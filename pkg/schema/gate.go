package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Resource locations. The action schema references node ids relative to its own $id.
const (
	ActionSchemaURL = "https://rewind.dev/schemas/action.schema.json"
	NodesSchemaURL  = "https://rewind.dev/schemas/nodes.schema.json"
)

//go:embed action.schema.json
var actionSchema []byte

// ActionSchema returns the raw action schema document.
func ActionSchema() []byte {
	return slices.Clone(actionSchema)
}

// Gate validates raw actions. It is immutable and safe for concurrent use.
type Gate struct {
	schema *jsonschema.Schema
	nodes  []string
}

// NewGate compiles the action schema. When nodes is non-empty, every node reference in an
// action must name one of them; otherwise any non-empty string is accepted.
func NewGate(nodes []string) (*Gate, error) {
	nodesDoc, err := json.Marshal(NodesSchema(nodes))
	if err != nil {
		return nil, fmt.Errorf("failed to encode nodes schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(ActionSchemaURL, bytes.NewReader(actionSchema)); err != nil {
		return nil, fmt.Errorf("failed to add action schema: %w", err)
	}
	if err := c.AddResource(NodesSchemaURL, bytes.NewReader(nodesDoc)); err != nil {
		return nil, fmt.Errorf("failed to add nodes schema: %w", err)
	}
	s, err := c.Compile(ActionSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile action schema: %w", err)
	}
	return &Gate{schema: s, nodes: slices.Clone(nodes)}, nil
}

// MustGate is like NewGate but panics on error. The embedded schema always compiles, so this
// only fails on programmer error.
func MustGate(nodes []string) *Gate {
	g, err := NewGate(nodes)
	if err != nil {
		panic(err)
	}
	return g
}

// Nodes returns the node names the gate constrains references to.
func (g *Gate) Nodes() []string {
	return slices.Clone(g.nodes)
}

// Validate checks a raw action. It returns a *ViolationError listing every leaf failure,
// sorted by location, or another error if raw cannot be represented as JSON.
func (g *Gate) Validate(raw any) error {
	doc, err := toJSON(raw)
	if err != nil {
		return fmt.Errorf("action is not a JSON value: %w", err)
	}

	err = g.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}

	var out []Violation
	collectLeaves(ve, &out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return &ViolationError{Violations: slices.Compact(out)}
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]Violation) {
	if len(ve.Causes) == 0 {
		path := ve.InstanceLocation
		if path == "" {
			path = "/"
		}
		*out = append(*out, Violation{Path: path, Message: ve.Message})
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}

// toJSON converts arbitrary Go values into the generic shapes the validator understands,
// keeping number precision.
func toJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseAction decodes one JSON document, keeping numbers as json.Number.
// A document of the form {"action": {...}} is unwrapped.
func ParseAction(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("invalid action JSON: %w", err)
	}
	if inner, ok := obj["action"].(map[string]any); ok {
		return inner, nil
	}
	if obj == nil {
		return nil, fmt.Errorf("invalid action JSON: %s", strings.TrimSpace(string(data)))
	}
	return obj, nil
}
