package schema_test

import (
	"strings"
	"testing"

	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_ValidActions(t *testing.T) {
	gate, err := schema.NewGate([]string{"INTAKE", "TI-RADS"})
	require.NoError(t, err)

	actions := []map[string]any{
		{"type": "EXECUTE", "node": "INTAKE"},
		{"type": "EXECUTE", "node": "INTAKE", "payload": map[string]any{"state.thyroid_size": "normal"}},
		{"type": "ROLLBACK", "node": "TI-RADS", "policy": "full_downstream"},
		{"type": "ROLLBACK", "node": "TI-RADS", "policy": "custom", "fields": []string{"state.x"}, "include_reports_fixed": false},
		{"type": "ROLLBACK", "node": "TI-RADS", "policy": "custom", "include_nodes": []any{"INTAKE"}},
		{"type": "CLARIFY", "slot": "state.thyroid_size"},
		{"type": "GENERATE_REPORT"},
	}
	for _, a := range actions {
		assert.NoError(t, gate.Validate(a), "%v", a)
	}
}

func TestGate_Violations(t *testing.T) {
	gate, err := schema.NewGate([]string{"INTAKE", "TI-RADS"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		action map[string]any
		want   []schema.Violation
	}{
		{
			name:   "missing type",
			action: map[string]any{"node": "INTAKE"},
			want:   []schema.Violation{{Path: "/", Message: "missing properties: 'type'"}},
		},
		{
			name:   "execute without node",
			action: map[string]any{"type": "EXECUTE"},
			want:   []schema.Violation{{Path: "/", Message: "missing properties: 'node'"}},
		},
		{
			name:   "clarify with wrong slot type",
			action: map[string]any{"type": "CLARIFY", "slot": 3},
			want:   []schema.Violation{{Path: "/slot", Message: "expected string, but got number"}},
		},
		{
			name:   "report with extra field",
			action: map[string]any{"type": "GENERATE_REPORT", "node": "INTAKE"},
			want:   []schema.Violation{{Path: "/", Message: "additionalProperties 'node' not allowed"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Validate(tt.action)
			require.Error(t, err)
			assert.Equal(t, tt.want, schema.Violations(err))
		})
	}
}

func TestGate_UnknownNodeAndPolicy(t *testing.T) {
	gate, err := schema.NewGate([]string{"INTAKE", "TI-RADS"})
	require.NoError(t, err)

	err = gate.Validate(map[string]any{"type": "ROLLBACK", "node": "GHOST", "policy": "nonexistent"})
	require.Error(t, err)

	paths := []string{}
	for _, v := range schema.Violations(err) {
		paths = append(paths, v.Path)
	}
	assert.Equal(t, []string{"/node", "/policy"}, paths)
	assert.True(t, strings.HasPrefix(err.Error(), "SchemaError: /node: value must be one of"))
	assert.Contains(t, err.Error(), " | /policy: ")
}

func TestGate_CustomNeedsScope(t *testing.T) {
	gate := schema.MustGate(nil)

	err := gate.Validate(map[string]any{"type": "ROLLBACK", "node": "X", "policy": "custom"})

	require.Error(t, err)
	assert.Equal(t, []schema.Violation{
		{Path: "/", Message: "missing properties: 'include_nodes'"},
		{Path: "/", Message: "missing properties: 'fields'"},
	}, schema.Violations(err))
}

func TestGate_WithoutRegistryAcceptsAnyNode(t *testing.T) {
	gate := schema.MustGate(nil)

	assert.NoError(t, gate.Validate(map[string]any{"type": "EXECUTE", "node": "ANYTHING"}))
	assert.Error(t, gate.Validate(map[string]any{"type": "EXECUTE", "node": ""}))
}

func TestGate_RejectsNonJSONValues(t *testing.T) {
	gate := schema.MustGate(nil)

	err := gate.Validate(map[string]any{"type": "EXECUTE", "node": "X", "payload": map[string]any{"f": func() {}}})

	require.Error(t, err)
	assert.Nil(t, schema.Violations(err))
}

func TestParseAction(t *testing.T) {
	raw, err := schema.ParseAction([]byte(`{"action": {"type": "CLARIFY", "slot": "s"}, "meta": 1}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "CLARIFY", "slot": "s"}, raw)

	raw, err = schema.ParseAction([]byte(`{"type": "EXECUTE", "node": "X", "payload": {"n": 2}}`))
	require.NoError(t, err)
	assert.Equal(t, "2", raw["payload"].(map[string]any)["n"].(interface{ String() string }).String())

	_, err = schema.ParseAction([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	keep := false
	tests := []struct {
		raw  map[string]any
		want domain.Action
	}{
		{
			map[string]any{"type": "EXECUTE", "node": "X", "payload": map[string]any{"a": "1"}},
			domain.Execute{Node: "X", Payload: map[string]any{"a": "1"}},
		},
		{
			map[string]any{"type": "ROLLBACK", "node": "X", "policy": "custom", "include_nodes": []string{"Y"}, "fields": []string{"f"}, "include_reports_fixed": false},
			domain.Rollback{Node: "X", Policy: "custom", IncludeNodes: []string{"Y"}, Fields: []string{"f"}, IncludeReportsFixed: &keep},
		},
		{
			map[string]any{"type": "CLARIFY", "slot": "s"},
			domain.Clarify{Slot: "s"},
		},
		{
			map[string]any{"type": "GENERATE_REPORT"},
			domain.GenerateReport{},
		},
	}
	for _, tt := range tests {
		got, err := schema.Decode(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.raw, schema.Encode(got))
	}

	_, err := schema.Decode(map[string]any{"type": "FLY"})
	assert.Error(t, err)
}

func TestGenerators(t *testing.T) {
	nodes := schema.NodesSchema([]string{"B", "A", "B"})
	defs := nodes["$defs"].(map[string]any)["node_id"].(map[string]any)
	assert.Equal(t, []string{"A", "B"}, defs["enum"])

	payload := schema.PayloadSchema("INTAKE", []string{"state.thyroid_size"})
	assert.Equal(t, "INTAKE payload", payload["title"])
	assert.Equal(t, 1, payload["minProperties"])
	assert.Equal(t, false, payload["additionalProperties"])

	empty := schema.PayloadSchema("FUNCTION", nil)
	assert.NotContains(t, empty, "minProperties")
}
