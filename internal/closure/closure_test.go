package closure_test

import (
	"testing"

	"github.com/aretw0/rewind/internal/closure"
	"github.com/aretw0/rewind/internal/testutils"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestDownstream(t *testing.T) {
	e := closure.New(testutils.SampleConfig())

	tests := []struct {
		node string
		want []string
	}{
		{testutils.NodeIntake, []string{"CONCLUSION", "FUNCTION", "NODULE_EVAL", "TI-RADS", "VIS_REPORT"}},
		{testutils.NodeNoduleEval, []string{"CONCLUSION", "TI-RADS", "VIS_REPORT"}},
		{testutils.NodeFunction, []string{"CONCLUSION", "VIS_REPORT"}},
		{testutils.NodeReport, []string{}},
		{"UNKNOWN", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.node, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Downstream(tt.node).Sorted())
		})
	}
}

func TestDownstream_TerminatesOnCycle(t *testing.T) {
	cfg := &domain.Config{
		Graph: domain.Graph{"A": {"B"}, "B": {"C"}, "C": {"A"}},
	}
	e := closure.New(cfg)

	assert.Equal(t, []string{"B", "C"}, e.Downstream("A").Sorted())
}

func TestClearsFullDownstream(t *testing.T) {
	e := closure.New(testutils.SampleConfig())

	got := e.ClearsFullDownstream(testutils.NodeGrading)

	// TI-RADS has an explicit rule; CONCLUSION and VIS_REPORT fall back to produces.
	assert.Equal(t, []string{
		"reports.structured_report",
		"reports.visual_report",
		"state.conclusion_benign",
		"state.conclusion_malignant",
		"state.conclusion_text",
		"state.recommendation",
		"state.tirads_label",
		"state.tirads_score",
	}, got)
}

func TestClearsFullDownstream_ExplicitRuleReplacesProduces(t *testing.T) {
	cfg := &domain.Config{
		Registry: domain.Registry{"X": {Produces: []string{"a", "b"}}},
		Rules: domain.RollbackRules{
			Clears: map[string][]string{"X": {"a", "c"}},
		},
	}
	e := closure.New(cfg)

	assert.Equal(t, []string{"a", "c"}, e.ClearsFullDownstream("X"))
}

func TestClearsAggregateOnly(t *testing.T) {
	e := closure.New(testutils.SampleConfig())

	got := e.ClearsAggregateOnly(testutils.NodeFunction)

	assert.Equal(t, []string{
		"reports.structured_report",
		"reports.visual_report",
		"state.conclusion_benign",
		"state.conclusion_malignant",
		"state.conclusion_text",
		"state.func_hyper",
		"state.func_hypo",
		"state.recommendation",
	}, got)
	assert.NotContains(t, got, "state.tirads_score", "sibling aggregate not reachable from FUNCTION")
}

func TestClearsAggregateOnly_SkipsNonAggregateDownstream(t *testing.T) {
	e := closure.New(testutils.SampleConfig())

	got := e.ClearsAggregateOnly(testutils.NodeIntake)

	assert.Contains(t, got, "state.thyroid_size")
	assert.Contains(t, got, "state.tirads_score")
	assert.NotContains(t, got, "state.thyroid_nodules_quantity")
	assert.NotContains(t, got, "state.func_hyper")
}

func TestClearsCustom(t *testing.T) {
	e := closure.New(testutils.SampleConfig())

	t.Run("fields and include nodes", func(t *testing.T) {
		got := e.ClearsCustom([]string{"state.invasion"}, []string{testutils.NodeFunction}, true)
		assert.Equal(t, []string{
			"reports.structured_report",
			"reports.visual_report",
			"state.func_hyper",
			"state.func_hypo",
			"state.invasion",
		}, got)
	})

	t.Run("without reports fixed", func(t *testing.T) {
		got := e.ClearsCustom([]string{"state.invasion"}, nil, false)
		assert.Equal(t, []string{"state.invasion"}, got)
	})
}

func TestUnknownNodeHasEmptyScope(t *testing.T) {
	e := closure.New(testutils.SampleConfig())

	assert.Equal(t, []string{"reports.structured_report", "reports.visual_report"}, e.ClearsFullDownstream("GHOST"))
	assert.Equal(t, []string{"reports.structured_report", "reports.visual_report"}, e.ClearsAggregateOnly("GHOST"))
}

func TestPreview(t *testing.T) {
	e := closure.New(testutils.SampleConfig())

	t.Run("full_downstream", func(t *testing.T) {
		scope, ok := e.Preview(domain.Rollback{Node: testutils.NodeNoduleEval, Policy: domain.PolicyFullDownstream})
		assert.True(t, ok)
		assert.Equal(t, []string{"CONCLUSION", "NODULE_EVAL", "TI-RADS", "VIS_REPORT"}, scope.Nodes)
		assert.Contains(t, scope.Fields, "state.thyroid_nodules_detail")
	})

	t.Run("aggregate_only", func(t *testing.T) {
		scope, ok := e.Preview(domain.Rollback{Node: testutils.NodeFunction, Policy: domain.PolicyAggregateOnly})
		assert.True(t, ok)
		assert.Equal(t, []string{"CONCLUSION", "FUNCTION", "VIS_REPORT"}, scope.Nodes)
	})

	t.Run("custom keeps the target node", func(t *testing.T) {
		scope, ok := e.Preview(domain.Rollback{
			Node:         testutils.NodeNoduleEval,
			Policy:       domain.PolicyCustom,
			IncludeNodes: []string{testutils.NodeGrading},
		})
		assert.True(t, ok)
		assert.Equal(t, []string{"TI-RADS"}, scope.Nodes)
	})

	t.Run("unknown policy", func(t *testing.T) {
		_, ok := e.Preview(domain.Rollback{Node: testutils.NodeIntake, Policy: "nonexistent"})
		assert.False(t, ok)
	})
}
