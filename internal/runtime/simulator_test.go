package runtime_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/rewind/internal/runtime"
	"github.com/aretw0/rewind/internal/testutils"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func xyzConfig() *domain.Config {
	return &domain.Config{
		Registry: domain.Registry{
			"X": {Produces: []string{"a", "b"}},
			"Y": {Produces: []string{"c"}},
			"Z": {Produces: []string{"d"}},
		},
		Graph: domain.Graph{"X": {"Y", "Z"}},
		Rules: domain.RollbackRules{ReportsFixed: []string{"r"}},
		Policies: domain.RollbackPolicies{
			AggregateNodes: []string{"Z"},
		},
	}
}

func TestStep_ExecuteWritesPayloadAndPlaceholders(t *testing.T) {
	sim := runtime.New(xyzConfig())
	state := domain.NewFields()
	var history domain.History

	res := sim.Step(context.Background(), state, &history, domain.Execute{
		Node:    "X",
		Payload: map[string]any{"a": "1", "unrelated": "ignored"},
	})

	require.True(t, res.OK)
	assert.Equal(t, domain.Fields{"a": "1", "b": nil}, state)
	assert.Equal(t, domain.History{"X"}, history)
	assert.Equal(t, []string{"EXECUTE X: wrote 2 fields"}, res.Events)
	assert.True(t, state.Has("b"), "unwritten field is present with a nil value")
}

func TestStep_ExecuteRetainsExistingValues(t *testing.T) {
	sim := runtime.New(xyzConfig())
	state := domain.Fields{"b": "kept"}
	history := domain.History{"X"}

	res := sim.Step(context.Background(), state, &history, domain.Execute{Node: "X", Payload: map[string]any{"a": "2"}})

	require.True(t, res.OK)
	assert.Equal(t, domain.Fields{"a": "2", "b": "kept"}, state)
	assert.Equal(t, domain.History{"X"}, history, "history membership is idempotent")
}

func TestStep_ExecuteUnknownNode(t *testing.T) {
	sim := runtime.New(xyzConfig())
	state := domain.NewFields()
	var history domain.History

	res := sim.Step(context.Background(), state, &history, domain.Execute{Node: "GHOST"})

	assert.True(t, res.OK)
	assert.Empty(t, state)
	assert.Equal(t, []string{"EXECUTE GHOST: wrote 0 fields"}, res.Events)
}

func TestStep_RollbackAggregateOnly(t *testing.T) {
	sim := runtime.New(xyzConfig())
	state := domain.Fields{"a": 1, "b": 2, "c": 3, "d": 4, "r": 5}
	history := domain.History{"X", "Y", "Z"}

	res := sim.Step(context.Background(), state, &history, domain.Rollback{Node: "X", Policy: domain.PolicyAggregateOnly})

	require.True(t, res.OK)
	assert.Equal(t, domain.History{"Y"}, history)
	assert.Equal(t, domain.Fields{"c": 3}, state)
	assert.Equal(t, []string{"ROLLBACK X aggregate_only: cleared 4 fields; removed nodes=[X Z]"}, res.Events)
}

func TestStep_RollbackFullDownstream(t *testing.T) {
	sim := runtime.New(xyzConfig())
	state := domain.Fields{"a": 1, "c": 3, "d": 4, "keep": true}
	history := domain.History{"W", "X", "Y", "Z"}

	res := sim.Step(context.Background(), state, &history, domain.Rollback{Node: "X", Policy: domain.PolicyFullDownstream})

	require.True(t, res.OK)
	assert.Equal(t, domain.History{"W"}, history)
	assert.Equal(t, domain.Fields{"keep": true}, state)
	assert.False(t, state.Has("a"), "cleared means absent")
	assert.Equal(t, []string{"ROLLBACK X full_downstream: cleared 5 fields; removed nodes=[X Y Z]"}, res.Events)
}

func TestStep_RollbackDefaultsToFullDownstream(t *testing.T) {
	sim := runtime.New(xyzConfig())
	history := domain.History{"X", "Y"}

	res := sim.Step(context.Background(), domain.NewFields(), &history, domain.Rollback{Node: "X"})

	assert.True(t, res.OK)
	assert.Empty(t, history)
	assert.True(t, strings.HasPrefix(res.Events[0], "ROLLBACK X full_downstream"))
}

func TestStep_RollbackCustom(t *testing.T) {
	sim := runtime.New(xyzConfig())

	t.Run("include nodes and fields", func(t *testing.T) {
		state := domain.Fields{"a": 1, "c": 3, "d": 4, "r": 5}
		history := domain.History{"X", "Y", "Z"}

		res := sim.Step(context.Background(), state, &history, domain.Rollback{
			Node:         "X",
			Policy:       domain.PolicyCustom,
			IncludeNodes: []string{"Z"},
			ExcludeNodes: []string{"Y", "Y"},
			Fields:       []string{"a"},
		})

		require.True(t, res.OK)
		assert.Equal(t, domain.History{"X", "Y"}, history, "target node stays unless included")
		assert.Equal(t, domain.Fields{"c": 3}, state)
		assert.Equal(t, []string{"ROLLBACK X custom: cleared 3 fields; include_nodes=[Z] exclude_nodes=[Y]"}, res.Events)
	})

	t.Run("exclude nodes are inert", func(t *testing.T) {
		state := domain.Fields{"d": 4}
		history := domain.History{"Z"}

		sim.Step(context.Background(), state, &history, domain.Rollback{
			Node:         "X",
			Policy:       domain.PolicyCustom,
			IncludeNodes: []string{"Z"},
			ExcludeNodes: []string{"Z"},
		})

		assert.Empty(t, history)
		assert.Empty(t, state)
	})

	t.Run("reports fixed can be kept", func(t *testing.T) {
		keep := false
		state := domain.Fields{"a": 1, "r": 5}
		history := domain.History{"X"}

		res := sim.Step(context.Background(), state, &history, domain.Rollback{
			Node:                "X",
			Policy:              domain.PolicyCustom,
			Fields:              []string{"a"},
			IncludeReportsFixed: &keep,
		})

		require.True(t, res.OK)
		assert.Equal(t, domain.Fields{"r": 5}, state)
		assert.Equal(t, domain.History{"X"}, history, "no include_nodes means no history change")
	})
}

func TestStep_UnknownPolicyIsRejectedWithoutMutation(t *testing.T) {
	sim := runtime.New(xyzConfig())
	state := domain.Fields{"a": 1, "r": 2}
	history := domain.History{"X", "Y", "Z"}

	res := sim.Step(context.Background(), state, &history, domain.Rollback{Node: "X", Policy: "nonexistent"})

	assert.False(t, res.OK)
	assert.Equal(t, []string{"Unknown policy nonexistent"}, res.Events)
	assert.Equal(t, domain.Fields{"a": 1, "r": 2}, state)
	assert.Equal(t, domain.History{"X", "Y", "Z"}, history)
}

func TestStep_Clarify(t *testing.T) {
	sim := runtime.New(xyzConfig())
	state := domain.Fields{domain.PendingSlotsKey: []any{"state.b"}}
	var history domain.History

	sim.Step(context.Background(), state, &history, domain.Clarify{Slot: "state.c"})
	res := sim.Step(context.Background(), state, &history, domain.Clarify{Slot: "state.a"})
	sim.Step(context.Background(), state, &history, domain.Clarify{Slot: "state.c"})

	assert.True(t, res.OK)
	assert.Equal(t, []string{"CLARIFY state.a"}, res.Events)
	assert.Equal(t, []string{"state.a", "state.b", "state.c"}, state[domain.PendingSlotsKey])
	assert.Empty(t, history)
}

func TestStep_UnknownActionType(t *testing.T) {
	sim := runtime.New(xyzConfig())
	state := domain.Fields{"a": 1}
	history := domain.History{"X"}

	res := sim.Step(context.Background(), state, &history, nil)

	assert.False(t, res.OK)
	assert.Equal(t, []string{"Unknown action type"}, res.Events)
	assert.Equal(t, domain.Fields{"a": 1}, state)
	assert.Equal(t, domain.History{"X"}, history)
}

func TestStep_PointerActions(t *testing.T) {
	sim := runtime.New(xyzConfig())
	state := domain.NewFields()
	var history domain.History

	res := sim.Step(context.Background(), state, &history, &domain.Execute{Node: "Y"})

	assert.True(t, res.OK)
	assert.Equal(t, domain.History{"Y"}, history)
}

func TestStep_NilStateAndHistory(t *testing.T) {
	sim := runtime.New(xyzConfig())

	res := sim.Step(context.Background(), nil, nil, domain.Execute{Node: "Y"})

	assert.True(t, res.OK)
	assert.Equal(t, domain.Fields{"c": nil}, res.State)
	assert.Equal(t, domain.History{"Y"}, res.ExecutedNodes)
}

func TestStep_GenerateReportMissingFields(t *testing.T) {
	sim := runtime.New(testutils.SampleConfig())
	state := domain.NewFields()
	var history domain.History

	res := sim.Step(context.Background(), state, &history, domain.GenerateReport{})

	assert.False(t, res.OK)
	assert.Equal(t, "GENERATE_REPORT validated: passed=false", res.Events[0])
	assert.Contains(t, res.Events, "ERROR: VIS_REPORT: Missing required: state.conclusion_text")
	assert.Contains(t, res.Events, "ERROR: VIS_REPORT: Missing required: state.recommendation")
	assert.Empty(t, state, "report never mutates state")
}

func TestStep_GenerateReportOrdersErrorsBeforeWarnings(t *testing.T) {
	sim := runtime.New(testutils.SampleConfig())
	state := domain.Fields{
		"state.thyroid_nodules_quantity": 0,
		"state.recommendation":           "none",
	}

	res := sim.Step(context.Background(), state, &domain.History{}, domain.GenerateReport{})

	assert.False(t, res.OK)
	assert.Equal(t, []string{
		"GENERATE_REPORT validated: passed=false",
		"ERROR: VIS_REPORT: Missing required: state.conclusion_text",
		"WARNING: TI-RADS: TI-RADS skipped: no discrete thyroid nodule.",
		"WARNING: VIS_REPORT: No nodule: consider adding gland echo or diffuse evaluation.",
	}, res.Events)
}

func TestStep_GenerateReportGating(t *testing.T) {
	sim := runtime.New(testutils.SampleConfig())
	ready := func() domain.Fields {
		return domain.Fields{
			"state.conclusion_text": "text",
			"state.recommendation":  "plan",
			"state.tirads_score":    "3",
			"state.tirads_label":    "TR3",
		}
	}

	t.Run("both gates pass", func(t *testing.T) {
		res := sim.Step(context.Background(), ready(), &domain.History{}, domain.GenerateReport{})
		assert.True(t, res.OK)
		assert.Equal(t, []string{"GENERATE_REPORT validated: passed=true"}, res.Events)
	})

	t.Run("warnings do not block", func(t *testing.T) {
		state := ready()
		state["state.tirads_label"] = "TR4B"
		res := sim.Step(context.Background(), state, &domain.History{}, domain.GenerateReport{})
		assert.True(t, res.OK)
		assert.Contains(t, res.Events, "WARNING: TI-RADS: TI-RADS label not aligned with score (ranks differ).")
	})

	t.Run("report gate alone fails", func(t *testing.T) {
		state := ready()
		state["state.conclusion_benign"] = true
		state["state.conclusion_malignant"] = true
		res := sim.Step(context.Background(), state, &domain.History{}, domain.GenerateReport{})
		assert.False(t, res.OK)
	})
}

func TestStep_Hooks(t *testing.T) {
	var steps []string
	var rollbacks []*domain.RollbackEvent
	var reports []bool

	hooks := domain.LifecycleHooks{
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			steps = append(steps, string(e.Action)+":"+e.Subject)
		},
		OnRollback: func(_ context.Context, e *domain.RollbackEvent) {
			rollbacks = append(rollbacks, e)
		},
		OnReport: func(_ context.Context, e *domain.ReportEvent) {
			reports = append(reports, e.Passed)
		},
	}
	sim := runtime.New(xyzConfig(), runtime.WithLifecycleHooks(hooks))
	state := domain.NewFields()
	var history domain.History
	ctx := context.Background()

	sim.Step(ctx, state, &history, domain.Execute{Node: "X"})
	sim.Step(ctx, state, &history, domain.Execute{Node: "Z"})
	sim.Step(ctx, state, &history, domain.Rollback{Node: "X", Policy: domain.PolicyAggregateOnly})
	sim.Step(ctx, state, &history, domain.Rollback{Node: "X", Policy: "bogus"})
	sim.Step(ctx, state, &history, domain.GenerateReport{})

	assert.Equal(t, []string{"EXECUTE:X", "EXECUTE:Z", "ROLLBACK:X", "ROLLBACK:X", "GENERATE_REPORT:"}, steps)
	require.Len(t, rollbacks, 1, "rejected rollbacks are not reported")
	assert.Equal(t, []string{"X", "Z"}, rollbacks[0].RemovedNodes)
	assert.Equal(t, []string{"a", "b", "d", "r"}, rollbacks[0].ClearedFields)
	assert.Equal(t, []bool{false}, reports)
}
