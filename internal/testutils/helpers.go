package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/rewind/pkg/domain"
	"github.com/stretchr/testify/require"
)

// Node names of the sample thyroid workflow.
const (
	NodeIntake     = "INTAKE"
	NodeNoduleEval = "NODULE_EVAL"
	NodeFunction   = "FUNCTION"
	NodeGrading    = "TI-RADS"
	NodeConclusion = "CONCLUSION"
	NodeReport     = "VIS_REPORT"
)

// SampleConfig returns the canonical in-memory configuration of the sample workflow.
//
//	INTAKE -> NODULE_EVAL -> TI-RADS -> CONCLUSION -> VIS_REPORT
//	INTAKE -> FUNCTION ----------------^
//
// TI-RADS, CONCLUSION and VIS_REPORT are aggregate nodes.
func SampleConfig() *domain.Config {
	return &domain.Config{
		Registry: domain.Registry{
			NodeIntake: {
				Produces: []string{"state.thyroid_size", "state.thyroid_echo", "state.diffuse_lesion_evaluation_result"},
				Consumes: []string{"state.thyroid_size"},
			},
			NodeNoduleEval: {
				Produces: []string{"state.thyroid_nodules_quantity", "state.thyroid_nodules_detail", "state.invasion"},
				Consumes: []string{"state.thyroid_nodules_quantity"},
			},
			NodeFunction: {
				Produces: []string{"state.func_hyper", "state.func_hypo"},
			},
			NodeGrading: {
				Produces: []string{"state.tirads_score", "state.tirads_label"},
				Consumes: []string{"state.tirads_score", "state.tirads_label"},
			},
			NodeConclusion: {
				Produces: []string{"state.conclusion_text", "state.recommendation", "state.conclusion_benign", "state.conclusion_malignant"},
				Consumes: []string{"state.recommendation"},
			},
			NodeReport: {
				Produces: []string{"reports.visual_report", "reports.structured_report"},
			},
		},
		Graph: domain.Graph{
			NodeIntake:     {NodeNoduleEval, NodeFunction},
			NodeNoduleEval: {NodeGrading},
			NodeGrading:    {NodeConclusion},
			NodeFunction:   {NodeConclusion},
			NodeConclusion: {NodeReport},
		},
		Rules: domain.RollbackRules{
			Clears: map[string][]string{
				NodeGrading: {"state.tirads_score", "state.tirads_label"},
			},
			ReportsFixed: []string{"reports.visual_report", "reports.structured_report"},
		},
		Policies: domain.RollbackPolicies{
			AggregateNodes: []string{NodeGrading, NodeConclusion, NodeReport},
			Policies:       []string{domain.PolicyFullDownstream, domain.PolicyAggregateOnly, domain.PolicyCustom},
		},
	}
}

// Sample rule files equivalent to SampleConfig, in the on-disk layout the loader expects.
const (
	NodesYAML = `nodes:
  INTAKE:
    produces: [state.thyroid_size, state.thyroid_echo, state.diffuse_lesion_evaluation_result]
    consumes: [state.thyroid_size]
  NODULE_EVAL:
    produces: [state.thyroid_nodules_quantity, state.thyroid_nodules_detail, state.invasion]
    consumes: [state.thyroid_nodules_quantity]
  FUNCTION:
    produces: [state.func_hyper, state.func_hypo]
  TI-RADS:
    produces: [state.tirads_score, state.tirads_label]
    consumes: [state.tirads_score, state.tirads_label]
  CONCLUSION:
    produces: [state.conclusion_text, state.recommendation, state.conclusion_benign, state.conclusion_malignant]
    consumes: [state.recommendation]
  VIS_REPORT:
    produces: [reports.visual_report, reports.structured_report]
`
	GraphYAML = `edges:
  INTAKE: [NODULE_EVAL, FUNCTION]
  NODULE_EVAL: [TI-RADS]
  TI-RADS: [CONCLUSION]
  FUNCTION: [CONCLUSION]
  CONCLUSION: [VIS_REPORT]
`
	RulesYAML = `reports_fixed: [reports.visual_report, reports.structured_report]
rules:
  TI-RADS:
    clears: [state.tirads_score, state.tirads_label]
`
	PoliciesYAML = `aggregate_nodes: [TI-RADS, CONCLUSION, VIS_REPORT]
policies:
  full_downstream: {}
  aggregate_only: {}
  custom: {}
`
)

// SetupConfigDir writes the sample rule files into a temporary directory and returns its path.
// Extra files (relative path -> content) override or extend the defaults.
func SetupConfigDir(t *testing.T, extra map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"mappings/nodes.yaml":          NodesYAML,
		"rules/node_graph.yaml":        GraphYAML,
		"rules/rollback_rules.yaml":    RulesYAML,
		"rules/rollback_policies.yaml": PoliciesYAML,
	}
	for k, v := range extra {
		files[k] = v
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}
