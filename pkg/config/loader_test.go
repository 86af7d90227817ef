package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/rewind/internal/testutils"
	"github.com/aretw0/rewind/pkg/config"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SampleMatchesFixture(t *testing.T) {
	dir := testutils.SetupConfigDir(t, nil)

	b, err := config.Load(dir)
	require.NoError(t, err)

	want := testutils.SampleConfig()
	assert.Equal(t, want.Registry, b.Config.Registry)
	assert.Equal(t, want.Graph, b.Config.Graph)
	assert.Equal(t, want.Rules, b.Config.Rules)
	assert.ElementsMatch(t, want.Policies.AggregateNodes, b.Config.Policies.AggregateNodes)
	assert.ElementsMatch(t, want.Policies.Policies, b.Config.Policies.Policies)
	assert.Equal(t, "TI-RADS", b.Profile.GradingNode)
}

func TestLoad_LegacyShapes(t *testing.T) {
	dir := testutils.SetupConfigDir(t, map[string]string{
		"rules/node_graph.yaml": `edges:
  INTAKE: [NODULE_EVAL]
  NODULE_EVAL:
aggregate_nodes: [VIS_REPORT]
`,
		"rules/rollback_rules.yaml": `reports_fixed: [reports.visual_report, reports.visual_report]
rules:
  INTAKE:
    reset_set: [state.thyroid_size]
  FUNCTION:
    clears: []
    reset_set: [state.func_hyper]
  NODULE_EVAL:
`,
		"rules/rollback_policies.yaml": `policy:
  aggregate_nodes: [TI-RADS]
  definitions:
    diagnostic_tiers: {}
    full_downstream: {}
`,
	})

	b, err := config.Load(dir)
	require.NoError(t, err)
	cfg := b.Config

	assert.Equal(t, []string{"NODULE_EVAL"}, cfg.Graph["INTAKE"])
	assert.Empty(t, cfg.Graph["NODULE_EVAL"])
	assert.Equal(t, []string{"state.thyroid_size"}, cfg.Rules.Clears["INTAKE"])
	assert.Equal(t, []string{}, cfg.Rules.Clears["FUNCTION"], "explicit empty clears wins over reset_set")
	assert.Contains(t, cfg.Rules.Clears, "NODULE_EVAL")
	assert.Equal(t, []string{"reports.visual_report"}, cfg.Rules.ReportsFixed)
	assert.ElementsMatch(t, []string{"VIS_REPORT", "TI-RADS"}, cfg.Policies.AggregateNodes)
	assert.ElementsMatch(t, []string{"diagnostic_tiers", "full_downstream"}, cfg.Policies.Policies)
}

func TestLoad_PolicyList(t *testing.T) {
	dir := testutils.SetupConfigDir(t, map[string]string{
		"rules/rollback_policies.yaml": "aggregate_nodes: [VIS_REPORT]\npolicies: [custom, aggregate_only]\n",
	})

	b, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"custom", "aggregate_only"}, b.Config.Policies.Policies)
}

func TestLoad_ReadinessOverride(t *testing.T) {
	dir := testutils.SetupConfigDir(t, map[string]string{
		"rules/readiness.yaml": `report_node: FINAL
required: [state.conclusion_text]
aliases:
  state.conclusion_text: [legacy.conclusion]
`,
	})

	b, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "FINAL", b.Profile.ReportNode)
	assert.Equal(t, "TI-RADS", b.Profile.GradingNode)
	assert.Equal(t, []string{"state.conclusion_text"}, b.Profile.Required)
	assert.Equal(t, []string{"legacy.conclusion"}, b.Profile.Aliases["state.conclusion_text"])
	assert.NotEmpty(t, b.Profile.Aliases["state.tirads_score"], "untouched aliases survive")
}

func TestLoad_JSONFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		return p
	}
	files := config.Files{
		Nodes:    write("nodes.json", `{"nodes": {"X": {"produces": ["a"]}}}`),
		Graph:    write("graph.json", `{"edges": {}}`),
		Rules:    write("rules.json", `{"rules": {}, "reports_fixed": []}`),
		Policies: write("policies.json", `{"aggregate_nodes": [], "policies": {"custom": {}}}`),
	}

	b, err := config.LoadFiles(files)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, b.Config.Produces("X"))
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(t.TempDir())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := testutils.SetupConfigDir(t, map[string]string{"mappings/nodes.yaml": "nodes: [unclosed"})
		_, err := config.Load(dir)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("no nodes", func(t *testing.T) {
		dir := testutils.SetupConfigDir(t, map[string]string{"mappings/nodes.yaml": "nodes: {}\n"})
		_, err := config.Load(dir)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("bad policies shape", func(t *testing.T) {
		dir := testutils.SetupConfigDir(t, map[string]string{"rules/rollback_policies.yaml": "policies: 3\n"})
		_, err := config.Load(dir)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}
