package domain

// ActionType identifies an Action variant on the wire.
type ActionType string

const (
	ActionExecute        ActionType = "EXECUTE"
	ActionRollback       ActionType = "ROLLBACK"
	ActionClarify        ActionType = "CLARIFY"
	ActionGenerateReport ActionType = "GENERATE_REPORT"
)

// Action is the closed set of transitions a caller may request.
// Only the variants declared in this package implement it.
type Action interface {
	Type() ActionType
	isAction()
}

// Execute runs a node, writing every field in its produces set.
type Execute struct {
	Node string `json:"node" mapstructure:"node"`

	// Payload seeds written fields. Fields outside the node's write set are ignored.
	Payload map[string]any `json:"payload,omitempty" mapstructure:"payload"`
}

// Rollback undoes a node according to Policy.
type Rollback struct {
	Node   string `json:"node" mapstructure:"node"`
	Policy string `json:"policy" mapstructure:"policy"`

	// Custom policy parameters.
	IncludeNodes []string `json:"include_nodes,omitempty" mapstructure:"include_nodes"`
	ExcludeNodes []string `json:"exclude_nodes,omitempty" mapstructure:"exclude_nodes"`
	Fields       []string `json:"fields,omitempty" mapstructure:"fields"`

	// IncludeReportsFixed defaults to true when nil.
	IncludeReportsFixed *bool `json:"include_reports_fixed,omitempty" mapstructure:"include_reports_fixed"`
}

// Clarify marks a slot as pending user clarification.
type Clarify struct {
	Slot string `json:"slot" mapstructure:"slot"`
}

// GenerateReport checks whether the workflow may produce its final report.
type GenerateReport struct{}

func (Execute) Type() ActionType        { return ActionExecute }
func (Rollback) Type() ActionType       { return ActionRollback }
func (Clarify) Type() ActionType        { return ActionClarify }
func (GenerateReport) Type() ActionType { return ActionGenerateReport }

func (Execute) isAction()        {}
func (Rollback) isAction()       {}
func (Clarify) isAction()        {}
func (GenerateReport) isAction() {}

// ReportsFixed reports whether the always-cleared set applies to a custom rollback.
func (r Rollback) ReportsFixed() bool {
	return r.IncludeReportsFixed == nil || *r.IncludeReportsFixed
}

// Subject returns the node (or slot, for CLARIFY) an action targets.
func Subject(a Action) string {
	switch act := a.(type) {
	case Execute:
		return act.Node
	case Rollback:
		return act.Node
	case Clarify:
		return act.Slot
	}
	return ""
}
