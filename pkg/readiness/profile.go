package readiness

import "github.com/aretw0/rewind/pkg/domain"

// AliasTable maps a canonical field name to its ordered legacy names.
type AliasTable map[string][]string

// Lookup returns the value of the canonical key if present, else the value of the first
// alias present, else reports false.
func (a AliasTable) Lookup(state domain.Fields, key string) (any, bool) {
	if v, ok := state[key]; ok {
		return v, true
	}
	for _, alt := range a[key] {
		if v, ok := state[alt]; ok {
			return v, true
		}
	}
	return nil, false
}

// Present reports whether key (or one of its aliases) resolves to a supplied value.
func (a AliasTable) Present(state domain.Fields, key string) bool {
	v, _ := a.Lookup(state, key)
	return domain.Present(v)
}

// ItemContainer locates a list of per-item records in state.
// An empty Parent means the list lives at the top level of the state.
type ItemContainer struct {
	Parent string `json:"parent" yaml:"parent" mapstructure:"parent"`
	List   string `json:"list" yaml:"list" mapstructure:"list"`
}

// Profile is the configuration of the readiness gates.
type Profile struct {
	// GradingNode and ReportNode are the two gates checked by GENERATE_REPORT.
	GradingNode string `json:"grading_node" yaml:"grading_node" mapstructure:"grading_node"`
	ReportNode  string `json:"report_node" yaml:"report_node" mapstructure:"report_node"`

	ScoreField    string `json:"score_field" yaml:"score_field" mapstructure:"score_field"`
	LabelField    string `json:"label_field" yaml:"label_field" mapstructure:"label_field"`
	QuantityField string `json:"quantity_field" yaml:"quantity_field" mapstructure:"quantity_field"`

	// Required fields must be present before a report.
	Required []string `json:"required" yaml:"required" mapstructure:"required"`

	// MutuallyExclusive groups must never have more than one present member.
	MutuallyExclusive [][]string `json:"mutually_exclusive" yaml:"mutually_exclusive" mapstructure:"mutually_exclusive"`

	// GlandFields support a report when there is nothing to grade.
	GlandFields []string `json:"gland_fields" yaml:"gland_fields" mapstructure:"gland_fields"`

	Aliases AliasTable `json:"aliases" yaml:"aliases" mapstructure:"aliases"`

	// ItemContainers are searched in order for per-item grades under ItemGradeKeys.
	ItemContainers []ItemContainer `json:"item_containers" yaml:"item_containers" mapstructure:"item_containers"`
	ItemGradeKeys  []string        `json:"item_grade_keys" yaml:"item_grade_keys" mapstructure:"item_grade_keys"`
}

// DefaultProfile returns the thyroid ultrasound profile.
func DefaultProfile() Profile {
	return Profile{
		GradingNode:   "TI-RADS",
		ReportNode:    "VIS_REPORT",
		ScoreField:    "state.tirads_score",
		LabelField:    "state.tirads_label",
		QuantityField: "state.thyroid_nodules_quantity",
		Required: []string{
			"state.conclusion_text",
			"state.recommendation",
		},
		MutuallyExclusive: [][]string{
			{"state.conclusion_benign", "state.conclusion_malignant"},
			{"state.func_hyper", "state.func_hypo"},
		},
		GlandFields: []string{
			"state.thyroid_echo",
			"state.diffuse_lesion_evaluation_result",
		},
		Aliases: AliasTable{
			"state.tirads_score": {
				"state.ti_rads_score",
				"ti_rads_score",
				"state.thyroid_nodules_detail.nodules.ti_rads_score_overall",
			},
			"state.tirads_label": {
				"state.ti_rads_overall",
				"ti_rads_overall",
			},
			"state.conclusion_text": {
				"reports.conclusion_text",
			},
			"state.recommendation": {
				"reports.recommendation",
				"reports.follow_up_plan",
			},
			"state.thyroid_nodules_quantity": {
				"thyroid_nodules_quantity",
			},
		},
		ItemContainers: []ItemContainer{
			{Parent: "state.thyroid_nodules_detail", List: "nodules"},
			{Parent: "thyroid_nodules_detail", List: "nodules"},
			{Parent: "state", List: "nodules"},
			{Parent: "ultrasound", List: "nodules"},
			{List: "nodules"},
		},
		ItemGradeKeys: []string{"ti_rads_score", "tirads_score", "ti_rads", "tirads"},
	}
}

// Merge overlays the non-empty settings of o onto p. Alias entries are merged per key.
func (p Profile) Merge(o Profile) Profile {
	if o.GradingNode != "" {
		p.GradingNode = o.GradingNode
	}
	if o.ReportNode != "" {
		p.ReportNode = o.ReportNode
	}
	if o.ScoreField != "" {
		p.ScoreField = o.ScoreField
	}
	if o.LabelField != "" {
		p.LabelField = o.LabelField
	}
	if o.QuantityField != "" {
		p.QuantityField = o.QuantityField
	}
	if o.Required != nil {
		p.Required = o.Required
	}
	if o.MutuallyExclusive != nil {
		p.MutuallyExclusive = o.MutuallyExclusive
	}
	if o.GlandFields != nil {
		p.GlandFields = o.GlandFields
	}
	if o.ItemContainers != nil {
		p.ItemContainers = o.ItemContainers
	}
	if o.ItemGradeKeys != nil {
		p.ItemGradeKeys = o.ItemGradeKeys
	}
	if len(o.Aliases) > 0 {
		merged := make(AliasTable, len(p.Aliases)+len(o.Aliases))
		for k, v := range p.Aliases {
			merged[k] = v
		}
		for k, v := range o.Aliases {
			merged[k] = v
		}
		p.Aliases = merged
	}
	return p
}
