package readiness

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/aretw0/rewind/pkg/domain"
)

const (
	msgGradingSkipped  = "TI-RADS skipped: no discrete thyroid nodule."
	msgGradingMissing  = "Need TI-RADS: overall (state.tirads_*) or per-nodule ti_rads_score."
	msgEvidenceMissing = "Need TI-RADS evidence: either overall (state.tirads_*) or per-nodule ti_rads_score."
	msgItemOnly        = "Per-nodule TI-RADS only (no overall grading)."
	msgNoGland         = "No nodule: consider adding gland echo or diffuse evaluation."
	msgScoreFormat     = "Non-standard tirads_score; check format."
	msgLabelFormat     = "Non-standard tirads_label; check format."
	msgRankMismatch    = "TI-RADS label not aligned with score (ranks differ)."
)

// Validator runs the readiness gates of a Profile. It holds no mutable state and is safe
// for concurrent use.
type Validator struct {
	profile Profile
}

// New creates a validator for the given profile.
func New(p Profile) *Validator {
	return &Validator{profile: p}
}

// Default is the validator for DefaultProfile.
var Default = New(DefaultProfile())

// Profile returns the validator's configuration.
func (v *Validator) Profile() Profile {
	return v.profile
}

// ValidateNodeReady checks node against the default profile.
func ValidateNodeReady(node string, state domain.Fields) domain.Readiness {
	return Default.NodeReady(node, state)
}

// ValidateStateForReport checks the report gate against the default profile.
func ValidateStateForReport(state domain.Fields) domain.Readiness {
	return Default.ReportReady(state)
}

// NodeReady decides whether node may be considered complete. The report node runs the full
// report check; the grading node requires grading evidence; every other node passes.
func (v *Validator) NodeReady(node string, state domain.Fields) domain.Readiness {
	switch node {
	case v.profile.ReportNode:
		return v.ReportReady(state)
	case v.profile.GradingNode:
		return v.gradingReady(state)
	}
	return domain.Pass()
}

func (v *Validator) gradingReady(state domain.Fields) domain.Readiness {
	if v.nothingToGrade(state) {
		r := domain.Pass()
		r.Warnings = append(r.Warnings, msgGradingSkipped)
		return r
	}

	var errs, warns []string
	overall := v.hasOverallGrade(state)
	items := v.hasItemGrade(state)
	switch {
	case !overall && !items:
		errs = append(errs, msgGradingMissing)
	case items && !overall:
		warns = append(warns, msgItemOnly)
	}
	warns = append(warns, v.gradeConsistency(state)...)
	return verdict(errs, warns)
}

// ReportReady decides whether the workflow may produce its final report.
func (v *Validator) ReportReady(state domain.Fields) domain.Readiness {
	var errs, warns []string
	p := v.profile

	for _, k := range p.Required {
		if !p.Aliases.Present(state, k) {
			errs = append(errs, "Missing required: "+k)
		}
	}

	if v.nothingToGrade(state) {
		supported := false
		for _, k := range p.GlandFields {
			if p.Aliases.Present(state, k) {
				supported = true
				break
			}
		}
		if !supported {
			warns = append(warns, msgNoGland)
		}
	} else {
		overall := v.hasOverallGrade(state)
		items := v.hasItemGrade(state)
		switch {
		case !overall && !items:
			errs = append(errs, msgEvidenceMissing)
		case items && !overall:
			warns = append(warns, msgItemOnly)
		}
	}

	for _, group := range p.MutuallyExclusive {
		var present []string
		for _, k := range group {
			if p.Aliases.Present(state, k) {
				present = append(present, k)
			}
		}
		if len(present) > 1 {
			errs = append(errs, fmt.Sprintf("Mutually exclusive fields present: [%s]", strings.Join(present, ", ")))
		}
	}

	warns = append(warns, v.gradeConsistency(state)...)
	return verdict(errs, warns)
}

func verdict(errs, warns []string) domain.Readiness {
	r := domain.Pass()
	r.Errors = append(r.Errors, errs...)
	r.Warnings = append(r.Warnings, warns...)
	r.Passed = len(r.Errors) == 0
	return r
}

func (v *Validator) hasOverallGrade(state domain.Fields) bool {
	return v.profile.Aliases.Present(state, v.profile.ScoreField) ||
		v.profile.Aliases.Present(state, v.profile.LabelField)
}

// gradeConsistency compares score and label ranks when both are present.
func (v *Validator) gradeConsistency(state domain.Fields) []string {
	p := v.profile
	if !p.Aliases.Present(state, p.ScoreField) || !p.Aliases.Present(state, p.LabelField) {
		return nil
	}
	score, _ := p.Aliases.Lookup(state, p.ScoreField)
	label, _ := p.Aliases.Lookup(state, p.LabelField)
	rs, okScore := Rank(score)
	rl, okLabel := Rank(label)

	var warns []string
	if _, isStr := score.(string); !okScore && isStr {
		warns = append(warns, msgScoreFormat)
	}
	if _, isStr := label.(string); !okLabel && isStr {
		warns = append(warns, msgLabelFormat)
	}
	if okScore && okLabel && rs != rl {
		warns = append(warns, msgRankMismatch)
	}
	return warns
}

// hasItemGrade reports whether any per-item record in the configured containers carries a grade.
func (v *Validator) hasItemGrade(state domain.Fields) bool {
	for _, c := range v.profile.ItemContainers {
		var container map[string]any
		if c.Parent == "" {
			container = state
		} else {
			container = asMap(state[c.Parent])
		}
		if container == nil {
			continue
		}
		for _, item := range asList(container[c.List]) {
			rec := asMap(item)
			if rec == nil {
				continue
			}
			for _, k := range v.profile.ItemGradeKeys {
				if domain.Present(rec[k]) {
					return true
				}
			}
		}
	}
	return false
}

// nothingToGrade reports whether the quantity field resolves to a zero count.
func (v *Validator) nothingToGrade(state domain.Fields) bool {
	q, ok := v.profile.Aliases.Lookup(state, v.profile.QuantityField)
	if !ok {
		return false
	}
	n, ok := asCount(q)
	return ok && n == 0
}

// asCount converts a quantity to an integer the way a count is read off a form: numbers are
// truncated, numeric strings parsed, false is zero and true is one.
func asCount(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return truncate(float64(n))
	case float64:
		return truncate(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return truncate(f)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, true
		}
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func truncate(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// asMap views any string-keyed map as map[string]any.
func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case domain.Fields:
		return m
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out
}

// asList views any slice or array as []any.
func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
