package schema

import (
	"fmt"

	"github.com/aretw0/rewind/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Decode converts a raw action object into its typed variant. It assumes the object has
// already passed a Gate; unknown fields are ignored.
func Decode(raw map[string]any) (domain.Action, error) {
	typ, _ := raw["type"].(string)

	var target any
	switch domain.ActionType(typ) {
	case domain.ActionExecute:
		target = &domain.Execute{}
	case domain.ActionRollback:
		target = &domain.Rollback{}
	case domain.ActionClarify:
		target = &domain.Clarify{}
	case domain.ActionGenerateReport:
		return domain.GenerateReport{}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", typ)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s action: %w", typ, err)
	}

	switch a := target.(type) {
	case *domain.Execute:
		return *a, nil
	case *domain.Rollback:
		return *a, nil
	case *domain.Clarify:
		return *a, nil
	}
	return nil, fmt.Errorf("unknown action type %q", typ)
}

// Encode converts a typed action back into its raw object form.
func Encode(a domain.Action) map[string]any {
	out := map[string]any{"type": string(a.Type())}
	switch act := a.(type) {
	case domain.Execute:
		out["node"] = act.Node
		if act.Payload != nil {
			out["payload"] = act.Payload
		}
	case domain.Rollback:
		out["node"] = act.Node
		out["policy"] = act.Policy
		if act.IncludeNodes != nil {
			out["include_nodes"] = act.IncludeNodes
		}
		if act.ExcludeNodes != nil {
			out["exclude_nodes"] = act.ExcludeNodes
		}
		if act.Fields != nil {
			out["fields"] = act.Fields
		}
		if act.IncludeReportsFixed != nil {
			out["include_reports_fixed"] = *act.IncludeReportsFixed
		}
	case domain.Clarify:
		out["slot"] = act.Slot
	}
	return out
}
