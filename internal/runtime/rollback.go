package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/rewind/internal/closure"
	"github.com/aretw0/rewind/pkg/domain"
)

// rollback resolves the policy scope before touching anything, so an unknown policy leaves
// state and history exactly as they were.
func (s *Simulator) rollback(ctx context.Context, state domain.Fields, executed *domain.History, act domain.Rollback) domain.StepResult {
	if act.Policy == "" {
		act.Policy = domain.PolicyFullDownstream
	}

	scope, ok := s.closure.Preview(act)
	if !ok {
		return reject(state, executed, "Unknown policy "+act.Policy)
	}

	state.Clear(scope.Fields...)
	var removed []string
	if act.Policy != domain.PolicyCustom || len(act.IncludeNodes) > 0 {
		removed = executed.Remove(closure.NewSet(scope.Nodes...))
	}

	var event string
	if act.Policy == domain.PolicyCustom {
		event = fmt.Sprintf("ROLLBACK %s custom: cleared %d fields; include_nodes=%v exclude_nodes=%v",
			act.Node, len(scope.Fields), scope.Nodes, closure.NewSet(act.ExcludeNodes...).Sorted())
	} else {
		event = fmt.Sprintf("ROLLBACK %s %s: cleared %d fields; removed nodes=%v",
			act.Node, act.Policy, len(scope.Fields), scope.Nodes)
	}

	if s.hooks.OnRollback != nil {
		s.hooks.OnRollback(ctx, &domain.RollbackEvent{
			EventBase:     domain.EventBase{Timestamp: s.now(), Type: domain.EventRollback},
			Node:          act.Node,
			Policy:        act.Policy,
			ClearedFields: scope.Fields,
			RemovedNodes:  removed,
		})
	}
	return accept(state, executed, event)
}
