package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/rewind/internal/closure"
	"github.com/aretw0/rewind/internal/logging"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/readiness"
)

// Simulator applies actions to a trajectory's state and execution history.
//
// The configuration is shared and read-only; the state and history passed to Step are
// owned by the caller, who must not step the same pair concurrently.
type Simulator struct {
	cfg       *domain.Config
	closure   *closure.Engine
	validator *readiness.Validator
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	now       func() time.Time
}

// New creates a simulator over cfg.
func New(cfg *domain.Config, opts ...Option) *Simulator {
	s := &Simulator{
		cfg:       cfg,
		closure:   closure.New(cfg),
		validator: readiness.Default,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Closure exposes the reachability engine the simulator rolls back with.
func (s *Simulator) Closure() *closure.Engine {
	return s.closure
}

// Step applies one action, mutating state and executed in place.
// It never fails with a Go error: rejected actions come back with OK=false and an explanatory
// event, leaving state and history untouched.
func (s *Simulator) Step(ctx context.Context, state domain.Fields, executed *domain.History, action domain.Action) domain.StepResult {
	if state == nil {
		state = domain.NewFields()
	}
	if executed == nil {
		executed = &domain.History{}
	}

	var res domain.StepResult
	switch act := deref(action).(type) {
	case domain.Execute:
		res = s.execute(state, executed, act)
	case domain.Rollback:
		res = s.rollback(ctx, state, executed, act)
	case domain.Clarify:
		res = s.clarify(state, executed, act)
	case domain.GenerateReport:
		res = s.generateReport(ctx, state, executed)
	default:
		res = reject(state, executed, "Unknown action type")
	}

	s.observe(ctx, action, res)
	return res
}

func (s *Simulator) execute(state domain.Fields, executed *domain.History, act domain.Execute) domain.StepResult {
	writes := s.cfg.Produces(act.Node)
	for _, f := range writes {
		if v, ok := act.Payload[f]; ok {
			state[f] = v
		} else if _, ok := state[f]; !ok {
			state[f] = nil
		}
	}
	executed.Append(act.Node)
	return accept(state, executed, fmt.Sprintf("EXECUTE %s: wrote %d fields", act.Node, len(writes)))
}

func (s *Simulator) clarify(state domain.Fields, executed *domain.History, act domain.Clarify) domain.StepResult {
	pending := append(state.PendingSlots(), act.Slot)
	slices.Sort(pending)
	state[domain.PendingSlotsKey] = slices.Compact(pending)
	return accept(state, executed, "CLARIFY "+act.Slot)
}

func (s *Simulator) observe(ctx context.Context, action domain.Action, res domain.StepResult) {
	var typ domain.ActionType
	if a := deref(action); a != nil {
		typ = a.Type()
	}
	subject := domain.Subject(deref(action))

	if res.OK {
		s.logger.DebugContext(ctx, "step applied", "action", typ, "subject", subject, "events", res.Events)
	} else {
		s.logger.WarnContext(ctx, "step rejected", "action", typ, "subject", subject, "events", res.Events)
	}

	if s.hooks.OnStep != nil {
		s.hooks.OnStep(ctx, &domain.StepEvent{
			EventBase: domain.EventBase{Timestamp: s.now(), Type: domain.EventStep},
			Action:    typ,
			Subject:   subject,
			OK:        res.OK,
			Events:    slices.Clone(res.Events),
		})
	}
}

// deref accepts pointer variants of the action types.
func deref(a domain.Action) domain.Action {
	switch p := a.(type) {
	case *domain.Execute:
		if p != nil {
			return *p
		}
	case *domain.Rollback:
		if p != nil {
			return *p
		}
	case *domain.Clarify:
		if p != nil {
			return *p
		}
	case *domain.GenerateReport:
		if p != nil {
			return *p
		}
	default:
		return a
	}
	return nil
}

func accept(state domain.Fields, executed *domain.History, events ...string) domain.StepResult {
	return domain.StepResult{OK: true, State: state, ExecutedNodes: *executed, Events: events}
}

func reject(state domain.Fields, executed *domain.History, events ...string) domain.StepResult {
	return domain.StepResult{OK: false, State: state, ExecutedNodes: *executed, Events: events}
}
