package rewind

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/rewind/internal/closure"
	"github.com/aretw0/rewind/internal/logging"
	"github.com/aretw0/rewind/internal/runtime"
	"github.com/aretw0/rewind/internal/validator"
	"github.com/aretw0/rewind/pkg/config"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/readiness"
	"github.com/aretw0/rewind/pkg/schema"
)

// Scope is the effect a rollback would have, computed without touching state.
type Scope = closure.Scope

// Gate is the verdict of one readiness gate.
type Gate = runtime.Gate

// Report is the outcome of a configuration coherence check.
type Report = validator.Report

// Engine is the high-level entry point of the library. It binds a configuration to a schema
// gate and a simulator. An Engine holds no trajectory state and is safe for concurrent use;
// each trajectory must be stepped by one caller at a time.
type Engine struct {
	cfg     *domain.Config
	profile *readiness.Profile
	sim     *runtime.Simulator
	gate    *schema.Gate
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	strict  bool
	Name    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithConfig injects an already-built configuration, bypassing the rule directory.
func WithConfig(cfg *domain.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithProfile overrides the readiness profile.
func WithProfile(p readiness.Profile) Option {
	return func(e *Engine) {
		e.profile = &p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStrict makes New fail when the configuration does not pass the coherence check.
func WithStrict() Option {
	return func(e *Engine) {
		e.strict = true
	}
}

// New initializes an Engine from the rule directory at configDir.
// If WithConfig is provided, configDir is only used as a descriptive name and may be empty.
func New(configDir string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.cfg == nil {
		if configDir == "" {
			return nil, fmt.Errorf("configDir is required when no configuration is provided")
		}
		bundle, err := config.Load(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		eng.cfg = bundle.Config
		if eng.profile == nil {
			eng.profile = &bundle.Profile
		}
	}
	if configDir != "" {
		if abs, err := filepath.Abs(configDir); err == nil {
			eng.Name = filepath.Base(abs)
		}
	}
	if eng.profile == nil {
		p := readiness.DefaultProfile()
		eng.profile = &p
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("config", eng.Name)
	}

	if eng.strict {
		if err := validator.Validate(eng.cfg).Err(); err != nil {
			return nil, err
		}
	}

	gate, err := schema.NewGate(eng.cfg.Nodes())
	if err != nil {
		return nil, err
	}
	eng.gate = gate

	eng.sim = runtime.New(eng.cfg,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithValidator(readiness.New(*eng.profile)),
	)
	return eng, nil
}

// Step validates a raw action against the schema gate and, if it passes, applies it to the
// trajectory. Schema failures short-circuit with a single "SchemaError: ..." event and leave
// state and history untouched. Every submitted action counts towards traj.Steps.
func (e *Engine) Step(ctx context.Context, traj *domain.Trajectory, raw map[string]any) domain.StepResult {
	ensure(traj)
	if err := e.gate.Validate(raw); err != nil {
		return e.schemaFailure(ctx, traj, err)
	}
	action, err := schema.Decode(raw)
	if err != nil {
		return e.schemaFailure(ctx, traj, err)
	}
	return e.Apply(ctx, traj, action)
}

// Apply runs an already-typed action, bypassing the schema gate.
func (e *Engine) Apply(ctx context.Context, traj *domain.Trajectory, action domain.Action) domain.StepResult {
	ensure(traj)
	traj.Steps++
	return e.sim.Step(ctx, traj.State, &traj.Executed, action)
}

func (e *Engine) schemaFailure(ctx context.Context, traj *domain.Trajectory, err error) domain.StepResult {
	event := err.Error()
	if schema.Violations(err) == nil {
		event = schema.EventPrefix + schema.Violation{Path: "/", Message: err.Error()}.String()
	}
	traj.Steps++
	e.logger.WarnContext(ctx, "action rejected by schema", "trajectory_id", traj.ID, "error", err)
	return domain.StepResult{
		OK:            false,
		State:         traj.State,
		ExecutedNodes: traj.Executed,
		Events:        []string{event},
	}
}

func ensure(traj *domain.Trajectory) {
	if traj.State == nil {
		traj.State = domain.NewFields()
	}
	if traj.Executed == nil {
		traj.Executed = domain.History{}
	}
}

// Preview computes what a rollback of node under policy would clear, without mutation.
func (e *Engine) Preview(node, policy string) (Scope, error) {
	if policy == "" {
		policy = domain.PolicyFullDownstream
	}
	scope, ok := e.sim.Closure().Preview(domain.Rollback{Node: node, Policy: policy})
	if !ok {
		return scope, fmt.Errorf("unknown policy %q", policy)
	}
	return scope, nil
}

// Readiness runs the GENERATE_REPORT gates against state without stepping.
func (e *Engine) Readiness(state domain.Fields) []Gate {
	return e.sim.Gates(state)
}

// Check runs the coherence checker over the engine's configuration.
func (e *Engine) Check() *Report {
	return validator.Validate(e.cfg)
}

// Config returns the engine's (read-only) configuration.
func (e *Engine) Config() *domain.Config {
	return e.cfg
}

// Profile returns the readiness profile in use.
func (e *Engine) Profile() readiness.Profile {
	return *e.profile
}

// Gate returns the schema gate actions are validated against.
func (e *Engine) Gate() *schema.Gate {
	return e.gate
}
