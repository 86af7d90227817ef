package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/logging"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/observability"
)

// logWriter is swapped by tests.
var logWriter io.Writer = os.Stderr

// EngineOptions carries the flags shared by every command that needs an engine.
type EngineOptions struct {
	Dir       string
	Debug     bool
	LogFormat string
	Strict    bool
}

// NewLogger configures the application logger.
// In debug mode it writes to Stderr (to keep Stdout for records and JSON-RPC);
// otherwise only warnings and errors are reported.
func NewLogger(debug bool, format string) (*slog.Logger, error) {
	f, err := logging.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithWriter(logWriter, level, f), nil
}

// NewEngine initializes an engine with the standard CLI conventions.
// Extra hooks (e.g. metrics) are merged after the debug hooks.
func NewEngine(opts EngineOptions, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*rewind.Engine, error) {
	engineOpts := []rewind.Option{rewind.WithLogger(logger)}

	if opts.Debug {
		engineOpts = append(engineOpts, rewind.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	for _, h := range hooks {
		engineOpts = append(engineOpts, rewind.WithLifecycleHooks(h))
	}
	if opts.Strict {
		engineOpts = append(engineOpts, rewind.WithStrict())
	}

	engine, err := rewind.New(opts.Dir, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
