package rewind

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/schema"
)

// DefaultObservationKeys are the state keys a replay record reports when present.
var DefaultObservationKeys = []string{
	"state.thyroid_size", "state.thyroid_echo", "state.diffuse_lesion_evaluation_result",
	"state.thyroid_nodules_determined", "state.ti_rads_score",
	"state.tirads_score", "state.tirads_label",
	"reports.visual_report", "reports.structured_report",
}

// Record is one replayed step, in the shape trajectory files are written.
type Record struct {
	StepID          int            `json:"step_id"`
	ObservationKeys []string       `json:"observation_keys"`
	Action          map[string]any `json:"action"`
	ExecutedNodes   []string       `json:"executed_nodes"`
	Events          []string       `json:"events"`
	Done            bool           `json:"done"`
}

// Runner replays a JSON-Lines stream of actions against a trajectory and writes one JSON
// record per step.
type Runner struct {
	Input           io.Reader
	Output          io.Writer
	ObservationKeys []string
	// StopOnDone ends the replay after the first successful GENERATE_REPORT.
	StopOnDone bool
}

// NewRunner creates a Runner with the default observation keys.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{
		Input:           in,
		Output:          out,
		ObservationKeys: DefaultObservationKeys,
	}
}

// Run steps every action of the input through engine. Blank lines are skipped. A line that is
// not a JSON object aborts the replay; schema violations do not, they are recorded like any
// other failed step.
func (r *Runner) Run(ctx context.Context, engine *Engine, traj *domain.Trajectory) ([]Record, error) {
	if r.Input == nil {
		return nil, fmt.Errorf("input reader must be set")
	}

	var enc *json.Encoder
	if r.Output != nil {
		enc = json.NewEncoder(r.Output)
	}

	var records []Record
	err := eachLine(r.Input, func(lineNo int, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := schema.ParseAction(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		res := engine.Step(ctx, traj, raw)
		rec := Record{
			StepID:          len(records) + 1,
			ObservationKeys: r.observed(traj.State),
			Action:          raw,
			ExecutedNodes:   slices.Clone([]string(res.ExecutedNodes)),
			Events:          res.Events,
			Done:            raw["type"] == string(domain.ActionGenerateReport) && res.OK,
		}
		records = append(records, rec)

		if enc != nil {
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
		if rec.Done && r.StopOnDone {
			return errStop
		}
		return nil
	})
	if errors.Is(err, errStop) {
		err = nil
	}
	return records, err
}

func (r *Runner) observed(state domain.Fields) []string {
	keys := r.ObservationKeys
	if keys == nil {
		keys = DefaultObservationKeys
	}
	out := []string{}
	for _, k := range keys {
		if _, ok := state[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Finding is a schema problem found on one line of an action file.
type Finding struct {
	Line    int
	Path    string
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%d] %s: %s", f.Line, f.Path, f.Message)
}

// ValidateActions lints a JSON-Lines action file against gate. Each line may be a bare action
// or wrap it as {"action": {...}}. Unparseable lines are reported as findings at "/".
func ValidateActions(in io.Reader, gate *schema.Gate) ([]Finding, error) {
	var findings []Finding
	err := eachLine(in, func(lineNo int, line []byte) error {
		raw, err := schema.ParseAction(line)
		if err != nil {
			findings = append(findings, Finding{Line: lineNo, Path: "/", Message: err.Error()})
			return nil
		}
		err = gate.Validate(raw)
		if err == nil {
			return nil
		}
		vs := schema.Violations(err)
		if vs == nil {
			findings = append(findings, Finding{Line: lineNo, Path: "/", Message: err.Error()})
			return nil
		}
		for _, v := range vs {
			findings = append(findings, Finding{Line: lineNo, Path: v.Path, Message: v.Message})
		}
		return nil
	})
	return findings, err
}

var errStop = errors.New("stop")

func eachLine(in io.Reader, fn func(lineNo int, line []byte) error) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if strings.TrimSpace(string(line)) == "" {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read error: %w", err)
	}
	return nil
}
