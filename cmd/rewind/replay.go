package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/cli"
	"github.com/aretw0/rewind/internal/presentation/tui"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay [actions.jsonl]",
	Short: "Replay a JSON-Lines action file and write one record per step",
	Long: `Reads actions (one JSON object per line, bare or wrapped as {"action": {...}})
from the given file or stdin, applies them to a fresh trajectory and writes one
JSON record per step to --out (stdout by default).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, logger, err := setup(cmd, false)
		if err != nil {
			return err
		}

		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("out"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			id = uuid.NewString()
		}
		traj := domain.NewTrajectory(id)

		runner := rewind.NewRunner(in, out)
		runner.StopOnDone, _ = cmd.Flags().GetBool("stop-on-done")

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		records, err := runner.Run(ctx, engine, traj)
		if err != nil {
			return err
		}
		logger.Info("Replay finished", "trajectory_id", traj.ID, "steps", traj.Steps)

		if verbose, _ := cmd.Flags().GetBool("events"); verbose {
			printEvents(cmd.ErrOrStderr(), records)
		}

		if dir, _ := cmd.Flags().GetString("save"); dir != "" {
			redact, _ := cmd.Flags().GetStringSlice("redact")
			backend, err := cli.OpenStore(cli.StoreOptions{Kind: "file", Dir: dir, Redact: redact})
			if err != nil {
				return err
			}
			if err := backend.Store.Save(ctx, traj); err != nil {
				return fmt.Errorf("failed to save trajectory: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved trajectory %s to %s\n", traj.ID, dir)
		}
		return nil
	},
}

// printEvents lists each step's events, colored when w is a terminal.
func printEvents(w io.Writer, records []rewind.Record) {
	color := isTerminal(w)
	for _, rec := range records {
		for _, event := range rec.Events {
			if color {
				event = tui.ColorEvent(event)
			}
			fmt.Fprintf(w, "%3d  %s\n", rec.StepID, event)
		}
	}
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringP("out", "o", "", "Write records to this file instead of stdout")
	replayCmd.Flags().String("id", "", "Trajectory id (random when empty)")
	replayCmd.Flags().Bool("stop-on-done", false, "Stop after the first successful GENERATE_REPORT")
	replayCmd.Flags().Bool("events", false, "Print step events to stderr")
	replayCmd.Flags().String("save", "", "Persist the final trajectory into this directory")
	replayCmd.Flags().StringSlice("redact", nil, "Mask state fields matching these patterns in the saved trajectory")
}
