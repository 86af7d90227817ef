package main

import (
	"fmt"
	"os"

	"github.com/aretw0/rewind/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the rule directory for coherence",
	Long: `Runs the structural and semantic checks over the rule directory: unknown nodes,
graph cycles, field ownership, write conflicts and full-downstream coverage.
Exits with status 1 when any error is found; warnings are reported only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := setup(cmd, false)
		if err != nil {
			return err
		}
		report := engine.Check()

		if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
			f, err := os.Create(csvPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", csvPath, err)
			}
			if err := report.WriteCSV(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		md := report.Markdown()
		if isTerminal(out) {
			if rendered, err := tui.NewRenderer()(md); err == nil {
				md = rendered
			}
		}
		fmt.Fprint(out, md)

		if !report.OK() {
			return fmt.Errorf("rule check failed with %d error(s)", len(report.Errors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().String("csv", "", "Write the field coverage table to this CSV file")
}
