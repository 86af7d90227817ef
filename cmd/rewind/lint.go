package main

import (
	"fmt"
	"os"

	"github.com/aretw0/rewind"
	"github.com/spf13/cobra"
)

var lintCmd = &cobra.Command{
	Use:   "lint <actions.jsonl>",
	Short: "Validate a JSON-Lines action file against the action schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := setup(cmd, false)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		findings, err := rewind.ValidateActions(f, engine.Gate())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(findings) == 0 {
			fmt.Fprintln(out, "OK: all actions are valid")
			return nil
		}
		for _, finding := range findings {
			fmt.Fprintln(out, finding)
		}
		return fmt.Errorf("found %d schema violation(s)", len(findings))
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}
