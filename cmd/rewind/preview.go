package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <node>",
	Short: "Show what rolling a node back would clear, without touching any state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := setup(cmd, false)
		if err != nil {
			return err
		}
		policy, _ := cmd.Flags().GetString("policy")
		scope, err := engine.Preview(args[0], policy)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(scope)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().String("policy", "full_downstream", "Rollback policy: full_downstream, aggregate_only or custom")
}
