package main

import (
	"fmt"
	"os"

	"github.com/aretw0/rewind/internal/presentation/graph"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the dependency graph as a Mermaid diagram",
	Long: `Renders the node dependency graph. Aggregate nodes are drawn as hexagons.
--trajectory highlights the executed nodes of a saved trajectory; --focus with
--policy highlights what rolling that node back would remove.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := setup(cmd, false)
		if err != nil {
			return err
		}

		overlay := &graph.Overlay{}
		if path, _ := cmd.Flags().GetString("trajectory"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			traj, err := domain.DecodeTrajectory(data)
			if err != nil {
				return fmt.Errorf("failed to decode trajectory %s: %w", path, err)
			}
			overlay.Executed = []string(traj.Executed)
		}
		if focus, _ := cmd.Flags().GetString("focus"); focus != "" {
			policy, _ := cmd.Flags().GetString("policy")
			scope, err := engine.Preview(focus, policy)
			if err != nil {
				return err
			}
			overlay.Focus = focus
			overlay.Affected = scope.Nodes
		}

		if overlay.Focus == "" && len(overlay.Executed) == 0 {
			overlay = nil
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(engine.Config(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("trajectory", "", "Saved trajectory JSON to overlay")
	graphCmd.Flags().String("focus", "", "Node whose rollback scope is highlighted")
	graphCmd.Flags().String("policy", "full_downstream", "Rollback policy used with --focus")
}
