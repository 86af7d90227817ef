package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/rewind/pkg/schema"
	"github.com/spf13/cobra"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Write the action, node and payload JSON schemas",
	Long: `Writes action.schema.json, nodes.schema.json (the node-name enum of the registry)
and one payloads/<node>.schema.json per node describing its clarifiable fields.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := setup(cmd, false)
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("out")
		cfg := engine.Config()

		if err := os.MkdirAll(filepath.Join(outDir, "payloads"), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outDir, "action.schema.json"), schema.ActionSchema(), 0644); err != nil {
			return err
		}
		if err := writeJSONFile(filepath.Join(outDir, "nodes.schema.json"), schema.NodesSchema(cfg.Nodes())); err != nil {
			return err
		}
		for _, node := range cfg.Nodes() {
			doc := schema.PayloadSchema(node, cfg.Registry[node].Consumes)
			if err := writeJSONFile(filepath.Join(outDir, "payloads", node+".schema.json"), doc); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d schemas to %s\n", len(cfg.Nodes())+2, outDir)
		return nil
	},
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func init() {
	rootCmd.AddCommand(schemasCmd)
	schemasCmd.Flags().String("out", "schemas", "Output directory")
}
