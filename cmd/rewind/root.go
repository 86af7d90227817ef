package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/cli"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "rewind",
	Short: "Rewind simulates staged diagnostic workflows with controlled rollback",
	Long: `Rewind replays EXECUTE / ROLLBACK / CLARIFY / GENERATE_REPORT actions against a
rule directory (node registry, dependency graph, rollback rules and policies) and
reports what each rollback clears and whether a final report may be generated.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Rule directory (mappings/ and rules/)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: 'text' or 'json'")
}

// setup builds the logger and engine every command starts from.
func setup(cmd *cobra.Command, strict bool, hooks ...domain.LifecycleHooks) (*rewind.Engine, *slog.Logger, error) {
	dir, _ := cmd.Flags().GetString("dir")
	debug, _ := cmd.Flags().GetBool("debug")
	format, _ := cmd.Flags().GetString("log-format")

	logger, err := cli.NewLogger(debug, format)
	if err != nil {
		return nil, nil, err
	}
	engine, err := cli.NewEngine(cli.EngineOptions{
		Dir:    dir,
		Debug:  debug,
		Strict: strict,
	}, logger, hooks...)
	if err != nil {
		return nil, nil, err
	}
	return engine, logger, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
