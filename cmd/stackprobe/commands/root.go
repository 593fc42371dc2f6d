package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	region     string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stackprobe",
		Short: "stackprobe - ephemeral cloud stack test harness",
		Long: `stackprobe provisions disposable cloud stacks, runs assertions against
the live deployed resources, and tears the stacks down afterward.

Features:
  - Deterministic stack naming per (test group, principal)
  - Forced deletion-safe resource policies before every deploy
  - Policy gate over the synthesized template
  - Durable and express workflow execution verification
  - Object store probes and snapshot assertions
  - Sweeping of orphaned harness stacks`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "target region (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newDeployCommand())
	rootCmd.AddCommand(newDestroyCommand())
	rootCmd.AddCommand(newExecCommand())
	rootCmd.AddCommand(newProbeCommand())
	rootCmd.AddCommand(newSnapshotCommand())
	rootCmd.AddCommand(newSweepCommand())

	return rootCmd
}
