package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackprobe/stackprobe/pkg/cfn"
	"github.com/stackprobe/stackprobe/pkg/harness"
)

func newSweepCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Destroy orphaned harness stacks",
		Long: `Find all live stacks carrying the harness marker tag and tear them
down. Runs that were interrupted before teardown, or run with destroy
disabled, leave stacks behind; sweep is the best-effort cost control.`,
		Example: `  # List orphaned harness stacks without destroying them
  stackprobe sweep --dry-run

  # Destroy all orphaned harness stacks
  stackprobe sweep`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			clients, _, err := newAWSClients(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			cp := cfn.New(clients.cfn, logger)

			names, err := cp.ListEphemeral(cmd.Context(), harness.MarkerTagKey, harness.MarkerTagValue)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No harness stacks found")
				return nil
			}

			controller := harness.NewController(cp, logger)
			for _, name := range names {
				if dryRun {
					fmt.Printf("would destroy %s\n", name)
					continue
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeouts.Teardown)
				controller.Destroy(ctx, &harness.DeploymentUnit{Name: name})
				cancel()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list stacks without destroying them")
	return cmd
}
