package commands

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/stackprobe/stackprobe/pkg/cfn"
	"github.com/stackprobe/stackprobe/pkg/harness"
)

func newDestroyCommand() *cobra.Command {
	var (
		stackName string
		group     string
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Tear down a deployed stack",
		Long: `Request full teardown of a stack and wait for it to finish. The stack
is addressed either by its exact name or by the test group it was built for,
in which case the name is derived from the group and the caller identity.

Teardown failures are reported but exit zero: a dangling resource is a
cleanup problem, not a test failure.`,
		Example: `  # Destroy a stack by name
  stackprobe destroy --name my-group-alice

  # Destroy the caller's stack for a test group
  stackprobe destroy --group "my group"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if stackName == "" && group == "" {
				return harness.NewConfigurationError("either --name or --group is required", nil)
			}

			clients, awsCfg, err := newAWSClients(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			name := stackName
			if name == "" {
				principal := cfg.Principal
				if principal == "" {
					identity := cfn.NewIdentity(sts.NewFromConfig(awsCfg))
					principal, err = identity.Principal(cmd.Context())
					if err != nil {
						return err
					}
				}
				name = harness.DeriveName(group, principal)
			}

			controller := harness.NewController(cfn.New(clients.cfn, logger), logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeouts.Teardown)
			defer cancel()

			controller.Destroy(ctx, &harness.DeploymentUnit{Name: name})
			return nil
		},
	}

	cmd.Flags().StringVarP(&stackName, "name", "n", "", "stack name to destroy")
	cmd.Flags().StringVarP(&group, "group", "g", "", "test group to derive the stack name from")

	return cmd
}
