package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackprobe/stackprobe/pkg/cfn"
	"github.com/stackprobe/stackprobe/pkg/harness"
	"github.com/stackprobe/stackprobe/pkg/policy"
	"github.com/stackprobe/stackprobe/pkg/telemetry"
)

func newDeployCommand() *cobra.Command {
	var (
		unitFile string
		noGate   bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision a deployment unit",
		Long: `Provision a serialized deployment unit.

This command:
  - Loads the unit definition file
  - Forces deletion-safe removal policies on the resource graph
  - Checks the synthesized template against the policy gate
  - Creates or updates the remote stack without interactive approval
  - Prints the recorded stack outputs`,
		Example: `  # Deploy a unit definition
  stackprobe deploy --unit unit.json

  # Deploy without the policy gate
  stackprobe deploy --unit unit.json --no-gate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			unit, err := readUnit(unitFile)
			if err != nil {
				return err
			}
			harness.ApplyRemovalPolicies(unit.Root)

			clients, _, err := newAWSClients(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			opts := []harness.ControllerOption{
				harness.WithMetrics(telemetry.NewMetrics("stackprobe")),
			}
			if !noGate {
				gate, err := policy.NewEngine(logger)
				if err != nil {
					return err
				}
				opts = append(opts, harness.WithPolicyGate(gate))
			}
			controller := harness.NewController(cfn.New(clients.cfn, logger), logger, opts...)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeouts.Setup)
			defer cancel()

			outputs, err := controller.Deploy(ctx, unit, nil)
			if err != nil {
				return err
			}
			return printOutputs(outputs)
		},
	}

	cmd.Flags().StringVarP(&unitFile, "unit", "u", "unit.json", "deployment unit definition file")
	cmd.Flags().BoolVar(&noGate, "no-gate", false, "skip the pre-deploy policy gate")
	cmd.MarkFlagRequired("unit")

	return cmd
}

// readUnit loads a serialized deployment unit and applies the harness tags.
func readUnit(path string) (*harness.DeploymentUnit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var unit harness.DeploymentUnit
	if err := json.Unmarshal(data, &unit); err != nil {
		return nil, harness.NewConfigurationError("cannot parse unit definition", err)
	}
	if unit.Name == "" {
		return nil, harness.NewConfigurationError("unit definition has no name", nil)
	}
	if unit.Tags == nil {
		unit.Tags = map[string]string{}
	}
	unit.Tags[harness.MarkerTagKey] = harness.MarkerTagValue
	if unit.Group != "" {
		unit.Tags[harness.GroupTagKey] = unit.Group
	}
	return &unit, nil
}

func printOutputs(outputs map[string]string) error {
	if jsonOutput {
		data, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	for k, v := range outputs {
		fmt.Printf("%s = %s\n", k, v)
	}
	return nil
}
