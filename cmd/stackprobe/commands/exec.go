package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackprobe/stackprobe/pkg/harness"
	"github.com/stackprobe/stackprobe/pkg/sfn"
	"github.com/stackprobe/stackprobe/pkg/telemetry"
)

func newExecCommand() *cobra.Command {
	var (
		workflowID string
		input      string
		timeoutMs  int64
	)

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Run a workflow execution to completion",
		Long: `Start an execution of the given workflow and wait for a terminal
outcome. Express workflows complete in a single call; standard workflows are
polled until terminal or the local wait deadline expires. A local timeout
stops the wait only; the remote execution keeps running.`,
		Example: `  # Run a workflow and wait up to the default 60s
  stackprobe exec --workflow arn:aws:states:us-east-1:123456789012:stateMachine:echo

  # Pass input and a 5 minute wait
  stackprobe exec --workflow <arn> --input '{"hello":"world"}' --timeout-ms 300000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			clients, _, err := newAWSClients(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			client := harness.NewClient(sfn.New(clients.sfn), logger,
				harness.WithClientMetrics(telemetry.NewMetrics("stackprobe")))

			timeout := cfg.Timeouts.Workflow
			if timeoutMs > 0 {
				timeout = time.Duration(timeoutMs) * time.Millisecond
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeouts.Test)
			defer cancel()

			outcome, err := client.Execute(ctx, workflowID, []byte(input), timeout)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(outcome, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))

			if outcome.Status != harness.StatusSucceeded {
				return fmt.Errorf("execution finished with status %s", outcome.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "workflow (state machine) ARN")
	cmd.Flags().StringVarP(&input, "input", "i", "", "execution input JSON")
	cmd.Flags().Int64Var(&timeoutMs, "timeout-ms", 0, "local wait deadline in milliseconds")
	cmd.MarkFlagRequired("workflow")

	return cmd
}
