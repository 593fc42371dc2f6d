package sfn

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"github.com/google/uuid"

	"github.com/stackprobe/stackprobe/pkg/harness"
)

// api is the subset of the Step Functions client used by the service.
type api interface {
	DescribeStateMachine(ctx context.Context, in *sfn.DescribeStateMachineInput, opts ...func(*sfn.Options)) (*sfn.DescribeStateMachineOutput, error)
	StartExecution(ctx context.Context, in *sfn.StartExecutionInput, opts ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
	DescribeExecution(ctx context.Context, in *sfn.DescribeExecutionInput, opts ...func(*sfn.Options)) (*sfn.DescribeExecutionOutput, error)
	StartSyncExecution(ctx context.Context, in *sfn.StartSyncExecutionInput, opts ...func(*sfn.Options)) (*sfn.StartSyncExecutionOutput, error)
}

// Service drives Step Functions executions. The workflow identifier is the
// state machine ARN.
type Service struct {
	client api
}

// New creates a Step Functions workflow service.
func New(client api) *Service {
	return &Service{client: client}
}

// Mode queries the state machine type and maps it to an execution mode.
func (s *Service) Mode(ctx context.Context, workflowID string) (harness.ExecutionMode, error) {
	out, err := s.client.DescribeStateMachine(ctx, &sfn.DescribeStateMachineInput{
		StateMachineArn: aws.String(workflowID),
	})
	if err != nil {
		return "", err
	}
	if out.Type == types.StateMachineTypeExpress {
		return harness.ModeFast, nil
	}
	return harness.ModeDurable, nil
}

// Start begins a standard execution.
func (s *Service) Start(ctx context.Context, workflowID string, input []byte) (*harness.ExecutionHandle, error) {
	out, err := s.client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(workflowID),
		Name:            aws.String("stackprobe-" + uuid.NewString()),
		Input:           executionInput(input),
	})
	if err != nil {
		return nil, err
	}
	return &harness.ExecutionHandle{
		ID:         aws.ToString(out.ExecutionArn),
		WorkflowID: workflowID,
		Mode:       harness.ModeDurable,
		StartedAt:  aws.ToTime(out.StartDate),
	}, nil
}

// Status describes a standard execution.
func (s *Service) Status(ctx context.Context, h *harness.ExecutionHandle) (*harness.ExecutionUpdate, error) {
	out, err := s.client.DescribeExecution(ctx, &sfn.DescribeExecutionInput{
		ExecutionArn: aws.String(h.ID),
	})
	if err != nil {
		return nil, err
	}
	update := &harness.ExecutionUpdate{
		Status: mapStatus(out.Status),
		Cause:  aws.ToString(out.Cause),
	}
	if out.Output != nil {
		update.RawOutput = []byte(*out.Output)
	}
	return update, nil
}

// StartSync runs an express execution to completion in one blocking call.
func (s *Service) StartSync(ctx context.Context, workflowID string, input []byte) (*harness.ExecutionHandle, *harness.ExecutionUpdate, error) {
	out, err := s.client.StartSyncExecution(ctx, &sfn.StartSyncExecutionInput{
		StateMachineArn: aws.String(workflowID),
		Name:            aws.String("stackprobe-" + uuid.NewString()),
		Input:           executionInput(input),
	})
	if err != nil {
		return nil, nil, err
	}
	handle := &harness.ExecutionHandle{
		ID:         aws.ToString(out.ExecutionArn),
		WorkflowID: workflowID,
		Mode:       harness.ModeFast,
		StartedAt:  aws.ToTime(out.StartDate),
	}
	update := &harness.ExecutionUpdate{
		Status: mapSyncStatus(out.Status),
		Cause:  aws.ToString(out.Cause),
	}
	if out.Output != nil {
		update.RawOutput = []byte(*out.Output)
	}
	return handle, update, nil
}

// ConsoleURL builds the AWS console URL for an execution. The URL shape
// differs per mode.
func (s *Service) ConsoleURL(h *harness.ExecutionHandle) string {
	region := regionFromARN(h.ID)
	if region == "" {
		return ""
	}
	base := fmt.Sprintf("https://%s.console.aws.amazon.com/states/home?region=%s", region, region)
	if h.Mode == harness.ModeFast {
		return fmt.Sprintf("%s#/express-executions/details/%s?startDate=%d", base, h.ID, h.StartedAt.UnixMilli())
	}
	return fmt.Sprintf("%s#/v2/executions/details/%s", base, h.ID)
}

func executionInput(input []byte) *string {
	if len(input) == 0 {
		return nil
	}
	return aws.String(string(input))
}

func mapStatus(s types.ExecutionStatus) harness.ExecutionStatus {
	switch s {
	case types.ExecutionStatusSucceeded:
		return harness.StatusSucceeded
	case types.ExecutionStatusFailed:
		return harness.StatusFailed
	case types.ExecutionStatusTimedOut:
		return harness.StatusTimedOut
	case types.ExecutionStatusAborted:
		return harness.StatusAborted
	default:
		return harness.StatusRunning
	}
}

func mapSyncStatus(s types.SyncExecutionStatus) harness.ExecutionStatus {
	switch s {
	case types.SyncExecutionStatusSucceeded:
		return harness.StatusSucceeded
	case types.SyncExecutionStatusTimedOut:
		return harness.StatusTimedOut
	default:
		return harness.StatusFailed
	}
}

// regionFromARN extracts the region field of an execution ARN
// (arn:partition:states:region:account:...).
func regionFromARN(arn string) string {
	parts := strings.Split(arn, ":")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}
