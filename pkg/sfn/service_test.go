package sfn

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssfn "github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"

	"github.com/stackprobe/stackprobe/pkg/harness"
)

const (
	standardArn = "arn:aws:states:eu-west-1:123456789012:stateMachine:orders"
	execArn     = "arn:aws:states:eu-west-1:123456789012:execution:orders:run-1"
)

type fakeSFN struct {
	machineType   types.StateMachineType
	lastExecName  string
	lastExecInput *string
	status        types.ExecutionStatus
	output        *string
}

func (f *fakeSFN) DescribeStateMachine(_ context.Context, _ *awssfn.DescribeStateMachineInput, _ ...func(*awssfn.Options)) (*awssfn.DescribeStateMachineOutput, error) {
	return &awssfn.DescribeStateMachineOutput{Type: f.machineType}, nil
}

func (f *fakeSFN) StartExecution(_ context.Context, in *awssfn.StartExecutionInput, _ ...func(*awssfn.Options)) (*awssfn.StartExecutionOutput, error) {
	f.lastExecName = aws.ToString(in.Name)
	f.lastExecInput = in.Input
	return &awssfn.StartExecutionOutput{
		ExecutionArn: aws.String(execArn),
		StartDate:    aws.Time(time.Unix(1700000000, 0)),
	}, nil
}

func (f *fakeSFN) DescribeExecution(_ context.Context, _ *awssfn.DescribeExecutionInput, _ ...func(*awssfn.Options)) (*awssfn.DescribeExecutionOutput, error) {
	return &awssfn.DescribeExecutionOutput{
		Status: f.status,
		Output: f.output,
	}, nil
}

func (f *fakeSFN) StartSyncExecution(_ context.Context, in *awssfn.StartSyncExecutionInput, _ ...func(*awssfn.Options)) (*awssfn.StartSyncExecutionOutput, error) {
	f.lastExecName = aws.ToString(in.Name)
	f.lastExecInput = in.Input
	return &awssfn.StartSyncExecutionOutput{
		ExecutionArn: aws.String(execArn),
		StartDate:    aws.Time(time.Unix(1700000000, 0)),
		Status:       types.SyncExecutionStatusSucceeded,
		Output:       aws.String(`{"ok":true}`),
	}, nil
}

func TestMode(t *testing.T) {
	ctx := context.Background()

	svc := New(&fakeSFN{machineType: types.StateMachineTypeExpress})
	mode, err := svc.Mode(ctx, standardArn)
	if err != nil {
		t.Fatalf("Mode failed: %v", err)
	}
	if mode != harness.ModeFast {
		t.Errorf("express machine mapped to %s, want %s", mode, harness.ModeFast)
	}

	svc = New(&fakeSFN{machineType: types.StateMachineTypeStandard})
	mode, err = svc.Mode(ctx, standardArn)
	if err != nil {
		t.Fatalf("Mode failed: %v", err)
	}
	if mode != harness.ModeDurable {
		t.Errorf("standard machine mapped to %s, want %s", mode, harness.ModeDurable)
	}
}

func TestStartAndStatus(t *testing.T) {
	fake := &fakeSFN{status: types.ExecutionStatusSucceeded, output: aws.String(`{"done":true}`)}
	svc := New(fake)
	ctx := context.Background()

	handle, err := svc.Start(ctx, standardArn, []byte(`{"in":1}`))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if handle.ID != execArn || handle.Mode != harness.ModeDurable {
		t.Errorf("handle = %+v", handle)
	}
	if !strings.HasPrefix(fake.lastExecName, "stackprobe-") {
		t.Errorf("execution name %q lacks prefix", fake.lastExecName)
	}
	if aws.ToString(fake.lastExecInput) != `{"in":1}` {
		t.Errorf("input = %q", aws.ToString(fake.lastExecInput))
	}

	update, err := svc.Status(ctx, handle)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if update.Status != harness.StatusSucceeded {
		t.Errorf("status = %s", update.Status)
	}
	if string(update.RawOutput) != `{"done":true}` {
		t.Errorf("raw output = %q", update.RawOutput)
	}
}

func TestStartEmptyInputOmitted(t *testing.T) {
	fake := &fakeSFN{}
	svc := New(fake)

	if _, err := svc.Start(context.Background(), standardArn, nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if fake.lastExecInput != nil {
		t.Errorf("empty input must be omitted, got %q", aws.ToString(fake.lastExecInput))
	}
}

func TestStartSync(t *testing.T) {
	svc := New(&fakeSFN{})

	handle, update, err := svc.StartSync(context.Background(), standardArn, []byte(`{}`))
	if err != nil {
		t.Fatalf("StartSync failed: %v", err)
	}
	if handle.Mode != harness.ModeFast {
		t.Errorf("mode = %s, want %s", handle.Mode, harness.ModeFast)
	}
	if update.Status != harness.StatusSucceeded {
		t.Errorf("status = %s", update.Status)
	}
	if string(update.RawOutput) != `{"ok":true}` {
		t.Errorf("raw output = %q", update.RawOutput)
	}
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		in   types.ExecutionStatus
		want harness.ExecutionStatus
	}{
		{types.ExecutionStatusRunning, harness.StatusRunning},
		{types.ExecutionStatusSucceeded, harness.StatusSucceeded},
		{types.ExecutionStatusFailed, harness.StatusFailed},
		{types.ExecutionStatusTimedOut, harness.StatusTimedOut},
		{types.ExecutionStatusAborted, harness.StatusAborted},
	}
	for _, tt := range tests {
		if got := mapStatus(tt.in); got != tt.want {
			t.Errorf("mapStatus(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestConsoleURL(t *testing.T) {
	started := time.Unix(1700000000, 0)

	durable := &harness.ExecutionHandle{ID: execArn, Mode: harness.ModeDurable, StartedAt: started}
	svc := New(&fakeSFN{})
	got := svc.ConsoleURL(durable)
	want := "https://eu-west-1.console.aws.amazon.com/states/home?region=eu-west-1#/v2/executions/details/" + execArn
	if got != want {
		t.Errorf("durable URL = %q, want %q", got, want)
	}

	fast := &harness.ExecutionHandle{ID: execArn, Mode: harness.ModeFast, StartedAt: started}
	got = svc.ConsoleURL(fast)
	if !strings.Contains(got, "#/express-executions/details/"+execArn) {
		t.Errorf("fast URL missing express path: %q", got)
	}
	if !strings.HasSuffix(got, "?startDate=1700000000000") {
		t.Errorf("fast URL missing start date in milliseconds: %q", got)
	}
}

func TestConsoleURLMalformedARN(t *testing.T) {
	svc := New(&fakeSFN{})
	if got := svc.ConsoleURL(&harness.ExecutionHandle{ID: "not-an-arn"}); got != "" {
		t.Errorf("expected empty URL for malformed ARN, got %q", got)
	}
}
