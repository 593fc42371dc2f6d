package harness_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stackprobe/stackprobe/pkg/harness"
	"github.com/stackprobe/stackprobe/pkg/match"
)

// fakeCloud simulates the control plane, object store, and workflow service
// of one region: provisioning a unit materializes its buckets, and the echo
// workflow returns its input.
type fakeCloud struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
	stacks  map[string]bool
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{
		buckets: make(map[string]map[string][]byte),
		stacks:  make(map[string]bool),
	}
}

func (f *fakeCloud) Provision(_ context.Context, req *harness.ProvisionRequest) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stacks[req.Name] = true
	bucketName := req.Name + "-bucket"
	if _, ok := f.buckets[bucketName]; !ok {
		f.buckets[bucketName] = make(map[string][]byte)
	}
	return map[string]string{
		"bucketName":  bucketName,
		"workflowArn": "arn:aws:states:us-east-1:123456789012:stateMachine:" + req.Name,
	}, nil
}

func (f *fakeCloud) Teardown(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stacks, name)
	delete(f.buckets, name+"-bucket")
	return nil
}

func (f *fakeCloud) ListEphemeral(_ context.Context, _, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for name := range f.stacks {
		names = append(names, name)
	}
	return names, nil
}

// Object store probe surface.

func (f *fakeCloud) Exists(_ context.Context, bucket, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	objects, ok := f.buckets[bucket]
	if !ok {
		return false, nil
	}
	_, found := objects[key]
	return found, nil
}

func (f *fakeCloud) Put(_ context.Context, bucket, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[bucket]; !ok {
		f.buckets[bucket] = make(map[string][]byte)
	}
	f.buckets[bucket][key] = data
	return nil
}

func (f *fakeCloud) Content(_ context.Context, bucket, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.buckets[bucket][key]
	if !ok {
		return "", false
	}
	return string(data), true
}

// Workflow service surface: a durable echo workflow that turns RUNNING into
// SUCCEEDED on the second status poll.

type echoWorkflow struct {
	mu    sync.Mutex
	polls int
	input []byte
}

func (e *echoWorkflow) Mode(_ context.Context, _ string) (harness.ExecutionMode, error) {
	return harness.ModeDurable, nil
}

func (e *echoWorkflow) Start(_ context.Context, workflowID string, input []byte) (*harness.ExecutionHandle, error) {
	e.mu.Lock()
	e.input = input
	e.mu.Unlock()
	return &harness.ExecutionHandle{
		ID:         workflowID + ":exec-1",
		WorkflowID: workflowID,
		Mode:       harness.ModeDurable,
		StartedAt:  time.Now(),
	}, nil
}

func (e *echoWorkflow) Status(_ context.Context, _ *harness.ExecutionHandle) (*harness.ExecutionUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.polls++
	if e.polls < 2 {
		return &harness.ExecutionUpdate{Status: harness.StatusRunning}, nil
	}
	return &harness.ExecutionUpdate{Status: harness.StatusSucceeded, RawOutput: e.input}, nil
}

func (e *echoWorkflow) StartSync(_ context.Context, workflowID string, input []byte) (*harness.ExecutionHandle, *harness.ExecutionUpdate, error) {
	handle := &harness.ExecutionHandle{ID: workflowID + ":sync-1", WorkflowID: workflowID, Mode: harness.ModeFast, StartedAt: time.Now()}
	return handle, &harness.ExecutionUpdate{Status: harness.StatusSucceeded, RawOutput: input}, nil
}

func (e *echoWorkflow) ConsoleURL(_ *harness.ExecutionHandle) string { return "" }

// memorySnapshots is an in-memory snapshot store.
type memorySnapshots struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memorySnapshots) Get(_ context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.data[name]
	return content, ok, nil
}

func (m *memorySnapshots) Put(_ context.Context, name, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[name] = content
	return nil
}

// identity stub for deterministic naming.
type ciIdentity struct{}

func (ciIdentity) Principal(_ context.Context) (string, error) { return "ci", nil }

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	cloud := newFakeCloud()
	log := zerolog.Nop()

	// Setup: build a unit with one bucket and one echo workflow, deploy it,
	// and capture the outputs.
	construct := func(root *harness.Node, register func(map[string]string)) error {
		root.AddChild(harness.NewObjectStore("bucket", nil))
		root.AddChild(harness.NewResource("echo", "AWS::StepFunctions::StateMachine", nil))
		register(map[string]string{
			"bucketName":  "ref:bucket",
			"workflowArn": "ref:echo",
		})
		return nil
	}
	unit, err := harness.Build(ctx, "e2e demo", construct, harness.BuildOptions{Identity: ciIdentity{}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	registry := harness.NewOutputs()
	controller := harness.NewController(cloud, log)
	if _, err := controller.Deploy(ctx, unit, registry); err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	defer controller.Destroy(ctx, unit)

	bucketName, err := registry.Get("bucketName")
	if err != nil {
		t.Fatalf("bucketName not available: %v", err)
	}
	workflowArn, err := registry.Get("workflowArn")
	if err != nil {
		t.Fatalf("workflowArn not available: %v", err)
	}

	matchers := &match.Set{
		Objects:   cloud,
		Workflows: harness.NewClient(&echoWorkflow{}, log, harness.WithPollInterval(time.Millisecond)),
		Snapshots: &memorySnapshots{},
	}

	// The key does not exist before we write it.
	result, err := matchers.ObjectMissing(ctx, bucketName, "k")
	if err != nil || !result.Pass {
		t.Fatalf("expected k to be absent: (%+v, %v)", result, err)
	}

	// Write it, then existence and content both hold.
	if result, err = matchers.ObjectCreated(ctx, bucketName, "k", "hello"); err != nil || !result.Pass {
		t.Fatalf("put failed: (%+v, %v)", result, err)
	}
	if result, err = matchers.ObjectExists(ctx, bucketName, "k"); err != nil || !result.Pass {
		t.Fatalf("expected k to exist: (%+v, %v)", result, err)
	}
	if result, err = matchers.ObjectContent(ctx, bucketName, "k", "hello"); err != nil || !result.Pass {
		t.Fatalf("content mismatch: (%+v, %v)", result, err)
	}

	// The echo workflow completes with the input payload.
	result, err = matchers.WorkflowCompletes(ctx, workflowArn, []byte(`{"hello":"world"}`),
		map[string]any{"hello": "world"}, time.Second)
	if err != nil {
		t.Fatalf("WorkflowCompletes failed: %v", err)
	}
	if !result.Pass {
		t.Fatalf("workflow assertion failed: %s", result.Message)
	}

	// Teardown removes the stack.
	controller.Destroy(ctx, unit)
	names, _ := cloud.ListEphemeral(ctx, harness.MarkerTagKey, harness.MarkerTagValue)
	if len(names) != 0 {
		t.Errorf("stack not torn down: %v", names)
	}
}
