package harness

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// Mock control plane for testing
type mockControlPlane struct {
	mu         sync.Mutex
	outputs    map[string]string
	provErr    error
	tearErr    error
	provisions []string
	teardowns  []string
	lastReq    *ProvisionRequest
}

func (m *mockControlPlane) Provision(_ context.Context, req *ProvisionRequest) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provisions = append(m.provisions, req.Name)
	m.lastReq = req
	if m.provErr != nil {
		return nil, m.provErr
	}
	return m.outputs, nil
}

func (m *mockControlPlane) Teardown(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardowns = append(m.teardowns, name)
	return m.tearErr
}

func (m *mockControlPlane) ListEphemeral(_ context.Context, _, _ string) ([]string, error) {
	return nil, nil
}

// rejectAllGate fails every template.
type rejectAllGate struct{}

func (rejectAllGate) Check(_ context.Context, _ string) error {
	return NewConfigurationError("rejected by gate", nil)
}

func testUnit() *DeploymentUnit {
	root := NewRoot("root")
	root.AddChild(NewObjectStore("bucket", nil))
	ApplyRemovalPolicies(root)
	return &DeploymentUnit{
		Name:    "demo-alice",
		Group:   "demo",
		Root:    root,
		Tags:    map[string]string{MarkerTagKey: MarkerTagValue},
		Outputs: map[string]string{"bucketName": "ref:bucket"},
	}
}

func TestControllerDeployPopulatesRegistry(t *testing.T) {
	cp := &mockControlPlane{outputs: map[string]string{"bucketName": "demo-bucket-xyz"}}
	controller := NewController(cp, zerolog.Nop())
	registry := NewOutputs()

	outputs, err := controller.Deploy(context.Background(), testUnit(), registry)
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if outputs["bucketName"] != "demo-bucket-xyz" {
		t.Errorf("unexpected outputs: %v", outputs)
	}
	got, err := registry.Get("bucketName")
	if err != nil || got != "demo-bucket-xyz" {
		t.Errorf("registry not populated: (%q, %v)", got, err)
	}
	if cp.lastReq.Tags[MarkerTagKey] != MarkerTagValue {
		t.Error("marker tag not propagated to the control plane")
	}
}

func TestControllerDeployFailure(t *testing.T) {
	cp := &mockControlPlane{provErr: errors.New("rollback complete")}
	controller := NewController(cp, zerolog.Nop())
	registry := NewOutputs()

	_, err := controller.Deploy(context.Background(), testUnit(), registry)
	if !IsDeployment(err) {
		t.Fatalf("expected deployment error, got %v", err)
	}
	if registry.Ready() {
		t.Error("registry populated despite failed deployment")
	}
}

func TestControllerDeployNoOutputs(t *testing.T) {
	cp := &mockControlPlane{outputs: map[string]string{}}
	controller := NewController(cp, zerolog.Nop())

	_, err := controller.Deploy(context.Background(), testUnit(), nil)
	if !IsOutputsNotFound(err) {
		t.Fatalf("expected outputs-not-found error, got %v", err)
	}
}

func TestControllerDeployGateBlocks(t *testing.T) {
	cp := &mockControlPlane{outputs: map[string]string{"a": "1"}}
	controller := NewController(cp, zerolog.Nop(), WithPolicyGate(rejectAllGate{}))

	_, err := controller.Deploy(context.Background(), testUnit(), nil)
	if !IsConfiguration(err) {
		t.Fatalf("expected gate rejection, got %v", err)
	}
	if len(cp.provisions) != 0 {
		t.Error("control plane reached despite gate rejection")
	}
}

func TestControllerDestroySwallowsFailure(t *testing.T) {
	cp := &mockControlPlane{tearErr: errors.New("delete failed")}
	controller := NewController(cp, zerolog.Nop())

	// Must not panic or propagate; failures are logged only.
	controller.Destroy(context.Background(), testUnit())

	if len(cp.teardowns) != 1 {
		t.Fatalf("expected one teardown call, got %d", len(cp.teardowns))
	}
}
