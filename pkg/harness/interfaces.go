package harness

import (
	"context"
)

// ControlPlane provisions and tears down deployment units remotely.
// Implementations must be idempotent at the stack-name level: provisioning an
// unchanged definition again is a no-op update.
type ControlPlane interface {
	// Provision submits the unit for unattended provisioning and blocks until
	// the control plane reports a terminal state. On success it returns the
	// recorded output values keyed by logical output name.
	Provision(ctx context.Context, req *ProvisionRequest) (map[string]string, error)

	// Teardown requests full teardown of the named unit and blocks until the
	// control plane reports a terminal state.
	Teardown(ctx context.Context, name string) error

	// ListEphemeral returns the names of live stacks carrying the given tag.
	ListEphemeral(ctx context.Context, tagKey, tagValue string) ([]string, error)
}

// WorkflowService starts and observes remote workflow executions.
type WorkflowService interface {
	// Mode returns the declared execution mode of the workflow.
	Mode(ctx context.Context, workflowID string) (ExecutionMode, error)

	// Start begins a durable execution and returns its handle.
	Start(ctx context.Context, workflowID string, input []byte) (*ExecutionHandle, error)

	// Status reports the current state of a durable execution.
	Status(ctx context.Context, h *ExecutionHandle) (*ExecutionUpdate, error)

	// StartSync runs a fast execution to completion in a single blocking
	// call and returns its terminal state together with its handle.
	StartSync(ctx context.Context, workflowID string, input []byte) (*ExecutionHandle, *ExecutionUpdate, error)

	// ConsoleURL returns a human-navigable URL for the execution. Advisory
	// output for operator debugging, not part of the contract.
	ConsoleURL(h *ExecutionHandle) string
}

// IdentityResolver resolves the invoking principal's identity, used in
// deployment name derivation.
type IdentityResolver interface {
	// Principal returns a stable identifier for the calling principal.
	Principal(ctx context.Context) (string, error)
}
