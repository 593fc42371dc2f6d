package harness

import (
	"time"
)

// Tag keys attached to every deployment unit. The marker tag identifies
// stacks created by the harness so orphaned stacks can be swept; the group
// tag records which test group owns the unit.
const (
	MarkerTagKey   = "stackprobe:ephemeral"
	MarkerTagValue = "true"
	GroupTagKey    = "stackprobe:test-group"
)

// DeploymentUnit is one named, independently provisionable and destroyable
// collection of cloud resources. The unit owns its resource graph for its
// whole lifetime.
type DeploymentUnit struct {
	// Name is the derived, sanitized deployment name. Alphanumeric and
	// hyphens only; deterministic for the same (group, principal) pair so
	// repeated runs re-deploy the same remote stack instead of orphaning
	// a new one per run.
	Name string `json:"name"`

	// Group is the test group the unit was built for.
	Group string `json:"group"`

	// Tags are propagated to the remote stack. Always includes the marker
	// tag and the group tag.
	Tags map[string]string `json:"tags"`

	// Root is the root of the resource graph.
	Root *Node `json:"root"`

	// Outputs are the declared output expressions, keyed by logical name.
	Outputs map[string]string `json:"outputs"`
}

// ProvisionRequest is the synthesized, provisioning-ready form of a
// deployment unit handed to the control plane.
type ProvisionRequest struct {
	// Name is the remote stack name.
	Name string `json:"name"`

	// TemplateBody is the synthesized template document.
	TemplateBody string `json:"template_body"`

	// Tags are attached to the remote stack.
	Tags map[string]string `json:"tags"`
}

// ExecutionMode distinguishes the two workflow execution variants.
type ExecutionMode string

const (
	// ModeFast is the synchronous (express) variant: completion is observed
	// via a single blocking call.
	ModeFast ExecutionMode = "fast"

	// ModeDurable is the asynchronous (standard) variant: completion must be
	// observed via repeated status polling.
	ModeDurable ExecutionMode = "durable"
)

// ExecutionStatus is the status of a workflow execution.
type ExecutionStatus string

const (
	StatusRunning   ExecutionStatus = "RUNNING"
	StatusSucceeded ExecutionStatus = "SUCCEEDED"
	StatusFailed    ExecutionStatus = "FAILED"
	StatusTimedOut  ExecutionStatus = "TIMED_OUT"
	StatusAborted   ExecutionStatus = "ABORTED"
)

// Terminal reports whether the status is a terminal one.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimedOut, StatusAborted:
		return true
	}
	return false
}

// ExecutionHandle identifies one started workflow execution.
type ExecutionHandle struct {
	// ID is the execution identifier returned by the workflow service.
	ID string `json:"id"`

	// WorkflowID is the parent workflow identifier.
	WorkflowID string `json:"workflow_id"`

	// Mode is the detected execution mode.
	Mode ExecutionMode `json:"mode"`

	// StartedAt is when the execution was started.
	StartedAt time.Time `json:"started_at"`
}

// ExecutionUpdate is one observation of an execution's state, as reported by
// the workflow service.
type ExecutionUpdate struct {
	// Status is the reported execution status.
	Status ExecutionStatus `json:"status"`

	// RawOutput is the raw result payload, present once terminal.
	RawOutput []byte `json:"raw_output,omitempty"`

	// Cause is the failure cause reported by the service, if any.
	Cause string `json:"cause,omitempty"`
}

// ExecutionOutcome is the converged verdict of one workflow execution.
//
// Output is non-nil iff Status is StatusSucceeded.
type ExecutionOutcome struct {
	// Status is the terminal status.
	Status ExecutionStatus `json:"status"`

	// Output is the deserialized result payload on success.
	Output any `json:"output,omitempty"`

	// RawOutput is the raw result payload as returned by the service.
	RawOutput []byte `json:"raw_output,omitempty"`

	// Cause is the raw failure cause, if the service reported one.
	Cause string `json:"cause,omitempty"`

	// Handle identifies the observed execution, when one was started.
	Handle *ExecutionHandle `json:"handle,omitempty"`
}
