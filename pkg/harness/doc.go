// Package harness provides the core types and logic for the stackprobe
// integration test harness: building and tagging ephemeral deployment units,
// forcing deletion-safe resource policies, driving provisioning and teardown
// through a remote control plane, capturing deployment outputs, and waiting
// for remote workflow executions to reach a terminal state.
//
// The package defines the external collaborator contracts (ControlPlane,
// WorkflowService) as interfaces; the AWS-backed implementations live in
// pkg/cfn and pkg/sfn.
package harness
