// Package sfn implements the harness WorkflowService against AWS Step
// Functions. Standard state machines map to the durable execution mode,
// express state machines to the fast mode.
package sfn
