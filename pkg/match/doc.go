// Package match exposes the object store probe and the workflow execution
// client as assertions. Every matcher returns a Result: an expected-state
// mismatch is a failing Result, never an error. Only genuine infrastructure
// faults (network, permissions, malformed identifiers) propagate as errors.
package match
