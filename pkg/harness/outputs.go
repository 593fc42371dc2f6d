package harness

import (
	"sync"
)

// Outputs holds the captured deployment outputs for one test group. It is
// populated wholesale by the deployment controller once provisioning
// succeeds and read by every test body in the group. Concurrent reads are
// safe; a later Set overwrites the whole map (last write wins, supporting
// repeated setup within one group).
//
// The registry is an explicit context object passed into test bodies, never
// package-level state.
type Outputs struct {
	mu     sync.RWMutex
	values map[string]string
	ready  bool
}

// NewOutputs creates an empty, not-yet-populated output registry.
func NewOutputs() *Outputs {
	return &Outputs{}
}

// Set populates the registry with the deployment's output map, replacing any
// previous population.
func (o *Outputs) Set(values map[string]string) {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	o.mu.Lock()
	o.values = copied
	o.ready = true
	o.mu.Unlock()
}

// Get returns the value of a named output. Fails with an output-not-ready
// error when called before the deployment populated the registry.
func (o *Outputs) Get(name string) (string, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !o.ready {
		return "", NewOutputNotReadyError(name)
	}
	return o.values[name], nil
}

// Ready reports whether the registry has been populated.
func (o *Outputs) Ready() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ready
}
