package match

import (
	"context"
	"io"
	"time"

	"github.com/stackprobe/stackprobe/pkg/harness"
	"github.com/stackprobe/stackprobe/pkg/telemetry"
)

// Result is the structured verdict of one assertion.
type Result struct {
	// Pass reports whether the assertion held.
	Pass bool `json:"pass"`

	// Message is a human-readable description of the verdict.
	Message string `json:"message"`

	// Actual is the observed payload, when the matcher compared payloads.
	Actual string `json:"actual,omitempty"`

	// Expected is the reference payload, when the matcher compared payloads.
	Expected string `json:"expected,omitempty"`

	// Diff is a precomputed line-level colored diff, when requested.
	Diff string `json:"diff,omitempty"`
}

// ObjectAPI is the probe surface the object matchers delegate to.
type ObjectAPI interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Put(ctx context.Context, bucket, key string, body io.Reader) error
	Content(ctx context.Context, bucket, key string) (string, bool)
}

// Runner is the workflow client surface the completion matcher delegates to.
type Runner interface {
	Execute(ctx context.Context, workflowID string, input []byte, timeout time.Duration) (*harness.ExecutionOutcome, error)
}

// SnapshotStore persists reference payloads for the snapshot matcher. How
// references are created and rotated is the store's concern; the matcher
// only needs pluggable lookup and record.
type SnapshotStore interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Put(ctx context.Context, name, content string) error
}

// Set bundles the collaborators the matchers run against.
type Set struct {
	// Objects serves the object matchers.
	Objects ObjectAPI

	// Workflows serves the workflow completion matcher.
	Workflows Runner

	// Snapshots serves the snapshot matcher.
	Snapshots SnapshotStore

	// UpdateSnapshots makes the snapshot matcher overwrite references
	// instead of comparing against them.
	UpdateSnapshots bool

	// Metrics optionally records assertion outcomes.
	Metrics *telemetry.Metrics
}

// record counts the result and returns it unchanged.
func (s *Set) record(r Result) Result {
	s.Metrics.RecordAssertion(r.Pass)
	return r
}
