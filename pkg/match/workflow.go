package match

import (
	"context"
	"fmt"
	"time"

	"github.com/stackprobe/stackprobe/pkg/harness"
)

// WorkflowCompletes executes the workflow and asserts it reaches SUCCEEDED
// within the timeout. When expected is non-nil, the result payload is
// additionally compared by structural JSON equivalence; a nil expected means
// completion is sufficient and content goes unchecked.
//
// A FAILED or TIMED_OUT outcome is a failing Result carrying the raw output
// for diagnosis, not an error.
func (s *Set) WorkflowCompletes(ctx context.Context, workflowID string, input []byte, expected any, timeout time.Duration) (Result, error) {
	outcome, err := s.Workflows.Execute(ctx, workflowID, input, timeout)
	if err != nil {
		return Result{}, err
	}

	if outcome.Status != harness.StatusSucceeded {
		return s.record(Result{
			Pass:    false,
			Message: fmt.Sprintf("workflow %s finished with status %s: %s", workflowID, outcome.Status, outcome.Cause),
			Actual:  string(outcome.RawOutput),
		}), nil
	}

	if expected == nil {
		return s.record(Result{
			Pass:    true,
			Message: fmt.Sprintf("workflow %s succeeded", workflowID),
		}), nil
	}

	equal, err := StructuralEqual(outcome.Output, expected)
	if err != nil {
		return Result{}, err
	}
	if !equal {
		return s.record(Result{
			Pass:     false,
			Message:  fmt.Sprintf("workflow %s succeeded but its result does not match", workflowID),
			Actual:   renderJSON(outcome.Output),
			Expected: renderJSON(expected),
		}), nil
	}
	return s.record(Result{
		Pass:    true,
		Message: fmt.Sprintf("workflow %s succeeded with the expected result", workflowID),
	}), nil
}
