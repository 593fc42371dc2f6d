package harness

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/stackprobe/stackprobe/pkg/telemetry"
)

// DefaultPollInterval is the fixed sleep between durable-mode status polls.
const DefaultPollInterval = 5 * time.Second

// DefaultExecutionTimeout bounds how long Execute waits for a durable
// execution to reach a terminal state.
const DefaultExecutionTimeout = 60 * time.Second

// phase is the internal state of one Execute call.
type phase int

const (
	phaseUnstarted phase = iota
	phasePolling
	phaseTerminal
)

// Client drives remote workflow executions to a terminal outcome. Fast-mode
// workflows complete in a single blocking call; durable-mode workflows are
// polled at a fixed interval until terminal or the local deadline expires.
type Client struct {
	svc      WorkflowService
	log      zerolog.Logger
	metrics  *telemetry.Metrics
	interval time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPollInterval overrides the fixed poll interval.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.interval = d }
}

// WithClientMetrics installs a metrics recorder.
func WithClientMetrics(m *telemetry.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a workflow execution client.
func NewClient(svc WorkflowService, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		svc:      svc,
		log:      log.With().Str("component", "workflow-client").Logger(),
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute starts an execution of the workflow and converges to a terminal
// outcome. A zero timeout means DefaultExecutionTimeout.
//
// The timeout is a local completion deadline: when it expires the call
// returns a synthesized TIMED_OUT outcome and stops waiting, but no abort is
// sent to the remote execution, which may still be running. Status is always
// checked before the deadline is enforced, so a status that turns terminal
// in the same iteration the deadline expires is honored as the real outcome.
//
// A FAILED status from the service is a normal outcome, never an error; only
// infrastructure faults (mode detection, start or describe failures) return
// an error.
func (c *Client) Execute(ctx context.Context, workflowID string, input []byte, timeout time.Duration) (*ExecutionOutcome, error) {
	if timeout <= 0 {
		timeout = DefaultExecutionTimeout
	}

	mode, err := c.svc.Mode(ctx, workflowID)
	if err != nil {
		return nil, NewModeDetectionError(workflowID, err)
	}

	if mode == ModeFast {
		return c.executeSync(ctx, workflowID, input)
	}
	return c.executePolling(ctx, workflowID, input, timeout)
}

// executeSync is the fast-mode branch: one blocking call observes completion.
func (c *Client) executeSync(ctx context.Context, workflowID string, input []byte) (*ExecutionOutcome, error) {
	handle, update, err := c.svc.StartSync(ctx, workflowID, input)
	if err != nil {
		return nil, NewTransientError("synchronous execution call failed", err)
	}
	c.logConsoleURL(handle)
	return c.outcome(handle, update), nil
}

// executePolling is the durable-mode branch: start, then poll at a fixed
// interval until terminal or past the local deadline.
func (c *Client) executePolling(ctx context.Context, workflowID string, input []byte, timeout time.Duration) (*ExecutionOutcome, error) {
	state := phaseUnstarted

	handle, err := c.svc.Start(ctx, workflowID, input)
	if err != nil {
		return nil, NewTransientError("cannot start execution", err)
	}
	c.logConsoleURL(handle)
	deadline := handle.StartedAt.Add(timeout)
	state = phasePolling

	for state == phasePolling {
		update, err := c.svc.Status(ctx, handle)
		if err != nil {
			return nil, NewTransientError("cannot describe execution", err)
		}
		c.metrics.RecordWorkflowPoll(string(update.Status))

		// Terminal status wins even when the deadline expired in the same
		// iteration; the deadline only fires while still non-terminal.
		if update.Status.Terminal() {
			state = phaseTerminal
			return c.outcome(handle, update), nil
		}
		if time.Now().After(deadline) {
			c.log.Warn().
				Str("execution", handle.ID).
				Dur("timeout", timeout).
				Msg("Gave up waiting for execution; the remote run may still be in progress")
			state = phaseTerminal
			return &ExecutionOutcome{Status: StatusTimedOut, Handle: handle}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.interval):
		}
	}

	// Unreachable; the loop exits only through a terminal return.
	return nil, NewTransientError("polling loop ended without outcome", nil)
}

// outcome maps a terminal update to an execution outcome. The result payload
// is deserialized only on success.
func (c *Client) outcome(handle *ExecutionHandle, update *ExecutionUpdate) *ExecutionOutcome {
	out := &ExecutionOutcome{
		Status:    update.Status,
		RawOutput: update.RawOutput,
		Cause:     update.Cause,
		Handle:    handle,
	}
	if update.Status == StatusSucceeded && len(update.RawOutput) > 0 {
		var parsed any
		if err := json.Unmarshal(update.RawOutput, &parsed); err == nil {
			out.Output = parsed
		} else {
			// Non-JSON service output is kept raw as a string.
			out.Output = string(update.RawOutput)
		}
	}
	return out
}

func (c *Client) logConsoleURL(handle *ExecutionHandle) {
	if handle == nil {
		return
	}
	if url := c.svc.ConsoleURL(handle); url != "" {
		c.log.Info().
			Str("execution", handle.ID).
			Str("mode", string(handle.Mode)).
			Str("console", url).
			Msg("Execution started")
	}
}
