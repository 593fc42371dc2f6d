package harness

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of an error for retry logic.
type ErrorClass string

const (
	// ErrorClassTransient indicates a temporary failure that may succeed on
	// retry. Examples: network timeouts, temporary service unavailability.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassPermanent indicates a non-recoverable error.
	// Examples: invalid configuration, permission denied, provisioning failure.
	ErrorClassPermanent ErrorClass = "permanent"
)

// Common error codes.
const (
	ErrCodeConfiguration   = "CONFIGURATION_ERROR"
	ErrCodeDeployment      = "DEPLOYMENT_FAILED"
	ErrCodeOutputsNotFound = "OUTPUTS_NOT_FOUND"
	ErrCodeOutputNotReady  = "OUTPUT_NOT_READY"
	ErrCodeModeDetection   = "MODE_DETECTION_FAILED"
	ErrCodePolicyViolation = "POLICY_VIOLATION"
)

// Error represents a classified harness error with context.
type Error struct {
	// Class is the error classification for retry logic.
	Class ErrorClass `json:"class"`

	// Code is an error code for programmatic handling.
	Code string `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Unit is the deployment unit name involved, if applicable.
	Unit string `json:"unit,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("[%s] %s (unit=%s): %s", e.Code, e.Message, e.Unit, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithUnit adds deployment unit context to an error.
func (e *Error) WithUnit(name string) *Error {
	e.Unit = name
	return e
}

// NewConfigurationError reports invalid input to the orchestration layer.
// Configuration errors are fatal and surfaced immediately.
func NewConfigurationError(message string, err error) *Error {
	return &Error{Class: ErrorClassPermanent, Code: ErrCodeConfiguration, Message: message, Err: err}
}

// NewDeploymentError reports a provisioning failure from the control plane.
// Not retried by the controller; surfaced to the caller.
func NewDeploymentError(message string, err error) *Error {
	return &Error{Class: ErrorClassPermanent, Code: ErrCodeDeployment, Message: message, Err: err}
}

// NewOutputsNotFoundError reports that a deployed unit produced no recorded
// outputs under its name.
func NewOutputsNotFoundError(unit string) *Error {
	return &Error{
		Class:   ErrorClassPermanent,
		Code:    ErrCodeOutputsNotFound,
		Message: "deployment produced no outputs",
		Unit:    unit,
	}
}

// NewOutputNotReadyError reports a read from the output registry before the
// deployment populated it.
func NewOutputNotReadyError(name string) *Error {
	return &Error{
		Class:   ErrorClassPermanent,
		Code:    ErrCodeOutputNotReady,
		Message: fmt.Sprintf("output %q read before deployment completed", name),
	}
}

// NewModeDetectionError reports a failure to determine the execution mode of
// a workflow. Fatal to the call; never retried.
func NewModeDetectionError(workflowID string, err error) *Error {
	return &Error{
		Class:   ErrorClassPermanent,
		Code:    ErrCodeModeDetection,
		Message: fmt.Sprintf("cannot determine execution mode of workflow %q", workflowID),
		Err:     err,
	}
}

// NewTransientError reports a temporary infrastructure failure.
func NewTransientError(message string, err error) *Error {
	return &Error{Class: ErrorClassTransient, Message: message, Err: err}
}

// IsCode reports whether err carries the given harness error code.
func IsCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsConfiguration reports whether the error is a configuration error.
func IsConfiguration(err error) bool { return IsCode(err, ErrCodeConfiguration) }

// IsDeployment reports whether the error is a deployment failure.
func IsDeployment(err error) bool { return IsCode(err, ErrCodeDeployment) }

// IsOutputsNotFound reports whether the error is a missing-outputs failure.
func IsOutputsNotFound(err error) bool { return IsCode(err, ErrCodeOutputsNotFound) }

// IsOutputNotReady reports whether the error is an early registry read.
func IsOutputNotReady(err error) bool { return IsCode(err, ErrCodeOutputNotReady) }

// IsModeDetection reports whether the error is a mode detection failure.
func IsModeDetection(err error) bool { return IsCode(err, ErrCodeModeDetection) }

// IsRetryable reports whether the error may succeed on retry.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassTransient
	}
	return false
}
