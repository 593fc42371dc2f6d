package policy

import (
	"time"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityWarning is for violations that should be reviewed but do not
	// block deployment.
	SeverityWarning Severity = "warning"

	// SeverityError is for violations that block deployment.
	SeverityError Severity = "error"
)

// Policy is one Rego policy evaluated against synthesized templates.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code. The policy package must expose a
	// deny set of violation objects.
	Rego string `json:"rego"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`
}

// Violation is one policy violation found in a template.
type Violation struct {
	// Policy is the name of the violated policy.
	Policy string `json:"policy"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity.
	Severity Severity `json:"severity"`

	// Resource is the template resource id that violated the policy.
	Resource string `json:"resource,omitempty"`
}

// Result is the outcome of evaluating all policies against one template.
type Result struct {
	// Allowed indicates whether the template may be deployed.
	Allowed bool `json:"allowed"`

	// Violations lists all violations found.
	Violations []Violation `json:"violations,omitempty"`

	// EvaluatedAt is when the evaluation ran.
	EvaluatedAt time.Time `json:"evaluated_at"`
}
