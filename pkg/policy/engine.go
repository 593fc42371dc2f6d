package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"

	"github.com/stackprobe/stackprobe/pkg/harness"
)

// Engine evaluates Rego policies against synthesized templates. It
// implements the harness PolicyGate.
type Engine struct {
	policies []compiledPolicy
	log      zerolog.Logger
}

// compiledPolicy is a policy with its prepared deny query.
type compiledPolicy struct {
	policy Policy
	query  rego.PreparedEvalQuery
}

// NewEngine creates a policy engine with the built-in policies.
func NewEngine(log zerolog.Logger) (*Engine, error) {
	return NewEngineWithPolicies(log, BuiltinPolicies())
}

// NewEngineWithPolicies creates a policy engine with the given policies.
func NewEngineWithPolicies(log zerolog.Logger, policies []Policy) (*Engine, error) {
	e := &Engine{
		log: log.With().Str("component", "policy-engine").Logger(),
	}
	ctx := context.Background()
	for _, p := range policies {
		if !p.Enabled {
			continue
		}
		query, err := rego.New(
			rego.Module(p.Name, p.Rego),
			rego.Query(fmt.Sprintf("data.%s.deny", extractPackageName(p.Rego))),
		).PrepareForEval(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to compile policy %q: %w", p.Name, err)
		}
		e.policies = append(e.policies, compiledPolicy{policy: p, query: query})
	}
	return e, nil
}

// Evaluate runs all policies against the parsed template document.
func (e *Engine) Evaluate(ctx context.Context, template map[string]any) (*Result, error) {
	input := map[string]any{"template": template}

	var violations []Violation
	for _, cp := range e.policies {
		results, err := cp.query.Eval(ctx, rego.EvalInput(input))
		if err != nil {
			return nil, fmt.Errorf("policy %q evaluation error: %w", cp.policy.Name, err)
		}
		for _, result := range results {
			for _, expr := range result.Expressions {
				denySet, ok := expr.Value.([]any)
				if !ok {
					continue
				}
				for _, d := range denySet {
					violations = append(violations, toViolation(cp.policy, d))
				}
			}
		}
	}

	allowed := true
	for i := range violations {
		if violations[i].Severity == SeverityError {
			allowed = false
			break
		}
	}

	e.log.Debug().
		Int("policies", len(e.policies)).
		Int("violations", len(violations)).
		Bool("allowed", allowed).
		Msg("Template policy evaluation completed")

	return &Result{Allowed: allowed, Violations: violations, EvaluatedAt: time.Now()}, nil
}

// Check parses the template body and evaluates all policies, returning a
// configuration error when a blocking violation is found.
func (e *Engine) Check(ctx context.Context, templateBody string) error {
	var template map[string]any
	if err := json.Unmarshal([]byte(templateBody), &template); err != nil {
		return harness.NewConfigurationError("template is not valid JSON", err)
	}

	result, err := e.Evaluate(ctx, template)
	if err != nil {
		return harness.NewConfigurationError("policy evaluation failed", err)
	}
	if result.Allowed {
		return nil
	}

	messages := make([]string, 0, len(result.Violations))
	for _, v := range result.Violations {
		messages = append(messages, fmt.Sprintf("%s: %s", v.Policy, v.Message))
	}
	return &harness.Error{
		Class:   harness.ErrorClassPermanent,
		Code:    harness.ErrCodePolicyViolation,
		Message: strings.Join(messages, "; "),
	}
}

// toViolation converts a deny-set entry to a Violation.
func toViolation(p Policy, raw any) Violation {
	v := Violation{Policy: p.Name, Severity: SeverityError}
	m, ok := raw.(map[string]any)
	if !ok {
		v.Message = fmt.Sprintf("%v", raw)
		return v
	}
	if msg, ok := m["message"].(string); ok {
		v.Message = msg
	}
	if sev, ok := m["severity"].(string); ok {
		v.Severity = Severity(sev)
	}
	if res, ok := m["resource"].(string); ok {
		v.Resource = res
	}
	return v
}

// extractPackageName returns the package declared in a Rego module.
func extractPackageName(regoSrc string) string {
	for _, line := range strings.Split(regoSrc, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "package ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "package "))
		}
	}
	return ""
}
