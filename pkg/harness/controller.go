package harness

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stackprobe/stackprobe/pkg/telemetry"
)

// PolicyGate validates a synthesized template before submission. Violations
// block the deployment.
type PolicyGate interface {
	Check(ctx context.Context, templateBody string) error
}

// Controller drives provisioning and teardown of deployment units through
// the remote control plane. It assumes at most one concurrent Deploy per
// distinct derived name; concurrent test groups derive distinct names, so
// cross-group races cannot occur.
type Controller struct {
	cp      ControlPlane
	gate    PolicyGate
	log     zerolog.Logger
	metrics *telemetry.Metrics
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithPolicyGate installs a pre-deploy template gate.
func WithPolicyGate(g PolicyGate) ControllerOption {
	return func(c *Controller) { c.gate = g }
}

// WithMetrics installs a metrics recorder.
func WithMetrics(m *telemetry.Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// NewController creates a deployment controller.
func NewController(cp ControlPlane, log zerolog.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		cp:  cp,
		log: log.With().Str("component", "deploy-controller").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deploy synthesizes the unit, submits it for unattended provisioning, and
// on success populates the registry with the recorded outputs. Provisioning
// failures are not retried at this layer.
func (c *Controller) Deploy(ctx context.Context, unit *DeploymentUnit, registry *Outputs) (map[string]string, error) {
	req, err := Synthesize(unit)
	if err != nil {
		return nil, err
	}

	if c.gate != nil {
		if err := c.gate.Check(ctx, req.TemplateBody); err != nil {
			return nil, err
		}
	}

	c.log.Info().
		Str("unit", unit.Name).
		Str("group", unit.Group).
		Msg("Provisioning deployment unit")

	outputs, err := c.cp.Provision(ctx, req)
	if err != nil {
		c.metrics.RecordDeploy("failed")
		return nil, NewDeploymentError("control plane reported failure", err).WithUnit(unit.Name)
	}
	if len(outputs) == 0 {
		c.metrics.RecordDeploy("no_outputs")
		return nil, NewOutputsNotFoundError(unit.Name)
	}

	if registry != nil {
		registry.Set(outputs)
	}
	c.metrics.RecordDeploy("succeeded")
	c.log.Info().
		Str("unit", unit.Name).
		Int("outputs", len(outputs)).
		Msg("Deployment complete")
	return outputs, nil
}

// Destroy requests full teardown of the unit. Failures are logged and
// swallowed: a dangling resource must not fail an otherwise-passing suite.
func (c *Controller) Destroy(ctx context.Context, unit *DeploymentUnit) {
	c.log.Info().Str("unit", unit.Name).Msg("Destroying deployment unit")
	if err := c.cp.Teardown(ctx, unit.Name); err != nil {
		c.metrics.RecordDestroy("failed")
		c.log.Error().Err(err).Str("unit", unit.Name).Msg("Teardown failed; stack may need manual cleanup")
		return
	}
	c.metrics.RecordDestroy("succeeded")
}
