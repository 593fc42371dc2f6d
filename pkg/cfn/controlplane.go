package cfn

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stackprobe/stackprobe/pkg/harness"
)

// defaultPollInterval is the sleep between stack status polls.
const defaultPollInterval = 5 * time.Second

// api is the subset of the CloudFormation client used by the control plane.
type api interface {
	CreateStack(ctx context.Context, in *cloudformation.CreateStackInput, opts ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, in *cloudformation.UpdateStackInput, opts ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DeleteStack(ctx context.Context, in *cloudformation.DeleteStackInput, opts ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	DescribeStacks(ctx context.Context, in *cloudformation.DescribeStacksInput, opts ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// ControlPlane provisions deployment units as CloudFormation stacks.
// Provisioning is unattended: no change-set review, IAM capabilities granted
// up front. Re-provisioning an unchanged definition is a no-op update.
type ControlPlane struct {
	client   api
	log      zerolog.Logger
	interval time.Duration
}

// Option configures a ControlPlane.
type Option func(*ControlPlane)

// WithPollInterval overrides the stack status poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(cp *ControlPlane) { cp.interval = d }
}

// New creates a CloudFormation control plane.
func New(client api, log zerolog.Logger, opts ...Option) *ControlPlane {
	cp := &ControlPlane{
		client:   client,
		log:      log.With().Str("component", "cloudformation").Logger(),
		interval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(cp)
	}
	return cp
}

// Provision creates or updates the stack and blocks until it reaches a
// terminal status, then returns the stack outputs keyed by output name.
func (cp *ControlPlane) Provision(ctx context.Context, req *harness.ProvisionRequest) (map[string]string, error) {
	exists, err := cp.stackExists(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	if exists {
		cp.log.Debug().Str("stack", req.Name).Msg("Stack exists; submitting update")
		_, err = cp.client.UpdateStack(ctx, &cloudformation.UpdateStackInput{
			StackName:          aws.String(req.Name),
			TemplateBody:       aws.String(req.TemplateBody),
			Tags:               toTags(req.Tags),
			Capabilities:       []types.Capability{types.CapabilityCapabilityIam, types.CapabilityCapabilityNamedIam},
			ClientRequestToken: aws.String(token),
		})
		if err != nil {
			if isNoUpdates(err) {
				// Unchanged definition; outputs are already current.
				cp.log.Debug().Str("stack", req.Name).Msg("No changes to apply")
				return cp.readOutputs(ctx, req.Name)
			}
			return nil, err
		}
	} else {
		cp.log.Debug().Str("stack", req.Name).Msg("Submitting stack creation")
		_, err = cp.client.CreateStack(ctx, &cloudformation.CreateStackInput{
			StackName:          aws.String(req.Name),
			TemplateBody:       aws.String(req.TemplateBody),
			Tags:               toTags(req.Tags),
			Capabilities:       []types.Capability{types.CapabilityCapabilityIam, types.CapabilityCapabilityNamedIam},
			OnFailure:          types.OnFailureDelete,
			ClientRequestToken: aws.String(token),
		})
		if err != nil {
			return nil, err
		}
	}

	if err := cp.waitSettled(ctx, req.Name); err != nil {
		return nil, err
	}
	return cp.readOutputs(ctx, req.Name)
}

// Teardown deletes the stack and blocks until it is gone.
func (cp *ControlPlane) Teardown(ctx context.Context, name string) error {
	_, err := cp.client.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName:          aws.String(name),
		ClientRequestToken: aws.String(uuid.NewString()),
	})
	if err != nil {
		return err
	}

	for {
		stack, err := cp.describe(ctx, name)
		if err != nil {
			if isNotExists(err) {
				return nil
			}
			return err
		}
		switch stack.StackStatus {
		case types.StackStatusDeleteComplete:
			return nil
		case types.StackStatusDeleteFailed:
			return errors.New("stack deletion failed: " + statusReason(stack))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cp.interval):
		}
	}
}

// ListEphemeral returns the names of live stacks carrying the given tag.
func (cp *ControlPlane) ListEphemeral(ctx context.Context, tagKey, tagValue string) ([]string, error) {
	var names []string
	var next *string
	for {
		out, err := cp.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{NextToken: next})
		if err != nil {
			return nil, err
		}
		for _, stack := range out.Stacks {
			if stack.StackStatus == types.StackStatusDeleteComplete {
				continue
			}
			for _, tag := range stack.Tags {
				if aws.ToString(tag.Key) == tagKey && aws.ToString(tag.Value) == tagValue {
					names = append(names, aws.ToString(stack.StackName))
					break
				}
			}
		}
		if out.NextToken == nil {
			return names, nil
		}
		next = out.NextToken
	}
}

// waitSettled polls the stack until it reaches a terminal status.
func (cp *ControlPlane) waitSettled(ctx context.Context, name string) error {
	for {
		stack, err := cp.describe(ctx, name)
		if err != nil {
			return err
		}
		switch stack.StackStatus {
		case types.StackStatusCreateComplete, types.StackStatusUpdateComplete:
			return nil
		case types.StackStatusCreateFailed,
			types.StackStatusRollbackComplete,
			types.StackStatusRollbackFailed,
			types.StackStatusUpdateRollbackComplete,
			types.StackStatusUpdateRollbackFailed,
			types.StackStatusDeleteComplete,
			types.StackStatusDeleteFailed:
			return errors.New("stack settled in status " + string(stack.StackStatus) + ": " + statusReason(stack))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cp.interval):
		}
	}
}

func (cp *ControlPlane) readOutputs(ctx context.Context, name string) (map[string]string, error) {
	stack, err := cp.describe(ctx, name)
	if err != nil {
		return nil, err
	}
	outputs := make(map[string]string, len(stack.Outputs))
	for _, out := range stack.Outputs {
		outputs[aws.ToString(out.OutputKey)] = aws.ToString(out.OutputValue)
	}
	return outputs, nil
}

func (cp *ControlPlane) describe(ctx context.Context, name string) (*types.Stack, error) {
	out, err := cp.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Stacks) == 0 {
		return nil, errors.New("stack " + name + " not found")
	}
	return &out.Stacks[0], nil
}

func (cp *ControlPlane) stackExists(ctx context.Context, name string) (bool, error) {
	_, err := cp.describe(ctx, name)
	if err != nil {
		if isNotExists(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func toTags(tags map[string]string) []types.Tag {
	out := make([]types.Tag, 0, len(tags))
	for k, v := range tags {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return out
}

func statusReason(stack *types.Stack) string {
	if stack.StackStatusReason != nil {
		return *stack.StackStatusReason
	}
	return "no reason reported"
}

// isNotExists matches the ValidationError CloudFormation returns for
// DescribeStacks on an unknown stack name.
func isNotExists(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ValidationError" &&
			strings.Contains(apiErr.ErrorMessage(), "does not exist")
	}
	return false
}

// isNoUpdates matches the ValidationError for an UpdateStack with no changes.
func isNoUpdates(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ValidationError" &&
			strings.Contains(apiErr.ErrorMessage(), "No updates are to be performed")
	}
	return false
}
