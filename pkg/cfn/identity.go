package cfn

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// stsAPI is the subset of the STS client used for identity resolution.
type stsAPI interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, opts ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Identity resolves the invoking principal from the AWS caller identity.
// Deployment names include the principal, so two engineers running the same
// test group target distinct remote stacks.
type Identity struct {
	client stsAPI
}

// NewIdentity creates an STS-backed identity resolver.
func NewIdentity(client stsAPI) *Identity {
	return &Identity{client: client}
}

// Principal returns the short name of the caller: the final path segment of
// the caller ARN (user name, role name, or session name).
func (i *Identity) Principal(ctx context.Context) (string, error) {
	out, err := i.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}
	arn := aws.ToString(out.Arn)
	if idx := strings.LastIndex(arn, "/"); idx >= 0 {
		return arn[idx+1:], nil
	}
	return aws.ToString(out.UserId), nil
}
