package harness

import (
	"context"
	"fmt"
)

// ConstructFn is the user-supplied construction callback. It receives the
// root of the unit's resource graph and a registration callback for output
// declarations. Each call to register declares every entry of the map as a
// retrievable output of the unit.
type ConstructFn func(root *Node, register func(outputs map[string]string)) error

// BuildOptions configures unit construction.
type BuildOptions struct {
	// Identity resolves the invoking principal for name derivation.
	// Defaults to EnvIdentity.
	Identity IdentityResolver

	// ExtraTags are merged into the unit's tag set. The marker and group
	// tags always win on conflict.
	ExtraTags map[string]string
}

// Build assembles a uniquely named, tagged deployment unit from the
// user-supplied construction callback. It invokes the callback against a
// fresh graph root, applies the removal-policy rewrite to the produced
// graph, and returns the unit ready for the deployment controller.
//
// Returns a configuration error when group is empty or the callback fails.
func Build(ctx context.Context, group string, construct ConstructFn, opts BuildOptions) (*DeploymentUnit, error) {
	if group == "" {
		return nil, NewConfigurationError("test group name is empty", nil)
	}
	if construct == nil {
		return nil, NewConfigurationError("construction callback is nil", nil)
	}

	identity := opts.Identity
	if identity == nil {
		identity = EnvIdentity{}
	}
	principal, err := identity.Principal(ctx)
	if err != nil {
		return nil, err
	}

	name := DeriveName(group, principal)
	if name == "" {
		return nil, NewConfigurationError(fmt.Sprintf("group %q derives an empty deployment name", group), nil)
	}

	unit := &DeploymentUnit{
		Name:    name,
		Group:   group,
		Root:    NewRoot(name),
		Tags:    map[string]string{},
		Outputs: map[string]string{},
	}
	for k, v := range opts.ExtraTags {
		unit.Tags[k] = v
	}
	unit.Tags[MarkerTagKey] = MarkerTagValue
	unit.Tags[GroupTagKey] = group

	register := func(outputs map[string]string) {
		for k, v := range outputs {
			unit.Outputs[k] = v
		}
	}
	if err := construct(unit.Root, register); err != nil {
		return nil, NewConfigurationError("construction callback failed", err)
	}

	ApplyRemovalPolicies(unit.Root)
	return unit, nil
}
