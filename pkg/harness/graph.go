package harness

import (
	"encoding/json"
	"fmt"
)

// RemovalPolicy controls what happens to a resource when its stack is
// deleted or the resource is replaced during an update.
type RemovalPolicy string

const (
	// RemovalDestroy deletes the resource with the stack.
	RemovalDestroy RemovalPolicy = "destroy"

	// RemovalRetain orphans the resource when the stack is deleted.
	RemovalRetain RemovalPolicy = "retain"

	// RemovalRetainOnReplace orphans the old resource when it is replaced
	// during an update.
	RemovalRetainOnReplace RemovalPolicy = "retain-on-replace"
)

// NodeKind is the tagged variant of a graph node for policy rewriting.
// Kinds are resolved by capability inspection when nodes are created, not by
// subclassing.
type NodeKind string

const (
	// KindConstruct is a grouping node that provisions nothing itself.
	KindConstruct NodeKind = "construct"

	// KindResource is a provisionable resource node.
	KindResource NodeKind = "resource"

	// KindObjectStore is an object-store container node. Subject to the
	// auto-purge rewrite in addition to the removal-policy rewrite.
	KindObjectStore NodeKind = "objectstore"
)

// Node is one node in a deployment unit's resource graph. The graph is a
// tree: each node is owned by exactly one parent.
type Node struct {
	// ID is the node identifier, unique among siblings.
	ID string `json:"id"`

	// Kind is the node variant for policy rewriting.
	Kind NodeKind `json:"kind"`

	// Type is the provisioning-level resource type (e.g. "AWS::S3::Bucket").
	// Empty for pure grouping nodes.
	Type string `json:"type,omitempty"`

	// Properties is the resource-specific configuration.
	Properties map[string]any `json:"properties,omitempty"`

	// DeletionPolicy controls resource fate on stack deletion.
	DeletionPolicy RemovalPolicy `json:"deletion_policy,omitempty"`

	// UpdateReplacePolicy controls resource fate on replacement.
	UpdateReplacePolicy RemovalPolicy `json:"update_replace_policy,omitempty"`

	// AutoPurgeObjects, on object-store nodes, empties the container before
	// deletion so the delete cannot fail on a non-empty container.
	AutoPurgeObjects bool `json:"auto_purge_objects,omitempty"`

	// Annotations are non-fatal advisory notes attached during rewriting.
	Annotations []string `json:"annotations,omitempty"`

	// Children are the nodes owned by this node. Sibling order carries no
	// meaning for rewriting.
	Children []*Node `json:"children,omitempty"`
}

// NewRoot creates the root grouping node of a resource graph.
func NewRoot(id string) *Node {
	return &Node{ID: id, Kind: KindConstruct}
}

// AddChild appends a child node and returns it.
func (n *Node) AddChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// NewResource creates a provisionable resource node.
func NewResource(id, resourceType string, props map[string]any) *Node {
	return &Node{ID: id, Kind: KindResource, Type: resourceType, Properties: props}
}

// NewObjectStore creates an object-store container node.
func NewObjectStore(id string, props map[string]any) *Node {
	return &Node{ID: id, Kind: KindObjectStore, Type: "AWS::S3::Bucket", Properties: props}
}

// Annotate attaches an advisory annotation to the node.
func (n *Node) Annotate(msg string) {
	n.Annotations = append(n.Annotations, msg)
}

// ApplyRemovalPolicies rewrites the graph in place so that no resource is
// retained after teardown: every retain-type deletion or replacement policy
// becomes RemovalDestroy, and every object-store node is set to purge its
// contents before deletion. The traversal visits each node exactly once;
// rewriting is node-local, so sibling order does not matter. Returns the
// number of nodes changed.
func ApplyRemovalPolicies(root *Node) int {
	if root == nil {
		return 0
	}

	rewritten := 0
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		changed := false
		if n.DeletionPolicy == RemovalRetain || n.DeletionPolicy == RemovalRetainOnReplace {
			n.DeletionPolicy = RemovalDestroy
			changed = true
		}
		if n.UpdateReplacePolicy == RemovalRetain || n.UpdateReplacePolicy == RemovalRetainOnReplace {
			n.UpdateReplacePolicy = RemovalDestroy
			changed = true
		}
		if n.Kind == KindObjectStore && !n.AutoPurgeObjects {
			n.AutoPurgeObjects = true
			n.Annotate("object store will be emptied and deleted on teardown")
			changed = true
		}
		if changed {
			rewritten++
		}

		stack = append(stack, n.Children...)
	}
	return rewritten
}

// Synthesize renders the unit's resource graph into a provisioning-ready
// template document.
func Synthesize(unit *DeploymentUnit) (*ProvisionRequest, error) {
	if unit == nil || unit.Root == nil {
		return nil, NewConfigurationError("deployment unit has no resource graph", nil)
	}

	resources := make(map[string]any)
	stack := []*Node{unit.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Type != "" {
			if _, ok := resources[n.ID]; ok {
				return nil, NewConfigurationError(fmt.Sprintf("duplicate resource id %q", n.ID), nil)
			}
			resources[n.ID] = synthesizeResource(n)
		}
		stack = append(stack, n.Children...)
	}

	doc := map[string]any{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Resources":                resources,
	}
	if len(unit.Outputs) > 0 {
		outputs := make(map[string]any, len(unit.Outputs))
		for name, expr := range unit.Outputs {
			outputs[name] = map[string]any{"Value": outputExpr(expr)}
		}
		doc["Outputs"] = outputs
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, NewConfigurationError("cannot serialize template", err)
	}

	return &ProvisionRequest{
		Name:         unit.Name,
		TemplateBody: string(body),
		Tags:         unit.Tags,
	}, nil
}

func synthesizeResource(n *Node) map[string]any {
	res := map[string]any{"Type": n.Type}
	props := make(map[string]any, len(n.Properties))
	for k, v := range n.Properties {
		props[k] = v
	}
	if n.AutoPurgeObjects {
		// Marker consumed by the bucket auto-purge hook; ignored by plain
		// resource types.
		props["EmptyOnDelete"] = true
	}
	if len(props) > 0 {
		res["Properties"] = props
	}
	if n.DeletionPolicy != "" {
		res["DeletionPolicy"] = templatePolicy(n.DeletionPolicy)
	}
	if n.UpdateReplacePolicy != "" {
		res["UpdateReplacePolicy"] = templatePolicy(n.UpdateReplacePolicy)
	}
	return res
}

// templatePolicy maps a removal policy to its template-document spelling.
func templatePolicy(p RemovalPolicy) string {
	if p == RemovalDestroy {
		return "Delete"
	}
	return "Retain"
}

// outputExpr maps a declared output expression to its template form. A value
// of the form "ref:<id>" references the named resource; anything else is a
// literal.
func outputExpr(expr string) any {
	const refPrefix = "ref:"
	if len(expr) > len(refPrefix) && expr[:len(refPrefix)] == refPrefix {
		return map[string]any{"Ref": expr[len(refPrefix):]}
	}
	return expr
}
